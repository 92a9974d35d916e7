package services

import (
	"context"
	"crypto/rand"
	"math/big"

	"truthordare/metrics"
	"truthordare/repository"
)

const (
	JoinCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	JoinCodeLength   = 5
	joinCodeAttempts = 3
)

// JoinCodeProber reports whether a join code is already held by a room.
type JoinCodeProber interface {
	JoinCodeExists(ctx context.Context, code string) (bool, error)
}

// JoinCodeAllocator hands out join codes for private rooms. The unique index
// on rooms.join_code decides collisions; the probe only saves a failed write.
type JoinCodeAllocator struct {
	prober   JoinCodeProber
	attempts int
	draw     func() (string, error)
}

func NewJoinCodeAllocator(prober JoinCodeProber) *JoinCodeAllocator {
	return &JoinCodeAllocator{
		prober:   prober,
		attempts: joinCodeAttempts,
		draw:     generateJoinCode,
	}
}

// AllocateWith draws codes and hands each free one to write. A write that
// fails on the join code unique constraint counts as a collision and uses up
// one attempt, as does a probe hit.
func (a *JoinCodeAllocator) AllocateWith(ctx context.Context, write func(code string) error) error {
	for attempt := 0; attempt < a.attempts; attempt++ {
		code, err := a.draw()
		if err != nil {
			return Internal(err)
		}

		taken, err := a.prober.JoinCodeExists(ctx, code)
		if err != nil {
			return Internal(err)
		}
		if taken {
			metrics.JoinCodeCollisionsTotal.Inc()
			continue
		}

		err = write(code)
		if repository.IsConstraint(err, repository.ConstraintRoomJoinCode) {
			metrics.JoinCodeCollisionsTotal.Inc()
			continue
		}
		return err
	}
	return generationFailed(a.attempts)
}

// generateJoinCode draws uniformly from the alphabet using crypto/rand.
// rand.Int rejects out-of-range samples, so there is no modulo bias.
func generateJoinCode() (string, error) {
	max := big.NewInt(int64(len(JoinCodeAlphabet)))
	buf := make([]byte, JoinCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = JoinCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// IsValidJoinCode reports whether code has the shape of a generated join code.
func IsValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
