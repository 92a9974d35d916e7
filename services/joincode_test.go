package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"truthordare/repository"
	"truthordare/repository/mocks"
)

func TestGenerateJoinCode_AlphabetAndLength(t *testing.T) {
	seen := map[byte]bool{}
	for i := 0; i < 2000; i++ {
		code, err := generateJoinCode()
		require.NoError(t, err)
		require.Len(t, code, JoinCodeLength)
		assert.True(t, IsValidJoinCode(code), code)
		for j := 0; j < len(code); j++ {
			require.True(t, strings.IndexByte(JoinCodeAlphabet, code[j]) >= 0)
			seen[code[j]] = true
		}
	}
	// 10000 draws over 62 symbols should hit nearly all of them.
	assert.Greater(t, len(seen), 55)
}

func TestIsValidJoinCode(t *testing.T) {
	assert.True(t, IsValidJoinCode("aZ09x"))
	assert.False(t, IsValidJoinCode("abcd"))
	assert.False(t, IsValidJoinCode("abcdef"))
	assert.False(t, IsValidJoinCode("ab-de"))
}

func sequenceDraw(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestJoinCodeAllocator_RedrawsOnProbeHit(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	rooms.On("JoinCodeExists", ctx, "aaaaa").Return(true, nil).Once()
	rooms.On("JoinCodeExists", ctx, "bbbbb").Return(false, nil).Once()

	alloc := NewJoinCodeAllocator(rooms)
	alloc.draw = sequenceDraw("aaaaa", "bbbbb")

	var written string
	err := alloc.AllocateWith(ctx, func(code string) error {
		written = code
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "bbbbb", written)
	rooms.AssertExpectations(t)
}

func TestJoinCodeAllocator_ExhaustedAfterThreeAttempts(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	rooms.On("JoinCodeExists", ctx, mock.Anything).Return(true, nil).Times(3)

	alloc := NewJoinCodeAllocator(rooms)
	alloc.draw = sequenceDraw("aaaaa")

	err := alloc.AllocateWith(ctx, func(string) error {
		t.Fatal("write called for a taken code")
		return nil
	})
	require.Error(t, err)
	appErr := AsAppError(err)
	assert.Equal(t, CodeGenerationFailed, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	rooms.AssertNumberOfCalls(t, "JoinCodeExists", 3)
}

func TestJoinCodeAllocator_WriteConflictCountsAsCollision(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	rooms.On("JoinCodeExists", ctx, mock.Anything).Return(false, nil)

	alloc := NewJoinCodeAllocator(rooms)
	alloc.draw = sequenceDraw("aaaaa", "bbbbb")

	var writes []string
	err := alloc.AllocateWith(ctx, func(code string) error {
		writes = append(writes, code)
		if code == "aaaaa" {
			return &repository.ConstraintError{Err: repository.ErrDuplicateEntry, Constraint: repository.ConstraintRoomJoinCode}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaa", "bbbbb"}, writes)
}

func TestJoinCodeAllocator_OtherWriteErrorsStop(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	rooms.On("JoinCodeExists", ctx, mock.Anything).Return(false, nil)

	alloc := NewJoinCodeAllocator(rooms)
	alloc.draw = sequenceDraw("aaaaa")

	boom := errors.New("boom")
	calls := 0
	err := alloc.AllocateWith(ctx, func(string) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestJoinCodeAllocator_ProbeFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	rooms.On("JoinCodeExists", ctx, mock.Anything).Return(false, errors.New("db down"))

	alloc := NewJoinCodeAllocator(rooms)
	err := alloc.AllocateWith(ctx, func(string) error { return nil })

	assert.True(t, HasCode(err, CodeInternal))
}
