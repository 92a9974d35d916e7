package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"truthordare/logger"
	"truthordare/models"
	"truthordare/repository"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cache    *sessionCache
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	redisClient *redis.Client,
	jwtSecret string,
	ttl time.Duration,
) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		cache:    &sessionCache{client: redisClient, log: logger.Component("session_cache")},
		secret:   []byte(jwtSecret),
		ttl:      ttl,
		now:      time.Now,
	}
}

type SignUpInput struct {
	Name     string  `json:"name" validate:"required,notblank,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Image    *string `json:"image" validate:"omitempty,url"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ClientMeta is recorded on the session row.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type SessionInfo struct {
	Session *models.Session `json:"session"`
	User    *models.User    `json:"user"`
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, meta ClientMeta) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, duplicateEmail()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal(err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Image:        in.Image,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsConstraint(err, repository.ConstraintUserEmail) {
			return nil, duplicateEmail()
		}
		return nil, Internal(err)
	}
	return s.startSession(ctx, user, meta)
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput, meta ClientMeta) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, invalidCredentials()
	}
	return s.startSession(ctx, user, meta)
}

func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	s.cache.del(ctx, sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return Internal(err)
	}
	return nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*SessionInfo, error) {
	if token == "" {
		return nil, Unauthorized("Authentication required")
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.SessionID == "" {
		return nil, Unauthorized("Invalid or expired session")
	}

	now := s.now()
	if info, ok := s.cache.get(ctx, claims.SessionID); ok {
		if info.User != nil && info.User.ID == claims.Subject && !info.Session.Expired(now) {
			return info, nil
		}
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Unauthorized("Invalid or expired session")
		}
		return nil, Internal(err)
	}
	if session.UserID != claims.Subject {
		return nil, Unauthorized("Invalid or expired session")
	}
	if session.Expired(now) {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, Unauthorized("Invalid or expired session")
	}

	user := session.User
	info := &SessionInfo{Session: session, User: &user}
	s.cache.set(ctx, info, session.ExpiresAt.Sub(now))
	return info, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, meta ClientMeta) (*AuthResult, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, Internal(err)
	}

	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, Internal(err)
	}

	session.User = *user
	s.cache.set(ctx, &SessionInfo{Session: session, User: user}, s.ttl)
	return &AuthResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func duplicateEmail() *AppError {
	return Conflict(CodeDuplicateEmail, "An account with this email already exists")
}

func invalidCredentials() *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid email or password"}
}
