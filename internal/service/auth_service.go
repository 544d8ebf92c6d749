package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"seedvault-server/internal/domain"
	"seedvault-server/internal/lockout"
	"seedvault-server/internal/repository"
	"seedvault-server/pkg/hash"
	"seedvault-server/pkg/jwt"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is the single error for a wrong email or a wrong
// password. Storage failures are reported separately and never count as
// authentication attempts.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	userRepo          repository.UserRepository
	auditRepo         repository.AuditRepository
	accounts          *lockout.Ledger
	origins           *lockout.Ledger
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	accounts, origins *lockout.Ledger,
	jwtSecret string,
	jwtExp, refreshExp time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		auditRepo:         auditRepo,
		accounts:          accounts,
		origins:           origins,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
	}
}

func (s *AuthService) Register(req *domain.RegisterRequest) error {
	emailExists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return fmt.Errorf("email already registered")
	}

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		Password:  hashedPassword,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Login verifies credentials for the account. Both lockout ledgers are
// consulted before the password hash is touched: a locked key is rejected
// without a bcrypt run and without revealing whether the account exists.
// Wrong email and wrong password produce the same generic error.
func (s *AuthService) Login(req *domain.LoginRequest, origin string) (*domain.LoginResponse, error) {
	if locked, remaining := s.accounts.Status(req.Email); locked {
		s.audit(req.Email, origin, domain.AuditLockout)
		return nil, &lockout.LockedError{Scope: "account", Remaining: remaining}
	}
	if locked, remaining := s.origins.Status(origin); locked {
		s.audit(req.Email, origin, domain.AuditLockout)
		return nil, &lockout.LockedError{Scope: "origin", Remaining: remaining}
	}

	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			// A storage failure is not a failed attempt: feeding it to the
			// ledgers would let a database outage lock accounts.
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		s.recordFailure(req.Email, origin)
		return nil, ErrInvalidCredentials
	}

	if err := hash.Compare(user.Password, req.Password); err != nil {
		s.recordFailure(req.Email, origin)
		return nil, ErrInvalidCredentials
	}

	s.accounts.Succeed(req.Email)
	s.origins.Succeed(origin)
	s.audit(req.Email, origin, domain.AuditLoginSuccess)

	accessToken, err := jwt.GenerateToken(user.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.refreshExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	user.Password = ""

	return &domain.LoginResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) RefreshToken(req *domain.RefreshTokenRequest) (*domain.TokenResponse, error) {
	claims, err := jwt.ValidateToken(req.RefreshToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	accessToken, err := jwt.GenerateToken(claims.UserID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// recordFailure updates both ledgers for one failed attempt. Each ledger
// decides locking on its own; either crossing its threshold is audited.
func (s *AuthService) recordFailure(email, origin string) {
	accountLocked, _ := s.accounts.Fail(email)
	originLocked, _ := s.origins.Fail(origin)

	s.audit(email, origin, domain.AuditLoginFailure)
	if accountLocked || originLocked {
		s.audit(email, origin, domain.AuditLockout)
	}
}

// audit is best effort: a broken audit store must not change login outcomes.
func (s *AuthService) audit(email, origin, event string) {
	if s.auditRepo == nil {
		return
	}
	err := s.auditRepo.Append(&domain.AuditEvent{
		ID:        uuid.New().String(),
		Email:     email,
		Origin:    origin,
		Event:     event,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Printf("failed to append audit event: %v", err)
	}
}
