package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/medscan-health/medscan-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrHospitalOnly       = errors.New("hospital access required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("role must be hospital or patient")
)

// UserStore defines the persistence operations the auth flows need
type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ListByRole(ctx context.Context, role user.Role) ([]*user.User, error)
}

var _ UserStore = (*user.Repository)(nil)

// RegisterInput carries registration fields; Role defaults to patient
type RegisterInput struct {
	Email    string
	Password string
	Role     user.Role
	FullName *string
	DOB      *time.Time
	Sex      *string
}

// LoginResult is a newly issued access token plus the authenticated user
type LoginResult struct {
	AccessToken string
	TokenType   string
	User        *user.User
}

// Service handles authentication business logic
type Service struct {
	users               UserStore
	tokens              TokenService
	accessTokenDuration time.Duration
}

func NewService(users UserStore, tokens TokenService, accessTokenDuration time.Duration) *Service {
	return &Service{
		users:               users,
		tokens:              tokens,
		accessTokenDuration: accessTokenDuration,
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	// Validate input
	if in.Email == "" {
		return nil, ErrEmailRequired
	}
	if len(in.Email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	if len(in.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	role := in.Role
	if role == "" {
		role = user.RolePatient
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.NewUser{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         role,
		FullName:     in.FullName,
		DOB:          in.DOB,
		Sex:          in.Sex,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates a user and issues an access token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existing.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !existing.IsActive {
		return nil, ErrInactiveUser
	}

	accessToken, err := s.tokens.CreateToken(existing.ID, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &LoginResult{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        existing,
	}, nil
}

// CurrentUser resolves a bearer token to its user. Any decode failure,
// and a subject that no longer exists, surface as ErrInvalidToken so the
// caller cannot probe which accounts exist.
func (s *Service) CurrentUser(ctx context.Context, tokenStr string) (*user.User, error) {
	claims, err := s.tokens.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return current, nil
}

// ListPatients returns all patient accounts; hospital role required
func (s *Service) ListPatients(ctx context.Context, current *user.User) ([]*user.User, error) {
	if current.Role != user.RoleHospital {
		return nil, ErrHospitalOnly
	}

	patients, err := s.users.ListByRole(ctx, user.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
