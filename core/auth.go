package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Roles embedded in issued tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an authenticated principal returned to handlers.
type User struct {
	ID        string
	Email     string
	Name      *string
	Role      string
	CreatedAt time.Time
}

var (
	// ErrInvalidCredentials is returned when email/password is wrong.
	// Unknown email and wrong password are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already taken")
)

// AuthService defines authentication behaviour.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (User, error)
	Register(ctx context.Context, email, password string, name *string) (User, error)
}

// RepositoryAuthService implements AuthService over a user repository.
type RepositoryAuthService struct {
	users UserRepository
}

func NewRepositoryAuthService(users UserRepository) *RepositoryAuthService {
	return &RepositoryAuthService{users: users}
}

// storeTimeout bounds a single repository call so a stuck store cannot hang
// the request forever.
const storeTimeout = 3 * time.Second

// Authenticate checks the password against the stored digest. Lookup miss and
// hash mismatch produce the same error so responses cannot enumerate users;
// store failures propagate unchanged so callers can tell them apart.
func (s *RepositoryAuthService) Authenticate(ctx context.Context, email, password string) (User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if u == nil {
		return User{}, ErrInvalidCredentials
	}

	if !CheckPassword(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}, nil
}

// Register hashes the password and persists a new user with the default role.
// A duplicate email surfaces as ErrEmailTaken; the existing record is untouched.
func (s *RepositoryAuthService) Register(ctx context.Context, email, password string, name *string) (User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	u, err := s.users.Create(ctx, email, hash, name, RoleUser)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}, nil
}
