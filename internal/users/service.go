package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidInput wraps field validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidPassword indicates the current password did not match.
	ErrInvalidPassword = errors.New("current password is incorrect")
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetProfile(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*User, error)
	PasswordHash(ctx context.Context, id string) (string, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	cost     int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New(), cost: bcrypt.DefaultCost}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Profile returns the profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile validates and stores profile changes.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := s.check(in); err != nil {
		return nil, err
	}
	return s.repo.UpdateProfile(ctx, userID, in)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID string, in PasswordChange) error {
	if err := s.check(in); err != nil {
		return err
	}
	hash, err := s.repo.PasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.CurrentPassword)); err != nil {
		return ErrInvalidPassword
	}
	next, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// max=72 counts runes; bcrypt limits bytes.
		return fmt.Errorf("%w: NewPassword failed max", ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, userID, string(next))
}

func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, fieldErrs[0].Field(), fieldErrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
