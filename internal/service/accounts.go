package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/raphaelgruber/carewatch/internal/db"
	"github.com/raphaelgruber/carewatch/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Password limits. bcrypt ignores bytes past 72.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// AccountService handles signup, login and profile lookup.
type AccountService struct {
	users  UserStore
	tokens *TokenService
	cost   int
}

// NewAccountService creates an account service.
func NewAccountService(users UserStore, tokens *TokenService) *AccountService {
	return &AccountService{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// SetCost overrides the bcrypt cost used for new passwords.
func (s *AccountService) SetCost(cost int) {
	s.cost = cost
}

// Session is returned on login.
type Session struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"user"`
}

// Signup creates an account. The email is stored lower-cased.
func (s *AccountService) Signup(ctx context.Context, in models.SignupInput) (*models.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.City = strings.TrimSpace(in.City)

	if err := validateSignup(in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.CreateUser(ctx, models.User{
		Name:          in.Name,
		Age:           in.Age,
		Email:         in.Email,
		ContactNumber: in.ContactNumber,
		City:          in.City,
		PasswordHash:  hash,
	})
	if errors.Is(err, db.ErrAlreadyExists) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	slog.Info("user signed up", "email", u.Email)
	p := u.Profile()
	return &p, nil
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, in models.LoginInput) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &Session{Token: token, Profile: u.Profile()}, nil
}

// Profile returns the public profile for email.
func (s *AccountService) Profile(ctx context.Context, email string) (*models.Profile, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("profile %s: %w", email, db.ErrNotFound)
	}
	p := u.Profile()
	return &p, nil
}

// Authenticate validates a session token and returns its claims.
func (s *AccountService) Authenticate(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func validateSignup(in models.SignupInput) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name", ErrMissingField)
	case in.Email == "":
		return fmt.Errorf("%w: email", ErrMissingField)
	case in.ContactNumber == "":
		return fmt.Errorf("%w: contact_number", ErrMissingField)
	case in.City == "":
		return fmt.Errorf("%w: city", ErrMissingField)
	case in.Password == "":
		return fmt.Errorf("%w: password", ErrMissingField)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email %q", ErrInvalidInput, in.Email)
	}
	if in.Age < 0 || in.Age > 120 {
		return fmt.Errorf("%w: age must be between 0 and 120", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password shorter than %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(in.Password) > MaxPasswordLength {
		return fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
