package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/axellelanca/shortlink/internal/auth"
	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/logging"
	"github.com/axellelanca/shortlink/internal/models"
	"github.com/axellelanca/shortlink/internal/repository"
)

const minPasswordLength = 8

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

// AuthService registers accounts and opens/closes sessions.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenIssuer
	bcryptCost int
	validate   *validator.Validate
	log        *slog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer, bcryptCost int, log *slog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		log:        log,
	}
}

// Register creates an account. Username or email collisions return errors.ErrDuplicate.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := s.validateRegistration(username, email, password); err != nil {
		s.log.Warn("Validation failed", "event", logging.EventValidationError, "username", username, "error", err)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logging.UserActivity(s.log, username, "register")
	return user, nil
}

// Login checks the password and issues a token. Unknown users and wrong passwords
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return "", time.Time{}, err
		}
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return "", time.Time{}, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", time.Time{}, err
	}
	logging.UserActivity(s.log, user.Username, "login")
	return token, expiresAt, nil
}

// Logout revokes exactly this token; other sessions of the user stay valid.
func (s *AuthService) Logout(ctx context.Context, username, token string, expiresAt time.Time) error {
	if err := s.tokens.Revoke(ctx, token, expiresAt); err != nil {
		return err
	}
	logging.UserActivity(s.log, username, "logout")
	return nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	})
	return s.dummyHash
}

func (s *AuthService) validateRegistration(username, email, password string) error {
	var errs apperrors.ValidationErrors

	if !usernameRe.MatchString(username) {
		errs = append(errs, apperrors.ValidationError{Field: "username", Message: "Username must be 3 to 64 characters of letters, digits, '.', '_' or '-'"})
	}
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		errs = append(errs, apperrors.ValidationError{Field: "email", Message: "Must be a valid email address"})
	}
	errs = append(errs, passwordErrors(password)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// passwordErrors lists every unmet password rule.
func passwordErrors(password string) []apperrors.ValidationError {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	var errs []apperrors.ValidationError
	add := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, apperrors.ValidationError{Field: "password", Message: msg})
		}
	}
	add(len(password) >= minPasswordLength, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	add(len(password) <= 72, "Password must be at most 72 bytes long")
	add(upper, "Password must contain at least one uppercase letter")
	add(lower, "Password must contain at least one lowercase letter")
	add(digit, "Password must contain at least one number")
	add(special, "Password must contain at least one special character")
	return errs
}
