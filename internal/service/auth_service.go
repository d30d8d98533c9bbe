package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/mailer"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/internal/utils"
	"github.com/kratovich/reviewdb/pkg/logger"
	"go.uber.org/zap"
)

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254

	// reservedUsername collides with the /users/me route.
	reservedUsername = "me"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type AuthService struct {
	userRepo      *repository.UserRepository
	mailer        mailer.Mailer
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(
	userRepo *repository.UserRepository,
	mailer mailer.Mailer,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		mailer:        mailer,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Signup registers a (username, email) pair and issues a one-time
// confirmation code delivered by mail. Re-signup with the exact same pair is
// idempotent and reissues a fresh code; a collision on either field alone is
// a conflict. The code is never returned to the caller.
func (s *AuthService) Signup(username, email string) (*models.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	byUsername, err := s.userRepo.GetByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to check username existence",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	byEmail, err := s.userRepo.GetByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	if byUsername != nil && byUsername.Email != email {
		return nil, apperr.Conflict("username already registered")
	}
	if byEmail != nil && byEmail.Username != username {
		return nil, apperr.Conflict("email already registered")
	}

	user := byUsername
	if user == nil {
		user = &models.User{
			ID:                   uuid.New(),
			Username:             username,
			Email:                email,
			Role:                 models.RoleUser,
			ConfirmationCodeHash: models.NoConfirmationCode,
		}
		if err := s.userRepo.Create(user); err != nil {
			logger.Log.Error("Failed to create user",
				zap.String("username", username),
				zap.Error(err),
			)
			return nil, err
		}
		logger.Log.Info("User created",
			zap.String("user_id", user.ID.String()),
			zap.String("username", username),
		)
	}

	code, err := utils.GenerateConfirmationCode()
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetConfirmationCodeHash(user.ID, hash); err != nil {
		logger.Log.Error("Failed to store confirmation code hash",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	// Best-effort delivery: a mail failure must not fail the signup.
	body := fmt.Sprintf("Your confirmation code is: %s", code)
	if err := s.mailer.Send(user.Email, "Your confirmation code", body); err != nil {
		logger.Log.Warn("Confirmation code delivery failed",
			zap.String("user_id", user.ID.String()),
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}

	logger.Log.Info("Confirmation code issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
	)

	return user, nil
}

// IssueToken exchanges a confirmation code for a bearer token. The stored
// code is consumed whatever the outcome: each signup grants exactly one
// verification attempt. Consumption is a conditional update on the observed
// hash, so concurrent exchanges with the same code yield at most one token.
func (s *AuthService) IssueToken(username, code string) (string, error) {
	if username == "" || code == "" {
		return "", apperr.Validation("username and confirmation_code are required")
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to get user by username",
			zap.String("username", username),
			zap.Error(err),
		)
		return "", err
	}
	if user == nil {
		return "", apperr.NotFound("user not found")
	}

	stored := user.ConfirmationCodeHash
	if stored == models.NoConfirmationCode {
		logger.Log.Warn("Token exchange with no outstanding code",
			zap.String("username", username),
		)
		return "", apperr.InvalidCredential("invalid confirmation_code")
	}

	match, err := utils.VerifyCode(code, stored)
	if err != nil {
		logger.Log.Error("Failed to verify confirmation code",
			zap.String("username", username),
			zap.Error(err),
		)
		return "", err
	}

	consumed, err := s.userRepo.ConsumeConfirmationCode(user.ID, stored)
	if err != nil {
		logger.Log.Error("Failed to consume confirmation code",
			zap.String("username", username),
			zap.Error(err),
		)
		return "", err
	}
	if !consumed {
		// Another exchange already burned this code.
		logger.Log.Warn("Lost confirmation code race",
			zap.String("username", username),
		)
		return "", apperr.InvalidCredential("invalid confirmation_code")
	}

	if !match {
		logger.Log.Warn("Confirmation code mismatch, code consumed",
			zap.String("username", username),
		)
		return "", apperr.InvalidCredential("invalid confirmation_code")
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	logger.Log.Info("Token issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
		zap.String("role", string(user.EffectiveRole())),
	)

	return token, nil
}

// ValidateUsername enforces the allowed character class, length bound and the
// reserved sentinel.
func ValidateUsername(username string) error {
	if username == "" {
		return apperr.Validation("username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperr.Validation("username must be at most %d characters", MaxUsernameLength)
	}
	if strings.EqualFold(username, reservedUsername) {
		return apperr.Validation("username %q is reserved", username)
	}
	if !usernameRegex.MatchString(username) {
		return apperr.Validation("username contains invalid characters")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if len(email) > MaxEmailLength {
		return apperr.Validation("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return apperr.Validation("invalid email format")
	}
	return nil
}
