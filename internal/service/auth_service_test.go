package service_test

import (
	"testing"
	"time"

	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/internal/service"
	"github.com/kratovich/reviewdb/internal/testutil"
	"github.com/kratovich/reviewdb/internal/utils"
	"github.com/kratovich/reviewdb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	userRepo    *repository.UserRepository
	mailer      *testutil.CaptureMailer
	authService *service.AuthService
}

func (s *AuthServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.userRepo = repository.NewUserRepository(s.testDB.DB)
}

func (s *AuthServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *AuthServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.mailer = &testutil.CaptureMailer{}
	s.authService = service.NewAuthService(s.userRepo, s.mailer, "test-secret-key", time.Hour)
}

func (s *AuthServiceTestSuite) TestSignupCreatesUserAndMailsCode() {
	user, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)

	s.Equal("alice", user.Username)
	s.Equal("a@x.com", user.Email)
	s.Equal(models.RoleUser, user.Role)

	s.Require().Len(s.mailer.Messages, 1)
	s.Equal("a@x.com", s.mailer.Messages[0].To)

	code := s.mailer.LastCode(s.T())
	s.Len(code, utils.CodeLength)

	// Only the hash is stored
	stored, err := s.userRepo.GetByUsername("alice")
	s.Require().NoError(err)
	s.NotEqual(models.NoConfirmationCode, stored.ConfirmationCodeHash)
	s.NotContains(stored.ConfirmationCodeHash, code)
}

func (s *AuthServiceTestSuite) TestSignupIdempotentForSamePair() {
	_, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)

	_, err = s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)

	var count int64
	s.testDB.DB.Model(&models.User{}).Count(&count)
	s.Equal(int64(1), count)

	// Each signup issues a fresh code
	s.Len(s.mailer.Messages, 2)
}

func (s *AuthServiceTestSuite) TestSignupReissueInvalidatesOldCode() {
	_, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)
	oldCode := s.mailer.LastCode(s.T())

	_, err = s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)
	newCode := s.mailer.LastCode(s.T())

	_, err = s.authService.IssueToken("alice", oldCode)
	s.Equal(apperr.KindInvalidCredential, apperr.KindOf(err))

	// The failed attempt consumed the new code as well
	_, err = s.authService.IssueToken("alice", newCode)
	s.Equal(apperr.KindInvalidCredential, apperr.KindOf(err))
}

func (s *AuthServiceTestSuite) TestSignupUsernameConflict() {
	_, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)

	_, err = s.authService.Signup("alice", "other@x.com")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
	s.Contains(err.Error(), "username")
}

func (s *AuthServiceTestSuite) TestSignupEmailConflict() {
	_, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)

	_, err = s.authService.Signup("bob", "a@x.com")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
	s.Contains(err.Error(), "email")
}

func (s *AuthServiceTestSuite) TestSignupReservedUsername() {
	for _, username := range []string{"me", "Me", "ME", "mE"} {
		_, err := s.authService.Signup(username, "me@x.com")
		s.Equal(apperr.KindValidation, apperr.KindOf(err), "username %q", username)
	}

	var count int64
	s.testDB.DB.Model(&models.User{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *AuthServiceTestSuite) TestSignupValidation() {
	cases := []struct {
		name     string
		username string
		email    string
	}{
		{"empty username", "", "a@x.com"},
		{"invalid characters", "al ice!", "a@x.com"},
		{"empty email", "alice", ""},
		{"malformed email", "alice", "not-an-email"},
	}

	for _, tc := range cases {
		_, err := s.authService.Signup(tc.username, tc.email)
		s.Equal(apperr.KindValidation, apperr.KindOf(err), tc.name)
	}
}

func (s *AuthServiceTestSuite) TestSignupSurvivesMailerFailure() {
	s.mailer.Fail = true

	user, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
}

func (s *AuthServiceTestSuite) TestTokenExchangeSucceedsExactlyOnce() {
	_, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)
	code := s.mailer.LastCode(s.T())

	token, err := s.authService.IssueToken("alice", code)
	s.Require().NoError(err)
	s.NotEmpty(token)

	claims, err := utils.ValidateToken(token, "test-secret-key")
	s.Require().NoError(err)
	s.Equal("alice", claims.Username)
	s.Equal(models.RoleUser, claims.Role)

	// Same code again: the one-shot property holds
	_, err = s.authService.IssueToken("alice", code)
	s.Equal(apperr.KindInvalidCredential, apperr.KindOf(err))
}

func (s *AuthServiceTestSuite) TestTokenExchangeWrongCodeBurnsCode() {
	_, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)
	code := s.mailer.LastCode(s.T())

	_, err = s.authService.IssueToken("alice", "WRONGWRONGWRONG2")
	s.Equal(apperr.KindInvalidCredential, apperr.KindOf(err))

	// The correct code is now unusable too
	_, err = s.authService.IssueToken("alice", code)
	s.Equal(apperr.KindInvalidCredential, apperr.KindOf(err))

	stored, err := s.userRepo.GetByUsername("alice")
	s.Require().NoError(err)
	s.Equal(models.NoConfirmationCode, stored.ConfirmationCodeHash)
}

func (s *AuthServiceTestSuite) TestTokenExchangeUnknownUser() {
	_, err := s.authService.IssueToken("ghost", "ABCDEFGHJK234567")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}

func (s *AuthServiceTestSuite) TestTokenExchangeRequiresBothFields() {
	_, err := s.authService.IssueToken("", "ABCDEFGHJK234567")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	_, err = s.authService.IssueToken("alice", "")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
}

func (s *AuthServiceTestSuite) TestConsumeConfirmationCodeIsConditional() {
	user, err := s.authService.Signup("alice", "a@x.com")
	s.Require().NoError(err)

	stored, err := s.userRepo.GetByUsername("alice")
	s.Require().NoError(err)

	// First consume wins, second observes the sentinel and loses
	won, err := s.userRepo.ConsumeConfirmationCode(user.ID, stored.ConfirmationCodeHash)
	s.Require().NoError(err)
	s.True(won)

	won, err = s.userRepo.ConsumeConfirmationCode(user.ID, stored.ConfirmationCodeHash)
	s.Require().NoError(err)
	s.False(won)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, service.ValidateUsername("alice.b+c@d-e_f"))
	assert.Error(t, service.ValidateUsername("has space"))
	assert.Error(t, service.ValidateUsername("me"))
}
