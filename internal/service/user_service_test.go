package service_test

import (
	"testing"

	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/internal/service"
	"github.com/kratovich/reviewdb/internal/testutil"
	"github.com/kratovich/reviewdb/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	userService *service.UserService

	admin *policy.Identity
	alice *policy.Identity
}

func (s *UserServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.userService = service.NewUserService(repository.NewUserRepository(s.testDB.DB))
}

func (s *UserServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *UserServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	s.admin = testutil.IdentityFor(testutil.CreateTestUser(s.T(), s.testDB.DB, "root", "r@x.com", models.RoleAdmin))
	s.alice = testutil.IdentityFor(testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", "a@x.com", models.RoleUser))
}

func (s *UserServiceTestSuite) TestDirectoryIsAdminOnly() {
	_, _, err := s.userService.List(s.alice, "", 0, 10)
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	_, _, err = s.userService.List(nil, "", 0, 10)
	s.Equal(apperr.KindAuthentication, apperr.KindOf(err))

	_, err = s.userService.Get(s.alice, "root")
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	users, total, err := s.userService.List(s.admin, "", 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(users, 2)
}

func (s *UserServiceTestSuite) TestListSearch() {
	_, total, err := s.userService.List(s.admin, "ali", 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *UserServiceTestSuite) TestAdminCreatesUserWithRole() {
	user, err := s.userService.Create(s.admin, "mod", "m@x.com", models.RoleModerator)
	s.Require().NoError(err)
	s.Equal(models.RoleModerator, user.Role)

	_, err = s.userService.Create(s.admin, "mod", "other@x.com", "")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	_, err = s.userService.Create(s.admin, "dave", "m@x.com", "")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	_, err = s.userService.Create(s.admin, "eve", "e@x.com", "owner")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
}

func (s *UserServiceTestSuite) TestAdminUpdatesRole() {
	role := models.RoleModerator
	user, err := s.userService.Update(s.admin, "alice", service.ProfileUpdate{Role: &role})
	s.Require().NoError(err)
	s.Equal(models.RoleModerator, user.Role)
}

func (s *UserServiceTestSuite) TestAdminDeleteUser() {
	s.Require().NoError(s.userService.Delete(s.admin, "alice"))

	_, err := s.userService.Get(s.admin, "alice")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))

	err = s.userService.Delete(s.admin, "ghost")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}

func (s *UserServiceTestSuite) TestMe() {
	me, err := s.userService.Me(s.alice)
	s.Require().NoError(err)
	s.Equal("alice", me.Username)

	_, err = s.userService.Me(nil)
	s.Equal(apperr.KindAuthentication, apperr.KindOf(err))
}

func (s *UserServiceTestSuite) TestUpdateMeCannotChangeRole() {
	bio := "reader of long novels"
	role := models.RoleAdmin

	me, err := s.userService.UpdateMe(s.alice, service.ProfileUpdate{Bio: &bio, Role: &role})
	s.Require().NoError(err)
	s.Equal("reader of long novels", me.Bio)

	// Role stays as it was, even though the update named one
	s.Equal(models.RoleUser, me.Role)
}

func (s *UserServiceTestSuite) TestUpdateEmailConflict() {
	email := "r@x.com"
	_, err := s.userService.UpdateMe(s.alice, service.ProfileUpdate{Email: &email})
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
