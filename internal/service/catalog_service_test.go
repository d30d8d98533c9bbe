package service_test

import (
	"testing"
	"time"

	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/internal/service"
	"github.com/kratovich/reviewdb/internal/testutil"
	"github.com/kratovich/reviewdb/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	testDB         *testutil.TestDatabase
	catalogService *service.CatalogService
	reviewService  *service.ReviewService

	admin     *policy.Identity
	moderator *policy.Identity
	user      *policy.Identity
}

func (s *CatalogServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())

	categoryRepo := repository.NewCategoryRepository(s.testDB.DB)
	genreRepo := repository.NewGenreRepository(s.testDB.DB)
	titleRepo := repository.NewTitleRepository(s.testDB.DB)
	reviewRepo := repository.NewReviewRepository(s.testDB.DB)
	commentRepo := repository.NewCommentRepository(s.testDB.DB)

	s.catalogService = service.NewCatalogService(categoryRepo, genreRepo, titleRepo)
	s.reviewService = service.NewReviewService(titleRepo, reviewRepo, commentRepo)
}

func (s *CatalogServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *CatalogServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	s.admin = testutil.IdentityFor(testutil.CreateTestUser(s.T(), s.testDB.DB, "root", "r@x.com", models.RoleAdmin))
	s.moderator = testutil.IdentityFor(testutil.CreateTestUser(s.T(), s.testDB.DB, "mod", "m@x.com", models.RoleModerator))
	s.user = testutil.IdentityFor(testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", "a@x.com", models.RoleUser))
}

func (s *CatalogServiceTestSuite) TestCategoryMutationsAdminOnly() {
	_, err := s.catalogService.CreateCategory(s.user, "Movies", "movies")
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	// Moderators have no catalog authority
	_, err = s.catalogService.CreateCategory(s.moderator, "Movies", "movies")
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	_, err = s.catalogService.CreateCategory(nil, "Movies", "movies")
	s.Equal(apperr.KindAuthentication, apperr.KindOf(err))

	category, err := s.catalogService.CreateCategory(s.admin, "Movies", "movies")
	s.Require().NoError(err)
	s.Equal("movies", category.Slug)

	err = s.catalogService.DeleteCategory(s.moderator, "movies")
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	err = s.catalogService.DeleteCategory(s.admin, "movies")
	s.NoError(err)
}

func (s *CatalogServiceTestSuite) TestCategorySlugConflict() {
	_, err := s.catalogService.CreateCategory(s.admin, "Movies", "movies")
	s.Require().NoError(err)

	_, err = s.catalogService.CreateCategory(s.admin, "Films", "movies")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func (s *CatalogServiceTestSuite) TestSlugValidation() {
	_, err := s.catalogService.CreateCategory(s.admin, "Movies", "bad slug!")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	_, err = s.catalogService.CreateGenre(s.admin, "", "drama")
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
}

func (s *CatalogServiceTestSuite) TestCreateTitleResolvesRefs() {
	_, err := s.catalogService.CreateCategory(s.admin, "Movies", "movies")
	s.Require().NoError(err)
	_, err = s.catalogService.CreateGenre(s.admin, "Drama", "drama")
	s.Require().NoError(err)
	_, err = s.catalogService.CreateGenre(s.admin, "Sci-Fi", "sci-fi")
	s.Require().NoError(err)

	title, err := s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name:     "Solaris",
		Year:     1972,
		Category: "movies",
		Genres:   []string{"drama", "sci-fi"},
	})
	s.Require().NoError(err)
	s.Require().NotNil(title.Category)
	s.Equal("movies", title.Category.Slug)
	s.Len(title.Genres, 2)

	_, err = s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name:     "Nope",
		Year:     2000,
		Category: "missing",
	})
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	_, err = s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name:   "Nope",
		Year:   2000,
		Genres: []string{"missing"},
	})
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
}

func (s *CatalogServiceTestSuite) TestTitleYearBound() {
	_, err := s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name: "From the future",
		Year: time.Now().Year() + 1,
	})
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	_, err = s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name: "This year",
		Year: time.Now().Year(),
	})
	s.NoError(err)
}

func (s *CatalogServiceTestSuite) TestTitleMutationsAdminOnly() {
	title, err := s.catalogService.CreateTitle(s.admin, service.TitleInput{Name: "Solaris", Year: 1972})
	s.Require().NoError(err)

	_, err = s.catalogService.UpdateTitle(s.user, title.ID, service.TitleInput{Name: "Renamed"})
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	err = s.catalogService.DeleteTitle(s.moderator, title.ID)
	s.Equal(apperr.KindAuthorization, apperr.KindOf(err))

	updated, err := s.catalogService.UpdateTitle(s.admin, title.ID, service.TitleInput{Name: "Renamed"})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Name)

	s.NoError(s.catalogService.DeleteTitle(s.admin, title.ID))
}

func (s *CatalogServiceTestSuite) TestRatingAveragesScores() {
	title, err := s.catalogService.CreateTitle(s.admin, service.TitleInput{Name: "Solaris", Year: 1972})
	s.Require().NoError(err)

	// No reviews yet: rating is absent
	view, err := s.catalogService.GetTitle(title.ID)
	s.Require().NoError(err)
	s.Nil(view.Rating)

	_, err = s.reviewService.CreateReview(s.user, title.ID, "good", 6)
	s.Require().NoError(err)
	_, err = s.reviewService.CreateReview(s.moderator, title.ID, "great", 9)
	s.Require().NoError(err)

	view, err = s.catalogService.GetTitle(title.ID)
	s.Require().NoError(err)
	s.Require().NotNil(view.Rating)
	s.InDelta(7.5, *view.Rating, 0.001)
}

func (s *CatalogServiceTestSuite) TestDeleteCategoryKeepsTitles() {
	_, err := s.catalogService.CreateCategory(s.admin, "Movies", "movies")
	s.Require().NoError(err)

	title, err := s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name:     "Solaris",
		Year:     1972,
		Category: "movies",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.catalogService.DeleteCategory(s.admin, "movies"))

	view, err := s.catalogService.GetTitle(title.ID)
	s.Require().NoError(err)
	s.Nil(view.Category)
}

func (s *CatalogServiceTestSuite) TestDeleteTitleCascadesReviews() {
	title, err := s.catalogService.CreateTitle(s.admin, service.TitleInput{Name: "Solaris", Year: 1972})
	s.Require().NoError(err)

	review, err := s.reviewService.CreateReview(s.user, title.ID, "good", 6)
	s.Require().NoError(err)
	_, err = s.reviewService.CreateComment(s.moderator, title.ID, review.ID, "indeed")
	s.Require().NoError(err)

	s.Require().NoError(s.catalogService.DeleteTitle(s.admin, title.ID))

	var reviews, comments int64
	s.testDB.DB.Model(&models.Review{}).Count(&reviews)
	s.testDB.DB.Model(&models.Comment{}).Count(&comments)
	s.Equal(int64(0), reviews)
	s.Equal(int64(0), comments)
}

func (s *CatalogServiceTestSuite) TestListTitlesFilters() {
	_, err := s.catalogService.CreateCategory(s.admin, "Movies", "movies")
	s.Require().NoError(err)
	_, err = s.catalogService.CreateGenre(s.admin, "Drama", "drama")
	s.Require().NoError(err)

	_, err = s.catalogService.CreateTitle(s.admin, service.TitleInput{
		Name: "Solaris", Year: 1972, Category: "movies", Genres: []string{"drama"},
	})
	s.Require().NoError(err)
	_, err = s.catalogService.CreateTitle(s.admin, service.TitleInput{Name: "Stalker", Year: 1979})
	s.Require().NoError(err)

	views, total, err := s.catalogService.ListTitles(repository.TitleFilter{CategorySlug: "movies"}, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(views, 1)
	s.Equal("Solaris", views[0].Name)

	_, total, err = s.catalogService.ListTitles(repository.TitleFilter{GenreSlug: "drama"}, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	_, total, err = s.catalogService.ListTitles(repository.TitleFilter{Year: 1979}, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	_, total, err = s.catalogService.ListTitles(repository.TitleFilter{Name: "Sol"}, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
