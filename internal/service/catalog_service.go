package service

import (
	"regexp"
	"time"

	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/pkg/logger"
	"go.uber.org/zap"
)

const (
	MaxNameLength = 256
	MaxSlugLength = 50
)

var slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// TitleInput is the mutable surface of a title. Genres reference existing
// genre slugs; Category references an existing category slug.
type TitleInput struct {
	Name        string
	Year        int
	Description string
	Category    string
	Genres      []string
}

// TitleView is a title with its computed rating (nil when unreviewed).
type TitleView struct {
	models.Title
	Rating *float64
}

// CatalogService manages categories, genres and titles. Mutations are
// admin-only per the authorization table; reads are public.
type CatalogService struct {
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
	titleRepo    *repository.TitleRepository
}

func NewCatalogService(
	categoryRepo *repository.CategoryRepository,
	genreRepo *repository.GenreRepository,
	titleRepo *repository.TitleRepository,
) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		titleRepo:    titleRepo,
	}
}

func validateNameSlug(name, slug string) error {
	if name == "" {
		return apperr.Validation("name is required")
	}
	if len(name) > MaxNameLength {
		return apperr.Validation("name must be at most %d characters", MaxNameLength)
	}
	if slug == "" {
		return apperr.Validation("slug is required")
	}
	if len(slug) > MaxSlugLength {
		return apperr.Validation("slug must be at most %d characters", MaxSlugLength)
	}
	if !slugRegex.MatchString(slug) {
		return apperr.Validation("slug contains invalid characters")
	}
	return nil
}

func (s *CatalogService) CreateCategory(caller *policy.Identity, name, slug string) (*models.Category, error) {
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}
	if err := policy.Check(caller, false, policy.ActionCreate, policy.ResourceCategory); err != nil {
		return nil, err
	}

	if existing, err := s.categoryRepo.GetBySlug(slug); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("category slug already exists")
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}

	logger.Log.Info("Category created", zap.String("slug", slug))
	return category, nil
}

func (s *CatalogService) ListCategories(search string, offset, limit int) ([]models.Category, int64, error) {
	return s.categoryRepo.List(search, offset, limit)
}

func (s *CatalogService) DeleteCategory(caller *policy.Identity, slug string) error {
	if err := policy.Check(caller, false, policy.ActionDelete, policy.ResourceCategory); err != nil {
		return err
	}

	category, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return err
	}
	if category == nil {
		return apperr.NotFound("category not found")
	}

	if err := s.categoryRepo.Delete(category.ID); err != nil {
		return err
	}

	logger.Log.Info("Category deleted", zap.String("slug", slug))
	return nil
}

func (s *CatalogService) CreateGenre(caller *policy.Identity, name, slug string) (*models.Genre, error) {
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}
	if err := policy.Check(caller, false, policy.ActionCreate, policy.ResourceGenre); err != nil {
		return nil, err
	}

	if existing, err := s.genreRepo.GetBySlug(slug); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("genre slug already exists")
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.Create(genre); err != nil {
		return nil, err
	}

	logger.Log.Info("Genre created", zap.String("slug", slug))
	return genre, nil
}

func (s *CatalogService) ListGenres(search string, offset, limit int) ([]models.Genre, int64, error) {
	return s.genreRepo.List(search, offset, limit)
}

func (s *CatalogService) DeleteGenre(caller *policy.Identity, slug string) error {
	if err := policy.Check(caller, false, policy.ActionDelete, policy.ResourceGenre); err != nil {
		return err
	}

	genre, err := s.genreRepo.GetBySlug(slug)
	if err != nil {
		return err
	}
	if genre == nil {
		return apperr.NotFound("genre not found")
	}

	if err := s.genreRepo.Delete(genre.ID); err != nil {
		return err
	}

	logger.Log.Info("Genre deleted", zap.String("slug", slug))
	return nil
}

func (s *CatalogService) validateTitleInput(in TitleInput) error {
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if len(in.Name) > MaxNameLength {
		return apperr.Validation("name must be at most %d characters", MaxNameLength)
	}
	if currentYear := time.Now().Year(); in.Year > currentYear {
		return apperr.Validation("year %d is in the future", in.Year)
	}
	return nil
}

// resolveRefs maps category and genre slugs to rows, failing validation on
// unknown slugs.
func (s *CatalogService) resolveRefs(in TitleInput) (*models.Category, []models.Genre, error) {
	var category *models.Category
	if in.Category != "" {
		var err error
		category, err = s.categoryRepo.GetBySlug(in.Category)
		if err != nil {
			return nil, nil, err
		}
		if category == nil {
			return nil, nil, apperr.Validation("unknown category %q", in.Category)
		}
	}

	genres := []models.Genre{}
	if len(in.Genres) > 0 {
		found, err := s.genreRepo.GetBySlugs(in.Genres)
		if err != nil {
			return nil, nil, err
		}
		bySlug := make(map[string]models.Genre, len(found))
		for _, g := range found {
			bySlug[g.Slug] = g
		}
		for _, slug := range in.Genres {
			g, ok := bySlug[slug]
			if !ok {
				return nil, nil, apperr.Validation("unknown genre %q", slug)
			}
			genres = append(genres, g)
		}
	}

	return category, genres, nil
}

func (s *CatalogService) CreateTitle(caller *policy.Identity, in TitleInput) (*TitleView, error) {
	if err := s.validateTitleInput(in); err != nil {
		return nil, err
	}
	if err := policy.Check(caller, false, policy.ActionCreate, policy.ResourceTitle); err != nil {
		return nil, err
	}

	category, genres, err := s.resolveRefs(in)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
		Genres:      genres,
	}
	if category != nil {
		title.CategoryID = &category.ID
		title.Category = category
	}

	if err := s.titleRepo.Create(title); err != nil {
		return nil, err
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
	)

	return &TitleView{Title: *title}, nil
}

func (s *CatalogService) GetTitle(id uint) (*TitleView, error) {
	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, apperr.NotFound("title not found")
	}

	rating, err := s.titleRepo.Rating(id)
	if err != nil {
		return nil, err
	}

	return &TitleView{Title: *title, Rating: rating}, nil
}

func (s *CatalogService) ListTitles(filter repository.TitleFilter, offset, limit int) ([]TitleView, int64, error) {
	titles, total, err := s.titleRepo.List(filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	ratings, err := s.titleRepo.Ratings(ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]TitleView, len(titles))
	for i, t := range titles {
		views[i] = TitleView{Title: t}
		if avg, ok := ratings[t.ID]; ok {
			r := avg
			views[i].Rating = &r
		}
	}

	return views, total, nil
}

// UpdateTitle applies a partial update; zero-valued input fields keep the
// current value, except Genres where a non-nil slice replaces the set.
func (s *CatalogService) UpdateTitle(caller *policy.Identity, id uint, in TitleInput) (*TitleView, error) {
	if err := policy.Check(caller, false, policy.ActionUpdate, policy.ResourceTitle); err != nil {
		return nil, err
	}

	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, apperr.NotFound("title not found")
	}

	if in.Name != "" {
		if len(in.Name) > MaxNameLength {
			return nil, apperr.Validation("name must be at most %d characters", MaxNameLength)
		}
		title.Name = in.Name
	}
	if in.Year != 0 {
		if currentYear := time.Now().Year(); in.Year > currentYear {
			return nil, apperr.Validation("year %d is in the future", in.Year)
		}
		title.Year = in.Year
	}
	if in.Description != "" {
		title.Description = in.Description
	}

	category, genres, err := s.resolveRefs(in)
	if err != nil {
		return nil, err
	}
	if category != nil {
		title.CategoryID = &category.ID
		title.Category = category
	}
	if in.Genres != nil {
		title.Genres = genres
	}

	if err := s.titleRepo.Update(title); err != nil {
		return nil, err
	}

	rating, err := s.titleRepo.Rating(id)
	if err != nil {
		return nil, err
	}

	return &TitleView{Title: *title, Rating: rating}, nil
}

func (s *CatalogService) DeleteTitle(caller *policy.Identity, id uint) error {
	if err := policy.Check(caller, false, policy.ActionDelete, policy.ResourceTitle); err != nil {
		return err
	}

	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		return err
	}
	if title == nil {
		return apperr.NotFound("title not found")
	}

	if err := s.titleRepo.Delete(id); err != nil {
		return err
	}

	logger.Log.Info("Title deleted", zap.Uint("title_id", id))
	return nil
}
