package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kratovich/reviewdb/internal/middleware"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/internal/service"
)

// CatalogHandler exposes categories, genres and titles. Reads are public;
// mutations go through the policy table (admin only).
type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

type NameSlugRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TitleRequest struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

func nameSlugJSON(name, slug string) gin.H {
	return gin.H{"name": name, "slug": slug}
}

func titleJSON(v *service.TitleView) gin.H {
	genres := make([]gin.H, len(v.Genres))
	for i, g := range v.Genres {
		genres[i] = nameSlugJSON(g.Name, g.Slug)
	}

	var category gin.H
	if v.Category != nil {
		category = nameSlugJSON(v.Category.Name, v.Category.Slug)
	}

	var rating any
	if v.Rating != nil {
		rating = *v.Rating
	}

	return gin.H{
		"id":          v.ID,
		"name":        v.Name,
		"year":        v.Year,
		"rating":      rating,
		"description": v.Description,
		"genre":       genres,
		"category":    category,
	}
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	offset, limit := pagination(c)
	categories, total, err := h.catalogService.ListCategories(c.Query("search"), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]gin.H, len(categories))
	for i, cat := range categories {
		results[i] = nameSlugJSON(cat.Name, cat.Slug)
	}
	respondPage(c, total, results)
}

// CreateCategory handles POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req NameSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	category, err := h.catalogService.CreateCategory(middleware.Identity(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, nameSlugJSON(category.Name, category.Slug))
}

// DeleteCategory handles DELETE /categories/:slug
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(middleware.Identity(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListGenres handles GET /genres
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	offset, limit := pagination(c)
	genres, total, err := h.catalogService.ListGenres(c.Query("search"), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]gin.H, len(genres))
	for i, g := range genres {
		results[i] = nameSlugJSON(g.Name, g.Slug)
	}
	respondPage(c, total, results)
}

// CreateGenre handles POST /genres
func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var req NameSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	genre, err := h.catalogService.CreateGenre(middleware.Identity(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, nameSlugJSON(genre.Name, genre.Slug))
}

// DeleteGenre handles DELETE /genres/:slug
func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	if err := h.catalogService.DeleteGenre(middleware.Identity(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTitles handles GET /titles with category/genre/name/year filters.
func (h *CatalogHandler) ListTitles(c *gin.Context) {
	offset, limit := pagination(c)

	filter := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		filter.Year = year
	}

	titles, total, err := h.catalogService.ListTitles(filter, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]gin.H, len(titles))
	for i := range titles {
		results[i] = titleJSON(&titles[i])
	}
	respondPage(c, total, results)
}

// CreateTitle handles POST /titles
func (h *CatalogHandler) CreateTitle(c *gin.Context) {
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title, err := h.catalogService.CreateTitle(middleware.Identity(c), titleInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, titleJSON(title))
}

// GetTitle handles GET /titles/:title_id
func (h *CatalogHandler) GetTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	title, err := h.catalogService.GetTitle(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, titleJSON(title))
}

// UpdateTitle handles PATCH /titles/:title_id
func (h *CatalogHandler) UpdateTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title, err := h.catalogService.UpdateTitle(middleware.Identity(c), id, titleInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, titleJSON(title))
}

// DeleteTitle handles DELETE /titles/:title_id
func (h *CatalogHandler) DeleteTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteTitle(middleware.Identity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func titleInput(req TitleRequest) service.TitleInput {
	return service.TitleInput{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	}
}
