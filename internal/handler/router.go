package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kratovich/reviewdb/internal/middleware"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Catalog *CatalogHandler
	Review  *ReviewHandler
}

// RegisterRoutes mounts the API under /api/v1. authLimiter guards the
// signup/token endpoints and may be nil (tests, no Redis).
func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string, authLimiter gin.HandlerFunc) {
	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	if authLimiter != nil {
		auth.Use(authLimiter)
	}
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/token", h.Auth.Token)

	// Everything else runs with an optional identity; the policy layer
	// decides per action whether anonymous access suffices.
	api := v1.Group("")
	api.Use(middleware.OptionalAuth(jwtSecret))

	api.GET("/users/me", h.User.Me)
	api.PATCH("/users/me", h.User.UpdateMe)
	api.GET("/users", h.User.List)
	api.POST("/users", h.User.Create)
	api.GET("/users/:username", h.User.Get)
	api.PATCH("/users/:username", h.User.Update)
	api.DELETE("/users/:username", h.User.Delete)

	api.GET("/categories", h.Catalog.ListCategories)
	api.POST("/categories", h.Catalog.CreateCategory)
	api.DELETE("/categories/:slug", h.Catalog.DeleteCategory)

	api.GET("/genres", h.Catalog.ListGenres)
	api.POST("/genres", h.Catalog.CreateGenre)
	api.DELETE("/genres/:slug", h.Catalog.DeleteGenre)

	api.GET("/titles", h.Catalog.ListTitles)
	api.POST("/titles", h.Catalog.CreateTitle)
	api.GET("/titles/:title_id", h.Catalog.GetTitle)
	api.PATCH("/titles/:title_id", h.Catalog.UpdateTitle)
	api.DELETE("/titles/:title_id", h.Catalog.DeleteTitle)

	api.GET("/titles/:title_id/reviews", h.Review.ListReviews)
	api.POST("/titles/:title_id/reviews", h.Review.CreateReview)
	api.GET("/titles/:title_id/reviews/:review_id", h.Review.GetReview)
	api.PATCH("/titles/:title_id/reviews/:review_id", h.Review.UpdateReview)
	api.DELETE("/titles/:title_id/reviews/:review_id", h.Review.DeleteReview)

	api.GET("/titles/:title_id/reviews/:review_id/comments", h.Review.ListComments)
	api.POST("/titles/:title_id/reviews/:review_id/comments", h.Review.CreateComment)
	api.GET("/titles/:title_id/reviews/:review_id/comments/:comment_id", h.Review.GetComment)
	api.PATCH("/titles/:title_id/reviews/:review_id/comments/:comment_id", h.Review.UpdateComment)
	api.DELETE("/titles/:title_id/reviews/:review_id/comments/:comment_id", h.Review.DeleteComment)
}
