package service

import (
	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/pkg/logger"
	"go.uber.org/zap"
)

// ReviewService manages reviews and their comments. Creation requires an
// authenticated caller; updates and deletes follow the ownership/moderator
// rules of the authorization table.
type ReviewService struct {
	titleRepo   *repository.TitleRepository
	reviewRepo  *repository.ReviewRepository
	commentRepo *repository.CommentRepository
}

func NewReviewService(
	titleRepo *repository.TitleRepository,
	reviewRepo *repository.ReviewRepository,
	commentRepo *repository.CommentRepository,
) *ReviewService {
	return &ReviewService{
		titleRepo:   titleRepo,
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
	}
}

func validateReviewInput(text string, score int) error {
	if text == "" {
		return apperr.Validation("text is required")
	}
	if score < models.MinScore || score > models.MaxScore {
		return apperr.Validation("score must be between %d and %d", models.MinScore, models.MaxScore)
	}
	return nil
}

func (s *ReviewService) getTitle(titleID uint) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(titleID)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, apperr.NotFound("title not found")
	}
	return title, nil
}

// getReview resolves a review nested under a title.
func (s *ReviewService) getReview(titleID, reviewID uint) (*models.Review, error) {
	if _, err := s.getTitle(titleID); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil || review.TitleID != titleID {
		return nil, apperr.NotFound("review not found")
	}
	return review, nil
}

// CreateReview enforces one review per (title, author): a second create by
// the same author is a conflict regardless of role.
func (s *ReviewService) CreateReview(caller *policy.Identity, titleID uint, text string, score int) (*models.Review, error) {
	if err := validateReviewInput(text, score); err != nil {
		return nil, err
	}
	if err := policy.Check(caller, false, policy.ActionCreate, policy.ResourceReview); err != nil {
		return nil, err
	}

	if _, err := s.getTitle(titleID); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsByTitleAndAuthor(titleID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("you have already reviewed this title")
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: caller.UserID,
		Text:     text,
		Score:    score,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.String("author", caller.Username),
		zap.Int("score", score),
	)

	return s.reviewRepo.GetByID(review.ID)
}

func (s *ReviewService) GetReview(titleID, reviewID uint) (*models.Review, error) {
	return s.getReview(titleID, reviewID)
}

func (s *ReviewService) ListReviews(titleID uint, offset, limit int) ([]models.Review, int64, error) {
	if _, err := s.getTitle(titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListByTitle(titleID, offset, limit)
}

func (s *ReviewService) UpdateReview(caller *policy.Identity, titleID, reviewID uint, text *string, score *int) (*models.Review, error) {
	if score != nil && (*score < models.MinScore || *score > models.MaxScore) {
		return nil, apperr.Validation("score must be between %d and %d", models.MinScore, models.MaxScore)
	}

	review, err := s.getReview(titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := policy.Check(caller, caller.Owns(review.AuthorID), policy.ActionUpdate, policy.ResourceReview); err != nil {
		return nil, err
	}

	if text != nil {
		if *text == "" {
			return nil, apperr.Validation("text is required")
		}
		review.Text = *text
	}
	if score != nil {
		review.Score = *score
	}

	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(caller *policy.Identity, titleID, reviewID uint) error {
	review, err := s.getReview(titleID, reviewID)
	if err != nil {
		return err
	}

	if err := policy.Check(caller, caller.Owns(review.AuthorID), policy.ActionDelete, policy.ResourceReview); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(reviewID); err != nil {
		return err
	}

	logger.Log.Info("Review deleted",
		zap.Uint("review_id", reviewID),
		zap.String("caller", caller.Username),
	)
	return nil
}

// getComment resolves a comment nested under a title's review.
func (s *ReviewService) getComment(titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := s.getReview(titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil || comment.ReviewID != reviewID {
		return nil, apperr.NotFound("comment not found")
	}
	return comment, nil
}

func (s *ReviewService) CreateComment(caller *policy.Identity, titleID, reviewID uint, text string) (*models.Comment, error) {
	if text == "" {
		return nil, apperr.Validation("text is required")
	}
	if err := policy.Check(caller, false, policy.ActionCreate, policy.ResourceComment); err != nil {
		return nil, err
	}

	if _, err := s.getReview(titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: caller.UserID,
		Text:     text,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
		zap.String("author", caller.Username),
	)

	return s.commentRepo.GetByID(comment.ID)
}

func (s *ReviewService) GetComment(titleID, reviewID, commentID uint) (*models.Comment, error) {
	return s.getComment(titleID, reviewID, commentID)
}

func (s *ReviewService) ListComments(titleID, reviewID uint, offset, limit int) ([]models.Comment, int64, error) {
	if _, err := s.getReview(titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByReview(reviewID, offset, limit)
}

func (s *ReviewService) UpdateComment(caller *policy.Identity, titleID, reviewID, commentID uint, text string) (*models.Comment, error) {
	if text == "" {
		return nil, apperr.Validation("text is required")
	}

	comment, err := s.getComment(titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := policy.Check(caller, caller.Owns(comment.AuthorID), policy.ActionUpdate, policy.ResourceComment); err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) DeleteComment(caller *policy.Identity, titleID, reviewID, commentID uint) error {
	comment, err := s.getComment(titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := policy.Check(caller, caller.Owns(comment.AuthorID), policy.ActionDelete, policy.ResourceComment); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		return err
	}

	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", commentID),
		zap.String("caller", caller.Username),
	)
	return nil
}
