package testutil

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"gorm.io/gorm"
)

// CreateTestUser inserts a user with the given role and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB, username, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		ID:                   uuid.New(),
		Username:             username,
		Email:                email,
		Role:                 role,
		ConfirmationCodeHash: models.NoConfirmationCode,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

// IdentityFor builds the policy identity a valid bearer token would carry.
func IdentityFor(user *models.User) *policy.Identity {
	return &policy.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.EffectiveRole(),
	}
}

// CreateTestCategory inserts a category.
func CreateTestCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create test category %s: %v", slug, err)
	}
	return category
}

// CreateTestGenre inserts a genre.
func CreateTestGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	t.Helper()

	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("Failed to create test genre %s: %v", slug, err)
	}
	return genre
}

// CreateTestTitle inserts a title, optionally linked to a category.
func CreateTestTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category) *models.Title {
	t.Helper()

	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	if err := db.Create(title).Error; err != nil {
		t.Fatalf("Failed to create test title %s: %v", name, err)
	}
	return title
}

// CreateTestReview inserts a review.
func CreateTestReview(t *testing.T, db *gorm.DB, title *models.Title, author *models.User, text string, score int) *models.Review {
	t.Helper()

	review := &models.Review{
		TitleID:  title.ID,
		AuthorID: author.ID,
		Text:     text,
		Score:    score,
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("Failed to create test review: %v", err)
	}
	return review
}

// CaptureMailer records outgoing mail so tests can read issued codes.
type CaptureMailer struct {
	mu       sync.Mutex
	Messages []CapturedMail
	Fail     bool // when true, Send reports an error
}

type CapturedMail struct {
	To      string
	Subject string
	Body    string
}

func (m *CaptureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return errFailMailer
	}
	m.Messages = append(m.Messages, CapturedMail{To: to, Subject: subject, Body: body})
	return nil
}

// LastCode extracts the confirmation code from the most recent message.
func (m *CaptureMailer) LastCode(t *testing.T) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		t.Fatal("No mail captured")
	}
	body := m.Messages[len(m.Messages)-1].Body
	idx := strings.LastIndex(body, ": ")
	if idx == -1 {
		t.Fatalf("Unexpected mail body: %q", body)
	}
	return body[idx+2:]
}

type mailerError string

func (e mailerError) Error() string { return string(e) }

const errFailMailer = mailerError("mailer unavailable")
