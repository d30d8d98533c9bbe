package utils_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleModerator,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	user := testUser()

	token, err := utils.GenerateToken(user, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ValidateToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleModerator, claims.Role)
}

func TestTokenCarriesEffectiveRole(t *testing.T) {
	user := testUser()
	user.Role = models.RoleUser
	user.Superuser = true

	token, err := utils.GenerateToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := utils.ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := utils.GenerateToken(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	_, err = utils.ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := utils.GenerateToken(testUser(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = utils.ValidateToken(token, testSecret)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := utils.ValidateToken("not.a.token", testSecret)
	assert.Error(t, err)
}
