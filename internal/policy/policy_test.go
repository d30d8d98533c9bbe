package policy_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"github.com/stretchr/testify/assert"
)

var allRoles = []models.Role{
	models.RoleAnonymous,
	models.RoleUser,
	models.RoleModerator,
	models.RoleAdmin,
}

var catalogResources = []policy.Resource{
	policy.ResourceTitle,
	policy.ResourceCategory,
	policy.ResourceGenre,
}

var authoredResources = []policy.Resource{
	policy.ResourceReview,
	policy.ResourceComment,
}

func TestReadAllowedForEveryone(t *testing.T) {
	resources := append(append([]policy.Resource{}, catalogResources...), authoredResources...)
	for _, role := range allRoles {
		for _, resource := range resources {
			assert.True(t, policy.Allowed(role, false, policy.ActionRead, resource),
				"read on %s as %s", resource, role)
		}
	}
}

func TestCatalogMutationsAdminOnly(t *testing.T) {
	actions := []policy.Action{policy.ActionCreate, policy.ActionUpdate, policy.ActionDelete}
	for _, role := range allRoles {
		for _, resource := range catalogResources {
			for _, action := range actions {
				want := role == models.RoleAdmin
				assert.Equal(t, want, policy.Allowed(role, false, action, resource),
					"%s on %s as %s", action, resource, role)
				// Ownership grants nothing on catalog resources
				assert.Equal(t, want, policy.Allowed(role, true, action, resource),
					"%s on %s as %s (owner)", action, resource, role)
			}
		}
	}
}

func TestCreateReviewCommentRequiresAuthentication(t *testing.T) {
	for _, role := range allRoles {
		for _, resource := range authoredResources {
			want := role != models.RoleAnonymous
			assert.Equal(t, want, policy.Allowed(role, false, policy.ActionCreate, resource),
				"create %s as %s", resource, role)
		}
	}
}

func TestUpdateDeleteReviewComment(t *testing.T) {
	cases := []struct {
		role    models.Role
		isOwner bool
		want    bool
	}{
		{models.RoleAnonymous, false, false},
		{models.RoleAnonymous, true, false},
		{models.RoleUser, false, false},
		{models.RoleUser, true, true},
		{models.RoleModerator, false, true},
		{models.RoleModerator, true, true},
		{models.RoleAdmin, false, true},
		{models.RoleAdmin, true, true},
	}

	for _, resource := range authoredResources {
		for _, action := range []policy.Action{policy.ActionUpdate, policy.ActionDelete} {
			for _, tc := range cases {
				assert.Equal(t, tc.want, policy.Allowed(tc.role, tc.isOwner, action, resource),
					"%s %s as %s owner=%v", action, resource, tc.role, tc.isOwner)
			}
		}
	}
}

func TestCheckClassifiesDenials(t *testing.T) {
	// Anonymous callers get an authentication error
	err := policy.Check(nil, false, policy.ActionCreate, policy.ResourceReview)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	// Authenticated but insufficient role gets an authorization error
	user := &policy.Identity{UserID: uuid.New(), Username: "bob", Role: models.RoleUser}
	err = policy.Check(user, false, policy.ActionCreate, policy.ResourceTitle)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	// Allowed actions pass
	assert.NoError(t, policy.Check(user, false, policy.ActionCreate, policy.ResourceReview))
	assert.NoError(t, policy.Check(nil, false, policy.ActionRead, policy.ResourceTitle))
}

func TestOwns(t *testing.T) {
	id := uuid.New()
	caller := &policy.Identity{UserID: id, Role: models.RoleUser}

	assert.True(t, caller.Owns(id))
	assert.False(t, caller.Owns(uuid.New()))

	var anonymous *policy.Identity
	assert.False(t, anonymous.Owns(id))
	assert.Equal(t, models.RoleAnonymous, anonymous.EffectiveRole())
}
