// Package policy holds the single authorization table consulted by every
// mutating endpoint. Decisions are a pure function of the caller's role, an
// orthogonal ownership grant, the action, and the resource kind.
package policy

import (
	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceTitle    Resource = "title"
	ResourceCategory Resource = "category"
	ResourceGenre    Resource = "genre"
	ResourceReview   Resource = "review"
	ResourceComment  Resource = "comment"
)

// Identity is the authenticated caller extracted from a bearer token.
// A nil *Identity is an anonymous caller.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
}

func (id *Identity) EffectiveRole() models.Role {
	if id == nil {
		return models.RoleAnonymous
	}
	return id.Role
}

// Owns reports whether the identity is the given author.
func (id *Identity) Owns(authorID uuid.UUID) bool {
	return id != nil && id.UserID == authorID
}

// Allowed is the authorization table:
//
//	read on anything:                        everyone, including anonymous
//	create review/comment:                   any authenticated role
//	update/delete review/comment:            owner, moderator, or admin
//	create/update/delete catalog resources:  admin only
func Allowed(role models.Role, isOwner bool, action Action, resource Resource) bool {
	if action == ActionRead {
		return true
	}

	switch resource {
	case ResourceTitle, ResourceCategory, ResourceGenre:
		return role == models.RoleAdmin

	case ResourceReview, ResourceComment:
		switch action {
		case ActionCreate:
			return role == models.RoleUser || role == models.RoleModerator || role == models.RoleAdmin
		case ActionUpdate, ActionDelete:
			if isOwner {
				return role != models.RoleAnonymous
			}
			return role == models.RoleModerator || role == models.RoleAdmin
		}
	}

	return false
}

// Check evaluates the table for the given caller and classifies a denial:
// missing identity on a guarded action is an authentication failure,
// insufficient role or ownership is an authorization failure.
func Check(id *Identity, isOwner bool, action Action, resource Resource) error {
	if Allowed(id.EffectiveRole(), isOwner, action, resource) {
		return nil
	}
	if id == nil {
		return apperr.Unauthenticated("authentication required")
	}
	return apperr.Forbidden("insufficient permissions for %s on %s", action, resource)
}
