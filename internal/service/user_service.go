package service

import (
	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/internal/policy"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/pkg/logger"
	"go.uber.org/zap"
)

// ProfileUpdate carries optional field changes for a user record. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

// UserService is the admin-facing user directory plus the self-service
// profile. All operations except the Me pair require admin authority.
type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) requireAdmin(caller *policy.Identity) error {
	if caller == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if caller.Role != models.RoleAdmin {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

func (s *UserService) List(caller *policy.Identity, search string, offset, limit int) ([]models.User, int64, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, 0, err
	}
	return s.userRepo.List(search, offset, limit)
}

// Create lets an admin provision a user directly, role included. The new
// user still has to go through signup to obtain a confirmation code.
func (s *UserService) Create(caller *policy.Identity, username, email string, role models.Role) (*models.User, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	if !ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}

	if existing, err := s.userRepo.GetByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("username already registered")
	}
	if existing, err := s.userRepo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	user := &models.User{
		ID:                   uuid.New(),
		Username:             username,
		Email:                email,
		Role:                 role,
		ConfirmationCodeHash: models.NoConfirmationCode,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Log.Info("User created by admin",
		zap.String("admin", caller.Username),
		zap.String("username", username),
		zap.String("role", string(role)),
	)

	return user, nil
}

func (s *UserService) Get(caller *policy.Identity, username string) (*models.User, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

func (s *UserService) Update(caller *policy.Identity, username string, upd ProfileUpdate) (*models.User, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return s.applyUpdate(user, upd, true)
}

func (s *UserService) Delete(caller *policy.Identity, username string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	if err := s.userRepo.Delete(user.ID); err != nil {
		return err
	}

	logger.Log.Info("User deleted",
		zap.String("admin", caller.Username),
		zap.String("username", username),
	)
	return nil
}

// Me returns the caller's own record.
func (s *UserService) Me(caller *policy.Identity) (*models.User, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	user, err := s.userRepo.GetByID(caller.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// UpdateMe patches the caller's own profile. Role changes are ignored here;
// only the admin surface may change roles.
func (s *UserService) UpdateMe(caller *policy.Identity, upd ProfileUpdate) (*models.User, error) {
	user, err := s.Me(caller)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(user, upd, false)
}

func (s *UserService) applyUpdate(user *models.User, upd ProfileUpdate, allowRole bool) (*models.User, error) {
	if upd.Email != nil && *upd.Email != user.Email {
		if err := ValidateEmail(*upd.Email); err != nil {
			return nil, err
		}
		if existing, err := s.userRepo.GetByEmail(*upd.Email); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, apperr.Conflict("email already registered")
		}
		user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if upd.Role != nil && allowRole {
		if !ValidRole(*upd.Role) {
			return nil, apperr.Validation("unknown role %q", *upd.Role)
		}
		user.Role = *upd.Role
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func ValidRole(role models.Role) bool {
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		return true
	}
	return false
}
