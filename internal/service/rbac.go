package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"authcore/internal/events"
	"authcore/internal/logging"
	"authcore/internal/models"
)

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
)

// RBACService mutates the user/role/permission graph. Mutations follow a
// load-mutate-save pattern without transactional isolation; concurrent
// writers to the same row race and the last save wins.
type RBACService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func (s *RBACService) loadRole(ctx context.Context, roleID string, withPermissions bool) (*models.Role, error) {
	q := s.DB.WithContext(ctx)
	if withPermissions {
		q = q.Preload("Permissions")
	}
	var role models.Role
	if err := q.Where("id = ?", roleID).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
		}
		return nil, err
	}
	return &role, nil
}

func (s *RBACService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Preload("Roles").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// AssignPermissionsToRole attaches the resolvable permission ids to the
// role. Unknown ids are skipped and logged rather than failing the whole
// call; the resulting set is deduplicated before saving.
func (s *RBACService) AssignPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) (*models.Role, error) {
	l := logging.FromContext(ctx).With("svc", "rbac.assign_permissions", "role_id", roleID)

	role, err := s.loadRole(ctx, roleID, true)
	if err != nil {
		return nil, err
	}

	var perms []models.Permission
	if len(permissionIDs) > 0 {
		if err := s.DB.WithContext(ctx).Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
			return nil, err
		}
	}

	found := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		found[p.ID.String()] = struct{}{}
	}
	for _, id := range permissionIDs {
		if _, ok := found[id]; !ok {
			l.Warn("permission_excluded", "permission_id", id, "reason", "not_found")
		}
	}

	merged := dedupPermissions(append(role.Permissions, perms...))
	if err := s.replacePermissions(ctx, role, merged); err != nil {
		return nil, err
	}
	role.Permissions = merged
	return role, nil
}

func (s *RBACService) RemovePermissionsFromRole(ctx context.Context, roleID string, permissionIDs []string) (*models.Role, error) {
	role, err := s.loadRole(ctx, roleID, true)
	if err != nil {
		return nil, err
	}

	drop := make(map[string]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		drop[id] = struct{}{}
	}

	kept := role.Permissions[:0:0]
	for _, p := range role.Permissions {
		if _, gone := drop[p.ID.String()]; !gone {
			kept = append(kept, p)
		}
	}

	if err := s.replacePermissions(ctx, role, kept); err != nil {
		return nil, err
	}
	role.Permissions = kept
	return role, nil
}

func (s *RBACService) replacePermissions(ctx context.Context, role *models.Role, perms []models.Permission) error {
	assoc := s.DB.WithContext(ctx).Model(role).Association("Permissions")
	if len(perms) == 0 {
		return assoc.Clear()
	}
	ptrs := make([]interface{}, len(perms))
	for i := range perms {
		ptrs[i] = &perms[i]
	}
	return assoc.Replace(ptrs...)
}

// AddOrChangeRole replaces the user's entire role set with the single
// given role. The emitted event carries the previous primary role so the
// audit trail records the transition.
func (s *RBACService) AddOrChangeRole(ctx context.Context, userID, roleID string) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var previous string
	if len(user.Roles) > 0 {
		previous = user.Roles[0].ID.String()
	}

	role, err := s.loadRole(ctx, roleID, false)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(user).Association("Roles").Replace(role); err != nil {
		return nil, err
	}
	user.Roles = []models.Role{*role}

	s.publish(ctx, events.Event{
		Action:  events.ActionRoleChanged,
		UserID:  userID,
		Details: map[string]any{"previousRole": previous, "newRole": roleID},
	})
	return user, nil
}

// AddRole appends the role to the user's set if not already present.
func (s *RBACService) AddRole(ctx context.Context, userID, roleID string) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, err := s.loadRole(ctx, roleID, false)
	if err != nil {
		return nil, err
	}

	present := false
	for _, r := range user.Roles {
		if r.ID == role.ID {
			present = true
			break
		}
	}
	if !present {
		if err := s.DB.WithContext(ctx).Model(user).Association("Roles").Append(role); err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, *role)
	}

	s.publish(ctx, events.Event{
		Action:  events.ActionRoleChanged,
		UserID:  userID,
		Details: map[string]any{"newRole": roleID},
	})
	return user, nil
}

func (s *RBACService) RemoveRole(ctx context.Context, userID, roleID string) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := user.Roles[:0:0]
	for _, r := range user.Roles {
		if r.ID.String() != roleID {
			kept = append(kept, r)
		}
	}

	assoc := s.DB.WithContext(ctx).Model(user).Association("Roles")
	if len(kept) == 0 {
		err = assoc.Clear()
	} else {
		ptrs := make([]interface{}, len(kept))
		for i := range kept {
			ptrs[i] = &kept[i]
		}
		err = assoc.Replace(ptrs...)
	}
	if err != nil {
		return nil, err
	}
	user.Roles = kept

	s.publish(ctx, events.Event{
		Action:  events.ActionRoleDeleted,
		UserID:  userID,
		Details: map[string]any{"roleId": roleID},
	})
	return user, nil
}

func (s *RBACService) GetPermissionsByRole(ctx context.Context, roleID string) ([]models.Permission, error) {
	role, err := s.loadRole(ctx, roleID, true)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

func (s *RBACService) GetRolesByPermission(ctx context.Context, permissionID string) ([]models.Role, error) {
	var perm models.Permission
	err := s.DB.WithContext(ctx).Preload("Roles").Where("id = ?", permissionID).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, permissionID)
		}
		return nil, err
	}
	return perm.Roles, nil
}

func (s *RBACService) GetRolesByUser(ctx context.Context, userID string) ([]models.Role, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

func (s *RBACService) GetUsersByRole(ctx context.Context, roleID string) ([]models.User, error) {
	var role models.Role
	err := s.DB.WithContext(ctx).Preload("Users").Where("id = ?", roleID).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
		}
		return nil, err
	}
	return role.Users, nil
}

func (s *RBACService) publish(ctx context.Context, event events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "action", event.Action, "error", err)
	}
}

func dedupPermissions(perms []models.Permission) []models.Permission {
	seen := make(map[uuid.UUID]struct{}, len(perms))
	out := perms[:0:0]
	for _, p := range perms {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
