package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"authcore/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNameTaken  = errors.New("name already taken")
)

// Permission names are dotted identifiers like "Users.Create".
var permissionNameRe = regexp.MustCompile(`^[A-Za-z.]+$`)

func (s *RBACService) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrValidation)
	}

	var existing models.Role
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: role %q", ErrNameTaken, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := models.Role{Name: name}
	if err := s.DB.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *RBACService) CreatePermission(ctx context.Context, name, description string) (*models.Permission, error) {
	if !permissionNameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: permission name %q must contain only letters and periods", ErrValidation, name)
	}

	var existing models.Permission
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: permission %q", ErrNameTaken, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	perm := models.Permission{Name: name, Description: description}
	if err := s.DB.WithContext(ctx).Create(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (s *RBACService) UpdatePermissionDescription(ctx context.Context, permissionID, description string) (*models.Permission, error) {
	var perm models.Permission
	if err := s.DB.WithContext(ctx).Where("id = ?", permissionID).First(&perm).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, permissionID)
	}
	perm.Description = description
	if err := s.DB.WithContext(ctx).Save(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}
