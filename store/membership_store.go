package store

import (
	"context"
	"errors"
	"fmt"

	"moneyflow/models"

	"gorm.io/gorm"
)

// MembershipStore 组织与成员存储
type MembershipStore struct {
	db *gorm.DB
}

func NewMembershipStore(db *gorm.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// FindMembership 查询用户在组织中的成员记录
func (s *MembershipStore) FindMembership(ctx context.Context, organizationID, userID string) (*models.OrganizationMember, error) {
	var m models.OrganizationMember
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("查询成员失败: %w", err)
	}
	return &m, nil
}

// FindOrganization 按 ID 查询组织
func (s *MembershipStore) FindOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("查询组织失败: %w", err)
	}
	return &org, nil
}

// OrganizationWithRole 用户所在组织及其角色
type OrganizationWithRole struct {
	models.Organization
	Role string `json:"role"`
}

// ListOrganizations 列出用户所在的全部组织
func (s *MembershipStore) ListOrganizations(ctx context.Context, userID string) ([]OrganizationWithRole, error) {
	var list []OrganizationWithRole
	err := s.db.WithContext(ctx).Model(&models.Organization{}).
		Select("organizations.*, organization_members.role AS role").
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.created_at ASC").
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询组织列表失败: %w", err)
	}
	return list, nil
}

// CreateOrganization 创建组织，创建者成为 owner，并初始化默认类别
func (s *MembershipStore) CreateOrganization(ctx context.Context, org *models.Organization, ownerUserID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("创建组织失败: %w", err)
		}
		member := models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         ownerUserID,
			Role:           models.RoleOwner,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("创建组织成员失败: %w", err)
		}
		cats := models.DefaultCategories(org.ID)
		if err := tx.Create(&cats).Error; err != nil {
			return fmt.Errorf("初始化类别失败: %w", err)
		}
		return nil
	})
}
