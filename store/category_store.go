package store

import (
	"context"
	"errors"
	"fmt"

	"moneyflow/models"

	"gorm.io/gorm"
)

// CategoryStore 类别存储
type CategoryStore struct {
	db *gorm.DB
}

func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// FindByID 按 ID 查询类别
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return &cat, nil
}

// ListByOrganization 列出组织的类别，可按类型过滤
func (s *CategoryStore) ListByOrganization(ctx context.Context, organizationID, categoryType string) ([]models.Category, error) {
	query := s.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if categoryType != "" {
		query = query.Where("type = ?", categoryType)
	}
	var list []models.Category
	if err := query.Order("sort ASC, name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return list, nil
}

// Create 创建类别
func (s *CategoryStore) Create(ctx context.Context, cat *models.Category) error {
	if err := s.db.WithContext(ctx).Create(cat).Error; err != nil {
		return fmt.Errorf("创建类别失败: %w", err)
	}
	return nil
}
