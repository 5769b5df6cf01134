package store

import (
	"context"
	"errors"
	"fmt"

	"moneyflow/models"

	"gorm.io/gorm"
)

// GoalStore 财务目标存储
type GoalStore struct {
	db *gorm.DB
}

// NewGoalStore 创建目标存储
func NewGoalStore(db *gorm.DB) *GoalStore {
	return &GoalStore{db: db}
}

// FindByID 按 ID 查询目标
func (s *GoalStore) FindByID(ctx context.Context, id string) (*models.FinancialGoal, error) {
	var goal models.FinancialGoal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("查询目标失败: %w", err)
	}
	return &goal, nil
}

// FindAllByOrganization 查询组织下所有目标，按创建时间倒序
func (s *GoalStore) FindAllByOrganization(ctx context.Context, organizationID string) ([]models.FinancialGoal, error) {
	var goals []models.FinancialGoal
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("查询目标列表失败: %w", err)
	}
	return goals, nil
}

// Create 创建目标
func (s *GoalStore) Create(ctx context.Context, goal *models.FinancialGoal) error {
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("创建目标失败: %w", err)
	}
	return nil
}

// Update 按字段更新目标并返回最新记录
func (s *GoalStore) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.FinancialGoal, error) {
	result := s.db.WithContext(ctx).Model(&models.FinancialGoal{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("更新目标失败: %w", result.Error)
	}
	return s.FindByID(ctx, id)
}

// Delete 删除目标（软删除）
func (s *GoalStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FinancialGoal{})
	if result.Error != nil {
		return fmt.Errorf("删除目标失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}
