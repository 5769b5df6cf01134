package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moneyflow/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerStore 账本流水存储
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore 创建账本存储
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// FindTransactionsForGoalAttribution 按归集规则查询组织内计入目标的流水
func (s *LedgerStore) FindTransactionsForGoalAttribution(ctx context.Context, organizationID string, rule models.AttributionRule) ([]models.LedgerEntry, error) {
	if len(rule.CategoryTypes) == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("transactions.amount, transactions.category_id, categories.type AS category_type").
		Joins("JOIN categories ON categories.id = transactions.category_id AND categories.deleted_at IS NULL").
		Where("transactions.organization_id = ? AND categories.organization_id = ?", organizationID, organizationID).
		Where("categories.type IN ?", rule.CategoryTypes)
	if rule.CategoryID != "" {
		query = query.Where("transactions.category_id = ?", rule.CategoryID)
	}

	var entries []models.LedgerEntry
	if err := query.Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("查询归集流水失败: %w", err)
	}
	return entries, nil
}

// TransactionFilter 流水列表筛选条件
type TransactionFilter struct {
	OrganizationID string
	CategoryID     string
	StartTime      *time.Time
	EndTime        *time.Time
	Page           int
	PageSize       int
}

func (s *LedgerStore) filtered(ctx context.Context, f TransactionFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("transactions.organization_id = ?", f.OrganizationID)
	if f.CategoryID != "" {
		query = query.Where("transactions.category_id = ?", f.CategoryID)
	}
	if f.StartTime != nil {
		query = query.Where("transactions.transaction_date >= ?", *f.StartTime)
	}
	if f.EndTime != nil {
		query = query.Where("transactions.transaction_date <= ?", *f.EndTime)
	}
	return query
}

// ListTransactions 分页查询流水
func (s *LedgerStore) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error) {
	query := s.filtered(ctx, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计流水失败: %w", err)
	}

	var list []models.Transaction
	offset := (f.Page - 1) * f.PageSize
	if err := query.Order("transactions.transaction_date DESC").Offset(offset).Limit(f.PageSize).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("查询流水失败: %w", err)
	}
	return list, total, nil
}

// ExportTransactions 查询筛选条件下的全部流水，带类别信息，忽略分页
func (s *LedgerStore) ExportTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error) {
	var list []models.Transaction
	if err := s.filtered(ctx, f).Preload("Category").Order("transactions.transaction_date DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}
	return list, nil
}

// CategoryTypeTotal 按类别类型汇总的金额
type CategoryTypeTotal struct {
	CategoryType string
	Total        decimal.Decimal
}

// SumByCategoryType 按类别类型汇总流水金额，分页条件不生效
func (s *LedgerStore) SumByCategoryType(ctx context.Context, f TransactionFilter) ([]CategoryTypeTotal, error) {
	var rows []CategoryTypeTotal
	err := s.filtered(ctx, f).
		Select("categories.type AS category_type, COALESCE(SUM(transactions.amount), 0) AS total").
		Joins("JOIN categories ON categories.id = transactions.category_id AND categories.deleted_at IS NULL").
		Group("categories.type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("汇总流水失败: %w", err)
	}
	return rows, nil
}

// CreateTransaction 记录一笔流水
func (s *LedgerStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("创建流水失败: %w", err)
	}
	return nil
}

// FindTransaction 按 ID 查询流水
func (s *LedgerStore) FindTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}
	return &tx, nil
}

// DeleteTransaction 删除流水
func (s *LedgerStore) DeleteTransaction(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	if result.Error != nil {
		return fmt.Errorf("删除流水失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
