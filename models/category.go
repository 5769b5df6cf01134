package models

import (
	"time"

	"gorm.io/gorm"
)

// 类别类型
const (
	CategoryTypeIncome   = "income"
	CategoryTypeExpense  = "expense"
	CategoryTypeSavings  = "savings"
	CategoryTypeTransfer = "transfer"
)

// Category 交易类别（按组织维护）
type Category struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID string         `json:"organization_id" gorm:"size:36;not null;index"`
	Name           string         `json:"name" gorm:"size:50;not null"`
	Type           string         `json:"type" gorm:"size:20;not null;index"`
	Sort           int            `json:"sort" gorm:"default:0"`
	Color          string         `json:"color" gorm:"size:20;default:#64748b"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// IsValidCategoryType 校验类别类型
func IsValidCategoryType(t string) bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeSavings, CategoryTypeTransfer:
		return true
	}
	return false
}

// DefaultCategories 新建组织时初始化的类别
func DefaultCategories(orgID string) []Category {
	items := []struct {
		Name  string
		Type  string
		Color string
	}{
		{"工资", CategoryTypeIncome, "#10b981"},
		{"奖金", CategoryTypeIncome, "#3b82f6"},
		{"餐饮", CategoryTypeExpense, "#ef4444"},
		{"交通", CategoryTypeExpense, "#3b82f6"},
		{"住房", CategoryTypeExpense, "#14b8a6"},
		{"其他", CategoryTypeExpense, "#64748b"},
		{"储蓄", CategoryTypeSavings, "#a855f7"},
		{"转账", CategoryTypeTransfer, "#f59e0b"},
	}
	cats := make([]Category, 0, len(items))
	for i, item := range items {
		cats = append(cats, Category{
			OrganizationID: orgID,
			Name:           item.Name,
			Type:           item.Type,
			Sort:           (i + 1) * 10,
			Color:          item.Color,
		})
	}
	return cats
}
