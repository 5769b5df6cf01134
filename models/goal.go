package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 目标状态
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
)

// 目标优先级
const (
	GoalPriorityLow    = "low"
	GoalPriorityMedium = "medium"
	GoalPriorityHigh   = "high"
)

// 目标归集类型：决定哪些类别类型的流水计入目标进度
const (
	GoalCategoryAny      = "any"
	GoalCategorySavings  = CategoryTypeSavings
	GoalCategoryTransfer = CategoryTypeTransfer
)

var hundred = decimal.NewFromInt(100)

// FinancialGoal 财务目标
// CurrentAmount 由账本流水推导，不作为权威数据；AchievementRate 仅在响应时计算，不落库
type FinancialGoal struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID  string          `json:"organization_id" gorm:"size:36;not null;index"`
	Name            string          `json:"name" gorm:"size:100;not null"`
	Category        string          `json:"category" gorm:"size:20;not null;default:any"`
	CategoryID      *string         `json:"category_id" gorm:"size:36;index"`
	TargetAmount    decimal.Decimal `json:"target_amount" gorm:"type:decimal(15,2);not null"`
	CurrentAmount   decimal.Decimal `json:"current_amount" gorm:"type:decimal(15,2);not null;default:0"`
	Status          string          `json:"status" gorm:"size:20;not null;default:active;index"`
	Priority        string          `json:"priority" gorm:"size:20;not null;default:medium"`
	TargetDate      *datatypes.Date `json:"target_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
	AchievementRate decimal.Decimal `json:"achievement_rate" gorm:"-"`
}

func (FinancialGoal) TableName() string {
	return "financial_goals"
}

func (g *FinancialGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = NewID()
	}
	if g.Status == "" {
		g.Status = GoalStatusActive
	}
	if g.Priority == "" {
		g.Priority = GoalPriorityMedium
	}
	if g.Category == "" {
		g.Category = GoalCategoryAny
	}
	return nil
}

// IsCompleted 是否已完成
func (g *FinancialGoal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

// AttributionTypes 返回计入该目标的类别类型集合
func (g *FinancialGoal) AttributionTypes() []string {
	return AttributionTypesFor(g.Category)
}

// AttributionTypesFor savings/transfer 只取对应类型，any 或空取两者
func AttributionTypesFor(goalCategory string) []string {
	switch goalCategory {
	case GoalCategorySavings:
		return []string{CategoryTypeSavings}
	case GoalCategoryTransfer:
		return []string{CategoryTypeTransfer}
	default:
		return []string{CategoryTypeSavings, CategoryTypeTransfer}
	}
}

// AttributionRule 目标与账本流水的归集规则
// 流水所属类别的类型必须在 CategoryTypes 中；CategoryID 非空时还要求类别 ID 相同
type AttributionRule struct {
	CategoryTypes []string
	CategoryID    string
}

// Matches 判断一条流水是否计入目标
func (r AttributionRule) Matches(e LedgerEntry) bool {
	if r.CategoryID != "" && e.CategoryID != r.CategoryID {
		return false
	}
	for _, t := range r.CategoryTypes {
		if t == e.CategoryType {
			return true
		}
	}
	return false
}

// AttributionRule 返回该目标的归集规则
func (g *FinancialGoal) AttributionRule() AttributionRule {
	rule := AttributionRule{CategoryTypes: g.AttributionTypes()}
	if g.CategoryID != nil {
		rule.CategoryID = *g.CategoryID
	}
	return rule
}

// IsValidGoalCategory 校验目标归集类型
func IsValidGoalCategory(c string) bool {
	switch c {
	case "", GoalCategoryAny, GoalCategorySavings, GoalCategoryTransfer:
		return true
	}
	return false
}

// AcceptsCategoryType 类别类型是否属于该目标的归集范围
func (g *FinancialGoal) AcceptsCategoryType(categoryType string) bool {
	for _, t := range g.AttributionTypes() {
		if t == categoryType {
			return true
		}
	}
	return false
}

// IsValidGoalStatus 校验状态
func IsValidGoalStatus(s string) bool {
	return s == GoalStatusActive || s == GoalStatusCompleted
}

// IsValidGoalPriority 校验优先级
func IsValidGoalPriority(p string) bool {
	switch p {
	case GoalPriorityLow, GoalPriorityMedium, GoalPriorityHigh:
		return true
	}
	return false
}

// RawAchievementRate current/target*100，target <= 0 时为 0，不做舍入
func RawAchievementRate(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return current.Div(target).Mul(hundred)
}

// AchievementRate 用于展示的达成率，保留两位小数
func AchievementRate(current, target decimal.Decimal) decimal.Decimal {
	return RawAchievementRate(current, target).Round(2)
}

// IsAchieved 达成率是否达到 100%
func IsAchieved(current, target decimal.Decimal) bool {
	return RawAchievementRate(current, target).GreaterThanOrEqual(hundred)
}
