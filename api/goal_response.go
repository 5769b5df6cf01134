package api

import (
	"time"

	"moneyflow/models"

	"github.com/shopspring/decimal"
)

// GoalResponse 目标对外字段：name→title，category→type
type GoalResponse struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	Title           string          `json:"title" example:"应急基金"`
	Type            string          `json:"type" example:"savings"`
	CategoryID      *string         `json:"category_id"`
	TargetAmount    decimal.Decimal `json:"target_amount" swaggertype:"string" example:"10000"`
	CurrentAmount   decimal.Decimal `json:"current_amount" swaggertype:"string" example:"2500"`
	AchievementRate decimal.Decimal `json:"achievement_rate" swaggertype:"string" example:"25"`
	Status          string          `json:"status" example:"active"`
	Priority        string          `json:"priority" example:"high"`
	TargetDate      *string         `json:"target_date" example:"2026-12-31"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toGoalResponse(g *models.FinancialGoal) GoalResponse {
	resp := GoalResponse{
		ID:              g.ID,
		OrganizationID:  g.OrganizationID,
		Title:           g.Name,
		Type:            g.Category,
		CategoryID:      g.CategoryID,
		TargetAmount:    g.TargetAmount,
		CurrentAmount:   g.CurrentAmount,
		AchievementRate: g.AchievementRate,
		Status:          g.Status,
		Priority:        g.Priority,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
	if g.TargetDate != nil {
		d := time.Time(*g.TargetDate).Format(dateLayout)
		resp.TargetDate = &d
	}
	return resp
}

func toGoalResponses(goals []models.FinancialGoal) []GoalResponse {
	list := make([]GoalResponse, 0, len(goals))
	for i := range goals {
		list = append(list, toGoalResponse(&goals[i]))
	}
	return list
}

// withStoredRates 同步失败时按已保存的金额计算达成率
func withStoredRates(goals []models.FinancialGoal) []models.FinancialGoal {
	for i := range goals {
		goals[i].AchievementRate = models.AchievementRate(goals[i].CurrentAmount, goals[i].TargetAmount)
	}
	return goals
}
