package service

import (
	"context"
	"errors"

	"moneyflow/models"
)

// GoalNotifier 目标完成通知
type GoalNotifier interface {
	GoalCompleted(ctx context.Context, goal *models.FinancialGoal) error
}

// OrganizationFinder 查询组织信息（通知收件人等）
type OrganizationFinder interface {
	FindOrganization(ctx context.Context, id string) (*models.Organization, error)
}

// MultiNotifier 依次调用所有通知渠道，一个失败不影响其他渠道
type MultiNotifier []GoalNotifier

func (m MultiNotifier) GoalCompleted(ctx context.Context, goal *models.FinancialGoal) error {
	var errs []error
	for _, n := range m {
		if err := n.GoalCompleted(ctx, goal); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
