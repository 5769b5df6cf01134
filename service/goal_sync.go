package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"moneyflow/models"

	"github.com/shopspring/decimal"
)

// GoalStore 同步器依赖的目标存储
type GoalStore interface {
	FindByID(ctx context.Context, id string) (*models.FinancialGoal, error)
	FindAllByOrganization(ctx context.Context, organizationID string) ([]models.FinancialGoal, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.FinancialGoal, error)
}

// LedgerStore 同步器依赖的账本存储
type LedgerStore interface {
	FindTransactionsForGoalAttribution(ctx context.Context, organizationID string, rule models.AttributionRule) ([]models.LedgerEntry, error)
}

// GoalSynchronizer 根据账本流水重新计算目标的 current_amount，
// 达成率到 100% 时将目标从 active 切换为 completed。
// 调用方需保证传入的组织 ID 已经过成员校验。
type GoalSynchronizer struct {
	goals    GoalStore
	ledger   LedgerStore
	notifier GoalNotifier
	reopen   bool
	now      func() time.Time
}

// Option 同步器选项
type Option func(*GoalSynchronizer)

// WithNotifier 目标完成时的通知
func WithNotifier(n GoalNotifier) Option {
	return func(s *GoalSynchronizer) {
		s.notifier = n
	}
}

// WithReopenPolicy 开启后，已完成目标的达成率回落到 100% 以下时恢复为 active
func WithReopenPolicy(reopen bool) Option {
	return func(s *GoalSynchronizer) {
		s.reopen = reopen
	}
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(s *GoalSynchronizer) {
		s.now = now
	}
}

// NewGoalSynchronizer 创建目标同步器
func NewGoalSynchronizer(goals GoalStore, ledger LedgerStore, opts ...Option) *GoalSynchronizer {
	s := &GoalSynchronizer{
		goals:  goals,
		ledger: ledger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateCurrentAmount 计算目标当前金额，只读
func (s *GoalSynchronizer) CalculateCurrentAmount(ctx context.Context, goalID string) (decimal.Decimal, error) {
	goal, err := s.goals.FindByID(ctx, goalID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.currentAmount(ctx, goal)
}

// currentAmount 按归集规则累加流水的带符号金额，取出会抵消存入；结果不低于 0，没有流水时为 0
func (s *GoalSynchronizer) currentAmount(ctx context.Context, goal *models.FinancialGoal) (decimal.Decimal, error) {
	rule := goal.AttributionRule()
	entries, err := s.ledger.FindTransactionsForGoalAttribution(ctx, goal.OrganizationID, rule)
	if err != nil {
		return decimal.Zero, fmt.Errorf("查询目标 %s 的归集流水失败: %w", goal.ID, err)
	}
	total := decimal.Zero
	for _, e := range entries {
		if !rule.Matches(e) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return decimal.Max(total, decimal.Zero), nil
}

// SyncGoal 同步单个目标
//
// 状态切换（active -> completed，以及开启恢复策略时的 completed -> active）总会与
// current_amount 一起落库；其余情况只有 persist 为 true 且金额变化时才回写。
// 返回的目标带有最新的 current_amount 和 achievement_rate。
// 出错时返回的目标保持存储中的值，调用方可以直接用于响应。
func (s *GoalSynchronizer) SyncGoal(ctx context.Context, goal *models.FinancialGoal, persist bool) (*models.FinancialGoal, error) {
	current, err := s.currentAmount(ctx, goal)
	if err != nil {
		return withStoredRate(goal), err
	}

	achieved := models.IsAchieved(current, goal.TargetAmount)
	fields := map[string]interface{}{}
	completed := false
	switch {
	case achieved && goal.Status == models.GoalStatusActive:
		fields["status"] = models.GoalStatusCompleted
		fields["current_amount"] = current
		completed = true
	case !achieved && goal.Status == models.GoalStatusCompleted && s.reopen:
		fields["status"] = models.GoalStatusActive
		fields["current_amount"] = current
	case persist && !current.Equal(goal.CurrentAmount):
		fields["current_amount"] = current
	}

	result := *goal
	if len(fields) > 0 {
		fields["updated_at"] = s.now()
		updated, err := s.goals.Update(ctx, goal.ID, fields)
		if err != nil {
			// 保持原状态，下一次同步会再次尝试同样的切换
			return withStoredRate(goal), fmt.Errorf("保存目标 %s 同步结果失败: %w", goal.ID, err)
		}
		result = *updated
		if completed {
			s.notifyCompleted(ctx, &result)
		}
	}

	result.CurrentAmount = current
	result.AchievementRate = models.AchievementRate(current, result.TargetAmount)
	return &result, nil
}

func (s *GoalSynchronizer) notifyCompleted(ctx context.Context, goal *models.FinancialGoal) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.GoalCompleted(ctx, goal); err != nil {
		log.Printf("目标完成通知发送失败 goal=%s: %v", goal.ID, err)
	}
}

// SyncReport 批量同步结果
type SyncReport struct {
	OrganizationID string                 `json:"organization_id"`
	Total          int                    `json:"total"`
	Synced         int                    `json:"synced"`
	Completed      []string               `json:"completed"`
	Failed         []string               `json:"failed"`
	Goals          []models.FinancialGoal `json:"-"`
}

// SyncAllGoals 同步组织下全部目标
//
// 单个目标失败只记录日志并继续；只有目标列表本身读取失败或 ctx 被取消时才返回错误。
// 没有新流水时重复调用不会产生任何写入。
func (s *GoalSynchronizer) SyncAllGoals(ctx context.Context, organizationID string, persist bool) (*SyncReport, error) {
	goals, err := s.goals.FindAllByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("查询组织 %s 的目标失败: %w", organizationID, err)
	}

	report := &SyncReport{
		OrganizationID: organizationID,
		Completed:      []string{},
		Failed:         []string{},
		Goals:          make([]models.FinancialGoal, 0, len(goals)),
	}
	for i := range goals {
		goal := &goals[i]
		if goal.OrganizationID != organizationID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Total++

		wasActive := goal.Status == models.GoalStatusActive
		synced, err := s.SyncGoal(ctx, goal, persist)
		report.Goals = append(report.Goals, *synced)
		if err != nil {
			log.Printf("同步目标失败 org=%s goal=%s: %v", organizationID, goal.ID, err)
			report.Failed = append(report.Failed, goal.ID)
			continue
		}
		report.Synced++
		if wasActive && synced.Status == models.GoalStatusCompleted {
			report.Completed = append(report.Completed, goal.ID)
		}
	}
	return report, nil
}

func withStoredRate(goal *models.FinancialGoal) *models.FinancialGoal {
	g := *goal
	g.AchievementRate = models.AchievementRate(g.CurrentAmount, g.TargetAmount)
	return &g
}
