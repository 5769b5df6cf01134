package api

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"moneyflow/models"
	"moneyflow/service"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

// GoalRepository 目标存储
type GoalRepository interface {
	FindByID(ctx context.Context, id string) (*models.FinancialGoal, error)
	FindAllByOrganization(ctx context.Context, organizationID string) ([]models.FinancialGoal, error)
	Create(ctx context.Context, goal *models.FinancialGoal) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.FinancialGoal, error)
	Delete(ctx context.Context, id string) error
}

// CategoryFinder 按 ID 查询类别
type CategoryFinder interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

// GoalSyncer 目标同步
type GoalSyncer interface {
	SyncGoal(ctx context.Context, goal *models.FinancialGoal, persist bool) (*models.FinancialGoal, error)
	SyncAllGoals(ctx context.Context, organizationID string, persist bool) (*service.SyncReport, error)
}

// GoalHandlerOptions 目标处理器策略
type GoalHandlerOptions struct {
	// PersistOnRead 列表同步时是否回写 current_amount
	PersistOnRead bool
	// AllowReopen 是否允许把已完成的目标改回 active
	AllowReopen bool
}

// GoalHandler 财务目标处理器
type GoalHandler struct {
	goals      GoalRepository
	categories CategoryFinder
	access     memberAccess
	syncer     GoalSyncer
	opts       GoalHandlerOptions
}

// NewGoalHandler 创建财务目标处理器
func NewGoalHandler(goals GoalRepository, categories CategoryFinder, members MembershipRepository, syncer GoalSyncer, opts GoalHandlerOptions) *GoalHandler {
	return &GoalHandler{
		goals:      goals,
		categories: categories,
		access:     memberAccess{members: members},
		syncer:     syncer,
		opts:       opts,
	}
}

// CreateGoalRequest 创建目标请求
type CreateGoalRequest struct {
	OrganizationID string           `json:"organization_id" binding:"required" example:"5b0c5d1e-9f7a-4c1e-8d39-2f6f0c8e7a11"`
	Title          string           `json:"title" binding:"required,max=100" example:"应急基金"`
	Type           string           `json:"type" example:"savings"`
	CategoryID     *string          `json:"category_id"`
	TargetAmount   *decimal.Decimal `json:"target_amount" binding:"required" swaggertype:"string" example:"10000"`
	Priority       string           `json:"priority" example:"high"`
	TargetDate     string           `json:"target_date" example:"2026-12-31"`
}

// UpdateGoalRequest 更新目标请求，未传的字段保持不变；current_amount 只由账本流水计算
type UpdateGoalRequest struct {
	ID           string           `json:"id" binding:"required"`
	Title        *string          `json:"title" binding:"omitempty,max=100"`
	Type         *string          `json:"type"`
	CategoryID   *string          `json:"category_id"` // 传空字符串表示取消绑定
	TargetAmount *decimal.Decimal `json:"target_amount" swaggertype:"string"`
	Status       *string          `json:"status"`
	Priority     *string          `json:"priority"`
	TargetDate   *string          `json:"target_date"` // 传空字符串表示清除截止日期
}

// List 获取组织的目标列表
// @Summary 获取目标列表
// @Description 返回组织的全部财务目标。返回前会按账本流水重新计算进度，达成 100% 的目标自动标记为 completed；同步失败时返回已保存的数据。
// @Tags 财务目标
// @Produce json
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Success 200 {object} Response{data=[]GoalResponse} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "不是组织成员"
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	orgID, ok := organizationIDFromQuery(c)
	if !ok {
		return
	}
	if _, ok := h.access.require(c, orgID, false); !ok {
		return
	}

	goals, ok := h.currentGoals(c, orgID)
	if !ok {
		return
	}
	Success(c, toGoalResponses(goals))
}

// currentGoals 同步后返回组织的目标；同步失败时退回已保存的数据
func (h *GoalHandler) currentGoals(c *gin.Context, orgID string) ([]models.FinancialGoal, bool) {
	ctx := c.Request.Context()
	report, err := h.syncer.SyncAllGoals(ctx, orgID, h.opts.PersistOnRead)
	if err == nil {
		return report.Goals, true
	}

	log.Printf("目标同步失败，返回已保存的数据 org=%s: %v", orgID, err)
	goals, err := h.goals.FindAllByOrganization(ctx, orgID)
	if err != nil {
		InternalServerError(c, err, "查询失败")
		return nil, false
	}
	return withStoredRates(goals), true
}

// Create 创建目标
// @Summary 创建目标
// @Description 创建财务目标，创建后立即按账本流水同步进度
// @Tags 财务目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGoalRequest true "目标信息"
// @Success 200 {object} Response{data=GoalResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !models.IsValidID(req.OrganizationID) {
		BadRequest(c, "organization_id 格式错误")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		BadRequest(c, "标题不能为空")
		return
	}
	if req.TargetAmount.IsNegative() {
		BadRequest(c, "目标金额不能为负数")
		return
	}
	if req.Type == "" {
		req.Type = models.GoalCategoryAny
	}
	if !models.IsValidGoalCategory(req.Type) {
		BadRequest(c, "type 可选值：savings、transfer、any")
		return
	}
	if req.Priority == "" {
		req.Priority = models.GoalPriorityMedium
	}
	if !models.IsValidGoalPriority(req.Priority) {
		BadRequest(c, "priority 可选值：low、medium、high")
		return
	}
	targetDate, err := parseTargetDate(req.TargetDate)
	if err != nil {
		BadRequest(c, "target_date 格式错误，应为: 2006-01-02")
		return
	}

	if _, ok := h.access.require(c, req.OrganizationID, true); !ok {
		return
	}

	goal := models.FinancialGoal{
		OrganizationID: req.OrganizationID,
		Name:           req.Title,
		Category:       req.Type,
		TargetAmount:   *req.TargetAmount,
		CurrentAmount:  decimal.Zero,
		Status:         models.GoalStatusActive,
		Priority:       req.Priority,
		TargetDate:     targetDate,
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		goal.CategoryID = req.CategoryID
	}
	if msg := h.checkAttributionCategory(c.Request.Context(), &goal); msg != "" {
		BadRequest(c, msg)
		return
	}

	ctx := c.Request.Context()
	if err := h.goals.Create(ctx, &goal); err != nil {
		InternalServerError(c, err, "创建目标失败")
		return
	}

	synced := h.syncAfterWrite(ctx, &goal)
	SuccessWithMessage(c, "创建成功", toGoalResponse(synced))
}

// Update 更新目标
// @Summary 更新目标
// @Description 更新财务目标，更新后立即按账本流水同步进度。已完成的目标默认不能改回 active。
// @Tags 财务目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateGoalRequest true "目标信息（id 必填）"
// @Success 200 {object} Response{data=GoalResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals [put]
func (h *GoalHandler) Update(c *gin.Context) {
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !models.IsValidID(req.ID) {
		BadRequest(c, "无效的ID")
		return
	}

	ctx := c.Request.Context()
	goal, ok := h.findGoal(c, req.ID)
	if !ok {
		return
	}
	if _, ok := h.access.require(c, goal.OrganizationID, true); !ok {
		return
	}

	updates := make(map[string]interface{})
	candidate := *goal
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			BadRequest(c, "标题不能为空")
			return
		}
		updates["name"] = title
	}
	if req.Type != nil {
		if *req.Type == "" || !models.IsValidGoalCategory(*req.Type) {
			BadRequest(c, "type 可选值：savings、transfer、any")
			return
		}
		updates["category"] = *req.Type
		candidate.Category = *req.Type
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			updates["category_id"] = nil
			candidate.CategoryID = nil
		} else {
			updates["category_id"] = *req.CategoryID
			candidate.CategoryID = req.CategoryID
		}
	}
	if req.Type != nil || req.CategoryID != nil {
		if msg := h.checkAttributionCategory(ctx, &candidate); msg != "" {
			BadRequest(c, msg)
			return
		}
	}
	if req.TargetAmount != nil {
		if req.TargetAmount.IsNegative() {
			BadRequest(c, "目标金额不能为负数")
			return
		}
		updates["target_amount"] = *req.TargetAmount
	}
	if req.Status != nil {
		if !models.IsValidGoalStatus(*req.Status) {
			BadRequest(c, "status 可选值：active、completed")
			return
		}
		if goal.IsCompleted() && *req.Status == models.GoalStatusActive && !h.opts.AllowReopen {
			BadRequest(c, "已完成的目标不能恢复为进行中")
			return
		}
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		if !models.IsValidGoalPriority(*req.Priority) {
			BadRequest(c, "priority 可选值：low、medium、high")
			return
		}
		updates["priority"] = *req.Priority
	}
	if req.TargetDate != nil {
		targetDate, err := parseTargetDate(*req.TargetDate)
		if err != nil {
			BadRequest(c, "target_date 格式错误，应为: 2006-01-02")
			return
		}
		updates["target_date"] = targetDate
	}

	if len(updates) > 0 {
		updated, err := h.goals.Update(ctx, goal.ID, updates)
		if err != nil {
			if errors.Is(err, store.ErrGoalNotFound) {
				NotFound(c, "目标不存在")
				return
			}
			InternalServerError(c, err, "更新失败")
			return
		}
		goal = updated
	}

	synced := h.syncAfterWrite(ctx, goal)
	SuccessWithMessage(c, "更新成功", toGoalResponse(synced))
}

// Delete 删除目标
// @Summary 删除目标
// @Description 删除指定的财务目标
// @Tags 财务目标
// @Produce json
// @Security BearerAuth
// @Param id query string true "目标ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if !models.IsValidID(id) {
		BadRequest(c, "无效的ID")
		return
	}

	goal, ok := h.findGoal(c, id)
	if !ok {
		return
	}
	if _, ok := h.access.require(c, goal.OrganizationID, true); !ok {
		return
	}

	if err := h.goals.Delete(c.Request.Context(), goal.ID); err != nil {
		if errors.Is(err, store.ErrGoalNotFound) {
			NotFound(c, "目标不存在")
			return
		}
		InternalServerError(c, err, "删除失败")
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// Sync 手动同步组织的全部目标
// @Summary 同步目标进度
// @Description 按账本流水重新计算组织内全部目标的进度并回写，单个目标失败不影响其他目标
// @Tags 财务目标
// @Produce json
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Success 200 {object} Response{data=service.SyncReport} "同步完成"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权限"
// @Failure 429 {object} Response "请求过于频繁"
// @Router /api/v1/goals/sync [post]
func (h *GoalHandler) Sync(c *gin.Context) {
	orgID, ok := organizationIDFromQuery(c)
	if !ok {
		return
	}
	if _, ok := h.access.require(c, orgID, true); !ok {
		return
	}

	report, err := h.syncer.SyncAllGoals(c.Request.Context(), orgID, true)
	if err != nil {
		InternalServerError(c, err, "同步失败，请稍后重试")
		return
	}
	SuccessWithMessage(c, "同步完成", report)
}

// findGoal 查询目标，失败时写入响应
func (h *GoalHandler) findGoal(c *gin.Context, id string) (*models.FinancialGoal, bool) {
	goal, err := h.goals.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrGoalNotFound) {
			NotFound(c, "目标不存在")
			return nil, false
		}
		InternalServerError(c, err, "查询失败")
		return nil, false
	}
	return goal, true
}

// checkAttributionCategory 绑定的类别必须属于同一组织，且类型在目标的归集范围内
func (h *GoalHandler) checkAttributionCategory(ctx context.Context, goal *models.FinancialGoal) string {
	if goal.CategoryID == nil {
		return ""
	}
	cat, err := h.categories.FindByID(ctx, *goal.CategoryID)
	if err != nil || cat.OrganizationID != goal.OrganizationID {
		return "无效的类别"
	}
	if !goal.AcceptsCategoryType(cat.Type) {
		return "类别类型与目标类型不匹配"
	}
	return ""
}

// syncAfterWrite 写入后同步进度；同步失败只记录日志，返回已保存的数据
func (h *GoalHandler) syncAfterWrite(ctx context.Context, goal *models.FinancialGoal) *models.FinancialGoal {
	synced, err := h.syncer.SyncGoal(ctx, goal, true)
	if err != nil {
		log.Printf("目标同步失败 goal=%s: %v", goal.ID, err)
	}
	return synced
}

func parseTargetDate(s string) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}
