package api

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// LedgerRepository 账本存储
type LedgerRepository interface {
	ListTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, int64, error)
	ExportTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, error)
	SumByCategoryType(ctx context.Context, f store.TransactionFilter) ([]store.CategoryTypeTotal, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	FindTransaction(ctx context.Context, id string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// TransactionHandler 账本流水处理器
type TransactionHandler struct {
	ledger     LedgerRepository
	categories CategoryFinder
	access     memberAccess
	syncer     GoalSyncer
}

func NewTransactionHandler(ledger LedgerRepository, categories CategoryFinder, members MembershipRepository, syncer GoalSyncer) *TransactionHandler {
	return &TransactionHandler{
		ledger:     ledger,
		categories: categories,
		access:     memberAccess{members: members},
		syncer:     syncer,
	}
}

// CreateTransactionRequest 记账请求
type CreateTransactionRequest struct {
	OrganizationID  string           `json:"organization_id" binding:"required"`
	CategoryID      string           `json:"category_id" binding:"required"`
	Amount          *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"500"`
	Description     string           `json:"description" binding:"max=255" example:"每月存款"`
	TransactionDate string           `json:"transaction_date" binding:"required" example:"2026-01-15 12:30:00"`
}

// TransactionListRequest 流水列表请求
type TransactionListRequest struct {
	OrganizationID string `form:"organizationId" binding:"required"`
	Page           int    `form:"page" example:"1"`
	PageSize       int    `form:"page_size" example:"10"`
	CategoryID     string `form:"category_id"`
	StartTime      string `form:"start_time" example:"2026-01-01"`
	EndTime        string `form:"end_time" example:"2026-12-31"`
}

// Create 记录一笔流水
// @Summary 记账
// @Description 在组织账本中记录一笔流水，写入后同步组织的目标进度
// @Tags 账本流水
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "流水信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !models.IsValidID(req.OrganizationID) {
		BadRequest(c, "organization_id 格式错误")
		return
	}
	if req.Amount.IsZero() {
		BadRequest(c, "金额不能为 0")
		return
	}
	txTime, err := parseDateTime(req.TransactionDate)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
		return
	}

	member, ok := h.access.require(c, req.OrganizationID, true)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cat, err := h.categories.FindByID(ctx, req.CategoryID)
	if err != nil || cat.OrganizationID != req.OrganizationID {
		BadRequest(c, "无效的类别")
		return
	}

	tx := models.Transaction{
		OrganizationID:  req.OrganizationID,
		CategoryID:      cat.ID,
		Amount:          *req.Amount,
		Description:     strings.TrimSpace(req.Description),
		TransactionDate: txTime,
		CreatedBy:       member.UserID,
	}
	if err := h.ledger.CreateTransaction(ctx, &tx); err != nil {
		InternalServerError(c, err, "创建流水失败")
		return
	}
	tx.Category = cat

	h.syncGoals(ctx, tx.OrganizationID)
	SuccessWithMessage(c, "创建成功", tx)
}

// List 获取流水列表
// @Summary 获取流水列表
// @Description 分页获取组织的账本流水，支持按类别和时间筛选
// @Tags 账本流水
// @Produce json
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category_id query string false "类别ID"
// @Param start_time query string false "开始时间 (2026-01-01)"
// @Param end_time query string false "结束时间 (2026-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "不是组织成员"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !models.IsValidID(req.OrganizationID) {
		BadRequest(c, "organizationId 格式错误")
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	if _, ok := h.access.require(c, req.OrganizationID, false); !ok {
		return
	}

	filter := store.TransactionFilter{
		OrganizationID: req.OrganizationID,
		CategoryID:     req.CategoryID,
		Page:           req.Page,
		PageSize:       req.PageSize,
	}
	filter.StartTime, filter.EndTime = parseDateRange(req.StartTime, req.EndTime)

	list, total, err := h.ledger.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		InternalServerError(c, err, "查询失败")
		return
	}
	if list == nil {
		list = []models.Transaction{}
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     list,
	})
}

// Delete 删除流水
// @Summary 删除流水
// @Description 删除一笔流水，删除后同步组织的目标进度
// @Tags 账本流水
// @Produce json
// @Security BearerAuth
// @Param id query string true "流水ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "流水不存在"
// @Router /api/v1/transactions [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if !models.IsValidID(id) {
		BadRequest(c, "无效的ID")
		return
	}

	ctx := c.Request.Context()
	tx, err := h.ledger.FindTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			NotFound(c, "流水不存在")
			return
		}
		InternalServerError(c, err, "查询失败")
		return
	}
	if _, ok := h.access.require(c, tx.OrganizationID, true); !ok {
		return
	}

	if err := h.ledger.DeleteTransaction(ctx, tx.ID); err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			NotFound(c, "流水不存在")
			return
		}
		InternalServerError(c, err, "删除失败")
		return
	}

	h.syncGoals(ctx, tx.OrganizationID)
	SuccessWithMessage(c, "删除成功", nil)
}

// syncGoals 账本变更后同步组织目标，失败只记录日志
func (h *TransactionHandler) syncGoals(ctx context.Context, organizationID string) {
	report, err := h.syncer.SyncAllGoals(ctx, organizationID, true)
	if err != nil {
		log.Printf("账本变更后同步目标失败 org=%s: %v", organizationID, err)
		return
	}
	if len(report.Failed) > 0 {
		log.Printf("账本变更后部分目标同步失败 org=%s failed=%v", organizationID, report.Failed)
	}
}

// parseDateTime 支持 "2006-01-02 15:04:05" 与 "2006-01-02"
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// parseDateRange 解析日期范围，结束日期包含当天；格式错误的一端忽略
func parseDateRange(start, end string) (*time.Time, *time.Time) {
	var startTime, endTime *time.Time
	if start != "" {
		if t, err := time.ParseInLocation(dateLayout, start, time.Local); err == nil {
			startTime = &t
		}
	}
	if end != "" {
		if t, err := time.ParseInLocation(dateLayout, end, time.Local); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			endTime = &t
		}
	}
	return startTime, endTime
}
