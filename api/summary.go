package api

import (
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerSummaryResponse 按类别类型汇总的流水金额
type LedgerSummaryResponse struct {
	TotalIncome   decimal.Decimal `json:"total_income" swaggertype:"string" example:"5000.00"`
	TotalExpense  decimal.Decimal `json:"total_expense" swaggertype:"string" example:"123.45"`
	TotalSavings  decimal.Decimal `json:"total_savings" swaggertype:"string" example:"1000.00"`
	TotalTransfer decimal.Decimal `json:"total_transfer" swaggertype:"string" example:"200.00"`
}

// Summary 获取账本汇总
// @Summary 获取账本汇总
// @Description 按时间范围统计组织的收入、支出、储蓄与转账总额。不传 start_time/end_time 则统计全部时间。
// @Tags 账本流水
// @Produce json
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Param start_time query string false "开始时间 (YYYY-MM-DD)，例如 2026-01-01"
// @Param end_time query string false "结束时间 (YYYY-MM-DD)，例如 2026-12-31"
// @Success 200 {object} Response{data=LedgerSummaryResponse} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "不是组织成员"
// @Router /api/v1/transactions/summary [get]
func (h *TransactionHandler) Summary(c *gin.Context) {
	orgID, ok := organizationIDFromQuery(c)
	if !ok {
		return
	}
	if _, ok := h.access.require(c, orgID, false); !ok {
		return
	}

	filter := store.TransactionFilter{OrganizationID: orgID}
	filter.StartTime, filter.EndTime = parseDateRange(c.Query("start_time"), c.Query("end_time"))

	rows, err := h.ledger.SumByCategoryType(c.Request.Context(), filter)
	if err != nil {
		InternalServerError(c, err, "统计失败")
		return
	}

	resp := LedgerSummaryResponse{
		TotalIncome:   decimal.Zero,
		TotalExpense:  decimal.Zero,
		TotalSavings:  decimal.Zero,
		TotalTransfer: decimal.Zero,
	}
	for _, r := range rows {
		switch r.CategoryType {
		case models.CategoryTypeIncome:
			resp.TotalIncome = r.Total
		case models.CategoryTypeExpense:
			resp.TotalExpense = r.Total
		case models.CategoryTypeSavings:
			resp.TotalSavings = r.Total
		case models.CategoryTypeTransfer:
			resp.TotalTransfer = r.Total
		}
	}
	Success(c, resp)
}
