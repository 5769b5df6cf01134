package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// ExportCSV 导出账本流水为 CSV
// @Summary 导出账本流水
// @Description 根据时间范围导出组织的账本流水为 CSV 文件
// @Tags 账本流水
// @Produce text/csv
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Param start_time query string true "开始时间 (2026-01-01)"
// @Param end_time query string true "结束时间 (2026-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "不是组织成员"
// @Router /api/v1/transactions/export [get]
func (h *TransactionHandler) ExportCSV(c *gin.Context) {
	orgID, ok := organizationIDFromQuery(c)
	if !ok {
		return
	}

	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")
	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return
	}
	startTime, err := time.ParseInLocation(dateLayout, startTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return
	}
	endTime, err := time.ParseInLocation(dateLayout, endTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return
	}
	endTime = endTime.Add(24*time.Hour - time.Second)

	if _, ok := h.access.require(c, orgID, false); !ok {
		return
	}

	list, err := h.ledger.ExportTransactions(c.Request.Context(), store.TransactionFilter{
		OrganizationID: orgID,
		StartTime:      &startTime,
		EndTime:        &endTime,
	})
	if err != nil {
		InternalServerError(c, err, "查询数据失败")
		return
	}

	buf := new(bytes.Buffer)
	// BOM，Excel 打开时中文不乱码
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	headers := []string{"ID", "金额", "类别", "类别类型", "描述", "交易时间", "记录人"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, tx := range list {
		categoryName, categoryType := "", ""
		if tx.Category != nil {
			categoryName = tx.Category.Name
			categoryType = tx.Category.Type
		}
		row := []string{
			tx.ID,
			tx.Amount.StringFixed(2),
			categoryName,
			categoryType,
			tx.Description,
			tx.TransactionDate.Format(dateTimeLayout),
			tx.CreatedBy,
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", startTimeStr, endTimeStr)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
