package api

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const goalSheetName = "财务目标"

var goalStatusLabels = map[string]string{
	"active":    "进行中",
	"completed": "已完成",
}

// Export 导出组织的目标为 Excel
// @Summary 导出目标
// @Description 按最新进度导出组织的全部财务目标为 xlsx 文件
// @Tags 财务目标
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "不是组织成员"
// @Router /api/v1/goals/export [get]
func (h *GoalHandler) Export(c *gin.Context) {
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
	list := toGoalResponses(goals)

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", goalSheetName)

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})

	f.SetColWidth(goalSheetName, "A", "A", 24)
	f.SetColWidth(goalSheetName, "B", "B", 10)
	f.SetColWidth(goalSheetName, "C", "E", 15)
	f.SetColWidth(goalSheetName, "F", "G", 10)
	f.SetColWidth(goalSheetName, "H", "H", 14)

	headers := []string{"目标", "类型", "目标金额", "当前金额", "达成率(%)", "状态", "优先级", "截止日期"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(goalSheetName, cell, header)
		f.SetCellStyle(goalSheetName, cell, cell, headerStyle)
	}

	for i, g := range list {
		row := i + 2
		status := goalStatusLabels[g.Status]
		if status == "" {
			status = g.Status
		}
		targetDate := ""
		if g.TargetDate != nil {
			targetDate = *g.TargetDate
		}
		f.SetCellValue(goalSheetName, fmt.Sprintf("A%d", row), g.Title)
		f.SetCellValue(goalSheetName, fmt.Sprintf("B%d", row), g.Type)
		f.SetCellValue(goalSheetName, fmt.Sprintf("C%d", row), g.TargetAmount.InexactFloat64())
		f.SetCellValue(goalSheetName, fmt.Sprintf("D%d", row), g.CurrentAmount.InexactFloat64())
		f.SetCellValue(goalSheetName, fmt.Sprintf("E%d", row), g.AchievementRate.InexactFloat64())
		f.SetCellValue(goalSheetName, fmt.Sprintf("F%d", row), status)
		f.SetCellValue(goalSheetName, fmt.Sprintf("G%d", row), g.Priority)
		f.SetCellValue(goalSheetName, fmt.Sprintf("H%d", row), targetDate)
		f.SetCellStyle(goalSheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), dataStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	filename := fmt.Sprintf("财务目标_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
