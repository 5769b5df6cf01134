package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"moneyflow/models"
	"moneyflow/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const userA = "user-a"

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGoalHandler_List_SyncsFromLedger(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "应急基金", TargetAmount: decimal.NewFromInt(10000)})
	s.book.addTransaction(orgA, catSavings, "500")
	s.book.addTransaction(orgA, catSalary, "9999")

	w := s.do(http.MethodGet, "/goals?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)

	var goals []GoalResponse
	resp := decodeResponse(t, w, &goals)
	assert.Equal(t, 200, resp.Code)
	require.Len(t, goals, 1)
	assert.Equal(t, "应急基金", goals[0].Title)
	assert.Equal(t, models.GoalCategoryAny, goals[0].Type)
	assert.True(t, goals[0].CurrentAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, goals[0].AchievementRate.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, models.GoalStatusActive, goals[0].Status)

	// 默认读时不回写
	assert.True(t, s.book.goal(goalOne).CurrentAmount.IsZero())
}

func TestGoalHandler_List_PersistOnRead(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{PersistOnRead: true})
	s.book.addMember(orgA, userA, models.RoleViewer)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "旅行", TargetAmount: decimal.NewFromInt(1000)})
	s.book.addTransaction(orgA, catMove, "250")
	s.book.addTransaction(orgA, catMove, "-50")

	w := s.do(http.MethodGet, "/goals?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.book.goal(goalOne).CurrentAmount.Equal(decimal.NewFromInt(200)))
}

func TestGoalHandler_List_CompletesGoal(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "首付", TargetAmount: decimal.NewFromInt(1000)})
	s.book.addTransaction(orgA, catSavings, "600")
	s.book.addTransaction(orgA, catSavings, "400")

	w := s.do(http.MethodGet, "/goals?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)

	var goals []GoalResponse
	decodeResponse(t, w, &goals)
	require.Len(t, goals, 1)
	assert.Equal(t, models.GoalStatusCompleted, goals[0].Status)
	assert.True(t, goals[0].AchievementRate.Equal(decimal.NewFromInt(100)))

	stored := s.book.goal(goalOne)
	assert.Equal(t, models.GoalStatusCompleted, stored.Status)
	assert.True(t, stored.CurrentAmount.Equal(decimal.NewFromInt(1000)))
}

func TestGoalHandler_List_Validation(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"缺少组织", "/goals", http.StatusBadRequest},
		{"组织ID格式错误", "/goals?organizationId=abc", http.StatusBadRequest},
		{"非成员", "/goals?organizationId=" + orgB, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestGoalHandler_List_TenantIsolation(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "A", TargetAmount: decimal.NewFromInt(100)})
	s.book.addGoal(models.FinancialGoal{ID: goalTwo, OrganizationID: orgB, Name: "B", TargetAmount: decimal.NewFromInt(100)})
	s.book.addTransaction(orgB, catOtherB, "100")

	w := s.do(http.MethodGet, "/goals?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)

	var goals []GoalResponse
	decodeResponse(t, w, &goals)
	require.Len(t, goals, 1)
	assert.Equal(t, goalOne, goals[0].ID)
	assert.True(t, goals[0].CurrentAmount.IsZero())
	assert.Equal(t, models.GoalStatusActive, s.book.goal(goalTwo).Status)
}

func TestGoalHandler_Create(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addTransaction(orgA, catSavings, "300")

	body := `{"organization_id":"` + orgA + `","title":" 应急基金 ","type":"savings","target_amount":"1000","priority":"high","target_date":"2026-12-31"}`
	w := s.do(http.MethodPost, "/goals", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var goal GoalResponse
	resp := decodeResponse(t, w, &goal)
	assert.Equal(t, "创建成功", resp.Message)
	assert.Equal(t, "应急基金", goal.Title)
	assert.Equal(t, models.GoalCategorySavings, goal.Type)
	assert.True(t, goal.CurrentAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, goal.AchievementRate.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, goal.TargetDate)
	assert.Equal(t, "2026-12-31", *goal.TargetDate)

	stored := s.book.goal(goal.ID)
	assert.True(t, stored.CurrentAmount.Equal(decimal.NewFromInt(300)))
}

func TestGoalHandler_Create_AlreadyAchieved(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleOwner)
	s.book.addTransaction(orgA, catSavings, "1500")

	w := s.do(http.MethodPost, "/goals", `{"organization_id":"`+orgA+`","title":"小目标","target_amount":"1000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var goal GoalResponse
	decodeResponse(t, w, &goal)
	assert.Equal(t, models.GoalStatusCompleted, goal.Status)
	assert.True(t, goal.AchievementRate.Equal(decimal.NewFromInt(150)))
}

func TestGoalHandler_Create_Validation(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addMember(orgB, userA, models.RoleViewer)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"缺少标题", `{"organization_id":"` + orgA + `","target_amount":"100"}`, http.StatusBadRequest},
		{"缺少目标金额", `{"organization_id":"` + orgA + `","title":"x"}`, http.StatusBadRequest},
		{"负数金额", `{"organization_id":"` + orgA + `","title":"x","target_amount":"-1"}`, http.StatusBadRequest},
		{"无效类型", `{"organization_id":"` + orgA + `","title":"x","target_amount":"1","type":"income"}`, http.StatusBadRequest},
		{"无效优先级", `{"organization_id":"` + orgA + `","title":"x","target_amount":"1","priority":"urgent"}`, http.StatusBadRequest},
		{"日期格式错误", `{"organization_id":"` + orgA + `","title":"x","target_amount":"1","target_date":"31/12/2026"}`, http.StatusBadRequest},
		{"类别类型不匹配", `{"organization_id":"` + orgA + `","title":"x","target_amount":"1","type":"savings","category_id":"` + catMove + `"}`, http.StatusBadRequest},
		{"其他组织的类别", `{"organization_id":"` + orgA + `","title":"x","target_amount":"1","category_id":"` + catOtherB + `"}`, http.StatusBadRequest},
		{"只读成员", `{"organization_id":"` + orgB + `","title":"x","target_amount":"1"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/goals", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, s.book.goals)
}

func TestGoalHandler_Update(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleAdmin)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "旧名称", TargetAmount: decimal.NewFromInt(1000)})
	s.book.addTransaction(orgA, catSavings, "250")
	s.book.addTransaction(orgA, catMove, "250")

	body := `{"id":"` + goalOne + `","title":"新名称","type":"savings","category_id":"` + catSavings + `","target_amount":"500"}`
	w := s.do(http.MethodPut, "/goals", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var goal GoalResponse
	decodeResponse(t, w, &goal)
	assert.Equal(t, "新名称", goal.Title)
	require.NotNil(t, goal.CategoryID)
	assert.Equal(t, catSavings, *goal.CategoryID)
	assert.True(t, goal.CurrentAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, goal.AchievementRate.Equal(decimal.NewFromInt(50)))
}

func TestGoalHandler_Update_LoweredTargetCompletes(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "x", TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(400)})
	s.book.addTransaction(orgA, catSavings, "400")

	w := s.do(http.MethodPut, "/goals", `{"id":"`+goalOne+`","target_amount":"400"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.GoalStatusCompleted, s.book.goal(goalOne).Status)
}

func TestGoalHandler_Update_ReopenRejected(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "x", TargetAmount: decimal.NewFromInt(100), Status: models.GoalStatusCompleted})

	w := s.do(http.MethodPut, "/goals", `{"id":"`+goalOne+`","status":"active"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.GoalStatusCompleted, s.book.goal(goalOne).Status)
}

func TestGoalHandler_Update_ReopenAllowed(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{AllowReopen: true})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "x", TargetAmount: decimal.NewFromInt(100), Status: models.GoalStatusCompleted})
	s.book.addTransaction(orgA, catSavings, "100")

	// 提高目标金额后达成率回落，恢复为进行中
	w := s.do(http.MethodPut, "/goals", `{"id":"`+goalOne+`","target_amount":"200"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var goal GoalResponse
	decodeResponse(t, w, &goal)
	assert.Equal(t, models.GoalStatusActive, goal.Status)
	assert.True(t, goal.AchievementRate.Equal(decimal.NewFromInt(50)))
}

func TestGoalHandler_Update_NotFound(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)

	w := s.do(http.MethodPut, "/goals", `{"id":"`+missingID+`","title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoalHandler_Update_OtherOrganization(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalTwo, OrganizationID: orgB, Name: "B", TargetAmount: decimal.NewFromInt(100)})

	w := s.do(http.MethodPut, "/goals", `{"id":"`+goalTwo+`","title":"改名"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "B", s.book.goal(goalTwo).Name)
}

func TestGoalHandler_Delete(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "x", TargetAmount: decimal.NewFromInt(100)})

	w := s.do(http.MethodDelete, "/goals?id="+goalOne, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, s.book.goals, goalOne)

	w = s.do(http.MethodDelete, "/goals?id="+goalOne, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/goals?id=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoalHandler_Sync(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "储蓄", Category: models.GoalCategorySavings, TargetAmount: decimal.NewFromInt(100)})
	s.book.addGoal(models.FinancialGoal{ID: goalTwo, OrganizationID: orgA, Name: "转账", Category: models.GoalCategoryTransfer, TargetAmount: decimal.NewFromInt(1000)})
	s.book.addTransaction(orgA, catSavings, "120")
	s.book.addTransaction(orgA, catMove, "10")

	w := s.do(http.MethodPost, "/goals/sync?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)

	var report service.SyncReport
	decodeResponse(t, w, &report)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, []string{goalOne}, report.Completed)
	assert.Empty(t, report.Failed)
	assert.True(t, s.book.goal(goalTwo).CurrentAmount.Equal(decimal.NewFromInt(10)))

	// 没有新流水时再次同步不产生写入
	updates := s.book.goalUpdates
	w = s.do(http.MethodPost, "/goals/sync?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, updates, s.book.goalUpdates)
}

func TestGoalHandler_Sync_ViewerForbidden(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleViewer)

	w := s.do(http.MethodPost, "/goals/sync?organizationId="+orgA, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGoalHandler_Export(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleViewer)
	s.book.addGoal(models.FinancialGoal{ID: goalOne, OrganizationID: orgA, Name: "应急基金", TargetAmount: decimal.NewFromInt(1000)})
	s.book.addTransaction(orgA, catSavings, "250")

	w := s.do(http.MethodGet, "/goals/export?organizationId="+orgA, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(goalSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "应急基金", title)
	rate, err := f.GetCellValue(goalSheetName, "E2")
	require.NoError(t, err)
	assert.Equal(t, "25", rate)
	status, err := f.GetCellValue(goalSheetName, "F2")
	require.NoError(t, err)
	assert.Equal(t, "进行中", status)
}

func TestGoalHandler_CurrentAmountFollowsLedger(t *testing.T) {
	s := newTestServer(userA, GoalHandlerOptions{})
	s.book.addMember(orgA, userA, models.RoleMember)
	s.book.addTransaction(orgA, catSavings, "300")

	w := s.do(http.MethodPost, "/goals", `{"organization_id":"`+orgA+`","title":"x","type":"savings","target_amount":"1000","current_amount":"900"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created GoalResponse
	decodeResponse(t, w, &created)
	assert.True(t, created.CurrentAmount.Equal(decimal.NewFromInt(300)))

	w = s.do(http.MethodPut, "/goals", `{"id":"`+created.ID+`","title":"y","current_amount":"1000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated GoalResponse
	decodeResponse(t, w, &updated)
	assert.True(t, updated.CurrentAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, models.GoalStatusActive, updated.Status)
	assert.True(t, s.book.goal(created.ID).CurrentAmount.Equal(decimal.NewFromInt(300)))
}
