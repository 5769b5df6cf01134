package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"moneyflow/models"
	"moneyflow/service"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const (
	orgA       = "0b6f3f8e-1111-4a4a-9c1e-000000000001"
	orgB       = "0b6f3f8e-2222-4a4a-9c1e-000000000002"
	catSavings = "c0000000-0000-4000-8000-000000000001"
	catSalary  = "c0000000-0000-4000-8000-000000000002"
	catMove    = "c0000000-0000-4000-8000-000000000003"
	catOtherB  = "c0000000-0000-4000-8000-000000000004"
	goalOne    = "90000000-0000-4000-8000-000000000001"
	goalTwo    = "90000000-0000-4000-8000-000000000002"
	missingID  = "f0000000-0000-4000-8000-00000000ffff"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setUserIDMiddleware(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	resp := Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// memoryBook 内存版的组织账本，同时实现目标、类别、流水和成员存储
type memoryBook struct {
	mu           sync.Mutex
	seq          int
	members      map[string]string // org|user -> role
	categories   map[string]models.Category
	transactions map[string]models.Transaction
	goals        map[string]models.FinancialGoal
	goalUpdates  int
}

func newMemoryBook() *memoryBook {
	b := &memoryBook{
		members:      map[string]string{},
		categories:   map[string]models.Category{},
		transactions: map[string]models.Transaction{},
		goals:        map[string]models.FinancialGoal{},
	}
	b.addCategory(catSavings, orgA, "储蓄", models.CategoryTypeSavings)
	b.addCategory(catSalary, orgA, "工资", models.CategoryTypeIncome)
	b.addCategory(catMove, orgA, "转账", models.CategoryTypeTransfer)
	b.addCategory(catOtherB, orgB, "储蓄", models.CategoryTypeSavings)
	return b
}

func (b *memoryBook) addMember(org, user, role string) {
	b.members[org+"|"+user] = role
}

func (b *memoryBook) addCategory(id, org, name, typ string) {
	b.categories[id] = models.Category{ID: id, OrganizationID: org, Name: name, Type: typ}
}

func (b *memoryBook) addTransaction(org, categoryID, amount string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := models.NewID()
	b.transactions[id] = models.Transaction{
		ID:              id,
		OrganizationID:  org,
		CategoryID:      categoryID,
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: time.Date(2026, 1, b.seq, 12, 0, 0, 0, time.Local),
	}
	return id
}

func (b *memoryBook) addGoal(g models.FinancialGoal) {
	if g.Status == "" {
		g.Status = models.GoalStatusActive
	}
	if g.Category == "" {
		g.Category = models.GoalCategoryAny
	}
	if g.Priority == "" {
		g.Priority = models.GoalPriorityMedium
	}
	b.goals[g.ID] = g
}

func (b *memoryBook) goal(id string) models.FinancialGoal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.goals[id]
}

// MembershipRepository

func (b *memoryBook) FindMembership(ctx context.Context, organizationID, userID string) (*models.OrganizationMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	role, ok := b.members[organizationID+"|"+userID]
	if !ok {
		return nil, store.ErrNotMember
	}
	return &models.OrganizationMember{OrganizationID: organizationID, UserID: userID, Role: role}, nil
}

// CategoryRepository

func (b *memoryBook) FindByCategoryID(id string) (*models.Category, error) {
	cat, ok := b.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return &cat, nil
}

type memoryCategories struct{ *memoryBook }

func (c memoryCategories) FindByID(ctx context.Context, id string) (*models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.FindByCategoryID(id)
}

func (c memoryCategories) ListByOrganization(ctx context.Context, organizationID, categoryType string) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var list []models.Category
	for _, cat := range c.categories {
		if cat.OrganizationID == organizationID && (categoryType == "" || cat.Type == categoryType) {
			list = append(list, cat)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (c memoryCategories) Create(ctx context.Context, cat *models.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat.ID == "" {
		cat.ID = models.NewID()
	}
	c.categories[cat.ID] = *cat
	return nil
}

// GoalRepository

func (b *memoryBook) FindByID(ctx context.Context, id string) (*models.FinancialGoal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.goals[id]
	if !ok {
		return nil, store.ErrGoalNotFound
	}
	return &g, nil
}

func (b *memoryBook) FindAllByOrganization(ctx context.Context, organizationID string) ([]models.FinancialGoal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var list []models.FinancialGoal
	for _, g := range b.goals {
		if g.OrganizationID == organizationID {
			list = append(list, g)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (b *memoryBook) Create(ctx context.Context, goal *models.FinancialGoal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if goal.ID == "" {
		goal.ID = models.NewID()
	}
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = goal.CreatedAt
	b.goals[goal.ID] = *goal
	return nil
}

func (b *memoryBook) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.FinancialGoal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.goals[id]
	if !ok {
		return nil, store.ErrGoalNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			g.Name = v.(string)
		case "category":
			g.Category = v.(string)
		case "category_id":
			if v == nil {
				g.CategoryID = nil
			} else {
				s := v.(string)
				g.CategoryID = &s
			}
		case "target_amount":
			g.TargetAmount = v.(decimal.Decimal)
		case "current_amount":
			g.CurrentAmount = v.(decimal.Decimal)
		case "status":
			g.Status = v.(string)
		case "priority":
			g.Priority = v.(string)
		case "target_date":
			g.TargetDate = v.(*datatypes.Date)
		case "updated_at":
			g.UpdatedAt = v.(time.Time)
		}
	}
	b.goals[id] = g
	b.goalUpdates++
	return &g, nil
}

func (b *memoryBook) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.goals[id]; !ok {
		return store.ErrGoalNotFound
	}
	delete(b.goals, id)
	return nil
}

// LedgerRepository

type memoryLedger struct{ *memoryBook }

func (l memoryLedger) FindTransactionsForGoalAttribution(ctx context.Context, organizationID string, rule models.AttributionRule) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []models.LedgerEntry
	for _, tx := range l.transactions {
		cat, ok := l.categories[tx.CategoryID]
		if !ok || tx.OrganizationID != organizationID || cat.OrganizationID != organizationID {
			continue
		}
		e := models.LedgerEntry{Amount: tx.Amount, CategoryID: tx.CategoryID, CategoryType: cat.Type}
		if rule.Matches(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (l memoryLedger) matching(f store.TransactionFilter) []models.Transaction {
	var list []models.Transaction
	for _, tx := range l.transactions {
		if tx.OrganizationID != f.OrganizationID {
			continue
		}
		if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
			continue
		}
		if f.StartTime != nil && tx.TransactionDate.Before(*f.StartTime) {
			continue
		}
		if f.EndTime != nil && tx.TransactionDate.After(*f.EndTime) {
			continue
		}
		if cat, ok := l.categories[tx.CategoryID]; ok {
			tx.Category = &cat
		}
		list = append(list, tx)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TransactionDate.After(list[j].TransactionDate) })
	return list
}

func (l memoryLedger) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := l.matching(f)
	start := (f.Page - 1) * f.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (l memoryLedger) ExportTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matching(f), nil
}

func (l memoryLedger) SumByCategoryType(ctx context.Context, f store.TransactionFilter) ([]store.CategoryTypeTotal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	totals := map[string]decimal.Decimal{}
	for _, tx := range l.matching(f) {
		typ := l.categories[tx.CategoryID].Type
		totals[typ] = totals[typ].Add(tx.Amount)
	}
	var rows []store.CategoryTypeTotal
	for typ, total := range totals {
		rows = append(rows, store.CategoryTypeTotal{CategoryType: typ, Total: total})
	}
	return rows, nil
}

func (l memoryLedger) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx.ID == "" {
		tx.ID = models.NewID()
	}
	l.transactions[tx.ID] = *tx
	return nil
}

func (l memoryLedger) FindTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return &tx, nil
}

func (l memoryLedger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.transactions[id]; !ok {
		return store.ErrTransactionNotFound
	}
	delete(l.transactions, id)
	return nil
}

// testServer 用内存账本和真实同步器组装路由
type testServer struct {
	book   *memoryBook
	router *gin.Engine
}

func newTestServer(userID string, opts GoalHandlerOptions) *testServer {
	book := newMemoryBook()
	cats := memoryCategories{book}
	ledger := memoryLedger{book}
	syncer := service.NewGoalSynchronizer(book, ledger, service.WithReopenPolicy(opts.AllowReopen))

	goals := NewGoalHandler(book, cats, book, syncer, opts)
	txs := NewTransactionHandler(ledger, cats, book, syncer)
	categories := NewCategoryHandler(cats, book)

	r := gin.New()
	r.Use(setUserIDMiddleware(userID))
	r.GET("/goals", goals.List)
	r.POST("/goals", goals.Create)
	r.PUT("/goals", goals.Update)
	r.DELETE("/goals", goals.Delete)
	r.POST("/goals/sync", goals.Sync)
	r.GET("/goals/export", goals.Export)
	r.GET("/transactions", txs.List)
	r.POST("/transactions", txs.Create)
	r.DELETE("/transactions", txs.Delete)
	r.GET("/transactions/summary", txs.Summary)
	r.GET("/transactions/export", txs.ExportCSV)
	r.GET("/categories", categories.List)
	r.POST("/categories", categories.Create)
	return &testServer{book: book, router: r}
}
