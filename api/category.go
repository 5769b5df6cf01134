package api

import (
	"context"
	"strings"

	"moneyflow/models"

	"github.com/gin-gonic/gin"
)

// CategoryRepository 类别存储
type CategoryRepository interface {
	CategoryFinder
	ListByOrganization(ctx context.Context, organizationID, categoryType string) ([]models.Category, error)
	Create(ctx context.Context, cat *models.Category) error
}

// CategoryHandler 交易类别处理器
type CategoryHandler struct {
	categories CategoryRepository
	access     memberAccess
}

func NewCategoryHandler(categories CategoryRepository, members MembershipRepository) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		access:     memberAccess{members: members},
	}
}

type CategoryCreateRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=50"`
	Type  string `json:"type" binding:"required" example:"savings"`
	Sort  int    `json:"sort"`
	Color string `json:"color" binding:"omitempty,max=20"` // 颜色代码，如 #ef4444
}

// List 列出组织的类别
// @Summary 获取类别列表
// @Description 获取组织的交易类别，可按类型过滤
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Param type query string false "类别类型 income/expense/savings/transfer"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "不是组织成员"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	orgID, ok := organizationIDFromQuery(c)
	if !ok {
		return
	}
	categoryType := c.Query("type")
	if categoryType != "" && !models.IsValidCategoryType(categoryType) {
		BadRequest(c, "type 可选值：income、expense、savings、transfer")
		return
	}
	if _, ok := h.access.require(c, orgID, false); !ok {
		return
	}

	list, err := h.categories.ListByOrganization(c.Request.Context(), orgID, categoryType)
	if err != nil {
		InternalServerError(c, err, "查询失败")
		return
	}
	if list == nil {
		list = []models.Category{}
	}
	Success(c, list)
}

// Create 创建类别
// @Summary 创建类别
// @Description 在组织内创建交易类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param organizationId query string true "组织ID"
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	orgID, ok := organizationIDFromQuery(c)
	if !ok {
		return
	}

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}
	if !models.IsValidCategoryType(req.Type) {
		BadRequest(c, "type 可选值：income、expense、savings、transfer")
		return
	}
	if _, ok := h.access.require(c, orgID, true); !ok {
		return
	}

	cat := models.Category{
		OrganizationID: orgID,
		Name:           req.Name,
		Type:           req.Type,
		Sort:           req.Sort,
		Color:          req.Color,
	}
	if cat.Color == "" {
		cat.Color = "#64748b"
	}
	if err := h.categories.Create(c.Request.Context(), &cat); err != nil {
		InternalServerError(c, err, "创建失败")
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}
