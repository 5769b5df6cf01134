package api

import (
	"context"
	"strings"

	"moneyflow/middleware"
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// OrganizationRepository 组织存储
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, org *models.Organization, ownerUserID string) error
	ListOrganizations(ctx context.Context, userID string) ([]store.OrganizationWithRole, error)
}

// OrganizationHandler 组织处理器
type OrganizationHandler struct {
	orgs OrganizationRepository
}

func NewOrganizationHandler(orgs OrganizationRepository) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// CreateOrganizationRequest 创建组织请求
type CreateOrganizationRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"我的家庭"`
	NotifyEmail string `json:"notify_email" binding:"omitempty,email" example:"family@example.com"`
}

// Create 创建组织
// @Summary 创建组织
// @Description 创建组织，当前用户成为 owner，并初始化默认类别
// @Tags 组织
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrganizationRequest true "组织信息"
// @Success 200 {object} Response{data=models.Organization} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	if userID == "" {
		Unauthorized(c, "请先登录")
		return
	}

	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	org := models.Organization{
		Name:        req.Name,
		NotifyEmail: req.NotifyEmail,
	}
	if err := h.orgs.CreateOrganization(c.Request.Context(), &org, userID); err != nil {
		InternalServerError(c, err, "创建组织失败")
		return
	}

	SuccessWithMessage(c, "创建成功", org)
}

// List 获取当前用户所在的组织
// @Summary 获取组织列表
// @Description 返回当前用户所在的全部组织及其角色
// @Tags 组织
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]store.OrganizationWithRole} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	if userID == "" {
		Unauthorized(c, "请先登录")
		return
	}

	list, err := h.orgs.ListOrganizations(c.Request.Context(), userID)
	if err != nil {
		InternalServerError(c, err, "查询失败")
		return
	}
	if list == nil {
		list = []store.OrganizationWithRole{}
	}
	Success(c, list)
}
