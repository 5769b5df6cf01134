package api

import (
	"context"
	"errors"

	"moneyflow/middleware"
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// MembershipRepository 成员校验所需的存储
type MembershipRepository interface {
	FindMembership(ctx context.Context, organizationID, userID string) (*models.OrganizationMember, error)
}

// memberAccess 校验当前用户对组织的访问权限
// 校验失败时已写入响应，调用方直接返回
type memberAccess struct {
	members MembershipRepository
}

func (a memberAccess) require(c *gin.Context, organizationID string, write bool) (*models.OrganizationMember, bool) {
	userID := middleware.GetCurrentUserID(c)
	if userID == "" {
		Unauthorized(c, "请先登录")
		return nil, false
	}

	member, err := a.members.FindMembership(c.Request.Context(), organizationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotMember) {
			Forbidden(c, "无权访问该组织")
			return nil, false
		}
		InternalServerError(c, err, "校验组织成员失败")
		return nil, false
	}
	if write && !member.CanWrite() {
		Forbidden(c, "当前角色没有修改权限")
		return nil, false
	}
	return member, true
}

// organizationIDFromQuery 读取并校验 organizationId 查询参数
func organizationIDFromQuery(c *gin.Context) (string, bool) {
	orgID := c.Query("organizationId")
	if orgID == "" {
		BadRequest(c, "organizationId 参数必填")
		return "", false
	}
	if !models.IsValidID(orgID) {
		BadRequest(c, "organizationId 格式错误")
		return "", false
	}
	return orgID, true
}
