package models

import (
	"time"

	"gorm.io/gorm"
)

// 成员角色
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Organization 组织（租户），所有财务数据按组织隔离
type Organization struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Name        string         `json:"name" gorm:"size:100;not null"`
	NotifyEmail string         `json:"notify_email" gorm:"size:100"` // 目标达成通知邮箱，空则不发送
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = NewID()
	}
	return nil
}

// OrganizationMember 组织成员
type OrganizationMember struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID string    `json:"organization_id" gorm:"size:36;not null;uniqueIndex:idx_org_user"`
	UserID         string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_org_user;index"` // 外部认证服务的用户标识
	Role           string    `json:"role" gorm:"size:20;not null;default:member"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

func (m *OrganizationMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

// CanWrite viewer 只读，其余角色可写
func (m *OrganizationMember) CanWrite() bool {
	switch m.Role {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}
