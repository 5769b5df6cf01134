package store

import "errors"

var (
	// ErrGoalNotFound 目标不存在
	ErrGoalNotFound = errors.New("目标不存在")
	// ErrCategoryNotFound 类别不存在
	ErrCategoryNotFound = errors.New("类别不存在")
	// ErrTransactionNotFound 流水不存在
	ErrTransactionNotFound = errors.New("流水不存在")
	// ErrOrganizationNotFound 组织不存在
	ErrOrganizationNotFound = errors.New("组织不存在")
	// ErrNotMember 当前用户不是组织成员
	ErrNotMember = errors.New("不是该组织成员")
)
