package models

import "github.com/google/uuid"

// NewID 生成实体主键（UUID 字符串）
func NewID() string {
	return uuid.NewString()
}

// IsValidID 校验是否为合法的 UUID
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
