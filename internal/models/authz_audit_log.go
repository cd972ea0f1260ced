package models

import "time"

// AuthzAuditLog 权限变更审计
type AuthzAuditLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OperatorAdminID  uint      `gorm:"index;not null" json:"operatorAdminId"`
	OperatorUsername string    `gorm:"size:100;not null;default:''" json:"operatorUsername"`
	TargetAdminID    *uint     `gorm:"index" json:"targetAdminId,omitempty"`
	Action           string    `gorm:"size:64;index;not null" json:"action"`
	Role             string    `gorm:"size:120;index;not null;default:''" json:"role"`
	Object           string    `gorm:"size:255;not null;default:''" json:"object"`
	Method           string    `gorm:"size:20;not null;default:''" json:"method"`
	RequestID        string    `gorm:"size:128;not null;default:''" json:"requestId"`
	Detail           JSON      `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
}

// TableName 指定表名
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}
