package service

import (
	"context"
	"strings"
	"time"

	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"
)

// 审计动作
const (
	AuthzAuditGrantPolicy   = "grant_policy"
	AuthzAuditRevokePolicy  = "revoke_policy"
	AuthzAuditSetAdminRoles = "set_admin_roles"
)

// AuthzAuditRecordInput 审计记录输入
type AuthzAuditRecordInput struct {
	OperatorAdminID  uint
	OperatorUsername string
	TargetAdminID    *uint
	Action           string
	Role             string
	Object           string
	Method           string
	RequestID        string
	Detail           models.JSON
}

// AuthzAuditService 权限变更审计
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
	now  func() time.Time
}

// NewAuthzAuditService 创建审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo, now: time.Now}
}

// Record 写入审计。写入失败只记日志，不影响已生效的权限变更。
func (s *AuthzAuditService) Record(ctx context.Context, input AuthzAuditRecordInput) {
	if s == nil || s.repo == nil || strings.TrimSpace(input.Action) == "" {
		return
	}
	item := &models.AuthzAuditLog{
		OperatorAdminID:  input.OperatorAdminID,
		OperatorUsername: strings.TrimSpace(input.OperatorUsername),
		TargetAdminID:    input.TargetAdminID,
		Action:           strings.TrimSpace(input.Action),
		Role:             strings.TrimSpace(input.Role),
		Object:           strings.TrimSpace(input.Object),
		Method:           strings.ToUpper(strings.TrimSpace(input.Method)),
		RequestID:        strings.TrimSpace(input.RequestID),
		Detail:           input.Detail,
		CreatedAt:        s.now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		logger.Warnw("authz_audit_record_failed",
			"action", item.Action,
			"operator_admin_id", item.OperatorAdminID,
			"request_id", item.RequestID,
			"error", err,
		)
	}
}

// List 查询审计
func (s *AuthzAuditService) List(ctx context.Context, filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	return s.repo.List(ctx, filter)
}
