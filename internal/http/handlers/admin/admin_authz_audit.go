package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/vitrine-next/internal/constants"
	handlershared "github.com/vitrine-next/internal/http/handlers/shared"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAuthzAuditLogs 权限变更审计列表
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.AuthzAuditLogListFilter{
		Action:   strings.TrimSpace(c.Query("action")),
		Role:     strings.TrimSpace(c.Query("role")),
		Page:     page,
		PageSize: pageSize,
	}

	var ok bool
	if filter.OperatorAdminID, ok = parseOptionalUintQuery(c, "operator_admin_id"); !ok {
		return
	}
	if filter.TargetAdminID, ok = parseOptionalUintQuery(c, "target_admin_id"); !ok {
		return
	}
	if filter.CreatedFrom, ok = parseOptionalTimeQuery(c, "created_from"); !ok {
		return
	}
	if filter.CreatedTo, ok = parseOptionalTimeQuery(c, "created_to"); !ok {
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()
	logs, total, err := h.AuthzAuditService.List(ctx, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, "logs", logs, response.NewPagination(page, pageSize, total))
}

// recordAuthzAudit 记录当前管理员的权限变更
func (h *Handler) recordAuthzAudit(c *gin.Context, input service.AuthzAuditRecordInput) {
	input.OperatorAdminID = currentAdminID(c)
	input.OperatorUsername = currentUsername(c)
	input.RequestID = c.GetString(constants.ContextKeyRequestID)
	h.AuthzAuditService.Record(c.Request.Context(), input)
}

func policyDetail(object, action string) models.JSON {
	return models.JSON{"object": object, "action": action}
}

func parseOptionalUintQuery(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(value), true
}

// parseOptionalTimeQuery 支持 RFC3339 与 2006-01-02
func parseOptionalTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, true
		}
	}
	respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	return nil, false
}
