package i18n

var catalogs = map[string]map[string]string{
	LocalePtBR: {
		"error.bad_request":            "Requisição inválida",
		"error.unauthorized":           "Não autorizado",
		"error.forbidden":              "Acesso negado",
		"error.not_found":              "Recurso não encontrado",
		"error.too_many_requests":      "Muitas requisições, tente novamente em instantes",
		"error.payload_too_large":      "Corpo da requisição muito grande",
		"error.internal":               "Erro interno do servidor",
		"error.cart_value_invalid":     "Valor do carrinho inválido",
		"error.coupon_code_required":   "Código do cupom é obrigatório",
		"error.coupon_not_found":       "Cupom não encontrado",
		"error.coupon_inactive":        "Cupom inativo",
		"error.coupon_not_started":     "Cupom ainda não está válido",
		"error.coupon_expired":         "Cupom expirado",
		"error.coupon_usage_limit":     "Cupom esgotado",
		"error.coupon_per_user_limit":  "Limite de uso por cliente atingido",
		"error.coupon_min_amount":      "Valor mínimo do pedido: R$ %s",
		"error.coupon_validate_failed": "Erro ao validar cupom",
		"error.coupon_code_exists":     "Código de cupom já existe",
		"error.coupon_code_invalid":    "Código de cupom inválido",
		"error.coupon_type_invalid":    "Tipo de cupom inválido",
		"error.coupon_value_invalid":   "Valor do cupom inválido",
		"error.coupon_limit_invalid":   "Limite de uso inválido",
		"error.coupon_window_invalid":  "Período de validade inválido",
		"error.coupon_fetch_failed":    "Erro ao buscar cupons",
		"error.coupon_create_failed":   "Erro ao criar cupom",
		"error.coupon_update_failed":   "Erro ao atualizar cupom",
		"error.coupon_delete_failed":   "Erro ao deletar cupom",
		"error.coupon_stats_failed":    "Erro ao carregar estatísticas de cupons",
		"error.redemption_invalid":     "Dados de resgate inválidos",
		"error.redemption_not_found":   "Resgate não encontrado",
		"error.redemption_failed":      "Erro ao registrar resgate do cupom",
		"error.role_invalid":           "Perfil inválido",
		"error.authz_failed":           "Erro ao atualizar permissões",
		"error.audit_fetch_failed":     "Erro ao consultar auditoria",
		"message.coupon_deleted":       "Cupom deletado",
		"message.redemption_queued":    "Resgate enfileirado",
	},
	LocaleEnUS: {
		"error.bad_request":            "Invalid request",
		"error.unauthorized":           "Unauthorized",
		"error.forbidden":              "Forbidden",
		"error.not_found":              "Resource not found",
		"error.too_many_requests":      "Too many requests, please retry shortly",
		"error.payload_too_large":      "Request body too large",
		"error.internal":               "Internal server error",
		"error.cart_value_invalid":     "Invalid cart value",
		"error.coupon_code_required":   "Coupon code is required",
		"error.coupon_not_found":       "Coupon not found",
		"error.coupon_inactive":        "Coupon is inactive",
		"error.coupon_not_started":     "Coupon is not valid yet",
		"error.coupon_expired":         "Coupon has expired",
		"error.coupon_usage_limit":     "Coupon is sold out",
		"error.coupon_per_user_limit":  "Coupon usage limit per customer reached",
		"error.coupon_min_amount":      "Minimum order value: R$ %s",
		"error.coupon_validate_failed": "Failed to validate coupon",
		"error.coupon_code_exists":     "Coupon code already exists",
		"error.coupon_code_invalid":    "Invalid coupon code",
		"error.coupon_type_invalid":    "Invalid coupon type",
		"error.coupon_value_invalid":   "Invalid coupon value",
		"error.coupon_limit_invalid":   "Invalid usage limit",
		"error.coupon_window_invalid":  "Invalid validity window",
		"error.coupon_fetch_failed":    "Failed to load coupons",
		"error.coupon_create_failed":   "Failed to create coupon",
		"error.coupon_update_failed":   "Failed to update coupon",
		"error.coupon_delete_failed":   "Failed to delete coupon",
		"error.coupon_stats_failed":    "Failed to load coupon statistics",
		"error.redemption_invalid":     "Invalid redemption payload",
		"error.redemption_not_found":   "Redemption not found",
		"error.redemption_failed":      "Failed to record coupon redemption",
		"error.role_invalid":           "Invalid role",
		"error.authz_failed":           "Failed to update permissions",
		"error.audit_fetch_failed":     "Failed to load audit logs",
		"message.coupon_deleted":       "Coupon deleted",
		"message.redemption_queued":    "Redemption queued",
	},
}
