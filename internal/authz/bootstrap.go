package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 预置角色：只读审计、优惠券运营、订单系统（核销回调）
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     "coupon_manager",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/coupons", Action: "POST"},
				{Object: "/admin/coupons/:id", Action: "PUT"},
				{Object: "/admin/coupons/:id", Action: "DELETE"},
				{Object: "/admin/coupons/:id/active", Action: "PATCH"},
			},
		},
		{
			Role: "order_system",
			Policies: []Policy{
				{Object: "/admin/coupon-redemptions", Action: "GET"},
				{Object: "/admin/coupon-redemptions", Action: "POST"},
				{Object: "/admin/coupon-redemptions/:order_ref", Action: "DELETE"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色，已存在的策略不会重复写入
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link %s to %s: %w", role, parentRole, err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("seed policy for %s: %w", role, err)
			}
		}
	}
	return nil
}
