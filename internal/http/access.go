package httpapi

import (
	"net/http"
	"strings"

	"hms-listview/internal/domain"
)

const (
	headerUserID   = "X-User-Id"
	headerTenantID = "X-Tenant-Id"
	headerUserRole = "X-User-Role"
)

// SystemTenantID 平台租户
// 不使用 00000000-0000-0000-0000-000000000000，上游把它当作“未分配”
func SystemTenantID() string {
	return "00000000-0000-0000-0000-000000000001"
}

// 可以进入租户设置页的角色
var (
	globalRoles = map[string]bool{"systemadmin": true}
	tenantRoles = map[string]bool{"admin": true, "manager": true, "it": true}
)

// caller 网关注入的调用方身份
type caller struct {
	UserID   string
	TenantID string
	Role     string
}

func callerFromRequest(r *http.Request) (caller, bool) {
	c := caller{
		UserID:   strings.TrimSpace(r.Header.Get(headerUserID)),
		TenantID: strings.TrimSpace(r.Header.Get(headerTenantID)),
		Role:     strings.TrimSpace(r.Header.Get(headerUserRole)),
	}
	return c, c.UserID != ""
}

// Headers 转发给上游 admin API
func (c caller) Headers() map[string]string {
	h := map[string]string{headerUserID: c.UserID}
	if c.TenantID != "" {
		h[headerTenantID] = c.TenantID
	}
	if c.Role != "" {
		h[headerUserRole] = c.Role
	}
	return h
}

// Access 根据角色计算 AccessScope
// SystemAdmin 可管理所有租户；Admin/Manager/IT 只看自己的租户；其他角色无权进入
func (c caller) Access() domain.AccessScope {
	role := strings.ToLower(c.Role)
	switch {
	case globalRoles[role]:
		tenantID := c.TenantID
		if tenantID == "" {
			tenantID = SystemTenantID()
		}
		return domain.AccessScope{
			IsResolved:              true,
			CanAccessTenantSettings: true,
			CanManageAllTenants:     true,
			CanManage:               true,
			TenantID:                tenantID,
		}
	case tenantRoles[role]:
		return domain.AccessScope{
			IsResolved:              true,
			CanAccessTenantSettings: true,
			CanManage:               true,
			TenantID:                c.TenantID,
		}
	default:
		return domain.AccessScope{IsResolved: true, TenantID: c.TenantID}
	}
}
