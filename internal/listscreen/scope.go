package listscreen

import (
	"hms-listview/internal/domain"
)

// Decision 访问判定结果
type Decision int

const (
	DecisionPending  Decision = iota // 权限尚未解析
	DecisionAllow                    // 可以加载
	DecisionRedirect                 // 需要跳转到设置入口
)

// ScopeResolver 根据 AccessScope 计算租户范围
type ScopeResolver struct {
	access      domain.AccessScope
	tenantField string
}

func NewScopeResolver(access domain.AccessScope, tenantField string) ScopeResolver {
	if tenantField == "" {
		tenantField = domain.FieldTenantID
	}
	return ScopeResolver{access: access, tenantField: tenantField}
}

// Decide 无设置权限，或租户管理员没有租户，都需要跳转
func (r ScopeResolver) Decide() Decision {
	if !r.access.IsResolved {
		return DecisionPending
	}
	if !r.access.CanAccessTenantSettings {
		return DecisionRedirect
	}
	if !r.access.CanManageAllTenants && r.access.TenantID == "" {
		return DecisionRedirect
	}
	return DecisionAllow
}

// Global 全局管理员不受租户限制
func (r ScopeResolver) Global() bool {
	return r.access.CanManageAllTenants || r.tenantField == NoTenantField
}

// TenantParam list 请求的 tenant_id；全局管理员为空
func (r ScopeResolver) TenantParam() string {
	if r.Global() {
		return ""
	}
	return r.access.TenantID
}

// ItemInScope 行是否属于调用方租户
func (r ScopeResolver) ItemInScope(item domain.ListItem) bool {
	if r.Global() {
		return true
	}
	return item.Text(r.tenantField) == r.access.TenantID
}

// IDInScope 未知 id 视为越权
func (r ScopeResolver) IDInScope(id string, items []domain.ListItem) bool {
	item, ok := findItem(items, id)
	if !ok {
		return false
	}
	return r.ItemInScope(item)
}

// VisibleItems 隐藏租户范围外的行（保持顺序）
func (r ScopeResolver) VisibleItems(items []domain.ListItem) []domain.ListItem {
	if r.Global() {
		return items
	}
	out := make([]domain.ListItem, 0, len(items))
	for _, item := range items {
		if r.ItemInScope(item) {
			out = append(out, item)
		}
	}
	return out
}

func findItem(items []domain.ListItem, id string) (domain.ListItem, bool) {
	if id == "" {
		return nil, false
	}
	for _, item := range items {
		if item.ID() == id {
			return item, true
		}
	}
	return nil, false
}
