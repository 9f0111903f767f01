package domain

// AccessScope 由鉴权模块提供，列表引擎只读取不计算
type AccessScope struct {
	CanAccessTenantSettings bool   `json:"can_access_tenant_settings"`
	CanManageAllTenants     bool   `json:"can_manage_all_tenants"`
	CanManage               bool   `json:"can_manage"`
	TenantID                string `json:"tenant_id,omitempty"`
	IsResolved              bool   `json:"is_resolved"`
}

// Notice 跳转后在列表页显示的一次性提示
type Notice string

const (
	NoticeAccessDenied Notice = "accessDenied"
	NoticeCreated      Notice = "created"
	NoticeUpdated      Notice = "updated"
	NoticeDeleted      Notice = "deleted"
	NoticeQueued       Notice = "queued"
)

// ErrorCode 列表/详情错误分类
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrUnknown      ErrorCode = "UNKNOWN_ERROR"
)

// IsAuthError FORBIDDEN/UNAUTHORIZED 需要跳转
func (c ErrorCode) IsAuthError() bool {
	return c == ErrForbidden || c == ErrUnauthorized
}
