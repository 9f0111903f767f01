package usecase

import (
	"context"

	"hms-listview/internal/domain"
)

// ListParams list 请求参数
type ListParams struct {
	Page     int
	Limit    int
	TenantID string // 为空表示不按租户过滤（全局管理员）
}

// ListResult list 返回
type ListResult struct {
	Items []domain.ListItem `json:"items"`
	Total int               `json:"total"`
}

// CRUD 每个实体的 api/usecase 绑定
// 离线排队由实现方负责，列表引擎只消费结果
type CRUD interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id string) (domain.ListItem, error)
	Create(ctx context.Context, payload map[string]any) (domain.ListItem, error)
	Update(ctx context.Context, id string, payload map[string]any) (domain.ListItem, error)
	// Remove 返回被删除的行；后端不返回时为 nil
	Remove(ctx context.Context, id string) (domain.ListItem, error)
}

// OnlineChecker 只读的在线状态
type OnlineChecker interface {
	Online() bool
}
