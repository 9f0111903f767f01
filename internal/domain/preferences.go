package domain

// MaxPageFetchSize 单次 list 请求的上限，同时也是 pageSize 上限
const MaxPageFetchSize = 100

// Density 表格行密度
type Density string

const (
	DensityCompact     Density = "compact"
	DensityComfortable Density = "comfortable"
	DensitySpacious    Density = "spacious"
)

// Valid 是否为已知密度
func (d Density) Valid() bool {
	switch d {
	case DensityCompact, DensityComfortable, DensitySpacious:
		return true
	}
	return false
}

// SortDirection 排序方向
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// TablePreferences 每个实体列表的持久化界面设置
type TablePreferences struct {
	PageSize       int               `json:"page_size"`
	Density        Density           `json:"density"`
	ColumnOrder    []string          `json:"column_order"`
	VisibleColumns []string          `json:"visible_columns"`
	SearchScope    string            `json:"search_scope"`
	FilterLogic    FilterLogic       `json:"filter_logic"`
	Filters        []FilterCondition `json:"filters"`
	SortField      string            `json:"sort_field,omitempty"`
	SortDirection  SortDirection     `json:"sort_direction,omitempty"`
}

// Clone 深拷贝（切片独立）
func (p TablePreferences) Clone() TablePreferences {
	out := p
	out.ColumnOrder = append([]string(nil), p.ColumnOrder...)
	out.VisibleColumns = append([]string(nil), p.VisibleColumns...)
	out.Filters = append([]FilterCondition(nil), p.Filters...)
	return out
}
