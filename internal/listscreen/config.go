package listscreen

import (
	"errors"
	"fmt"
	"net/url"

	"hms-listview/internal/domain"
)

// DefaultPageSize 未配置时的每页行数
const DefaultPageSize = 20

// LandingRoute 设置页入口，鉴权失败时跳转到这里
const LandingRoute = "/settings"

// NoTenantField 表示实体不按租户隔离（如 permission）
const NoTenantField = "-"

// FieldKind 筛选字段类型
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindEnum    FieldKind = "enum"
	KindBoolean FieldKind = "boolean"
)

// FilterField 可筛选字段及其可用操作符
type FilterField struct {
	Name      string                  `json:"name"`
	Kind      FieldKind               `json:"kind"`
	Operators []domain.FilterOperator `json:"operators"`
	Options   []string                `json:"options,omitempty"`
	// boolean 字段在界面上的显示值，如 active/inactive、primary/secondary
	TrueLabel  string `json:"true_label,omitempty"`
	FalseLabel string `json:"false_label,omitempty"`
}

// Supports 是否支持该操作符
func (f FilterField) Supports(op domain.FilterOperator) bool {
	for _, o := range f.Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Column 表格列
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"` // i18n key
}

// EntityConfig 一个实体列表页的声明式配置
type EntityConfig struct {
	Name              string        `json:"name"`   // bed
	Plural            string        `json:"plural"` // beds
	Route             string        `json:"route"`  // /settings/beds
	LandingRoute      string        `json:"landing_route"`
	TranslationPrefix string        `json:"translation_prefix"`
	Resource          string        `json:"resource"` // admin API 路径
	SearchFields      []string      `json:"search_fields"`
	FilterFields      []FilterField `json:"filter_fields"`
	Columns           []Column      `json:"columns"`
	RequiredColumns   []string      `json:"required_columns,omitempty"`
	// 为空时为 tenant_id；NoTenantField 表示不做租户隔离
	TenantField string                  `json:"tenant_field,omitempty"`
	Defaults    domain.TablePreferences `json:"defaults"`
}

var errInvalidConfig = errors.New("invalid entity config")

// Validate 校验并补全默认值
func (c *EntityConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", errInvalidConfig)
	}
	if c.Plural == "" {
		c.Plural = c.Name + "s"
	}
	if c.Route == "" {
		c.Route = LandingRoute + "/" + c.Plural
	}
	if c.LandingRoute == "" {
		c.LandingRoute = LandingRoute
	}
	if c.TranslationPrefix == "" {
		c.TranslationPrefix = c.Plural
	}
	if c.Resource == "" {
		c.Resource = "/admin/api/v1/" + c.Plural
	}
	if c.TenantField == "" {
		c.TenantField = domain.FieldTenantID
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("%w: %s declares no columns", errInvalidConfig, c.Name)
	}

	seen := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		if col.Key == "" || seen[col.Key] {
			return fmt.Errorf("%w: %s has empty or duplicate column %q", errInvalidConfig, c.Name, col.Key)
		}
		seen[col.Key] = true
		if col.Label == "" {
			c.Columns[i].Label = c.TranslationPrefix + ".columns." + col.Key
		}
	}
	for _, req := range c.RequiredColumns {
		if !seen[req] {
			return fmt.Errorf("%w: %s required column %q is not declared", errInvalidConfig, c.Name, req)
		}
	}

	fields := make(map[string]bool, len(c.FilterFields))
	for i, f := range c.FilterFields {
		if f.Name == "" || fields[f.Name] {
			return fmt.Errorf("%w: %s has empty or duplicate filter field %q", errInvalidConfig, c.Name, f.Name)
		}
		fields[f.Name] = true
		if f.Kind == "" {
			c.FilterFields[i].Kind = KindText
		}
		if len(f.Operators) == 0 {
			c.FilterFields[i].Operators = defaultOperators(c.FilterFields[i].Kind)
		}
		if c.FilterFields[i].Kind == KindBoolean && (f.TrueLabel == "" || f.FalseLabel == "") {
			return fmt.Errorf("%w: %s boolean field %q needs both labels", errInvalidConfig, c.Name, f.Name)
		}
	}
	return nil
}

func defaultOperators(kind FieldKind) []domain.FilterOperator {
	switch kind {
	case KindEnum, KindBoolean:
		return []domain.FilterOperator{domain.OpIs, domain.OpNotEquals}
	default:
		return []domain.FilterOperator{domain.OpContains, domain.OpEquals, domain.OpStartsWith}
	}
}

// Scoped 是否按租户隔离
func (c *EntityConfig) Scoped() bool {
	return c.TenantField != NoTenantField
}

// FilterField 按名称查找筛选字段
func (c *EntityConfig) FilterField(name string) (FilterField, bool) {
	for _, f := range c.FilterFields {
		if f.Name == name {
			return f, true
		}
	}
	return FilterField{}, false
}

// HasColumn 是否声明了该列
func (c *EntityConfig) HasColumn(key string) bool {
	for _, col := range c.Columns {
		if col.Key == key {
			return true
		}
	}
	return false
}

// Column 按 key 查找列
func (c *EntityConfig) Column(key string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// IsRequired 必选列不能隐藏
func (c *EntityConfig) IsRequired(key string) bool {
	for _, r := range c.RequiredColumns {
		if r == key {
			return true
		}
	}
	return false
}

func (c *EntityConfig) isSearchField(name string) bool {
	for _, f := range c.SearchFields {
		if f == name {
			return true
		}
	}
	return false
}

// ColumnKeys 声明顺序的全部列
func (c *EntityConfig) ColumnKeys() []string {
	keys := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		keys[i] = col.Key
	}
	return keys
}

// DefaultPreferences 实体声明的默认表格偏好
func (c *EntityConfig) DefaultPreferences() domain.TablePreferences {
	d := c.Defaults.Clone()
	if d.PageSize <= 0 {
		d.PageSize = DefaultPageSize
	}
	if d.PageSize > domain.MaxPageFetchSize {
		d.PageSize = domain.MaxPageFetchSize
	}
	if !d.Density.Valid() {
		d.Density = domain.DensityComfortable
	}
	if len(d.ColumnOrder) == 0 {
		d.ColumnOrder = c.ColumnKeys()
	}
	if len(d.VisibleColumns) == 0 {
		d.VisibleColumns = c.ColumnKeys()
	}
	if d.SearchScope == "" {
		d.SearchScope = domain.SearchScopeAll
	}
	if !d.FilterLogic.Valid() {
		d.FilterLogic = domain.LogicAnd
	}
	if d.Filters == nil {
		d.Filters = []domain.FilterCondition{}
	}
	if d.SortField != "" && d.SortDirection == "" {
		d.SortDirection = domain.SortAsc
	}
	return d
}

// ListRoute 列表页路由，notice 非空时附加 ?notice=
func (c *EntityConfig) ListRoute(notice domain.Notice) string {
	return withNotice(c.Route, notice)
}

// CreateRoute 新建页
func (c *EntityConfig) CreateRoute() string {
	return c.Route + "/create"
}

// EditRoute 编辑页
func (c *EntityConfig) EditRoute(id string) string {
	return c.Route + "/" + url.PathEscape(id) + "/edit"
}

// DetailRoute 详情页
func (c *EntityConfig) DetailRoute(id string) string {
	return c.Route + "/" + url.PathEscape(id)
}

// DeniedRoute 鉴权失败时的入口页
func (c *EntityConfig) DeniedRoute() string {
	return withNotice(c.LandingRoute, domain.NoticeAccessDenied)
}

func withNotice(route string, notice domain.Notice) string {
	if notice == "" {
		return route
	}
	return route + "?notice=" + url.QueryEscape(string(notice))
}
