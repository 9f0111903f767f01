package listscreen

import (
	"errors"

	"hms-listview/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRequiredColumn = errors.New("required column cannot be hidden")
	ErrUnknownColumn  = errors.New("unknown column")
)

// SanitizePreferences 把存储中读到的偏好修正为对当前配置合法的值
// 未知列、未知筛选字段会被丢弃，新增的列追加到末尾
func (c *EntityConfig) SanitizePreferences(p domain.TablePreferences) domain.TablePreferences {
	def := c.DefaultPreferences()
	out := p.Clone()

	out.PageSize = NormalizePageSize(out.PageSize, def.PageSize)
	if !out.Density.Valid() {
		out.Density = def.Density
	}

	order := make([]string, 0, len(c.Columns))
	seen := make(map[string]bool, len(c.Columns))
	for _, key := range out.ColumnOrder {
		if c.HasColumn(key) && !seen[key] {
			order = append(order, key)
			seen[key] = true
		}
	}
	for _, key := range def.ColumnOrder {
		if !seen[key] {
			order = append(order, key)
			seen[key] = true
		}
	}
	out.ColumnOrder = order

	visible := make([]string, 0, len(out.VisibleColumns))
	seenVisible := make(map[string]bool, len(out.VisibleColumns))
	for _, key := range out.VisibleColumns {
		if c.HasColumn(key) && !seenVisible[key] {
			visible = append(visible, key)
			seenVisible[key] = true
		}
	}
	if len(visible) == 0 {
		visible = def.VisibleColumns
		seenVisible = make(map[string]bool, len(visible))
		for _, key := range visible {
			seenVisible[key] = true
		}
	}
	for _, key := range c.RequiredColumns {
		if !seenVisible[key] {
			visible = append(visible, key)
		}
	}
	out.VisibleColumns = visible

	if out.SearchScope == "" || (out.SearchScope != domain.SearchScopeAll && !c.isSearchField(out.SearchScope)) {
		out.SearchScope = domain.SearchScopeAll
	}
	if !out.FilterLogic.Valid() {
		out.FilterLogic = def.FilterLogic
	}

	filters := make([]domain.FilterCondition, 0, len(out.Filters))
	for _, f := range out.Filters {
		field, ok := c.FilterField(f.Field)
		if !ok || !field.Supports(f.Operator) {
			continue
		}
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		filters = append(filters, f)
	}
	out.Filters = filters

	if out.SortField != "" && !c.HasColumn(out.SortField) {
		out.SortField = ""
	}
	if out.SortField == "" {
		out.SortDirection = ""
	} else if out.SortDirection != domain.SortAsc && out.SortDirection != domain.SortDesc {
		out.SortDirection = domain.SortAsc
	}
	return out
}

// ToggleColumnVisibility 切换列的显示；必选列不能被隐藏
func (c *EntityConfig) ToggleColumnVisibility(p domain.TablePreferences, key string) (domain.TablePreferences, error) {
	if !c.HasColumn(key) {
		return p, ErrUnknownColumn
	}
	out := p.Clone()
	for i, v := range out.VisibleColumns {
		if v == key {
			if c.IsRequired(key) {
				return p, ErrRequiredColumn
			}
			out.VisibleColumns = append(out.VisibleColumns[:i], out.VisibleColumns[i+1:]...)
			return out, nil
		}
	}
	out.VisibleColumns = append(out.VisibleColumns, key)
	return out, nil
}

// MoveColumn 与相邻列交换位置（delta 为 -1 或 +1），边界处不变
func MoveColumn(p domain.TablePreferences, key string, delta int) (domain.TablePreferences, error) {
	idx := -1
	for i, v := range p.ColumnOrder {
		if v == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p, ErrUnknownColumn
	}
	target := idx + delta
	if target < 0 || target >= len(p.ColumnOrder) {
		return p, nil
	}
	out := p.Clone()
	out.ColumnOrder[idx], out.ColumnOrder[target] = out.ColumnOrder[target], out.ColumnOrder[idx]
	return out, nil
}

// VisibleOrdered 按列顺序返回可见列
func VisibleOrdered(p domain.TablePreferences) []string {
	visible := make(map[string]bool, len(p.VisibleColumns))
	for _, v := range p.VisibleColumns {
		visible[v] = true
	}
	out := make([]string, 0, len(p.VisibleColumns))
	for _, key := range p.ColumnOrder {
		if visible[key] {
			out = append(out, key)
		}
	}
	return out
}
