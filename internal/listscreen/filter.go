package listscreen

import (
	"errors"
	"strconv"
	"strings"

	"hms-listview/internal/domain"
)

var (
	ErrUnknownField         = errors.New("unknown field")
	ErrUnsupportedOperator  = errors.New("operator not supported for field")
	ErrFilterNotFound       = errors.New("filter condition not found")
	ErrInvalidFilterLogic   = errors.New("filter logic must be AND or OR")
	ErrInvalidPageSize      = errors.New("page size must be positive")
	ErrInvalidDensity       = errors.New("unknown density")
	ErrInvalidSortDirection = errors.New("sort direction must be asc or desc")
)

// ApplySearch 按搜索框过滤；scope 为 all 时检查全部可搜索字段
func ApplySearch(items []domain.ListItem, search domain.SearchState, fields []string) []domain.ListItem {
	query := strings.ToLower(strings.TrimSpace(search.Query))
	if query == "" {
		return items
	}
	scoped := fields
	if search.Scope != "" && search.Scope != domain.SearchScopeAll {
		scoped = []string{search.Scope}
	}

	out := make([]domain.ListItem, 0, len(items))
	for _, item := range items {
		for _, f := range scoped {
			if strings.Contains(strings.ToLower(item.Text(f)), query) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// ApplyFilters 按筛选条件过滤；空值条件不参与
func (c *EntityConfig) ApplyFilters(items []domain.ListItem, conds []domain.FilterCondition, logic domain.FilterLogic) []domain.ListItem {
	active := make([]domain.FilterCondition, 0, len(conds))
	for _, cond := range conds {
		if cond.Active() {
			active = append(active, cond)
		}
	}
	if len(active) == 0 {
		return items
	}

	out := make([]domain.ListItem, 0, len(items))
	for _, item := range items {
		if c.matchAll(item, active, logic) {
			out = append(out, item)
		}
	}
	return out
}

func (c *EntityConfig) matchAll(item domain.ListItem, conds []domain.FilterCondition, logic domain.FilterLogic) bool {
	if logic == domain.LogicOr {
		for _, cond := range conds {
			if c.MatchCondition(item, cond) {
				return true
			}
		}
		return false
	}
	for _, cond := range conds {
		if !c.MatchCondition(item, cond) {
			return false
		}
	}
	return true
}

// MatchCondition 单条件判断；空值条件恒为真
func (c *EntityConfig) MatchCondition(item domain.ListItem, cond domain.FilterCondition) bool {
	if !cond.Active() {
		return true
	}
	field, declared := c.FilterField(cond.Field)

	raw, _ := item.Value(cond.Field)
	actual := normalize(field, declared, raw)
	expected := normalize(field, declared, cond.Value)

	switch cond.Operator {
	case domain.OpContains:
		return strings.Contains(actual, expected)
	case domain.OpEquals, domain.OpIs:
		return actual == expected
	case domain.OpNotEquals:
		return actual != expected
	case domain.OpStartsWith:
		return strings.HasPrefix(actual, expected)
	default:
		return false
	}
}

// normalize 统一大小写与空白；boolean 字段把显示值映射为 true/false
func normalize(field FilterField, declared bool, v any) string {
	if declared && field.Kind == KindBoolean {
		if b, ok := toBool(field, v); ok {
			return strconv.FormatBool(b)
		}
	}
	return strings.ToLower(strings.TrimSpace(domain.Stringify(v)))
}

func toBool(field FilterField, v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	}
	s := strings.ToLower(strings.TrimSpace(domain.Stringify(v)))
	switch s {
	case strings.ToLower(field.TrueLabel), "true", "1", "yes":
		return true, true
	case strings.ToLower(field.FalseLabel), "false", "0", "no":
		return false, true
	}
	return false, false
}

// Derive 搜索 AND 筛选，然后排序；不修改输入切片
func (c *EntityConfig) Derive(items []domain.ListItem, search domain.SearchState, prefs domain.TablePreferences) []domain.ListItem {
	out := ApplySearch(items, search, c.SearchFields)
	out = c.ApplyFilters(out, prefs.Filters, prefs.FilterLogic)
	if prefs.SortField != "" {
		return SortItems(out, prefs.SortField, prefs.SortDirection)
	}
	return domain.CloneItems(out)
}
