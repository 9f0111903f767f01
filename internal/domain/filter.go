package domain

import "strings"

// FilterOperator 过滤操作符
type FilterOperator string

const (
	OpContains   FilterOperator = "contains"
	OpEquals     FilterOperator = "equals"
	OpIs         FilterOperator = "is"
	OpNotEquals  FilterOperator = "not_equals"
	OpStartsWith FilterOperator = "starts_with"
)

// FilterLogic 多个条件之间的组合方式
type FilterLogic string

const (
	LogicAnd FilterLogic = "AND"
	LogicOr  FilterLogic = "OR"
)

// Valid 是否为已知组合方式
func (l FilterLogic) Valid() bool {
	return l == LogicAnd || l == LogicOr
}

// FilterCondition 高级筛选面板中的一条规则
type FilterCondition struct {
	ID       string         `json:"id"`
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// Active 值为空（含全空白）的条件不参与过滤
func (c FilterCondition) Active() bool {
	return strings.TrimSpace(c.Value) != ""
}

// SearchScopeAll 搜索全部可搜索字段
const SearchScopeAll = "all"

// SearchState 顶部搜索框状态
type SearchState struct {
	Query string `json:"query"`
	Scope string `json:"scope"`
}
