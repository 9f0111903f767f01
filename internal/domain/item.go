package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ListItem 列表行：实体字段由后端决定，这里只依赖 id 与租户字段
type ListItem map[string]any

const (
	FieldID       = "id"
	FieldTenantID = "tenant_id"
)

// ID 返回行标识
func (it ListItem) ID() string {
	return Stringify(it[FieldID])
}

// Value 按字段名取值，支持 "address.city" 形式的嵌套路径
func (it ListItem) Value(field string) (any, bool) {
	if v, ok := it[field]; ok {
		return v, true
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}
	var cur any = map[string]any(it)
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if li, isItem := cur.(ListItem); isItem {
				m = li
			} else {
				return nil, false
			}
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Text 返回字段的字符串形式（缺失为空串）
func (it ListItem) Text(field string) string {
	v, _ := it.Value(field)
	return Stringify(v)
}

// Clone 浅拷贝一行
func (it ListItem) Clone() ListItem {
	out := make(ListItem, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Stringify 把 JSON 解码出来的值转成可比较的字符串
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// CloneItems 拷贝切片（不拷贝行内容）
func CloneItems(items []ListItem) []ListItem {
	out := make([]ListItem, len(items))
	copy(out, items)
	return out
}
