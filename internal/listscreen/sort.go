package listscreen

import (
	"sort"
	"strconv"
	"strings"

	"hms-listview/internal/domain"
)

// SortItems 稳定排序，返回新切片；值相等时保持拉取顺序
func SortItems(items []domain.ListItem, field string, dir domain.SortDirection) []domain.ListItem {
	out := domain.CloneItems(items)
	if field == "" {
		return out
	}
	desc := dir == domain.SortDesc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Text(field), out[j].Text(field)
		if desc {
			return compareValues(b, a) < 0
		}
		return compareValues(a, b) < 0
	})
	return out
}

// compareValues 两边都是数字时按数值比较，否则忽略大小写按字符串比较
func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
