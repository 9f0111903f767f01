package listscreen

import (
	"hms-listview/internal/domain"
)

// TotalPages 至少 1 页
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage 把页码限制在 [1, totalPages]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate 返回第 page 页（1 开始，越界会被 clamp）
func Paginate(items []domain.ListItem, page, pageSize int) []domain.ListItem {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page = ClampPage(page, TotalPages(len(items), pageSize))
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []domain.ListItem{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return domain.CloneItems(items[start:end])
}

// NormalizePageSize 上限 MaxPageFetchSize，非正数用 fallback
func NormalizePageSize(n, fallback int) int {
	if n <= 0 {
		n = fallback
	}
	if n <= 0 {
		n = DefaultPageSize
	}
	if n > domain.MaxPageFetchSize {
		n = domain.MaxPageFetchSize
	}
	return n
}
