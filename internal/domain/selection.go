package domain

// SelectionSet 批量操作的选中集合，保持选中顺序
type SelectionSet struct {
	order []string
	index map[string]struct{}
}

// NewSelectionSet 创建选中集合
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{index: map[string]struct{}{}}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add 追加（重复忽略）
func (s *SelectionSet) Add(id string) {
	if id == "" {
		return
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

// Remove 移除
func (s *SelectionSet) Remove(id string) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Toggle 切换选中状态，返回切换后是否选中
func (s *SelectionSet) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return s.Has(id)
}

// Has 是否已选中
func (s *SelectionSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IDs 按选中顺序返回
func (s *SelectionSet) IDs() []string {
	return append([]string(nil), s.order...)
}

// Len 选中数量
func (s *SelectionSet) Len() int {
	return len(s.order)
}

// Clear 清空
func (s *SelectionSet) Clear() {
	s.order = nil
	s.index = map[string]struct{}{}
}
