package connectivity

import (
	"sync"
)

// Monitor 在线状态信号
// Subscribe 的回调只在状态发生变化时触发，返回取消订阅函数
type Monitor interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// state 各实现共用的状态与订阅者管理
type state struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

func newState(online bool) *state {
	return &state{online: online, subs: make(map[int]func(bool))}
}

func (s *state) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *state) Subscribe(fn func(bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// set 更新状态，返回是否发生了变化；回调在锁外执行
func (s *state) set(online bool) bool {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
	return true
}

// Manual 手动设置的在线状态（测试、以及不需要探测的部署）
type Manual struct {
	*state
}

// NewManual 创建手动状态源
func NewManual(online bool) *Manual {
	return &Manual{state: newState(online)}
}

// Set 设置在线状态
func (m *Manual) Set(online bool) {
	m.set(online)
}
