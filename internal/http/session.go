package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hms-listview/internal/connectivity"
	"hms-listview/internal/domain"
	"hms-listview/internal/entities"
	"hms-listview/internal/listscreen"
	"hms-listview/internal/metrics"
	"hms-listview/internal/store"
	"hms-listview/internal/usecase"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrUnknownEntity = errors.New("unknown entity")

// DefaultSessionIdle 会话空闲多久后卸载
const DefaultSessionIdle = 30 * time.Minute

// SessionDeps SessionManager 依赖
type SessionDeps struct {
	Registry    *entities.Registry
	Client      *resty.Client
	Queue       usecase.Queue
	Preferences *store.PreferenceStore
	Snapshots   *store.SnapshotCache
	Keys        store.Keys
	Monitor     connectivity.Monitor
	Metrics     *metrics.Metrics
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

type session struct {
	userID   string
	engine   *listscreen.Engine
	lastUsed time.Time
}

// SessionManager 每个 (用户, 角色, 租户, 实体) 一个列表页引擎
type SessionManager struct {
	deps SessionDeps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionManager(deps SessionDeps) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = DefaultSessionIdle
	}
	return &SessionManager{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func sessionKey(c caller, entity string) string {
	return c.UserID + "|" + c.Role + "|" + c.TenantID + "|" + entity
}

// Acquire 取出或创建引擎，并用本次请求的权限重新 Mount
func (m *SessionManager) Acquire(ctx context.Context, c caller, entity string) (*listscreen.Engine, error) {
	cfg, ok := m.deps.Registry.Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	key := sessionKey(c, entity)
	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		s = &session{userID: c.UserID, engine: m.newEngine(cfg, c)}
		m.sessions[key] = s
		m.deps.Logger.Debug("List session created",
			zap.String("entity", entity),
			zap.String("user_id", c.UserID),
			zap.String("tenant_id", c.TenantID),
		)
	}
	s.lastUsed = m.now()
	m.mu.Unlock()

	s.engine.Mount(ctx, c.Access())
	return s.engine, nil
}

func (m *SessionManager) newEngine(cfg *listscreen.EntityConfig, c caller) *listscreen.Engine {
	headers := c.Headers()
	live := usecase.NewRemoteCRUD(m.deps.Client, cfg.Resource, headers, m.deps.Logger)

	var crud usecase.CRUD = live
	if m.deps.Queue != nil {
		var online usecase.OnlineChecker
		if m.deps.Monitor != nil {
			online = m.deps.Monitor
		}
		crud = usecase.NewOfflineCRUD(live, m.deps.Queue, online, cfg.Name, headers, m.deps.Logger)
	}

	return listscreen.NewEngine(listscreen.Options{
		Config:      cfg,
		CRUD:        crud,
		Preferences: m.deps.Preferences,
		Snapshots:   m.deps.Snapshots,
		Keys:        m.deps.Keys.ForUser(c.UserID),
		Monitor:     m.deps.Monitor,
		Navigator:   requestNavigator{logger: m.deps.Logger},
		Confirmer:   requestConfirmer{},
		Metrics:     m.deps.Metrics,
		Logger:      m.deps.Logger,
	})
}

// Len 当前会话数
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep 卸载空闲超时的会话，返回卸载数量
func (m *SessionManager) Sweep() int {
	cutoff := m.now().Add(-m.deps.IdleTimeout)
	var idle []*session

	m.mu.Lock()
	for key, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, key)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.engine.Unmount()
	}
	return len(idle)
}

// RunSweeper 周期性清理，ctx 结束时返回
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.deps.Logger.Info("Unmounted idle list sessions", zap.Int("count", n))
			}
		}
	}
}

// engines 当前会话的引擎；match 为 nil 时返回全部
func (m *SessionManager) engines(match func(*session) bool) []*listscreen.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*listscreen.Engine, 0, len(m.sessions))
	for _, s := range m.sessions {
		if match == nil || match(s) {
			out = append(out, s.engine)
		}
	}
	return out
}

// Refresh 重新拉取全部会话的列表
func (m *SessionManager) Refresh(ctx context.Context) {
	for _, eng := range m.engines(nil) {
		eng.Retry(ctx)
	}
}

// PurgePreferences 删除该用户在所有实体上保存的表格偏好，已打开的会话回到默认
func (m *SessionManager) PurgePreferences(ctx context.Context, c caller) (int, error) {
	if m.deps.Preferences == nil {
		return 0, nil
	}
	n, err := m.deps.Preferences.Purge(ctx, m.deps.Keys.ForUser(c.UserID).PreferencesPattern())
	if err != nil {
		return n, err
	}
	for _, eng := range m.engines(func(s *session) bool { return s.userID == c.UserID }) {
		eng.ReloadDefaults()
	}
	m.deps.Logger.Info("Purged table preferences", zap.String("user_id", c.UserID), zap.Int("count", n))
	return n, nil
}

// Close 卸载全部会话
func (m *SessionManager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range all {
		s.engine.Unmount()
	}
}

// ReplayQueued 重连后按入队顺序重放离线变更，有重放成功时刷新全部会话
// 网络错误停止重放，留待下次；其他错误记录后丢弃，避免阻塞队列
func (m *SessionManager) ReplayQueued(ctx context.Context) (int, error) {
	if m.deps.Queue == nil {
		return 0, nil
	}
	n, err := m.deps.Queue.Replay(ctx, func(ctx context.Context, req usecase.QueuedRequest) error {
		cfg, ok := m.deps.Registry.Get(req.Entity)
		if !ok {
			m.deps.Logger.Warn("Dropping queued request for unknown entity",
				zap.String("entity", req.Entity),
				zap.String("request_id", req.RequestID),
			)
			return nil
		}
		crud := usecase.NewRemoteCRUD(m.deps.Client, cfg.Resource, req.Headers, m.deps.Logger)
		err := usecase.Apply(ctx, crud, req)
		if err == nil {
			return nil
		}
		if usecase.CodeOf(err) == domain.ErrNetwork {
			return err
		}
		m.deps.Logger.Error("Dropping queued request rejected by upstream",
			zap.String("entity", req.Entity),
			zap.String("request_id", req.RequestID),
			zap.String("action", string(req.Action)),
			zap.String("item_id", req.ItemID),
			zap.String("error_code", string(usecase.CodeOf(err))),
			zap.Error(err),
		)
		return nil
	})
	m.deps.Metrics.Replayed(n)
	if n > 0 {
		m.deps.Logger.Info("Replayed queued mutations", zap.Int("count", n))
		// 重连时的刷新可能早于重放完成，这里再拉一次
		m.Refresh(ctx)
	}
	return n, err
}
