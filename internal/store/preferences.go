package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hms-listview/internal/domain"

	"go.uber.org/zap"
)

// DefaultKeyPrefix 偏好/快照 key 的固定前缀
const DefaultKeyPrefix = "hms.listview."

// Keys 按实体生成存储 key
//   - <prefix><entity>.preferences  表格偏好
//   - <prefix><entity>.list.cache   离线快照
type Keys struct {
	Prefix string
}

func (k Keys) prefix() string {
	if k.Prefix == "" {
		return DefaultKeyPrefix
	}
	return k.Prefix
}

// Preferences 偏好 key
func (k Keys) Preferences(entity string) string {
	return k.prefix() + entity + ".preferences"
}

// Snapshot 快照 key
func (k Keys) Snapshot(entity string) string {
	return k.prefix() + entity + ".list.cache"
}

// PreferencesPattern 匹配该前缀下全部实体的偏好 key（glob）
func (k Keys) PreferencesPattern() string {
	return k.prefix() + "*.preferences"
}

// ForUser 在前缀后追加用户段（BFF 多用户共用一个存储）
func (k Keys) ForUser(userID string) Keys {
	if userID == "" {
		return k
	}
	return Keys{Prefix: k.prefix() + "u." + userID + "."}
}

// PreferenceStore 表格偏好读写
type PreferenceStore struct {
	kv     KV
	logger *zap.Logger
}

func NewPreferenceStore(kv KV, logger *zap.Logger) *PreferenceStore {
	return &PreferenceStore{kv: kv, logger: logger}
}

// GetItem 读取偏好；不存在或内容损坏返回 nil, nil
func (s *PreferenceStore) GetItem(ctx context.Context, key string) (*domain.TablePreferences, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read preferences %s: %w", key, err)
	}

	var prefs domain.TablePreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn("Discarding corrupt table preferences",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, nil
	}
	return &prefs, nil
}

// SetItem 写入偏好，失败时记录日志并返回 false
func (s *PreferenceStore) SetItem(ctx context.Context, key string, prefs domain.TablePreferences) bool {
	b, err := json.Marshal(prefs)
	if err != nil {
		s.logger.Error("Failed to encode table preferences", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := s.kv.Set(ctx, key, string(b), 0); err != nil {
		s.logger.Error("Failed to persist table preferences", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// RemoveItem 删除偏好
func (s *PreferenceStore) RemoveItem(ctx context.Context, key string) bool {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to remove table preferences", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Purge 删除匹配 pattern 的全部偏好，返回删除数量
func (s *PreferenceStore) Purge(ctx context.Context, pattern string) (int, error) {
	keys, err := s.kv.ScanKeys(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to scan preferences %s: %w", pattern, err)
	}
	removed := 0
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("failed to remove preferences %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

// Snapshot 离线快照
type Snapshot struct {
	Items   []domain.ListItem `json:"items"`
	SavedAt time.Time         `json:"saved_at"`
}

// SnapshotCache 保存最近一次成功拉取的列表，供离线/网络错误时回退
type SnapshotCache struct {
	kv     KV
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache ttl<=0 表示不过期
func NewSnapshotCache(kv KV, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{kv: kv, ttl: ttl, logger: logger}
}

// Read 不存在返回 nil, nil
func (c *SnapshotCache) Read(ctx context.Context, key string) (*Snapshot, error) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.logger.Warn("Discarding corrupt list snapshot", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return &snap, nil
}

// Write 覆盖快照
func (c *SnapshotCache) Write(ctx context.Context, key string, items []domain.ListItem) error {
	b, err := json.Marshal(Snapshot{Items: items, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}
