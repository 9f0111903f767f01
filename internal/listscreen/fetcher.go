package listscreen

import (
	"context"

	"hms-listview/internal/domain"
	"hms-listview/internal/metrics"
	"hms-listview/internal/store"
	"hms-listview/internal/usecase"

	"go.uber.org/zap"
)

// FetchResult 一次拉取的结果
type FetchResult struct {
	Items     []domain.ListItem
	Live      bool // 来自 admin API
	FromCache bool // 来自离线快照
	Offline   bool
	ErrorCode domain.ErrorCode
	Err       error
}

// Fetcher 拉取列表，离线或网络错误时回退到快照
type Fetcher struct {
	entity      string
	crud        usecase.CRUD
	snapshots   *store.SnapshotCache
	snapshotKey string
	online      usecase.OnlineChecker
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewFetcher(entity string, crud usecase.CRUD, snapshots *store.SnapshotCache, snapshotKey string, online usecase.OnlineChecker, m *metrics.Metrics, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		entity:      entity,
		crud:        crud,
		snapshots:   snapshots,
		snapshotKey: snapshotKey,
		online:      online,
		metrics:     m,
		logger:      logger,
	}
}

// Fetch hasLive 表示界面上已经有在线数据，此时网络错误不回退快照
func (f *Fetcher) Fetch(ctx context.Context, tenantParam string, hasLive bool) FetchResult {
	if f.online != nil && !f.online.Online() {
		res := FetchResult{Offline: true}
		if snap := f.readSnapshot(ctx); snap != nil {
			res.Items = snap.Items
			res.FromCache = true
		}
		f.metrics.Fetch(f.entity, metrics.SourceSnapshot)
		return res
	}

	out, err := f.crud.List(ctx, usecase.ListParams{
		Page:     1,
		Limit:    domain.MaxPageFetchSize,
		TenantID: tenantParam,
	})
	if err == nil {
		items := out.Items
		if items == nil {
			items = []domain.ListItem{}
		}
		if f.snapshots != nil {
			if err := f.snapshots.Write(ctx, f.snapshotKey, items); err != nil {
				f.logger.Warn("Failed to refresh list snapshot",
					zap.String("entity", f.entity),
					zap.Error(err),
				)
			}
		}
		f.metrics.Fetch(f.entity, metrics.SourceLive)
		return FetchResult{Items: items, Live: true}
	}

	code := usecase.CodeOf(err)
	f.logger.Warn("List fetch failed",
		zap.String("entity", f.entity),
		zap.String("tenant_id", tenantParam),
		zap.String("error_code", string(code)),
		zap.Error(err),
	)
	res := FetchResult{ErrorCode: code, Err: err}
	if code == domain.ErrNetwork && !hasLive {
		if snap := f.readSnapshot(ctx); snap != nil {
			res.Items = snap.Items
			res.FromCache = true
			f.metrics.Fetch(f.entity, metrics.SourceSnapshot)
			return res
		}
	}
	f.metrics.Fetch(f.entity, metrics.SourceError)
	return res
}

func (f *Fetcher) readSnapshot(ctx context.Context) *store.Snapshot {
	if f.snapshots == nil {
		return nil
	}
	snap, err := f.snapshots.Read(ctx, f.snapshotKey)
	if err != nil {
		f.logger.Warn("Failed to read list snapshot", zap.String("entity", f.entity), zap.Error(err))
		return nil
	}
	return snap
}
