package listscreen

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hms-listview/internal/connectivity"
	"hms-listview/internal/domain"
	"hms-listview/internal/store"
	"hms-listview/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCRUD struct {
	mu          sync.Mutex
	items       []domain.ListItem
	listErr     error
	mutErr      error
	removeErr   map[string]error
	listCalls   []usecase.ListParams
	getCalls    []string
	removeCalls []string
	created     []map[string]any
	onList      func()
}

func (f *fakeCRUD) List(_ context.Context, params usecase.ListParams) (*usecase.ListResult, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, params)
	hook := f.onList
	items := domain.CloneItems(f.items)
	err := f.listErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &usecase.ListResult{Items: items, Total: len(items)}, nil
}

func (f *fakeCRUD) Get(_ context.Context, id string) (domain.ListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	for _, it := range f.items {
		if it.ID() == id {
			return it, nil
		}
	}
	return nil, &usecase.Error{Code: domain.ErrNotFound}
}

func (f *fakeCRUD) Create(_ context.Context, payload map[string]any) (domain.ListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	item := domain.ListItem{"id": "new-1"}
	for k, v := range payload {
		item[k] = v
	}
	return item, nil
}

func (f *fakeCRUD) Update(_ context.Context, id string, payload map[string]any) (domain.ListItem, error) {
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	item := domain.ListItem{"id": id}
	for k, v := range payload {
		item[k] = v
	}
	return item, nil
}

func (f *fakeCRUD) Remove(_ context.Context, id string) (domain.ListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, id)
	if err := f.removeErr[id]; err != nil {
		return nil, err
	}
	return nil, f.mutErr
}

type fakeNavigator struct {
	pushes   []string
	replaces []string
}

func (n *fakeNavigator) Push(_ context.Context, path string)    { n.pushes = append(n.pushes, path) }
func (n *fakeNavigator) Replace(_ context.Context, path string) { n.replaces = append(n.replaces, path) }

type fakeConfirmer struct {
	answer   bool
	messages []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, message string) bool {
	c.messages = append(c.messages, message)
	return c.answer
}

type testHarness struct {
	engine    *Engine
	crud      *fakeCRUD
	nav       *fakeNavigator
	confirmer *fakeConfirmer
	monitor   *connectivity.Manual
	kv        *store.MemoryKV
	snapshots *store.SnapshotCache
	prefs     *store.PreferenceStore
}

func testBedConfig(t *testing.T) *EntityConfig {
	t.Helper()
	cfg := &EntityConfig{
		Name:         "bed",
		SearchFields: []string{"label", "status"},
		FilterFields: []FilterField{
			{Name: "label", Kind: KindText},
			{Name: "status", Kind: KindEnum, Options: []string{"AVAILABLE", "OCCUPIED", "OUT_OF_SERVICE"}},
			{Name: "is_active", Kind: KindBoolean, TrueLabel: "active", FalseLabel: "inactive"},
		},
		Columns:         []Column{{Key: "label"}, {Key: "status"}, {Key: "room"}, {Key: "is_active"}},
		RequiredColumns: []string{"label"},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func scenarioItems() []domain.ListItem {
	return []domain.ListItem{
		{"id": "a-1", "label": "A-01", "status": "AVAILABLE", "tenant_id": "tenant-1"},
		{"id": "b-2", "label": "B-02", "status": "OCCUPIED", "tenant_id": "tenant-1"},
		{"id": "c-3", "label": "C-03", "status": "OUT_OF_SERVICE", "tenant_id": "tenant-1"},
	}
}

func globalAdmin() domain.AccessScope {
	return domain.AccessScope{CanAccessTenantSettings: true, CanManageAllTenants: true, CanManage: true, IsResolved: true}
}

func tenantAdmin(tenant string) domain.AccessScope {
	return domain.AccessScope{CanAccessTenantSettings: true, CanManage: true, TenantID: tenant, IsResolved: true}
}

func setupEngine(t *testing.T, items []domain.ListItem, online bool) *testHarness {
	t.Helper()
	kv := store.NewMemoryKV()
	h := &testHarness{
		crud:      &fakeCRUD{items: items},
		nav:       &fakeNavigator{},
		confirmer: &fakeConfirmer{answer: true},
		monitor:   connectivity.NewManual(online),
		kv:        kv,
		snapshots: store.NewSnapshotCache(kv, 0, zap.NewNop()),
		prefs:     store.NewPreferenceStore(kv, zap.NewNop()),
	}
	h.engine = NewEngine(Options{
		Config:      testBedConfig(t),
		CRUD:        h.crud,
		Preferences: h.prefs,
		Snapshots:   h.snapshots,
		Monitor:     h.monitor,
		Navigator:   h.nav,
		Confirmer:   h.confirmer,
		Logger:      zap.NewNop(),
	})
	t.Cleanup(h.engine.Unmount)
	return h
}

func viewIDs(v View) []string {
	ids := make([]string, 0, len(v.Items))
	for _, it := range v.Items {
		ids = append(ids, it.ID())
	}
	return ids
}

func TestScenarioA_OrFiltersKeepFetchOrder(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	_, err := h.engine.AddFilter(ctx, "label", domain.OpContains, "A-01")
	require.NoError(t, err)
	_, err = h.engine.AddFilter(ctx, "status", domain.OpIs, "OUT_OF_SERVICE")
	require.NoError(t, err)
	require.NoError(t, h.engine.SetFilterLogic(ctx, domain.LogicOr))

	assert.Equal(t, []string{"a-1", "c-3"}, viewIDs(h.engine.View()))

	require.NoError(t, h.engine.SetFilterLogic(ctx, domain.LogicAnd))
	assert.Empty(t, viewIDs(h.engine.View()))
}

func TestScenarioB_OutOfScopePressIsDenied(t *testing.T) {
	items := append(scenarioItems(), domain.ListItem{"id": "d-4", "label": "D-04", "tenant_id": "tenant-2"})
	h := setupEngine(t, items, true)
	ctx := context.Background()
	h.engine.Mount(ctx, tenantAdmin("tenant-1"))

	require.Len(t, h.crud.listCalls, 1)
	assert.Equal(t, "tenant-1", h.crud.listCalls[0].TenantID)
	assert.Equal(t, 100, h.crud.listCalls[0].Limit)
	assert.Equal(t, 1, h.crud.listCalls[0].Page)
	assert.NotContains(t, viewIDs(h.engine.View()), "d-4")

	res := h.engine.OnItemPress(ctx, "d-4")
	assert.Equal(t, domain.NoticeAccessDenied, res.Notice)
	assert.Equal(t, []string{"/settings/beds?notice=accessDenied"}, h.nav.pushes)
	assert.Empty(t, h.crud.getCalls)
}

func TestScenarioC_OfflineUsesSnapshot(t *testing.T) {
	h := setupEngine(t, nil, false)
	ctx := context.Background()
	cached := domain.ListItem{"id": "a-1", "label": "A-01"}
	require.NoError(t, h.snapshots.Write(ctx, store.Keys{}.Snapshot("bed"), []domain.ListItem{cached}))

	h.engine.Mount(ctx, globalAdmin())
	v := h.engine.View()

	require.Len(t, v.Items, 1)
	assert.Equal(t, "a-1", v.Items[0].ID())
	assert.Equal(t, "A-01", v.Items[0].Text("label"))
	assert.True(t, v.IsOffline)
	assert.True(t, v.FromCache)
	assert.False(t, v.ShowErrorState)
	assert.False(t, v.Loading)
	assert.Empty(t, h.crud.listCalls)
}

func TestScenarioD_BulkDeleteSequentialInSelectionOrder(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	h.engine.ToggleSelection("c-3")
	h.engine.ToggleSelection("a-1")

	res, err := h.engine.BulkDelete(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"c-3", "a-1"}, h.crud.removeCalls)
	require.Len(t, h.confirmer.messages, 1)
	assert.Contains(t, h.confirmer.messages[0], "Confirm 2")
	assert.Equal(t, domain.NoticeDeleted, res.Notice)
	assert.Equal(t, []string{"/settings/beds?notice=deleted"}, h.nav.pushes)
	assert.Empty(t, h.engine.View().Selected)
	assert.Equal(t, []string{"b-2"}, viewIDs(h.engine.View()))
}

func TestScenarioE_DeleteCancelledNeverRemoves(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	h.confirmer.answer = false
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	res, err := h.engine.Delete(ctx, "a-1")
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Empty(t, h.crud.removeCalls)
	assert.Empty(t, h.nav.pushes)
	assert.Len(t, h.confirmer.messages, 1)
}

func TestEngine_BulkDeleteClearsSelectionOnFailure(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	h.crud.removeErr = map[string]error{"a-1": &usecase.Error{Code: domain.ErrUnknown}}
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	h.engine.SetSelection([]string{"a-1", "b-2"})
	res, err := h.engine.BulkDelete(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"a-1", "b-2"}, h.crud.removeCalls)
	assert.Equal(t, []string{"b-2"}, res.Succeeded)
	assert.Equal(t, []string{"a-1"}, res.Failed)
	assert.Empty(t, h.engine.View().Selected)
}

func TestEngine_BulkDeleteRequiresSelection(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	_, err := h.engine.BulkDelete(ctx)
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Empty(t, h.confirmer.messages)
}

func TestEngine_RedirectsOnceWithoutSettingsAccess(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()

	h.engine.Mount(ctx, domain.AccessScope{})
	assert.Equal(t, StateResolving, h.engine.View().State)
	assert.Empty(t, h.nav.replaces)

	denied := domain.AccessScope{IsResolved: true}
	h.engine.SetAccess(ctx, denied)
	h.engine.SetAccess(ctx, denied)

	assert.Equal(t, StateRedirecting, h.engine.View().State)
	assert.Equal(t, []string{"/settings?notice=accessDenied"}, h.nav.replaces)
	assert.Empty(t, h.crud.listCalls)
}

func TestEngine_TenantAdminWithoutTenantRedirects(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	h.engine.Mount(context.Background(), tenantAdmin(""))

	assert.Equal(t, StateRedirecting, h.engine.View().State)
	assert.Len(t, h.nav.replaces, 1)
	assert.Empty(t, h.crud.listCalls)
}

func TestEngine_NetworkErrorFallsBackToSnapshot(t *testing.T) {
	h := setupEngine(t, nil, true)
	ctx := context.Background()
	h.crud.listErr = &usecase.Error{Code: domain.ErrNetwork}
	require.NoError(t, h.snapshots.Write(ctx, store.Keys{}.Snapshot("bed"), scenarioItems()[:2]))

	h.engine.Mount(ctx, globalAdmin())
	v := h.engine.View()

	assert.Equal(t, []string{"a-1", "b-2"}, viewIDs(v))
	assert.Equal(t, domain.ErrNetwork, v.ErrorCode)
	assert.True(t, v.ShowErrorBanner)
	assert.False(t, v.ShowErrorState)
	assert.True(t, v.FromCache)
}

func TestEngine_NetworkErrorWithoutSnapshotShowsErrorState(t *testing.T) {
	h := setupEngine(t, nil, true)
	h.crud.listErr = &usecase.Error{Code: domain.ErrNetwork}

	h.engine.Mount(context.Background(), globalAdmin())
	v := h.engine.View()

	assert.Equal(t, StateReady, v.State)
	assert.False(t, v.Loading)
	assert.True(t, v.ShowErrorState)
	assert.Empty(t, v.Items)
}

func TestEngine_RetryErrorKeepsLiveData(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	h.crud.listErr = &usecase.Error{Code: domain.ErrUnknown}
	h.engine.Retry(ctx)
	v := h.engine.View()

	assert.Len(t, v.Items, 3)
	assert.Equal(t, domain.ErrUnknown, v.ErrorCode)
	assert.True(t, v.ShowErrorBanner)
}

func TestEngine_AuthErrorRedirects(t *testing.T) {
	h := setupEngine(t, nil, true)
	h.crud.listErr = &usecase.Error{Code: domain.ErrForbidden}

	h.engine.Mount(context.Background(), globalAdmin())

	assert.Equal(t, StateRedirecting, h.engine.View().State)
	assert.Equal(t, []string{"/settings?notice=accessDenied"}, h.nav.replaces)
}

func TestEngine_OnlineTransitionRefetches(t *testing.T) {
	h := setupEngine(t, scenarioItems(), false)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())
	assert.Empty(t, h.crud.listCalls)
	assert.True(t, h.engine.View().IsOffline)

	h.monitor.Set(true)

	assert.Len(t, h.crud.listCalls, 1)
	v := h.engine.View()
	assert.False(t, v.IsOffline)
	assert.Len(t, v.Items, 3)

	// 成功拉取后刷新快照
	snap, err := h.snapshots.Read(ctx, store.Keys{}.Snapshot("bed"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Items, 3)
}

func TestEngine_LateResultAfterUnmountIsDropped(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	h.crud.onList = h.engine.Unmount

	h.engine.Mount(context.Background(), globalAdmin())
	v := h.engine.View()

	assert.Equal(t, StateLoading, v.State)
	assert.True(t, v.Loading)
	assert.Empty(t, v.Items)
}

func TestEngine_HydratesBeforePersisting(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	key := store.Keys{}.Preferences("bed")
	require.True(t, h.prefs.SetItem(ctx, key, domain.TablePreferences{
		PageSize:       50,
		Density:        domain.DensityCompact,
		ColumnOrder:    []string{"status", "label", "gone"},
		VisibleColumns: []string{"status"},
	}))

	h.engine.Mount(ctx, globalAdmin())
	v := h.engine.View()
	assert.Equal(t, 50, v.PageSize)
	assert.Equal(t, domain.DensityCompact, v.Preferences.Density)
	assert.Equal(t, []string{"status", "label"}, v.Columns)

	require.NoError(t, h.engine.SetDensity(ctx, domain.DensitySpacious))
	stored, err := h.prefs.GetItem(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 50, stored.PageSize)
	assert.Equal(t, domain.DensitySpacious, stored.Density)
}

func TestEngine_ResetPreferencesClearsStoredItem(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	require.NoError(t, h.engine.SetPageSize(ctx, 50))
	require.NoError(t, h.engine.ToggleColumnVisibility(ctx, "room"))
	stored, err := h.prefs.GetItem(ctx, store.Keys{}.Preferences("bed"))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 50, stored.PageSize)

	h.engine.ResetTablePreferences(ctx)

	stored, err = h.prefs.GetItem(ctx, store.Keys{}.Preferences("bed"))
	require.NoError(t, err)
	assert.Nil(t, stored)

	v := h.engine.View()
	assert.Equal(t, DefaultPageSize, v.PageSize)
	assert.Equal(t, []string{"label", "status", "room", "is_active"}, v.Columns)

	// 重置之后的修改照常保存
	require.NoError(t, h.engine.SetPageSize(ctx, 30))
	stored, err = h.prefs.GetItem(ctx, store.Keys{}.Preferences("bed"))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 30, stored.PageSize)
}

func TestEngine_PaginationResetsAndClamps(t *testing.T) {
	items := make([]domain.ListItem, 0, 45)
	for i := 0; i < 45; i++ {
		items = append(items, domain.ListItem{"id": domain.Stringify(i), "label": "L" + domain.Stringify(i)})
	}
	h := setupEngine(t, items, true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	require.NoError(t, h.engine.SetPageSize(ctx, 10))
	h.engine.SetPage(99)
	v := h.engine.View()
	assert.Equal(t, 5, v.TotalPages)
	assert.Equal(t, 5, v.Page)
	assert.Len(t, v.Items, 5)

	require.NoError(t, h.engine.SetPageSize(ctx, 20))
	v = h.engine.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 3, v.TotalPages)

	h.engine.SetPage(2)
	require.NoError(t, h.engine.SetSearch(ctx, "L1", "label"))
	assert.Equal(t, 1, h.engine.View().Page)

	require.NoError(t, h.engine.SetPageSize(ctx, 1000))
	assert.Equal(t, 100, h.engine.View().PageSize)
	assert.ErrorIs(t, h.engine.SetPageSize(ctx, 0), ErrInvalidPageSize)
}

func TestEngine_RetryIsIdempotent(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	h.engine.Retry(ctx)
	first := viewIDs(h.engine.View())
	h.engine.Retry(ctx)
	assert.Equal(t, first, viewIDs(h.engine.View()))
	assert.Len(t, h.crud.listCalls, 3)
}

func TestEngine_AddRequiresManagePermission(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	access := globalAdmin()
	access.CanManage = false
	h.engine.Mount(ctx, access)

	assert.False(t, h.engine.View().CanAdd)
	_, err := h.engine.Add(ctx)
	assert.ErrorIs(t, err, ErrActionUnavailable)
	assert.Empty(t, h.nav.pushes)

	h.engine.SetAccess(ctx, globalAdmin())
	res, err := h.engine.Add(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/settings/beds/create", res.Route)
}

func TestEngine_EditUnknownIDIsDenied(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	res, err := h.engine.Edit(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeAccessDenied, res.Notice)

	res, err = h.engine.Edit(ctx, "b-2")
	require.NoError(t, err)
	assert.Equal(t, "/settings/beds/b-2/edit", res.Route)
}

func TestEngine_OpenDetailFetchesItem(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, tenantAdmin("tenant-1"))

	res := h.engine.OpenDetail(ctx, "b-2")
	assert.Equal(t, []string{"b-2"}, h.crud.getCalls)
	assert.Equal(t, "B-02", res.Item.Text("label"))
	assert.Equal(t, "/settings/beds/b-2", res.Route)
}

func TestEngine_DeleteOfflineRoutesWithQueuedNotice(t *testing.T) {
	h := setupEngine(t, nil, true)
	ctx := context.Background()
	require.NoError(t, h.snapshots.Write(ctx, store.Keys{}.Snapshot("bed"), scenarioItems()))
	h.monitor.Set(false)
	h.engine.Mount(ctx, globalAdmin())
	h.crud.mutErr = usecase.ErrQueued

	res, err := h.engine.Delete(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1"}, h.crud.removeCalls)
	assert.Equal(t, domain.NoticeQueued, res.Notice)
	assert.Equal(t, []string{"/settings/beds?notice=queued"}, h.nav.pushes)
}

func TestEngine_MutationErrorsAreSwallowed(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())
	h.crud.mutErr = &usecase.Error{Code: domain.ErrUnknown, Message: "boom"}

	res, err := h.engine.Update(ctx, "a-1", map[string]any{"label": "A-99"})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrUnknown, res.ErrorCode)
	assert.Empty(t, h.nav.pushes)

	res, err = h.engine.Delete(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, errors.As(res.Err, new(*usecase.Error)))
	assert.Len(t, h.engine.View().Items, 3)
}

func TestEngine_CreateAddsTenantForScopedAdmin(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, tenantAdmin("tenant-1"))

	res, err := h.engine.Create(ctx, map[string]any{"label": "E-05"})
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeCreated, res.Notice)
	require.Len(t, h.crud.created, 1)
	assert.Equal(t, "tenant-1", h.crud.created[0]["tenant_id"])
	assert.Contains(t, viewIDs(h.engine.View()), "new-1")

	res, err = h.engine.Update(ctx, "a-1", map[string]any{"label": "A-99", "tenant_id": "tenant-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeUpdated, res.Notice)
	assert.Equal(t, "/settings/beds?notice=updated", res.Route)
}

func TestEngine_FilterValidation(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	_, err := h.engine.AddFilter(ctx, "nope", domain.OpContains, "x")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = h.engine.AddFilter(ctx, "status", domain.OpStartsWith, "x")
	assert.ErrorIs(t, err, ErrUnsupportedOperator)

	cond, err := h.engine.AddFilter(ctx, "status", "", "OCCUPIED")
	require.NoError(t, err)
	assert.Equal(t, domain.OpIs, cond.Operator)
	assert.Equal(t, []string{"b-2"}, viewIDs(h.engine.View()))

	_, err = h.engine.UpdateFilter(ctx, cond.ID, "status", domain.OpNotEquals, "OCCUPIED")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "c-3"}, viewIDs(h.engine.View()))

	require.NoError(t, h.engine.RemoveFilter(ctx, cond.ID))
	assert.ErrorIs(t, h.engine.RemoveFilter(ctx, cond.ID), ErrFilterNotFound)
	assert.Len(t, h.engine.View().Items, 3)
}

func TestEngine_SortAndColumns(t *testing.T) {
	h := setupEngine(t, scenarioItems(), true)
	ctx := context.Background()
	h.engine.Mount(ctx, globalAdmin())

	require.NoError(t, h.engine.SetSort(ctx, "label", domain.SortDesc))
	assert.Equal(t, []string{"c-3", "b-2", "a-1"}, viewIDs(h.engine.View()))
	assert.ErrorIs(t, h.engine.SetSort(ctx, "nope", domain.SortAsc), ErrUnknownField)

	assert.ErrorIs(t, h.engine.ToggleColumnVisibility(ctx, "label"), ErrRequiredColumn)
	require.NoError(t, h.engine.ToggleColumnVisibility(ctx, "room"))
	require.NoError(t, h.engine.MoveColumnLeft(ctx, "status"))
	require.NoError(t, h.engine.MoveColumnLeft(ctx, "status"))
	assert.Equal(t, []string{"status", "label", "is_active"}, h.engine.View().Columns)
}
