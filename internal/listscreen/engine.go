package listscreen

import (
	"context"
	"fmt"
	"sync"

	"hms-listview/internal/connectivity"
	"hms-listview/internal/domain"
	"hms-listview/internal/metrics"
	"hms-listview/internal/store"
	"hms-listview/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State 列表页状态
// Resolving -> Redirecting（终态）| Loading -> Ready；离线与错误是叠加状态
type State string

const (
	StateResolving   State = "resolving"
	StateRedirecting State = "redirecting"
	StateLoading     State = "loading"
	StateReady       State = "ready"
)

// Navigator 路由跳转
type Navigator interface {
	Push(ctx context.Context, path string)
	Replace(ctx context.Context, path string)
}

// Confirmer 删除前的确认
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// Options Engine 依赖
type Options struct {
	Config      *EntityConfig
	CRUD        usecase.CRUD
	Preferences *store.PreferenceStore
	Snapshots   *store.SnapshotCache
	Keys        store.Keys
	Monitor     connectivity.Monitor
	Navigator   Navigator
	Confirmer   Confirmer
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Engine 一个实体列表页的状态与操作
type Engine struct {
	cfg       *EntityConfig
	crud      usecase.CRUD
	prefStore *store.PreferenceStore
	prefKey   string
	fetcher   *Fetcher
	monitor   connectivity.Monitor
	nav       Navigator
	confirmer Confirmer
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu          sync.Mutex
	state       State
	access      domain.AccessScope
	mounted     bool
	hydrated    bool
	prefs       domain.TablePreferences
	search      domain.SearchState
	page        int
	items       []domain.ListItem
	hasLive     bool
	loading     bool
	offline     bool
	fromCache   bool
	errCode     domain.ErrorCode
	selection   *domain.SelectionSet
	generation  uint64
	unsubscribe func()
}

// NewEngine 创建引擎；Config 必须已通过 Validate
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("entity", opts.Config.Name))

	e := &Engine{
		cfg:       opts.Config,
		crud:      opts.CRUD,
		prefStore: opts.Preferences,
		prefKey:   opts.Keys.Preferences(opts.Config.Name),
		monitor:   opts.Monitor,
		nav:       opts.Navigator,
		confirmer: opts.Confirmer,
		metrics:   opts.Metrics,
		logger:    logger,
		state:     StateResolving,
		prefs:     opts.Config.DefaultPreferences(),
		page:      1,
		loading:   true,
		selection: domain.NewSelectionSet(),
	}
	e.search = domain.SearchState{Scope: e.prefs.SearchScope}

	var online usecase.OnlineChecker
	if opts.Monitor != nil {
		online = opts.Monitor
	}
	e.fetcher = NewFetcher(opts.Config.Name, opts.CRUD, opts.Snapshots, opts.Keys.Snapshot(opts.Config.Name), online, opts.Metrics, logger)
	return e
}

// Config 实体配置
func (e *Engine) Config() *EntityConfig { return e.cfg }

// State 当前状态
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Mount 读取偏好、订阅在线状态，然后按 access 决定跳转或加载
func (e *Engine) Mount(ctx context.Context, access domain.AccessScope) {
	e.mu.Lock()
	if e.mounted {
		e.mu.Unlock()
		e.SetAccess(ctx, access)
		return
	}
	e.mounted = true
	e.mu.Unlock()

	e.hydrate(ctx)

	if e.monitor != nil {
		unsubscribe := e.monitor.Subscribe(e.onConnectivity)
		e.mu.Lock()
		e.unsubscribe = unsubscribe
		e.offline = !e.monitor.Online()
		e.mu.Unlock()
	}

	e.SetAccess(ctx, access)
}

// Unmount 之后到达的拉取结果不再生效
func (e *Engine) Unmount() {
	e.mu.Lock()
	e.mounted = false
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (e *Engine) hydrate(ctx context.Context) {
	var stored *domain.TablePreferences
	if e.prefStore != nil {
		var err error
		stored, err = e.prefStore.GetItem(ctx, e.prefKey)
		if err != nil {
			e.logger.Warn("Failed to hydrate table preferences, using defaults", zap.Error(err))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if stored != nil {
		e.prefs = e.cfg.SanitizePreferences(*stored)
	}
	e.search.Scope = e.prefs.SearchScope
	e.hydrated = true
}

// SetAccess 权限变化；跳转只发生一次
func (e *Engine) SetAccess(ctx context.Context, access domain.AccessScope) {
	e.mu.Lock()
	if e.state == StateRedirecting {
		e.mu.Unlock()
		return
	}
	prevTenant := NewScopeResolver(e.access, e.cfg.TenantField).TenantParam()
	e.access = access
	resolver := NewScopeResolver(access, e.cfg.TenantField)

	switch resolver.Decide() {
	case DecisionPending:
		e.state = StateResolving
		e.mu.Unlock()
		return
	case DecisionRedirect:
		e.state = StateRedirecting
		e.loading = false
		e.mu.Unlock()
		e.logger.Info("Access denied, redirecting to landing route",
			zap.Bool("can_access_tenant_settings", access.CanAccessTenantSettings),
			zap.String("tenant_id", access.TenantID),
		)
		e.nav.Replace(ctx, e.cfg.DeniedRoute())
		return
	}

	needLoad := e.state == StateResolving || resolver.TenantParam() != prevTenant
	if e.state == StateResolving {
		e.state = StateLoading
	}
	e.mu.Unlock()

	if needLoad {
		e.load(ctx)
	}
}

// Retry 手动重新拉取
func (e *Engine) Retry(ctx context.Context) {
	e.load(ctx)
}

func (e *Engine) onConnectivity(online bool) {
	e.mu.Lock()
	e.offline = !online
	e.mu.Unlock()
	if online {
		e.load(context.Background())
	}
}

func (e *Engine) load(ctx context.Context) {
	e.mu.Lock()
	if !e.mounted || e.state == StateResolving || e.state == StateRedirecting {
		e.mu.Unlock()
		return
	}
	e.generation++
	gen := e.generation
	tenant := NewScopeResolver(e.access, e.cfg.TenantField).TenantParam()
	hasLive := e.hasLive
	e.mu.Unlock()

	res := e.fetcher.Fetch(ctx, tenant, hasLive)

	e.mu.Lock()
	if !e.mounted || gen != e.generation || e.state == StateRedirecting {
		e.mu.Unlock()
		e.logger.Debug("Dropping stale list result")
		return
	}

	if res.ErrorCode.IsAuthError() {
		e.state = StateRedirecting
		e.loading = false
		e.errCode = res.ErrorCode
		e.mu.Unlock()
		e.nav.Replace(ctx, e.cfg.DeniedRoute())
		return
	}
	defer e.mu.Unlock()

	switch {
	case res.Live:
		e.items = res.Items
		e.hasLive = true
		e.fromCache = false
	case res.FromCache && !e.hasLive:
		e.items = res.Items
		e.fromCache = true
	}
	e.offline = res.Offline
	e.errCode = res.ErrorCode
	e.loading = false
	e.state = StateReady
}

// persistLocked 偏好读取完成前不写，避免用默认值覆盖已保存的偏好
func (e *Engine) persistLocked(ctx context.Context) {
	if !e.hydrated || e.prefStore == nil {
		return
	}
	e.prefStore.SetItem(ctx, e.prefKey, e.prefs)
}

// SetSearch 修改搜索词或范围，页码回到 1
func (e *Engine) SetSearch(ctx context.Context, query, scope string) error {
	if scope == "" {
		scope = domain.SearchScopeAll
	}
	if scope != domain.SearchScopeAll && !e.cfg.isSearchField(scope) {
		return fmt.Errorf("search scope %q: %w", scope, ErrUnknownField)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = domain.SearchState{Query: query, Scope: scope}
	e.page = 1
	if e.prefs.SearchScope != scope {
		e.prefs.SearchScope = scope
		e.persistLocked(ctx)
	}
	return nil
}

func (e *Engine) validateCondition(field string, op domain.FilterOperator) (domain.FilterOperator, error) {
	f, ok := e.cfg.FilterField(field)
	if !ok {
		return "", fmt.Errorf("filter field %q: %w", field, ErrUnknownField)
	}
	if op == "" {
		op = f.Operators[0]
	}
	if !f.Supports(op) {
		return "", fmt.Errorf("%s on %q: %w", op, field, ErrUnsupportedOperator)
	}
	return op, nil
}

// AddFilter 新增一条筛选条件
func (e *Engine) AddFilter(ctx context.Context, field string, op domain.FilterOperator, value string) (domain.FilterCondition, error) {
	op, err := e.validateCondition(field, op)
	if err != nil {
		return domain.FilterCondition{}, err
	}
	cond := domain.FilterCondition{
		ID:       uuid.New().String(),
		Field:    field,
		Operator: op,
		Value:    value,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.Filters = append(e.prefs.Filters, cond)
	e.page = 1
	e.persistLocked(ctx)
	return cond, nil
}

// UpdateFilter 修改已有条件
func (e *Engine) UpdateFilter(ctx context.Context, id, field string, op domain.FilterOperator, value string) (domain.FilterCondition, error) {
	op, err := e.validateCondition(field, op)
	if err != nil {
		return domain.FilterCondition{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.prefs.Filters {
		if c.ID == id {
			e.prefs.Filters[i] = domain.FilterCondition{ID: id, Field: field, Operator: op, Value: value}
			e.page = 1
			e.persistLocked(ctx)
			return e.prefs.Filters[i], nil
		}
	}
	return domain.FilterCondition{}, ErrFilterNotFound
}

// RemoveFilter 删除单个条件
func (e *Engine) RemoveFilter(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.prefs.Filters {
		if c.ID == id {
			e.prefs.Filters = append(e.prefs.Filters[:i:i], e.prefs.Filters[i+1:]...)
			e.page = 1
			e.persistLocked(ctx)
			return nil
		}
	}
	return ErrFilterNotFound
}

// ClearFilters 清空全部条件
func (e *Engine) ClearFilters(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.Filters = []domain.FilterCondition{}
	e.page = 1
	e.persistLocked(ctx)
}

// SetFilterLogic AND / OR
func (e *Engine) SetFilterLogic(ctx context.Context, logic domain.FilterLogic) error {
	if !logic.Valid() {
		return ErrInvalidFilterLogic
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.FilterLogic = logic
	e.page = 1
	e.persistLocked(ctx)
	return nil
}

// SetPage 页码在 View 中 clamp
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if page < 1 {
		page = 1
	}
	e.page = page
}

// SetPageSize 超过上限时截断为 MaxPageFetchSize，页码回到 1
func (e *Engine) SetPageSize(ctx context.Context, size int) error {
	if size <= 0 {
		return ErrInvalidPageSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.PageSize = NormalizePageSize(size, DefaultPageSize)
	e.page = 1
	e.persistLocked(ctx)
	return nil
}

// SetSort field 为空表示取消排序
func (e *Engine) SetSort(ctx context.Context, field string, dir domain.SortDirection) error {
	if field != "" && !e.cfg.HasColumn(field) {
		return fmt.Errorf("sort field %q: %w", field, ErrUnknownField)
	}
	if dir == "" {
		dir = domain.SortAsc
	}
	if dir != domain.SortAsc && dir != domain.SortDesc {
		return ErrInvalidSortDirection
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.SortField = field
	e.prefs.SortDirection = dir
	if field == "" {
		e.prefs.SortDirection = ""
	}
	e.persistLocked(ctx)
	return nil
}

// SetDensity 行密度
func (e *Engine) SetDensity(ctx context.Context, d domain.Density) error {
	if !d.Valid() {
		return ErrInvalidDensity
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.Density = d
	e.persistLocked(ctx)
	return nil
}

// ToggleColumnVisibility 显示/隐藏列
func (e *Engine) ToggleColumnVisibility(ctx context.Context, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := e.cfg.ToggleColumnVisibility(e.prefs, key)
	if err != nil {
		return err
	}
	e.prefs = next
	e.persistLocked(ctx)
	return nil
}

// MoveColumnLeft 与左侧列交换
func (e *Engine) MoveColumnLeft(ctx context.Context, key string) error {
	return e.moveColumn(ctx, key, -1)
}

// MoveColumnRight 与右侧列交换
func (e *Engine) MoveColumnRight(ctx context.Context, key string) error {
	return e.moveColumn(ctx, key, 1)
}

func (e *Engine) moveColumn(ctx context.Context, key string, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := MoveColumn(e.prefs, key, delta)
	if err != nil {
		return err
	}
	e.prefs = next
	e.persistLocked(ctx)
	return nil
}

// ResetTablePreferences 恢复默认并删除已保存的偏好
func (e *Engine) ResetTablePreferences(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	if e.prefStore != nil {
		e.prefStore.RemoveItem(ctx, e.prefKey)
	}
}

// ReloadDefaults 已保存的偏好被外部清除后，内存中的偏好回到默认
func (e *Engine) ReloadDefaults() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.prefs = e.cfg.DefaultPreferences()
	e.search.Scope = e.prefs.SearchScope
	e.page = 1
	e.hydrated = true
}

// ToggleSelection 返回切换后是否选中
func (e *Engine) ToggleSelection(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Toggle(id)
}

// SetSelection 整体替换选中项
func (e *Engine) SetSelection(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = domain.NewSelectionSet(ids...)
}

// SelectPage 选中当前页全部行
func (e *Engine) SelectPage() {
	v := e.View()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range v.Items {
		e.selection.Add(item.ID())
	}
}

// ClearSelection 清空选中
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear()
}

// View 当前页面的派生视图
type View struct {
	Entity          string                  `json:"entity"`
	State           State                   `json:"state"`
	Loading         bool                    `json:"loading"`
	IsOffline       bool                    `json:"is_offline"`
	FromCache       bool                    `json:"from_cache"`
	ErrorCode       domain.ErrorCode        `json:"error_code,omitempty"`
	ShowErrorState  bool                    `json:"show_error_state"`
	ShowErrorBanner bool                    `json:"show_error_banner"`
	CanAdd          bool                    `json:"can_add"`
	Search          domain.SearchState      `json:"search"`
	Preferences     domain.TablePreferences `json:"preferences"`
	Columns         []string                `json:"columns"`
	Items           []domain.ListItem       `json:"items"`
	Page            int                     `json:"page"`
	PageSize        int                     `json:"page_size"`
	TotalItems      int                     `json:"total_items"`
	TotalPages      int                     `json:"total_pages"`
	Selected        []string                `json:"selected"`
}

// View 计算当前页
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, derived := e.baseViewLocked()
	v.TotalItems = len(derived)
	v.TotalPages = TotalPages(v.TotalItems, v.PageSize)
	e.page = ClampPage(e.page, v.TotalPages)
	v.Page = e.page
	v.Items = Paginate(derived, e.page, v.PageSize)
	return v
}

// ViewAll 不分页的完整视图（导出用）
func (e *Engine) ViewAll() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, derived := e.baseViewLocked()
	v.TotalItems = len(derived)
	v.TotalPages = 1
	v.Page = 1
	v.Items = derived
	return v
}

func (e *Engine) baseViewLocked() (View, []domain.ListItem) {
	resolver := NewScopeResolver(e.access, e.cfg.TenantField)
	visible := resolver.VisibleItems(e.items)
	derived := e.cfg.Derive(visible, e.search, e.prefs)

	hasData := len(visible) > 0
	v := View{
		Entity:          e.cfg.Name,
		State:           e.state,
		Loading:         e.loading,
		IsOffline:       e.offline,
		FromCache:       e.fromCache,
		ErrorCode:       e.errCode,
		ShowErrorState:  e.errCode != "" && !hasData,
		ShowErrorBanner: e.errCode != "" && hasData,
		CanAdd:          e.access.CanManage && e.state != StateRedirecting,
		Search:          e.search,
		Preferences:     e.prefs.Clone(),
		Columns:         VisibleOrdered(e.prefs),
		PageSize:        e.prefs.PageSize,
		Selected:        e.selection.IDs(),
	}
	return v, derived
}
