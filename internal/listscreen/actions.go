package listscreen

import (
	"context"
	"errors"
	"fmt"

	"hms-listview/internal/domain"
	"hms-listview/internal/usecase"

	"go.uber.org/zap"
)

var (
	ErrActionUnavailable = errors.New("action unavailable without manage permission")
	ErrEmptySelection    = errors.New("no items selected")
)

// ActionResult 一次操作的结果（HTTP 层原样返回给前端）
type ActionResult struct {
	Action    string           `json:"action"`
	Confirmed bool             `json:"confirmed"`
	Notice    domain.Notice    `json:"notice,omitempty"`
	Route     string           `json:"route,omitempty"`
	Item      domain.ListItem  `json:"item,omitempty"`
	Succeeded []string         `json:"succeeded,omitempty"`
	Failed    []string         `json:"failed,omitempty"`
	ErrorCode domain.ErrorCode `json:"error_code,omitempty"`
	Err       error            `json:"-"`
}

// actionContext 在锁内取出操作需要的状态
type actionContext struct {
	resolver  ScopeResolver
	items     []domain.ListItem
	canManage bool
	offline   bool
}

func (e *Engine) snapshotForAction() actionContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	offline := e.offline
	if e.monitor != nil {
		offline = !e.monitor.Online()
	}
	return actionContext{
		resolver:  NewScopeResolver(e.access, e.cfg.TenantField),
		items:     e.items,
		canManage: e.access.CanManage,
		offline:   offline,
	}
}

func (e *Engine) deny(ctx context.Context, action, id string) ActionResult {
	route := e.cfg.ListRoute(domain.NoticeAccessDenied)
	e.logger.Info("Item outside caller scope",
		zap.String("action", action),
		zap.String("item_id", id),
	)
	e.nav.Push(ctx, route)
	e.metrics.Action(e.cfg.Name, action, string(domain.NoticeAccessDenied))
	return ActionResult{Action: action, Notice: domain.NoticeAccessDenied, Route: route}
}

func (e *Engine) finish(ctx context.Context, res ActionResult, notice domain.Notice) ActionResult {
	res.Notice = notice
	res.Route = e.cfg.ListRoute(notice)
	e.nav.Push(ctx, res.Route)
	e.metrics.Action(e.cfg.Name, res.Action, string(notice))
	return res
}

// mutationNotice 离线或已排队时返回 queued
func mutationNotice(err error, offline bool, done domain.Notice) domain.Notice {
	if offline || errors.Is(err, usecase.ErrQueued) {
		return domain.NoticeQueued
	}
	return done
}

func (e *Engine) swallow(res ActionResult, id string, err error) ActionResult {
	res.Err = err
	res.ErrorCode = usecase.CodeOf(err)
	e.logger.Error("Mutation failed",
		zap.String("action", res.Action),
		zap.String("item_id", id),
		zap.String("error_code", string(res.ErrorCode)),
		zap.Error(err),
	)
	e.metrics.Action(e.cfg.Name, res.Action, "failed")
	return res
}

// Add 跳转到新建页
func (e *Engine) Add(ctx context.Context) (ActionResult, error) {
	ac := e.snapshotForAction()
	if !ac.canManage {
		return ActionResult{}, ErrActionUnavailable
	}
	route := e.cfg.CreateRoute()
	e.nav.Push(ctx, route)
	e.metrics.Action(e.cfg.Name, "add", "navigated")
	return ActionResult{Action: "add", Route: route}, nil
}

// OnItemPress 点击行：打开详情
func (e *Engine) OnItemPress(ctx context.Context, id string) ActionResult {
	return e.OpenDetail(ctx, id)
}

// OpenDetail 先检查租户范围，再调用 get
func (e *Engine) OpenDetail(ctx context.Context, id string) ActionResult {
	ac := e.snapshotForAction()
	if !ac.resolver.IDInScope(id, ac.items) {
		return e.deny(ctx, "open", id)
	}

	res := ActionResult{Action: "open"}
	item, err := e.crud.Get(ctx, id)
	if err != nil {
		res.Err = err
		res.ErrorCode = usecase.CodeOf(err)
		e.logger.Warn("Failed to load item detail",
			zap.String("item_id", id),
			zap.String("error_code", string(res.ErrorCode)),
			zap.Error(err),
		)
		if res.ErrorCode.IsAuthError() {
			return e.deny(ctx, "open", id)
		}
		return res
	}
	res.Item = item
	res.Route = e.cfg.DetailRoute(id)
	e.nav.Push(ctx, res.Route)
	e.metrics.Action(e.cfg.Name, "open", "navigated")
	return res
}

// Edit 跳转到编辑页
func (e *Engine) Edit(ctx context.Context, id string) (ActionResult, error) {
	ac := e.snapshotForAction()
	if !ac.canManage {
		return ActionResult{}, ErrActionUnavailable
	}
	if !ac.resolver.IDInScope(id, ac.items) {
		return e.deny(ctx, "edit", id), nil
	}
	route := e.cfg.EditRoute(id)
	e.nav.Push(ctx, route)
	e.metrics.Action(e.cfg.Name, "edit", "navigated")
	return ActionResult{Action: "edit", Route: route}, nil
}

// Delete 确认后删除单行；取消时不调用 remove
func (e *Engine) Delete(ctx context.Context, id string) (ActionResult, error) {
	ac := e.snapshotForAction()
	if !ac.canManage {
		return ActionResult{}, ErrActionUnavailable
	}
	if !ac.resolver.IDInScope(id, ac.items) {
		return e.deny(ctx, "delete", id), nil
	}

	res := ActionResult{Action: "delete"}
	if !e.confirmer.Confirm(ctx, fmt.Sprintf("Delete this %s?", e.cfg.Name)) {
		e.metrics.Action(e.cfg.Name, "delete", "cancelled")
		return res, nil
	}
	res.Confirmed = true

	_, err := e.crud.Remove(ctx, id)
	if err != nil && !errors.Is(err, usecase.ErrQueued) {
		return e.swallow(res, id, err), nil
	}
	notice := mutationNotice(err, ac.offline, domain.NoticeDeleted)
	if notice == domain.NoticeDeleted {
		e.dropItems(id)
	}
	res.Succeeded = []string{id}
	return e.finish(ctx, res, notice), nil
}

// BulkDelete 按选中顺序逐个删除；无论结果如何都清空选中
func (e *Engine) BulkDelete(ctx context.Context) (ActionResult, error) {
	ac := e.snapshotForAction()
	if !ac.canManage {
		return ActionResult{}, ErrActionUnavailable
	}
	e.mu.Lock()
	ids := e.selection.IDs()
	e.mu.Unlock()
	if len(ids) == 0 {
		return ActionResult{}, ErrEmptySelection
	}

	res := ActionResult{Action: "bulk_delete"}
	if !e.confirmer.Confirm(ctx, fmt.Sprintf("Confirm %d selected %s for deletion?", len(ids), e.cfg.Plural)) {
		e.metrics.Action(e.cfg.Name, "bulk_delete", "cancelled")
		return res, nil
	}
	res.Confirmed = true

	queued := false
	var deleted []string
	for _, id := range ids {
		if !ac.resolver.IDInScope(id, ac.items) {
			e.logger.Info("Skipping out-of-scope item in bulk delete", zap.String("item_id", id))
			res.Failed = append(res.Failed, id)
			continue
		}
		_, err := e.crud.Remove(ctx, id)
		switch {
		case err == nil:
			res.Succeeded = append(res.Succeeded, id)
			deleted = append(deleted, id)
		case errors.Is(err, usecase.ErrQueued):
			res.Succeeded = append(res.Succeeded, id)
			queued = true
		default:
			e.logger.Error("Bulk delete item failed",
				zap.String("item_id", id),
				zap.String("error_code", string(usecase.CodeOf(err))),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, id)
		}
	}

	e.mu.Lock()
	e.selection.Clear()
	e.mu.Unlock()

	if len(res.Succeeded) == 0 {
		e.metrics.Action(e.cfg.Name, "bulk_delete", "failed")
		return res, nil
	}
	notice := domain.NoticeDeleted
	if queued || ac.offline {
		notice = domain.NoticeQueued
	} else {
		e.dropItems(deleted...)
	}
	return e.finish(ctx, res, notice), nil
}

// Create 表单提交：新建
func (e *Engine) Create(ctx context.Context, payload map[string]any) (ActionResult, error) {
	ac := e.snapshotForAction()
	if !ac.canManage {
		return ActionResult{}, ErrActionUnavailable
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if tenant := ac.resolver.TenantParam(); tenant != "" {
		if _, ok := payload[e.cfg.TenantField]; !ok {
			payload[e.cfg.TenantField] = tenant
		}
	}

	res := ActionResult{Action: "create", Confirmed: true}
	item, err := e.crud.Create(ctx, payload)
	if err != nil && !errors.Is(err, usecase.ErrQueued) {
		return e.swallow(res, "", err), nil
	}
	notice := mutationNotice(err, ac.offline, domain.NoticeCreated)
	if notice == domain.NoticeCreated && item != nil {
		res.Item = item
		e.upsertItem(item)
	}
	return e.finish(ctx, res, notice), nil
}

// Update 表单提交：修改
func (e *Engine) Update(ctx context.Context, id string, payload map[string]any) (ActionResult, error) {
	ac := e.snapshotForAction()
	if !ac.canManage {
		return ActionResult{}, ErrActionUnavailable
	}
	if !ac.resolver.IDInScope(id, ac.items) {
		return e.deny(ctx, "update", id), nil
	}

	res := ActionResult{Action: "update", Confirmed: true}
	item, err := e.crud.Update(ctx, id, payload)
	if err != nil && !errors.Is(err, usecase.ErrQueued) {
		return e.swallow(res, id, err), nil
	}
	notice := mutationNotice(err, ac.offline, domain.NoticeUpdated)
	if notice == domain.NoticeUpdated && item != nil {
		res.Item = item
		e.upsertItem(item)
	}
	return e.finish(ctx, res, notice), nil
}

func (e *Engine) dropItems(ids ...string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := make([]domain.ListItem, 0, len(e.items))
	for _, item := range e.items {
		if !drop[item.ID()] {
			kept = append(kept, item)
		}
	}
	e.items = kept
}

func (e *Engine) upsertItem(item domain.ListItem) {
	id := item.ID()
	if id == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := domain.CloneItems(e.items)
	for i, it := range next {
		if it.ID() == id {
			next[i] = item
			e.items = next
			return
		}
	}
	e.items = append(next, item)
}
