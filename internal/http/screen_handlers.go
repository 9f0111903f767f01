package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hms-listview/internal/domain"
	"hms-listview/internal/entities"
	"hms-listview/internal/export"
	"hms-listview/internal/listscreen"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ScreenResponse 列表页接口的统一返回
type ScreenResponse struct {
	View          listscreen.View          `json:"view"`
	Action        *listscreen.ActionResult `json:"action,omitempty"`
	Filter        *domain.FilterCondition  `json:"filter,omitempty"`
	Navigations   []Navigation             `json:"navigations,omitempty"`
	Confirmations []string                 `json:"confirmations,omitempty"`
}

type screenFunc func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error

// ScreenHandler 列表页 BFF 接口
type ScreenHandler struct {
	registry *entities.Registry
	sessions *SessionManager
	generate func(*listscreen.EntityConfig, listscreen.View) ([]byte, error)
	logger   *zap.Logger
}

func NewScreenHandler(registry *entities.Registry, sessions *SessionManager, logger *zap.Logger) *ScreenHandler {
	return &ScreenHandler{
		registry: registry,
		sessions: sessions,
		generate: export.GenerateViewExport,
		logger:   logger,
	}
}

// screen 解析调用方、取出会话、执行操作，最后返回当前视图
// 已进入跳转状态的会话不再执行任何操作
func (h *ScreenHandler) screen(fn screenFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := callerFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, Fail("missing "+headerUserID))
			return
		}
		ctx, in := withInteraction(r.Context(), parseBool(r.URL.Query().Get("confirm")))

		eng, err := h.sessions.Acquire(ctx, c, chi.URLParam(r, "entity"))
		if err != nil {
			h.fail(w, err)
			return
		}

		var out ScreenResponse
		if fn != nil && eng.State() != listscreen.StateRedirecting {
			if err := fn(ctx, r, eng, &out); err != nil {
				h.fail(w, err)
				return
			}
		}
		out.View = eng.View()
		out.Navigations, out.Confirmations = in.snapshot()
		writeJSON(w, http.StatusOK, Ok(out))
	}
}

func (h *ScreenHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownEntity):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.Is(err, listscreen.ErrActionUnavailable):
		writeJSON(w, http.StatusForbidden, Fail(err.Error()))
	case errors.Is(err, listscreen.ErrUnknownField),
		errors.Is(err, listscreen.ErrUnsupportedOperator),
		errors.Is(err, listscreen.ErrFilterNotFound),
		errors.Is(err, listscreen.ErrInvalidFilterLogic),
		errors.Is(err, listscreen.ErrInvalidPageSize),
		errors.Is(err, listscreen.ErrInvalidDensity),
		errors.Is(err, listscreen.ErrInvalidSortDirection),
		errors.Is(err, listscreen.ErrRequiredColumn),
		errors.Is(err, listscreen.ErrUnknownColumn),
		errors.Is(err, listscreen.ErrEmptySelection),
		errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	default:
		h.logger.Error("List screen request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
	}
}

var errBadRequest = errors.New("invalid request body")

func decode(r *http.Request, out any) error {
	if err := readBodyJSON(r, maxBodyBytes, out); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// ListEntities GET /entities
func (h *ScreenHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.registry.All()))
}

// PurgePreferences DELETE /preferences 清除调用方在全部实体上保存的表格偏好
func (h *ScreenHandler) PurgePreferences(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("missing "+headerUserID))
		return
	}
	n, err := h.sessions.PurgePreferences(r.Context(), c)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"removed": n}))
}

// GetScreen GET /screens/{entity}
func (h *ScreenHandler) GetScreen() http.HandlerFunc {
	return h.screen(nil)
}

func (h *ScreenHandler) SetSearch() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			Query string `json:"query"`
			Scope string `json:"scope"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		return eng.SetSearch(ctx, body.Query, body.Scope)
	})
}

type filterBody struct {
	Field    string                `json:"field"`
	Operator domain.FilterOperator `json:"operator"`
	Value    string                `json:"value"`
}

func (h *ScreenHandler) AddFilter() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		var body filterBody
		if err := decode(r, &body); err != nil {
			return err
		}
		cond, err := eng.AddFilter(ctx, body.Field, body.Operator, body.Value)
		if err != nil {
			return err
		}
		out.Filter = &cond
		return nil
	})
}

func (h *ScreenHandler) UpdateFilter() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		var body filterBody
		if err := decode(r, &body); err != nil {
			return err
		}
		cond, err := eng.UpdateFilter(ctx, chi.URLParam(r, "id"), body.Field, body.Operator, body.Value)
		if err != nil {
			return err
		}
		out.Filter = &cond
		return nil
	})
}

func (h *ScreenHandler) RemoveFilter() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		return eng.RemoveFilter(ctx, chi.URLParam(r, "id"))
	})
}

func (h *ScreenHandler) ClearFilters() http.HandlerFunc {
	return h.screen(func(ctx context.Context, _ *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		eng.ClearFilters(ctx)
		return nil
	})
}

func (h *ScreenHandler) SetFilterLogic() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			Logic domain.FilterLogic `json:"logic"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		return eng.SetFilterLogic(ctx, body.Logic)
	})
}

func (h *ScreenHandler) SetPage() http.HandlerFunc {
	return h.screen(func(_ context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			Page int `json:"page"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		eng.SetPage(body.Page)
		return nil
	})
}

func (h *ScreenHandler) SetPageSize() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			PageSize int `json:"page_size"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		return eng.SetPageSize(ctx, body.PageSize)
	})
}

func (h *ScreenHandler) SetSort() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			Field     string               `json:"field"`
			Direction domain.SortDirection `json:"direction"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		return eng.SetSort(ctx, body.Field, body.Direction)
	})
}

func (h *ScreenHandler) SetDensity() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			Density domain.Density `json:"density"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		return eng.SetDensity(ctx, body.Density)
	})
}

// ColumnAction POST /columns/{column}/{op}，op = toggle | move-left | move-right
func (h *ScreenHandler) ColumnAction() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		column := chi.URLParam(r, "column")
		switch op := chi.URLParam(r, "op"); op {
		case "toggle":
			return eng.ToggleColumnVisibility(ctx, column)
		case "move-left":
			return eng.MoveColumnLeft(ctx, column)
		case "move-right":
			return eng.MoveColumnRight(ctx, column)
		default:
			return fmt.Errorf("%w: unknown column action %q", errBadRequest, op)
		}
	})
}

func (h *ScreenHandler) ResetPreferences() http.HandlerFunc {
	return h.screen(func(ctx context.Context, _ *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		eng.ResetTablePreferences(ctx)
		return nil
	})
}

func (h *ScreenHandler) Retry() http.HandlerFunc {
	return h.screen(func(ctx context.Context, _ *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		eng.Retry(ctx)
		return nil
	})
}

func (h *ScreenHandler) Add() http.HandlerFunc {
	return h.screen(func(ctx context.Context, _ *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		res, err := eng.Add(ctx)
		if err != nil {
			return err
		}
		out.Action = &res
		return nil
	})
}

func (h *ScreenHandler) PressItem() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		res := eng.OnItemPress(ctx, chi.URLParam(r, "id"))
		out.Action = &res
		return nil
	})
}

func (h *ScreenHandler) EditItem() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		res, err := eng.Edit(ctx, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		out.Action = &res
		return nil
	})
}

func (h *ScreenHandler) DeleteItem() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		res, err := eng.Delete(ctx, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		out.Action = &res
		return nil
	})
}

func (h *ScreenHandler) CreateItem() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		var payload map[string]any
		if err := decode(r, &payload); err != nil {
			return err
		}
		res, err := eng.Create(ctx, payload)
		if err != nil {
			return err
		}
		out.Action = &res
		return nil
	})
}

func (h *ScreenHandler) UpdateItem() http.HandlerFunc {
	return h.screen(func(ctx context.Context, r *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		var payload map[string]any
		if err := decode(r, &payload); err != nil {
			return err
		}
		res, err := eng.Update(ctx, chi.URLParam(r, "id"), payload)
		if err != nil {
			return err
		}
		out.Action = &res
		return nil
	})
}

func (h *ScreenHandler) SetSelection() http.HandlerFunc {
	return h.screen(func(_ context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := decode(r, &body); err != nil {
			return err
		}
		eng.SetSelection(body.IDs)
		return nil
	})
}

func (h *ScreenHandler) ToggleSelection() http.HandlerFunc {
	return h.screen(func(_ context.Context, r *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		eng.ToggleSelection(chi.URLParam(r, "id"))
		return nil
	})
}

func (h *ScreenHandler) SelectPage() http.HandlerFunc {
	return h.screen(func(_ context.Context, _ *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		eng.SelectPage()
		return nil
	})
}

func (h *ScreenHandler) ClearSelection() http.HandlerFunc {
	return h.screen(func(_ context.Context, _ *http.Request, eng *listscreen.Engine, _ *ScreenResponse) error {
		eng.ClearSelection()
		return nil
	})
}

func (h *ScreenHandler) BulkDelete() http.HandlerFunc {
	return h.screen(func(ctx context.Context, _ *http.Request, eng *listscreen.Engine, out *ScreenResponse) error {
		res, err := eng.BulkDelete(ctx)
		if err != nil {
			return err
		}
		out.Action = &res
		return nil
	})
}

// Export GET /screens/{entity}/export.xlsx 导出筛选/排序后的全部行
func (h *ScreenHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("missing "+headerUserID))
		return
	}
	ctx, _ := withInteraction(r.Context(), false)
	eng, err := h.sessions.Acquire(ctx, c, chi.URLParam(r, "entity"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if eng.State() == listscreen.StateRedirecting {
		writeJSON(w, http.StatusForbidden, Fail(string(domain.NoticeAccessDenied)))
		return
	}

	cfg := eng.Config()
	data, err := h.generate(cfg, eng.ViewAll())
	if err != nil {
		h.logger.Error("GenerateViewExport failed", zap.String("entity", cfg.Name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-export.xlsx", cfg.Plural))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write export", zap.String("entity", cfg.Name), zap.Error(err))
	}
}
