package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// APIPrefix 列表页接口前缀
const APIPrefix = "/listview/api/v1"

// Router chi 路由，外层套 CORS
type Router struct {
	mux    chi.Router
	cors   *cors.Cors
	logger *zap.Logger
}

func NewRouter(allowedOrigins []string, logger *zap.Logger) *Router {
	return &Router{
		mux: chi.NewRouter(),
		cors: cors.New(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowCredentials: true,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
		}),
		logger: logger,
	}
}

// HandleHandler 挂载 /metrics 等 http.Handler
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.cors.ServeHTTP(w, req, r.mux.ServeHTTP)
}

// RegisterHealthRoute 存活检查
func (r *Router) RegisterHealthRoute() {
	r.mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterScreenRoutes 注册列表页路由
func (r *Router) RegisterScreenRoutes(h *ScreenHandler) {
	r.mux.Route(APIPrefix, func(api chi.Router) {
		api.Get("/entities", h.ListEntities)
		api.Delete("/preferences", h.PurgePreferences)

		api.Route("/screens/{entity}", func(s chi.Router) {
			s.Get("/", h.GetScreen())
			s.Put("/search", h.SetSearch())

			s.Post("/filters", h.AddFilter())
			s.Delete("/filters", h.ClearFilters())
			s.Put("/filters/{id}", h.UpdateFilter())
			s.Delete("/filters/{id}", h.RemoveFilter())
			s.Put("/filter-logic", h.SetFilterLogic())

			s.Put("/page", h.SetPage())
			s.Put("/page-size", h.SetPageSize())
			s.Put("/sort", h.SetSort())
			s.Put("/density", h.SetDensity())
			s.Post("/columns/{column}/{op}", h.ColumnAction())
			s.Post("/preferences/reset", h.ResetPreferences())

			s.Post("/retry", h.Retry())
			s.Post("/add", h.Add())

			s.Post("/items", h.CreateItem())
			s.Put("/items/{id}", h.UpdateItem())
			s.Delete("/items/{id}", h.DeleteItem())
			s.Post("/items/{id}/press", h.PressItem())
			s.Post("/items/{id}/edit", h.EditItem())

			s.Put("/selection", h.SetSelection())
			s.Delete("/selection", h.ClearSelection())
			s.Post("/selection/page", h.SelectPage())
			s.Post("/selection/{id}/toggle", h.ToggleSelection())
			s.Post("/bulk-delete", h.BulkDelete())

			s.Get("/export.xlsx", h.Export)
		})
	})
}
