package entities

import (
	"context"
	"errors"
	"testing"

	"hms-listview/internal/domain"
	"hms-listview/internal/listscreen"
	"hms-listview/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_AllEntitiesValid(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"address", "bed", "contact", "department", "facility", "permission",
		"role", "room", "tenant", "user", "user-role", "ward",
	}, r.Names())

	for _, cfg := range r.All() {
		prefs := cfg.DefaultPreferences()
		assert.Equal(t, listscreen.DefaultPageSize, prefs.PageSize, cfg.Name)
		for _, req := range cfg.RequiredColumns {
			assert.Contains(t, prefs.VisibleColumns, req, cfg.Name)
		}
		for _, f := range cfg.SearchFields {
			assert.NotEmpty(t, f, cfg.Name)
		}
	}
}

func TestRegistry_Routes(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	bed, ok := r.Get("bed")
	require.True(t, ok)
	assert.Equal(t, "/settings/beds", bed.Route)
	assert.Equal(t, "/admin/api/v1/beds", bed.Resource)

	facility, _ := r.Get("facility")
	assert.Equal(t, "/settings/facilities", facility.Route)

	userRole, _ := r.Get("user-role")
	assert.Equal(t, "/settings/user-roles", userRole.Route)

	_, ok = r.Get("resident")
	assert.False(t, ok)
}

func TestRegistry_ContactPrimaryLabels(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	contact, _ := r.Get("contact")

	items := []domain.ListItem{
		{"id": "1", "last_name": "Okello", "is_primary": true},
		{"id": "2", "last_name": "Nakato", "is_primary": false},
	}
	got := contact.ApplyFilters(items, []domain.FilterCondition{
		{Field: "is_primary", Operator: domain.OpIs, Value: "secondary"},
	}, domain.LogicAnd)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID())
}

func TestRegistry_TenantScoping(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	access := domain.AccessScope{IsResolved: true, CanAccessTenantSettings: true, TenantID: "t-1"}

	permission, _ := r.Get("permission")
	assert.Empty(t, listscreen.NewScopeResolver(access, permission.TenantField).TenantParam())

	tenant, _ := r.Get("tenant")
	resolver := listscreen.NewScopeResolver(access, tenant.TenantField)
	assert.True(t, resolver.ItemInScope(domain.ListItem{"id": "t-1"}))
	assert.False(t, resolver.ItemInScope(domain.ListItem{"id": "t-2"}))
}

func TestRegistry_NoDefaultSort(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, cfg := range r.All() {
		prefs := cfg.DefaultPreferences()
		assert.Empty(t, prefs.SortField, cfg.Name)
		assert.Empty(t, prefs.SortDirection, cfg.Name)
	}
}

// staticCRUD 按固定顺序返回行
type staticCRUD struct {
	items []domain.ListItem
}

func (s *staticCRUD) List(context.Context, usecase.ListParams) (*usecase.ListResult, error) {
	return &usecase.ListResult{Items: s.items, Total: len(s.items)}, nil
}

func (s *staticCRUD) Get(context.Context, string) (domain.ListItem, error) {
	return nil, errors.New("not implemented")
}

func (s *staticCRUD) Create(context.Context, map[string]any) (domain.ListItem, error) {
	return nil, errors.New("not implemented")
}

func (s *staticCRUD) Update(context.Context, string, map[string]any) (domain.ListItem, error) {
	return nil, errors.New("not implemented")
}

func (s *staticCRUD) Remove(context.Context, string) (domain.ListItem, error) {
	return nil, errors.New("not implemented")
}

type nopNavigator struct{}

func (nopNavigator) Push(context.Context, string)    {}
func (nopNavigator) Replace(context.Context, string) {}

type nopConfirmer struct{}

func (nopConfirmer) Confirm(context.Context, string) bool { return false }

func TestRegistry_DefaultViewKeepsFetchOrder(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	access := domain.AccessScope{IsResolved: true, CanAccessTenantSettings: true, CanManageAllTenants: true, CanManage: true}

	for _, cfg := range r.All() {
		t.Run(cfg.Name, func(t *testing.T) {
			var items []domain.ListItem
			for _, id := range []string{"z", "a", "m"} {
				item := domain.ListItem{"id": id, "tenant_id": "t-1"}
				for _, col := range cfg.Columns {
					if _, ok := item[col.Key]; !ok {
						item[col.Key] = id
					}
				}
				items = append(items, item)
			}

			eng := listscreen.NewEngine(listscreen.Options{
				Config:    cfg,
				CRUD:      &staticCRUD{items: items},
				Navigator: nopNavigator{},
				Confirmer: nopConfirmer{},
			})
			eng.Mount(context.Background(), access)
			defer eng.Unmount()

			v := eng.View()
			require.Len(t, v.Items, 3)
			assert.Equal(t, []string{"z", "a", "m"}, []string{v.Items[0].ID(), v.Items[1].ID(), v.Items[2].ID()})
		})
	}
}
