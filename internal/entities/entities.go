package entities

import (
	"fmt"
	"sort"

	"hms-listview/internal/domain"
	"hms-listview/internal/listscreen"
)

var (
	textOps = []domain.FilterOperator{domain.OpContains, domain.OpEquals, domain.OpStartsWith}
	enumOps = []domain.FilterOperator{domain.OpIs, domain.OpNotEquals}
)

func text(name string) listscreen.FilterField {
	return listscreen.FilterField{Name: name, Kind: listscreen.KindText, Operators: textOps}
}

func enum(name string, options ...string) listscreen.FilterField {
	return listscreen.FilterField{Name: name, Kind: listscreen.KindEnum, Operators: enumOps, Options: options}
}

func boolean(name, trueLabel, falseLabel string) listscreen.FilterField {
	return listscreen.FilterField{
		Name:       name,
		Kind:       listscreen.KindBoolean,
		Operators:  enumOps,
		TrueLabel:  trueLabel,
		FalseLabel: falseLabel,
	}
}

func columns(keys ...string) []listscreen.Column {
	out := make([]listscreen.Column, len(keys))
	for i, k := range keys {
		out[i] = listscreen.Column{Key: k}
	}
	return out
}

// 实体声明；Route/Resource/TranslationPrefix 由 Validate 按 Plural 补全
func catalogue() []*listscreen.EntityConfig {
	return []*listscreen.EntityConfig{
		{
			Name:            "tenant",
			TenantField:     domain.FieldID,
			SearchFields:    []string{"name", "code", "email"},
			FilterFields:    []listscreen.FilterField{text("name"), text("code"), boolean("is_active", "active", "inactive")},
			Columns:         columns("name", "code", "email", "phone", "is_active"),
			RequiredColumns: []string{"name"},
		},
		{
			Name:            "facility",
			Plural:          "facilities",
			SearchFields:    []string{"name", "code", "city"},
			FilterFields:    []listscreen.FilterField{text("name"), text("city"), enum("facility_type", "HOSPITAL", "CLINIC", "CARE_HOME"), boolean("is_active", "active", "inactive")},
			Columns:         columns("name", "code", "facility_type", "city", "is_active"),
			RequiredColumns: []string{"name"},
		},
		{
			Name:            "ward",
			SearchFields:    []string{"name", "code", "facility_name"},
			FilterFields:    []listscreen.FilterField{text("name"), text("facility_name"), enum("ward_type", "GENERAL", "ICU", "MATERNITY", "PEDIATRIC"), boolean("is_active", "active", "inactive")},
			Columns:         columns("name", "code", "facility_name", "ward_type", "capacity", "is_active"),
			RequiredColumns: []string{"name"},
		},
		{
			Name:            "room",
			SearchFields:    []string{"room_number", "ward_name"},
			FilterFields:    []listscreen.FilterField{text("room_number"), text("ward_name"), enum("room_type", "SINGLE", "SHARED", "ISOLATION"), boolean("is_active", "active", "inactive")},
			Columns:         columns("room_number", "ward_name", "room_type", "floor", "is_active"),
			RequiredColumns: []string{"room_number"},
		},
		{
			Name:            "bed",
			SearchFields:    []string{"label", "room_number", "ward_name"},
			FilterFields:    []listscreen.FilterField{text("label"), text("room_number"), enum("status", "AVAILABLE", "OCCUPIED", "OUT_OF_SERVICE")},
			Columns:         columns("label", "room_number", "ward_name", "status"),
			RequiredColumns: []string{"label"},
		},
		{
			Name:            "contact",
			SearchFields:    []string{"first_name", "last_name", "email", "phone"},
			FilterFields:    []listscreen.FilterField{text("last_name"), text("email"), enum("contact_type", "EMERGENCY", "FAMILY", "GUARDIAN"), boolean("is_primary", "primary", "secondary")},
			Columns:         columns("first_name", "last_name", "contact_type", "phone", "email", "is_primary"),
			RequiredColumns: []string{"last_name"},
		},
		{
			Name:            "address",
			Plural:          "addresses",
			SearchFields:    []string{"line1", "city", "postal_code", "country"},
			FilterFields:    []listscreen.FilterField{text("city"), text("postal_code"), text("country"), boolean("is_primary", "primary", "secondary")},
			Columns:         columns("line1", "city", "state", "postal_code", "country", "is_primary"),
			RequiredColumns: []string{"line1"},
		},
		{
			Name:            "department",
			SearchFields:    []string{"name", "code", "head_name"},
			FilterFields:    []listscreen.FilterField{text("name"), text("code"), boolean("is_active", "active", "inactive")},
			Columns:         columns("name", "code", "head_name", "is_active"),
			RequiredColumns: []string{"name"},
		},
		{
			Name:            "role",
			SearchFields:    []string{"role_code", "display_name", "description"},
			FilterFields:    []listscreen.FilterField{text("role_code"), text("display_name"), boolean("is_system", "system", "custom"), boolean("is_active", "active", "inactive")},
			Columns:         columns("role_code", "display_name", "description", "is_system", "is_active"),
			RequiredColumns: []string{"role_code"},
		},
		{
			Name:            "permission",
			TenantField:     listscreen.NoTenantField,
			SearchFields:    []string{"resource_type", "permission_type", "description"},
			FilterFields:    []listscreen.FilterField{text("resource_type"), enum("permission_type", "R", "C", "U", "D")},
			Columns:         columns("resource_type", "permission_type", "description"),
			RequiredColumns: []string{"resource_type", "permission_type"},
		},
		{
			Name:            "user",
			SearchFields:    []string{"user_account", "nickname", "email", "role"},
			FilterFields:    []listscreen.FilterField{text("user_account"), text("email"), enum("role", "SystemAdmin", "Admin", "Manager", "IT", "Nurse", "Caregiver"), enum("status", "active", "disabled", "left")},
			Columns:         columns("user_account", "nickname", "email", "role", "status"),
			RequiredColumns: []string{"user_account"},
		},
		{
			Name:            "user-role",
			SearchFields:    []string{"user_account", "role_code"},
			FilterFields:    []listscreen.FilterField{text("user_account"), text("role_code"), boolean("is_active", "active", "inactive")},
			Columns:         columns("user_account", "role_code", "assigned_at", "is_active"),
			RequiredColumns: []string{"user_account", "role_code"},
		},
	}
}

// Registry 已校验的实体配置
type Registry struct {
	byName map[string]*listscreen.EntityConfig
}

// NewRegistry 校验全部实体声明
func NewRegistry() (*Registry, error) {
	r := &Registry{byName: make(map[string]*listscreen.EntityConfig)}
	for _, cfg := range catalogue() {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", cfg.Name)
		}
		r.byName[cfg.Name] = cfg
	}
	return r, nil
}

// Get 按实体名查找
func (r *Registry) Get(name string) (*listscreen.EntityConfig, bool) {
	cfg, ok := r.byName[name]
	return cfg, ok
}

// Names 排序后的实体名
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All 按名称排序
func (r *Registry) All() []*listscreen.EntityConfig {
	out := make([]*listscreen.EntityConfig, 0, len(r.byName))
	for _, n := range r.Names() {
		out = append(out, r.byName[n])
	}
	return out
}
