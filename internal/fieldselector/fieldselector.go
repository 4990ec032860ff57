// Package fieldselector tracks which optional columns a list screen shows.
package fieldselector

import (
	"errors"
	"fmt"
	"sort"
)

// ActionsKey is the trailing action column. It is always shown and can not
// be toggled.
const ActionsKey = "actions"

var (
	ErrUnknownModule = errors.New("unknown column module")
	ErrUnknownKey    = errors.New("unknown column")
	ErrReservedKey   = errors.New("column can not be toggled")
)

// Definition is the column universe of one module and the columns visible
// before the user changes anything.
type Definition struct {
	Module   string
	Keys     []string
	Defaults []string
}

var definitions = map[string]Definition{
	"employees": {
		Module:   "employees",
		Keys:     []string{"name", "email", "phone", "gender", "designation", "department", "date_of_joining", "specializations"},
		Defaults: []string{"name", "email", "phone", "designation"},
	},
	"patients": {
		Module:   "patients",
		Keys:     []string{"name", "phone", "email", "gender", "date_of_birth", "blood_group", "address"},
		Defaults: []string{"name", "phone", "gender"},
	},
	"ambulance": {
		Module:   "ambulance",
		Keys:     []string{"bill_number", "patient_name", "vehicle_number", "pickup_location", "drop_location", "service_date", "net_amount", "paid_amount", "due_amount", "status"},
		Defaults: []string{"bill_number", "patient_name", "service_date", "net_amount", "status"},
	},
	"pathology": {
		Module:   "pathology",
		Keys:     []string{"bill_number", "patient_name", "test_name", "doctor", "service_date", "net_amount", "paid_amount", "due_amount", "status"},
		Defaults: []string{"bill_number", "patient_name", "test_name", "net_amount", "status"},
	},
	"radiology": {
		Module:   "radiology",
		Keys:     []string{"bill_number", "patient_name", "test_name", "doctor", "service_date", "net_amount", "paid_amount", "due_amount", "status"},
		Defaults: []string{"bill_number", "patient_name", "test_name", "net_amount", "status"},
	},
	"ipd_consultants": {
		Module:   "ipd_consultants",
		Keys:     []string{"doctor", "visit_date", "fee", "notes"},
		Defaults: []string{"doctor", "visit_date", "fee"},
	},
	"ipd_operations": {
		Module:   "ipd_operations",
		Keys:     []string{"procedure_name", "surgeon", "operation_date", "charge", "notes"},
		Defaults: []string{"procedure_name", "surgeon", "operation_date", "charge"},
	},
}

// Modules lists the modules that have a column definition.
func Modules() []string {
	modules := make([]string, 0, len(definitions))
	for m := range definitions {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// Lookup returns the definition of module.
func Lookup(module string) (Definition, error) {
	def, ok := definitions[module]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return def, nil
}

// Set is the visible subset of a module's columns.
type Set struct {
	def     Definition
	visible map[string]bool
}

// New returns a set showing the definition's defaults.
func New(def Definition) *Set {
	return FromVisible(def, def.Defaults)
}

// ForModule returns the default set of module.
func ForModule(module string) (*Set, error) {
	def, err := Lookup(module)
	if err != nil {
		return nil, err
	}
	return New(def), nil
}

// FromVisible rebuilds a set from stored visible keys. Keys that are no
// longer part of the definition are dropped.
func FromVisible(def Definition, keys []string) *Set {
	s := &Set{def: def, visible: make(map[string]bool, len(keys))}
	for _, k := range keys {
		if s.known(k) {
			s.visible[k] = true
		}
	}
	return s
}

func (s *Set) known(key string) bool {
	for _, k := range s.def.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Module returns the module the set belongs to.
func (s *Set) Module() string {
	return s.def.Module
}

// Toggle shows a hidden column or hides a visible one.
func (s *Set) Toggle(key string) error {
	if key == ActionsKey {
		return ErrReservedKey
	}
	if !s.known(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if s.visible[key] {
		delete(s.visible, key)
	} else {
		s.visible[key] = true
	}
	return nil
}

func (s *Set) Visible(key string) bool {
	return key == ActionsKey || s.visible[key]
}

// VisibleKeys returns the visible toggleable keys in universe order.
func (s *Set) VisibleKeys() []string {
	keys := make([]string, 0, len(s.visible))
	for _, k := range s.def.Keys {
		if s.visible[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// Columns returns the columns to render: visible keys in universe order,
// followed by the actions column.
func (s *Set) Columns() []string {
	return append(s.VisibleKeys(), ActionsKey)
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	return FromVisible(s.def, s.VisibleKeys())
}

// Equal reports whether both sets show the same columns of the same module.
func (s *Set) Equal(o *Set) bool {
	if s.def.Module != o.def.Module || len(s.visible) != len(o.visible) {
		return false
	}
	for k := range s.visible {
		if !o.visible[k] {
			return false
		}
	}
	return true
}

// Column is one entry of the column picker.
type Column struct {
	Key     string `json:"key"`
	Visible bool   `json:"visible"`
}

// Available lists every toggleable column with its visibility.
func (s *Set) Available() []Column {
	cols := make([]Column, 0, len(s.def.Keys))
	for _, k := range s.def.Keys {
		cols = append(cols, Column{Key: k, Visible: s.visible[k]})
	}
	return cols
}
