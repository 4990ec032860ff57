package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SoftDelete is embedded by records that are hidden instead of removed.
type SoftDelete struct {
	IsDeleted bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Lifecycle reports where the record sits in the delete/restore cycle.
// Permanently deleted rows no longer exist, so they never reach this.
func (s SoftDelete) Lifecycle() LifecycleState {
	if s.IsDeleted {
		return StateDeleted
	}
	return StateActive
}

// ListFilter contains the query parameters shared by every list endpoint
type ListFilter struct {
	Search         string `json:"search" form:"search"`
	IncludeDeleted bool   `json:"include_deleted" form:"include_deleted"`
	Page           int    `json:"page" form:"page"`
	PageSize       int    `json:"page_size" form:"page_size"`
}

// Offset returns the row offset of the requested page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}

// Value stores the map as a JSON document.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads a JSON document column.
func (m *JSONMap) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(data, m)
}
