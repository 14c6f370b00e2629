// Package org manages an entity's organizational units: departments,
// sectors and positions. The three share one table shape and differ only
// in the optional parent they hang from.
package org

import "time"

// Kind describes one family of units and where it is stored.
type Kind struct {
	Name         string
	table        string
	parentColumn string
	parentTable  string
}

var (
	Departments = Kind{Name: "Department", table: "departments"}
	Sectors     = Kind{Name: "Sector", table: "sectors", parentColumn: "department_id", parentTable: "departments"}
	Positions   = Kind{Name: "Position", table: "positions", parentColumn: "sector_id", parentTable: "sectors"}
)

type Unit struct {
	ID           int64     `json:"id"`
	EntityID     int64     `json:"entity_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	SectorID     *int64    `json:"sector_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// parent returns the field holding u's parent id for this kind, or nil for
// kinds without a parent.
func (k Kind) parent(u *Unit) **int64 {
	switch k.parentColumn {
	case "department_id":
		return &u.DepartmentID
	case "sector_id":
		return &u.SectorID
	}
	return nil
}
