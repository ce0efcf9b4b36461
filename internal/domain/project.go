package domain

import "time"

// ProjectStatus represents construction/sales states for a project.
type ProjectStatus string

const (
	ProjectStatusPlanned           ProjectStatus = "PLANNED"
	ProjectStatusUnderConstruction ProjectStatus = "UNDER_CONSTRUCTION"
	ProjectStatusReady             ProjectStatus = "READY"
	ProjectStatusSoldOut           ProjectStatus = "SOLD_OUT"
)

// Project is a real-estate development customers enquire about and
// pay against.
type Project struct {
	ID          string
	Name        string
	City        string
	Location    string
	Description string
	PriceMin    int64
	PriceMax    int64
	Status      ProjectStatus
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
