package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidProject is returned when a project fails validation.
	ErrInvalidProject = errors.New("invalid project")
)

// ProjectStatus mirrors the project_status enum in the database.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Project is a construction/fiber deployment project.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Status       ProjectStatus `json:"status"`
	Budget       float64       `json:"budget"`
	ManagerEmail string        `json:"manager_email"`
	Location     Coordinates   `json:"location"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	Distance     *float64      `json:"distance,omitempty"` // computed field
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewProject is the input accepted when creating a project.
type NewProject struct {
	Name         string        `json:"name" validate:"required,max=200"`
	Description  string        `json:"description" validate:"max=2000"`
	Status       ProjectStatus `json:"status"`
	Budget       float64       `json:"budget" validate:"ct_budget"`
	ManagerEmail string        `json:"manager_email" validate:"required,ct_email"`
	Latitude     float64       `json:"latitude" validate:"ct_latitude"`
	Longitude    float64       `json:"longitude" validate:"ct_longitude"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
}

// ProjectEvent is published whenever a project changes.
type ProjectEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"project_id"`
	Project   *Project  `json:"project,omitempty"`
	At        time.Time `json:"at"`
}

// TaskStatus mirrors the task_status enum.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// PlanTask is one checklist item of a project-plan document.
type PlanTask struct {
	Title   string     `json:"title"`
	Section string     `json:"section,omitempty"`
	Status  TaskStatus `json:"status"`
	Order   int        `json:"order"`
}

// NotionEvent is a webhook delivery accepted from Notion.
type NotionEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	EntityID   string         `json:"entity_id,omitempty"`
	EntityType string         `json:"entity_type,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}
