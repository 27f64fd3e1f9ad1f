package offsets

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/internal/regression"
)

var (
	// ErrNotReady is returned until the service has been marked ready
	ErrNotReady = errors.New("offset planner is not ready")
	// ErrPlannerUnavailable is the cause of every simulated plan when the
	// service started without datasets
	ErrPlannerUnavailable = errors.New("model-backed planner unavailable")
)

// Kind distinguishes real plans from synthetic ones
type Kind string

const (
	KindReal      Kind = "real"
	KindSimulated Kind = "simulated"
)

// Outcome is the result of GetOffsetPlan: a real plan, or a simulated plan
// together with the cause that forced the simulation. Site is the resolved
// site name that events and history are keyed by.
type Outcome struct {
	Kind        Kind
	Query       string
	Site        string
	Plan        *planner.OffsetPlan
	Cause       error
	Model       *regression.Selection
	GeneratedAt time.Time
}

// Simulated reports whether the plan is synthetic
func (o *Outcome) Simulated() bool {
	return o.Kind == KindSimulated
}

// PlanRun is a persisted record of one computed outcome
type PlanRun struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Query              string         `json:"query" gorm:"not null"`
	SiteName           string         `json:"site_name" gorm:"index"`
	Kind               Kind           `json:"kind" gorm:"not null"`
	Cause              string         `json:"cause,omitempty"`
	ModelRegion        string         `json:"model_region,omitempty"`
	ModelSource        string         `json:"model_source,omitempty"`
	AnnualTargetTonnes float64        `json:"annual_target_tonnes"`
	TotalTrees         int64          `json:"total_trees"`
	EstimatedBudgetINR float64        `json:"estimated_budget_inr"`
	LandStatus         string         `json:"land_status"`
	Plan               datatypes.JSON `json:"plan" gorm:"type:jsonb"`
	CreatedAt          time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName overrides the gorm default
func (PlanRun) TableName() string {
	return "offset_plan_runs"
}

// HistoryFilter narrows a history listing
type HistoryFilter struct {
	Site  string
	Kind  Kind
	Limit int
}
