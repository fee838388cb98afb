package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job status vocabulary. Transitions are enforced by the orchestrator's
// CAS-guarded repo methods, never by mutating a row directly.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Job types known at the orchestrator level. Scheduled tasks are
// open-ended and dispatched by name through the scheduled-task registry.
const (
	TypeVoterImport = "voter_import"
	TypeGeocoding   = "geocoding"
)

// MaxErrorLogEntries bounds Job.ErrorLog; appends beyond this discard the
// oldest entry first (a ring buffer, not an unbounded list).
const MaxErrorLogEntries = 1000

// Queue names the broker exposes. A job's Type determines which queue it
// is enqueued onto; scheduled tasks carry their own Type value and always
// route to QueueScheduled.
const (
	QueueVoterImport = "voter-import"
	QueueGeocode     = "geocode"
	QueueScheduled   = "scheduled"
)

// QueueForType maps a job type to its broker queue. Unknown types route to
// the scheduled queue, which is the open-ended catch-all per the spec.
func QueueForType(jobType string) string {
	switch jobType {
	case TypeVoterImport:
		return QueueVoterImport
	case TypeGeocoding:
		return QueueGeocode
	default:
		return QueueScheduled
	}
}

// ErrorEntry is one line in a Job's bounded error log.
type ErrorEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Job is the durable row backing one unit of background work. It is the
// sole source of truth for lifecycle status, progress counters, and the
// bounded error log; only the orchestrator's repo methods may mutate it.
type Job struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Type           string         `gorm:"column:type;not null;index" json:"type"`
	Status         string         `gorm:"column:status;not null;index" json:"status"`
	IsDynamic      bool           `gorm:"column:is_dynamic;not null;default:false" json:"isDynamic"`
	TotalItems     int            `gorm:"column:total_items;not null;default:0" json:"totalItems"`
	ProcessedItems int            `gorm:"column:processed_items;not null;default:0" json:"processedItems"`
	Payload        datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	ErrorLog       datatypes.JSON `gorm:"column:error_log;type:jsonb" json:"errorLog"`
	OutputStats    datatypes.JSON `gorm:"column:output_stats;type:jsonb" json:"outputStats,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null;index" json:"createdBy"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	StartedAt      *time.Time     `gorm:"column:started_at" json:"startedAt,omitempty"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completedAt,omitempty"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Job) TableName() string { return "job" }

// BeforeCreate assigns an ID client-side rather than relying on Postgres's
// uuid_generate_v4() column default, which SQLite (used in tests) has no
// equivalent for.
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Progress derives the 0-99 (or 100, terminal) completion percentage per
// the spec's rounding rule: terminal states are always 100%, dynamic or
// zero-total jobs report 0 until terminal, otherwise a floored percentage
// capped at 99 so the UI never shows "100%" before CompletedAt is set.
func (j *Job) Progress() int {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return 100
	}
	if j.IsDynamic || j.TotalItems <= 0 {
		return 0
	}
	pct := (100 * j.ProcessedItems) / j.TotalItems
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}
