package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Retention units
const (
	RetentionUnitYears  = "years"
	RetentionUnitMonths = "months"
	RetentionUnitDays   = "days"
)

// Cutoff triggers
const (
	CutoffCalendarYear = "CALENDAR_YEAR"
	CutoffFiscalYear   = "FISCAL_YEAR"
)

var ErrPartialRetention = errors.New("retention fields must be set together")

// Retention carries the records-schedule entry (SSIC) a request is filed under.
type Retention struct {
	SSIC              string `gorm:"type:varchar(20);index" json:"ssic"`
	SSICNomenclature  string `gorm:"type:varchar(255)" json:"ssic_nomenclature"`
	SSICBucket        string `gorm:"type:varchar(50)" json:"ssic_bucket"`
	SSICBucketTitle   string `gorm:"type:varchar(255)" json:"ssic_bucket_title"`
	IsPermanent       bool   `json:"is_permanent"`
	RetentionValue    *int   `json:"retention_value"`
	RetentionUnit     string `gorm:"type:varchar(10)" json:"retention_unit"`
	CutoffTrigger     string `gorm:"type:varchar(30)" json:"cutoff_trigger"`
	CutoffDescription string `gorm:"type:text" json:"cutoff_description"`
	DisposalAction    string `gorm:"type:text" json:"disposal_action"`
}

// IsZero reports whether no retention field is set.
func (r Retention) IsZero() bool {
	return r.SSIC == "" && r.SSICNomenclature == "" && r.SSICBucket == "" && r.SSICBucketTitle == "" &&
		!r.IsPermanent && r.RetentionValue == nil && r.RetentionUnit == "" &&
		r.CutoffTrigger == "" && r.CutoffDescription == "" && r.DisposalAction == ""
}

// Validate enforces the all-or-none rule. Permanent records carry no period.
func (r Retention) Validate() error {
	if r.IsZero() {
		return nil
	}
	if r.SSIC == "" || r.SSICBucket == "" {
		return ErrPartialRetention
	}
	if r.IsPermanent {
		return nil
	}
	if r.RetentionValue == nil || r.CutoffTrigger == "" {
		return ErrPartialRetention
	}
	switch r.RetentionUnit {
	case RetentionUnitYears, RetentionUnitMonths, RetentionUnitDays:
		return nil
	default:
		return ErrPartialRetention
	}
}

// Request is a document-routing case moving through the review chain.
type Request struct {
	ID                      uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Subject                 string                      `gorm:"type:varchar(255);not null" json:"subject"`
	Notes                   string                      `gorm:"type:text" json:"notes"`
	DueDate                 *time.Time                  `json:"due_date"`
	UnitUIC                 string                      `gorm:"type:varchar(20);not null;index" json:"unit_uic"`
	UploadedByID            uuid.UUID                   `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	OriginCompany           string                      `gorm:"type:varchar(50)" json:"origin_company"`
	OriginPlatoon           string                      `gorm:"type:varchar(50)" json:"origin_platoon"`
	CurrentStage            Stage                       `gorm:"type:varchar(30);not null;index" json:"current_stage"`
	RouteSection            string                      `gorm:"type:varchar(100)" json:"route_section,omitempty"`
	DocumentIDs             datatypes.JSONSlice[string] `json:"document_ids"`
	Activity                []Activity                  `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"activity"`
	FiledAt                 *time.Time                  `gorm:"index" json:"filed_at"`
	FinalStatus             string                      `gorm:"type:varchar(20)" json:"final_status,omitempty"`
	Retention               Retention                   `gorm:"embedded;embeddedPrefix:retention_" json:"retention"`
	CommanderApprovalDate   *time.Time                  `json:"commander_approval_date"`
	InstallationID          string                      `gorm:"type:varchar(50)" json:"installation_id,omitempty"`
	ExternalPendingUnitUIC  string                      `gorm:"type:varchar(20)" json:"external_pending_unit_uic,omitempty"`
	ExternalPendingUnitName string                      `gorm:"type:varchar(255)" json:"external_pending_unit_name,omitempty"`
	Version                 int                         `gorm:"not null;default:0" json:"version"`
	CreatedAt               time.Time                   `json:"created_at"`
	UpdatedAt               time.Time                   `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Clone returns a deep copy so callers can derive a new value without aliasing.
func (r *Request) Clone() *Request {
	cp := *r
	if r.DocumentIDs != nil {
		cp.DocumentIDs = append(datatypes.JSONSlice[string]{}, r.DocumentIDs...)
	}
	if r.Activity != nil {
		cp.Activity = append([]Activity(nil), r.Activity...)
	}
	if r.Retention.RetentionValue != nil {
		v := *r.Retention.RetentionValue
		cp.Retention.RetentionValue = &v
	}
	return &cp
}

// Activity is one entry of a request's append-only audit trail.
type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_activity_seq" json:"-"`
	Seq         int       `gorm:"not null;uniqueIndex:idx_activity_seq" json:"seq"`
	ActorID     uuid.UUID `gorm:"type:uuid;index" json:"actor_id"`
	Actor       string    `gorm:"type:varchar(100);not null" json:"actor"`
	ActorRole   string    `gorm:"type:varchar(30)" json:"actor_role,omitempty"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
	Kind        Action    `gorm:"type:varchar(30);not null;index" json:"kind"`
	FromStage   Stage     `gorm:"type:varchar(30)" json:"from_stage,omitempty"`
	Action      string    `gorm:"type:varchar(255);not null" json:"action"`
	Comment     string    `gorm:"type:text" json:"comment,omitempty"`
	FromSection string    `gorm:"type:varchar(100)" json:"from_section,omitempty"`
	ToSection   string    `gorm:"type:varchar(100)" json:"to_section,omitempty"`
	IntentKey   string    `gorm:"type:varchar(100);index" json:"-"`
}

// TableName pins the child table name.
func (Activity) TableName() string {
	return "request_activities"
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
