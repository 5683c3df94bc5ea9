// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, Deal, Task, Activity structs and their partial-update patches
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entity is implemented by every record kind owned by a service.
type Entity interface {
	GetID() int64
}

type Contact struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name" validate:"required"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status" validate:"omitempty,oneof=active inactive qualified"`
	Source     string    `json:"source,omitempty"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c Contact) GetID() int64 { return c.ID }

// FullName joins first and last name.
func (c Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

type Deal struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name" validate:"required"`
	Value             decimal.Decimal `json:"value"`
	Currency          string          `json:"currency"`
	Stage             string          `json:"stage" validate:"omitempty,stage"`
	Probability       int             `json:"probability" validate:"min=0,max=100"`
	ExpectedCloseDate string          `json:"expected_close_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ContactID         *int64          `json:"contact_id,omitempty"`
	CompanyID         *int64          `json:"company_id,omitempty"`
	AssignedTo        string          `json:"assigned_to,omitempty"`
	Tags              []string        `json:"tags"`
	Description       string          `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (d Deal) GetID() int64 { return d.ID }

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	DueDate     string     `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending completed"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	ContactID   *int64     `json:"contact_id,omitempty"`
	DealID      *int64     `json:"deal_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) GetID() int64 { return t.ID }

type Activity struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type" validate:"omitempty,oneof=call email meeting note demo follow_up other"`
	Outcome     string    `json:"outcome,omitempty"`
	Subject     string    `json:"subject" validate:"required"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Duration    *int      `json:"duration,omitempty" validate:"omitempty,min=0"`
	ContactID   *int64    `json:"contact_id,omitempty"`
	DealID      *int64    `json:"deal_id,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a Activity) GetID() int64 { return a.ID }

// Patches carry only the fields a caller wants to change. A nil pointer
// means the field is left untouched remotely. The Clear flags send an
// explicit null for a reference, and win over a set pointer.

type ContactPatch struct {
	FirstName  *string `validate:"omitnil,required"`
	LastName   *string
	Email      *string `validate:"omitempty,email"`
	Phone      *string
	Company    *string
	Title      *string
	Status     *string `validate:"omitnil,oneof=active inactive qualified"`
	Source     *string
	AssignedTo *string
	Tags       *[]string
}

type DealPatch struct {
	Name              *string `validate:"omitnil,required"`
	Value             *decimal.Decimal
	Currency          *string `validate:"omitnil,required"`
	Stage             *string `validate:"omitnil,stage"`
	Probability       *int    `validate:"omitnil,min=0,max=100"`
	ExpectedCloseDate *string `validate:"omitempty,datetime=2006-01-02"`
	ContactID         *int64
	CompanyID         *int64
	AssignedTo        *string
	Tags              *[]string
	Description       *string

	ClearContactID bool
	ClearCompanyID bool
}

type TaskPatch struct {
	Title       *string `validate:"omitnil,required"`
	Description *string
	DueDate     *string `validate:"omitempty,datetime=2006-01-02"`
	Priority    *string `validate:"omitnil,oneof=low medium high"`
	Status      *string `validate:"omitnil,oneof=pending completed"`
	AssignedTo  *string
	ContactID   *int64
	DealID      *int64
	CompletedAt *time.Time

	// ClearCompletedAt sends an explicit null for completed_at.
	ClearCompletedAt bool
	ClearContactID   bool
	ClearDealID      bool
}

type ActivityPatch struct {
	Type        *string `validate:"omitnil,oneof=call email meeting note demo follow_up other"`
	Outcome     *string
	Subject     *string `validate:"omitnil,required"`
	Description *string
	Timestamp   *time.Time
	Duration    *int `validate:"omitnil,min=0"`
	ContactID   *int64
	DealID      *int64

	ClearContactID bool
	ClearDealID    bool
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Contact statuses.
const (
	ContactStatusActive    = "active"
	ContactStatusInactive  = "inactive"
	ContactStatusQualified = "qualified"
)

// Deal stages, in pipeline order.
const (
	StageLead        = "lead"
	StageQualified   = "qualified"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
	StageClosedWon   = "closed-won"
	StageClosedLost  = "closed-lost"
)

// DefaultCurrency is applied to deals created without one.
const DefaultCurrency = "USD"

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Activity types.
const (
	ActivityCall     = "call"
	ActivityEmail    = "email"
	ActivityMeeting  = "meeting"
	ActivityNote     = "note"
	ActivityDemo     = "demo"
	ActivityFollowUp = "follow_up"
	ActivityOther    = "other"
)

// ActivityTypes lists every activity type in display order.
var ActivityTypes = []string{
	ActivityCall,
	ActivityEmail,
	ActivityMeeting,
	ActivityNote,
	ActivityDemo,
	ActivityFollowUp,
	ActivityOther,
}
