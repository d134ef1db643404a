package model

import (
	"time"
)

const (
	StatusPending     = "pending"
	StatusAccepted    = "accepted"
	StatusDeclined    = "declined"
	StatusInProgress  = "in_progress"
	StatusFinished    = "finished"
	StatusPaymentDone = "payment_done"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// Invite is the central record. All money fields are integer cents.
// Terminal invites (declined, cancelled, completed) are never edited again,
// except for the fee settlement flags which later payments flip.
type Invite struct {
	ID        uint   `gorm:"primaryKey"`
	UID       string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FromUser string `gorm:"index;not null"`
	ToUser   string `gorm:"index;not null"`

	Title       string `gorm:"not null"`
	Description string `gorm:"not null;default:''"`
	Location    string `gorm:"not null;default:''"`
	StartAt     time.Time
	EndAt       time.Time
	TimeNote    string `gorm:"not null;default:''"`

	PriceCents           int64 `gorm:"not null;default:0"`
	IncentiveCents       int64 `gorm:"not null;default:0"`
	CancellationFeeCents int64 `gorm:"not null;default:0"`
	PalCompensationCents int64 `gorm:"not null;default:0"`
	PlatformFeeCents     int64 `gorm:"not null;default:0"`
	NetToPalCents        int64 `gorm:"not null;default:0"`
	TotalPaidCents       int64 `gorm:"not null;default:0"`
	PendingFeesCents     int64 `gorm:"not null;default:0"`

	Status string `gorm:"index;not null;default:'pending'"`

	RespondedAt       *time.Time
	AcceptedAt        *time.Time
	DeclinedAt        *time.Time
	StartedAt         *time.Time
	FinishedAt        *time.Time
	PaymentDoneAt     *time.Time
	PaymentReceivedAt *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time

	PaymentConfirmed      bool `gorm:"not null;default:false"`
	CancellationFeePaid   bool `gorm:"not null;default:false"`
	CancellationFeePaidAt *time.Time
	CancellationFeePaidIn string `gorm:"not null;default:''"`
	PlatformFeePaid       bool   `gorm:"not null;default:false"`
	PlatformFeePaidByPal  bool   `gorm:"not null;default:false"`
}

type InviteDTO struct {
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`

	FromUser string `json:"from_user"`
	ToUser   string `json:"to_user"`

	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	TimeNote    string    `json:"time_note,omitempty"`

	PriceCents           int64 `json:"price_cents"`
	IncentiveCents       int64 `json:"incentive_cents,omitempty"`
	CancellationFeeCents int64 `json:"cancellation_fee_cents,omitempty"`
	PalCompensationCents int64 `json:"pal_compensation_cents,omitempty"`
	PlatformFeeCents     int64 `json:"platform_fee_cents,omitempty"`
	NetToPalCents        int64 `json:"net_to_pal_cents,omitempty"`
	TotalPaidCents       int64 `json:"total_paid_cents,omitempty"`
	PendingFeesCents     int64 `json:"pending_fees_cents,omitempty"`

	Status string `json:"status"`

	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	DeclinedAt        *time.Time `json:"declined_at,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	PaymentDoneAt     *time.Time `json:"payment_done_at,omitempty"`
	PaymentReceivedAt *time.Time `json:"payment_received_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	PaymentConfirmed    bool `json:"payment_confirmed"`
	CancellationFeePaid bool `json:"cancellation_fee_paid,omitempty"`
	PlatformFeePaid     bool `json:"platform_fee_paid,omitempty"`
}

type InvitePostDTO struct {
	ToUser      string    `json:"to_user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	TimeNote    string    `json:"time_note"`
	PriceCents  int64     `json:"price_cents"`
}

func (i *Invite) GetUID() string {
	if i == nil {
		return ""
	}

	return i.UID
}

// IsTerminal reports whether the record may never change status again.
func (i *Invite) IsTerminal() bool {
	if i == nil {
		return false
	}

	switch i.Status {
	case StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}

	return false
}

func (i *Invite) IsParty(login string) bool {
	return i != nil && (i.FromUser == login || i.ToUser == login)
}

// EffectiveDate is the timestamp used for sorting pending payments and for
// chronological fee settlement. Records with no usable timestamp get "now"
// so that they sort last in most-recent-first views.
func (i *Invite) EffectiveDate() time.Time {
	if i == nil {
		return time.Now()
	}

	for _, t := range []*time.Time{i.CancelledAt, i.PaymentDoneAt, i.FinishedAt, i.CompletedAt} {
		if t != nil && !t.IsZero() {
			return *t
		}
	}

	if !i.CreatedAt.IsZero() {
		return i.CreatedAt
	}

	return time.Now()
}

// Normalize applies required defaults at the data access boundary, so that
// business logic never deals with missing numbers from historical records.
func (i *Invite) Normalize() *Invite {
	if i == nil {
		return nil
	}

	if i.Status == "" {
		i.Status = StatusPending
	}

	if i.IncentiveCents == 0 {
		i.IncentiveCents = i.PriceCents
	}

	for _, v := range []*int64{
		&i.PriceCents, &i.IncentiveCents, &i.CancellationFeeCents, &i.PalCompensationCents,
		&i.PlatformFeeCents, &i.NetToPalCents, &i.TotalPaidCents, &i.PendingFeesCents,
	} {
		if *v < 0 {
			*v = 0
		}
	}

	return i
}

func (i *Invite) DTO() *InviteDTO {
	if i == nil {
		return nil
	}

	return &InviteDTO{
		UID:                  i.UID,
		CreatedAt:            i.CreatedAt,
		FromUser:             i.FromUser,
		ToUser:               i.ToUser,
		Title:                i.Title,
		Description:          i.Description,
		Location:             i.Location,
		StartAt:              i.StartAt,
		EndAt:                i.EndAt,
		TimeNote:             i.TimeNote,
		PriceCents:           i.PriceCents,
		IncentiveCents:       i.IncentiveCents,
		CancellationFeeCents: i.CancellationFeeCents,
		PalCompensationCents: i.PalCompensationCents,
		PlatformFeeCents:     i.PlatformFeeCents,
		NetToPalCents:        i.NetToPalCents,
		TotalPaidCents:       i.TotalPaidCents,
		PendingFeesCents:     i.PendingFeesCents,
		Status:               i.Status,
		AcceptedAt:           i.AcceptedAt,
		DeclinedAt:           i.DeclinedAt,
		StartedAt:            i.StartedAt,
		FinishedAt:           i.FinishedAt,
		PaymentDoneAt:        i.PaymentDoneAt,
		PaymentReceivedAt:    i.PaymentReceivedAt,
		CompletedAt:          i.CompletedAt,
		CancelledAt:          i.CancelledAt,
		PaymentConfirmed:     i.PaymentConfirmed,
		CancellationFeePaid:  i.CancellationFeePaid,
		PlatformFeePaid:      i.PlatformFeePaid,
	}
}
