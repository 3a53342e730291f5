package model

import (
	"fmt"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

// TargetRef points a case or report at either a listing or an account.
type TargetRef struct {
	Kind enums.TargetKind `json:"kind"`
	ID   int64            `json:"id"`
}

func ListingTarget(id int64) TargetRef {
	return TargetRef{Kind: enums.TargetListing, ID: id}
}

func AccountTarget(id int64) TargetRef {
	return TargetRef{Kind: enums.TargetAccount, ID: id}
}

func (t TargetRef) Valid() bool {
	return t.Kind.Valid() && t.ID > 0
}

func (t TargetRef) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

type ModerationCase struct {
	ID            int64             `json:"id"`
	Target        TargetRef         `json:"target"`
	Status        enums.CaseStatus  `json:"status"`
	Action        *enums.CaseAction `json:"action,omitempty"`
	Reason        string            `json:"reason"`
	OpenedBy      int64             `json:"opened_by"`
	DecidedBy     *int64            `json:"decided_by,omitempty"`
	DecidedAt     *time.Time        `json:"decided_at,omitempty"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
	ExpiryHandled bool              `json:"expiry_handled"`
	Version       int64             `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ModerationLogEntry is an append-only audit row written alongside every
// status change a decision causes, including cascaded ones.
type ModerationLogEntry struct {
	ID          int64            `json:"id"`
	CaseID      int64            `json:"case_id"`
	Target      TargetRef        `json:"target"`
	Action      enums.CaseAction `json:"action"`
	FromStatus  string           `json:"from_status"`
	ToStatus    string           `json:"to_status"`
	ModeratorID int64            `json:"moderator_id"`
	Reason      string           `json:"reason"`
	Cascaded    bool             `json:"cascaded"`
	CreatedAt   time.Time        `json:"created_at"`
}
