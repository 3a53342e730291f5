package dto

import (
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type FileReportRequest struct {
	TargetType    string `json:"target_type" validate:"required,oneof=listing account"`
	TargetID      int64  `json:"target_id" validate:"gt=0"`
	Justification string `json:"justification" validate:"required,max=2000"`
}

type ReportResponse struct {
	ID     int64  `json:"id"`
	CaseID *int64 `json:"case_id,omitempty"`
	Status string `json:"status"`
}

type OpenCaseRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=listing account"`
	TargetID   int64  `json:"target_id" validate:"gt=0"`
	ReasonCode string `json:"reason_code" validate:"max=64"`
	Reason     string `json:"reason" validate:"max=1000"`
}

type DecideCaseRequest struct {
	Action     string     `json:"action" validate:"required,oneof=validate reject suspend restore retire ban"`
	ReasonCode string     `json:"reason_code" validate:"max=64"`
	Reason     string     `json:"reason" validate:"max=1000"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type CaseResponse struct {
	Case model.ModerationCase `json:"case"`
}

type DecisionResponse struct {
	Case              model.ModerationCase `json:"case"`
	Listing           *ListingResponse     `json:"listing,omitempty"`
	Account           *model.Account       `json:"account,omitempty"`
	CascadedListings  []int64              `json:"cascaded_listing_ids"`
	ResolvedReporters int                  `json:"resolved_reporters"`
}

type ReasonItem struct {
	ReasonCode string `json:"reason_code"`
	Label      string `json:"label"`
	ReasonText string `json:"reason_text"`
}

type ReasonsResponse struct {
	Items []ReasonItem `json:"items"`
}

type HistoryResponse struct {
	Items []model.ModerationLogEntry `json:"items"`
}
