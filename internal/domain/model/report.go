package model

import (
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

type Report struct {
	ID            int64              `json:"id"`
	ReporterID    int64              `json:"reporter_id"`
	Target        TargetRef          `json:"target"`
	CaseID        *int64             `json:"case_id,omitempty"`
	Justification string             `json:"justification"`
	Status        enums.ReportStatus `json:"status"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
