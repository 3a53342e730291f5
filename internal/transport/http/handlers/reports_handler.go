package handlers

import (
	"net/http"

	"github.com/ivankudzin/automarket/backend/internal/pkg/validate"
	reportsvc "github.com/ivankudzin/automarket/backend/internal/services/reports"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/automarket/backend/internal/transport/http/errors"
)

type ReportsHandler struct {
	index *reportsvc.Index
}

func NewReportsHandler(index *reportsvc.Index) *ReportsHandler {
	return &ReportsHandler{index: index}
}

func (h *ReportsHandler) File(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.index == nil {
		writeInternal(w, "REPORT_SERVICE_UNAVAILABLE", "report service is unavailable")
		return
	}

	var req dto.FileReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	report, err := h.index.File(r.Context(), reportsvc.FileInput{
		ReporterID:    identity.UserID,
		Target:        targetRef(req.TargetType, req.TargetID),
		Justification: req.Justification,
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.ReportResponse{
		ID:     report.ID,
		CaseID: report.CaseID,
		Status: string(report.Status),
	})
}
