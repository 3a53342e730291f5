package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type ReportRepo struct {
	q querier
}

const reportColumns = `
	id,
	reporter_id,
	target_type,
	target_id,
	case_id,
	justification,
	status,
	resolved_at,
	version,
	created_at,
	updated_at`

func (r *ReportRepo) Create(ctx context.Context, rep model.Report) (model.Report, error) {
	justification := strings.TrimSpace(rep.Justification)
	if justification == "" {
		return model.Report{}, errs.Invalid("justification is required")
	}

	out, err := scanReport(r.q.QueryRow(ctx, `
INSERT INTO reports (
	reporter_id,
	target_type,
	target_id,
	case_id,
	justification,
	status,
	version,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, 'pending', 1, NOW(), NOW())
RETURNING`+reportColumns,
		rep.ReporterID, string(rep.Target.Kind), rep.Target.ID, rep.CaseID, justification,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Report{}, errs.ErrDuplicateReport
		}
		return model.Report{}, fmt.Errorf("create report: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) Get(ctx context.Context, id int64) (model.Report, error) {
	out, err := scanReport(r.q.QueryRow(ctx, `SELECT`+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Report{}, errs.ErrReportNotFound
		}
		return model.Report{}, fmt.Errorf("get report %d: %w", id, err)
	}
	return out, nil
}

func (r *ReportRepo) HasPending(ctx context.Context, reporterID int64, target model.TargetRef) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM reports
	WHERE reporter_id = $1
	  AND target_type = $2
	  AND target_id = $3
	  AND status = 'pending'
)
`, reporterID, string(target.Kind), target.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending report: %w", err)
	}
	return exists, nil
}

func (r *ReportRepo) ResolvePending(ctx context.Context, targets []model.TargetRef, status enums.ReportStatus, now time.Time) ([]model.Report, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	kinds := make([]string, 0, len(targets))
	ids := make([]int64, 0, len(targets))
	for _, t := range targets {
		kinds = append(kinds, string(t.Kind))
		ids = append(ids, t.ID)
	}

	rows, err := r.q.Query(ctx, `
UPDATE reports r
SET
	status = $3,
	resolved_at = $4,
	version = r.version + 1,
	updated_at = NOW()
FROM UNNEST($1::text[], $2::bigint[]) AS t(target_type, target_id)
WHERE r.target_type = t.target_type
  AND r.target_id = t.target_id
  AND r.status = 'pending'
RETURNING
	r.id,
	r.reporter_id,
	r.target_type,
	r.target_id,
	r.case_id,
	r.justification,
	r.status,
	r.resolved_at,
	r.version,
	r.created_at,
	r.updated_at
`, kinds, ids, string(status), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve pending reports: %w", err)
	}
	defer rows.Close()

	out := make([]model.Report, 0, len(targets))
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolved report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolved reports: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) CountPending(ctx context.Context, target model.TargetRef) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `
SELECT COUNT(*)
FROM reports
WHERE target_type = $1 AND target_id = $2 AND status = 'pending'
`, string(target.Kind), target.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return count, nil
}

func scanReport(row pgx.Row) (model.Report, error) {
	var (
		rep                model.Report
		targetType, status string
	)
	if err := row.Scan(
		&rep.ID,
		&rep.ReporterID,
		&targetType,
		&rep.Target.ID,
		&rep.CaseID,
		&rep.Justification,
		&status,
		&rep.ResolvedAt,
		&rep.Version,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	); err != nil {
		return model.Report{}, err
	}
	rep.Target.Kind = enums.TargetKind(targetType)
	rep.Status = enums.ReportStatus(status)
	return rep, nil
}
