package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type AppointmentRepo struct {
	q querier
}

const appointmentColumns = `
	id,
	listing_id,
	requester_id,
	owner_id,
	kind,
	status,
	scheduled_at,
	message,
	version,
	created_at,
	updated_at`

func (r *AppointmentRepo) Create(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	out, err := scanAppointment(r.q.QueryRow(ctx, `
INSERT INTO appointments (
	listing_id,
	requester_id,
	owner_id,
	kind,
	status,
	scheduled_at,
	message,
	version,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, NOW(), NOW())
RETURNING`+appointmentColumns,
		a.ListingID, a.RequesterID, a.OwnerID, string(a.Kind), string(a.Status), a.When.UTC(), a.Message,
	))
	if err != nil {
		return model.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return out, nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id int64) (model.Appointment, error) {
	return r.getOne(ctx, `SELECT`+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

func (r *AppointmentRepo) GetForUpdate(ctx context.Context, id int64) (model.Appointment, error) {
	return r.getOne(ctx, `SELECT`+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (r *AppointmentRepo) getOne(ctx context.Context, query string, id int64) (model.Appointment, error) {
	a, err := scanAppointment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, errs.ErrAppointmentNotFound
		}
		return model.Appointment{}, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return a, nil
}

func (r *AppointmentRepo) Update(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	out, err := scanAppointment(r.q.QueryRow(ctx, `
UPDATE appointments
SET
	status = $3,
	scheduled_at = $4,
	message = $5,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $2
RETURNING`+appointmentColumns,
		a.ID, a.Version, string(a.Status), a.When.UTC(), a.Message,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, errs.ErrVersionConflict
		}
		return model.Appointment{}, fmt.Errorf("update appointment %d: %w", a.ID, err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a            model.Appointment
		kind, status string
	)
	if err := row.Scan(
		&a.ID,
		&a.ListingID,
		&a.RequesterID,
		&a.OwnerID,
		&kind,
		&status,
		&a.When,
		&a.Message,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return model.Appointment{}, err
	}
	a.Kind = enums.AppointmentKind(kind)
	a.Status = enums.AppointmentStatus(status)
	return a, nil
}
