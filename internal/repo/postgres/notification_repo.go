package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type NotificationRepo struct {
	q querier
}

const notificationColumns = `
	id,
	effect_id::text,
	recipient_id,
	kind,
	title,
	message,
	payload,
	read_at,
	created_at`

func (r *NotificationRepo) Insert(ctx context.Context, n model.StoredNotification) (model.StoredNotification, bool, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return model.StoredNotification{}, false, fmt.Errorf("marshal notification payload: %w", err)
	}
	if n.Payload == nil {
		payload = []byte(`{}`)
	}

	out, err := scanNotification(r.q.QueryRow(ctx, `
INSERT INTO notifications (
	effect_id,
	recipient_id,
	kind,
	title,
	message,
	payload,
	created_at
) VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb, NOW())
ON CONFLICT (effect_id) DO NOTHING
RETURNING`+notificationColumns,
		n.EffectID, n.RecipientID, string(n.Kind), n.Title, n.Message, string(payload),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StoredNotification{}, false, nil
		}
		return model.StoredNotification{}, false, fmt.Errorf("insert notification: %w", err)
	}
	return out, true, nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]model.StoredNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.q.Query(ctx, `SELECT`+notificationColumns+`
FROM notifications
WHERE recipient_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.StoredNotification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func scanNotification(row pgx.Row) (model.StoredNotification, error) {
	var (
		n       model.StoredNotification
		kind    string
		payload []byte
	)
	if err := row.Scan(
		&n.ID,
		&n.EffectID,
		&n.RecipientID,
		&kind,
		&n.Title,
		&n.Message,
		&payload,
		&n.ReadAt,
		&n.CreatedAt,
	); err != nil {
		return model.StoredNotification{}, err
	}
	n.Kind = enums.NotificationKind(kind)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return model.StoredNotification{}, fmt.Errorf("decode notification payload: %w", err)
		}
	}
	return n, nil
}
