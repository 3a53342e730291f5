package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type ListingRepo struct {
	q querier
}

const listingColumns = `
	id,
	owner_id,
	title,
	make,
	model,
	year,
	mileage_km,
	offer_type,
	availability,
	validation_status,
	price::text,
	negotiable,
	views,
	version,
	created_at,
	updated_at`

func (r *ListingRepo) Create(ctx context.Context, l model.Listing) (model.Listing, error) {
	out, err := scanListing(r.q.QueryRow(ctx, `
INSERT INTO listings (
	owner_id,
	title,
	make,
	model,
	year,
	mileage_km,
	offer_type,
	availability,
	validation_status,
	price,
	negotiable,
	views,
	version,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11, 0, 1, NOW(), NOW())
RETURNING`+listingColumns,
		l.OwnerID, l.Title, l.Make, l.Model, l.Year, l.MileageKM,
		string(l.OfferType), string(l.Availability), string(l.ValidationStatus),
		l.Price.String(), l.Negotiable,
	))
	if err != nil {
		return model.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return out, nil
}

func (r *ListingRepo) Get(ctx context.Context, id int64) (model.Listing, error) {
	return r.getOne(ctx, `SELECT`+listingColumns+` FROM listings WHERE id = $1`, id)
}

func (r *ListingRepo) GetForUpdate(ctx context.Context, id int64) (model.Listing, error) {
	return r.getOne(ctx, `SELECT`+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id)
}

func (r *ListingRepo) getOne(ctx context.Context, query string, id int64) (model.Listing, error) {
	l, err := scanListing(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Listing{}, errs.ErrListingNotFound
		}
		return model.Listing{}, fmt.Errorf("get listing %d: %w", id, err)
	}
	return l, nil
}

func (r *ListingRepo) ListByOwnerForUpdate(ctx context.Context, ownerID int64) ([]model.Listing, error) {
	rows, err := r.q.Query(ctx, `SELECT`+listingColumns+`
FROM listings
WHERE owner_id = $1
ORDER BY id ASC
FOR UPDATE`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner listings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Listing, 0, 8)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owner listings: %w", err)
	}
	return out, nil
}

func (r *ListingRepo) Update(ctx context.Context, l model.Listing) (model.Listing, error) {
	out, err := scanListing(r.q.QueryRow(ctx, `
UPDATE listings
SET
	title = $3,
	availability = $4,
	validation_status = $5,
	price = $6::numeric,
	negotiable = $7,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $2
RETURNING`+listingColumns,
		l.ID, l.Version, l.Title, string(l.Availability), string(l.ValidationStatus), l.Price.String(), l.Negotiable,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Listing{}, errs.ErrVersionConflict
		}
		return model.Listing{}, fmt.Errorf("update listing %d: %w", l.ID, err)
	}
	return out, nil
}

func (r *ListingRepo) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	if err := r.q.QueryRow(ctx, `
UPDATE listings
SET views = views + 1
WHERE id = $1
RETURNING views
`, id).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrListingNotFound
		}
		return 0, fmt.Errorf("increment listing views: %w", err)
	}
	return views, nil
}

func scanListing(row pgx.Row) (model.Listing, error) {
	var (
		l                                         model.Listing
		offerType, availability, validationStatus string
		price                                     string
	)
	if err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Make,
		&l.Model,
		&l.Year,
		&l.MileageKM,
		&offerType,
		&availability,
		&validationStatus,
		&price,
		&l.Negotiable,
		&l.Views,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return model.Listing{}, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return model.Listing{}, fmt.Errorf("parse listing price: %w", err)
	}
	l.Price = parsed
	l.OfferType = enums.OfferType(offerType)
	l.Availability = enums.Availability(availability)
	l.ValidationStatus = enums.ValidationStatus(validationStatus)
	return l, nil
}
