package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

func seedListing(t *testing.T, db *DB) model.Listing {
	t.Helper()
	l, err := db.Listings().Create(context.Background(), model.Listing{
		OwnerID:          1,
		Title:            "Skoda Octavia",
		OfferType:        enums.OfferSale,
		Availability:     enums.AvailabilityAvailable,
		ValidationStatus: enums.ValidationPending,
		Price:            decimal.NewFromInt(9000),
	})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := New()
	l := seedListing(t, db)
	boom := errors.New("boom")

	err := db.WithTx(context.Background(), func(ctx context.Context, s repo.Store) error {
		l.ValidationStatus = enums.ValidationRejected
		l.Availability = enums.AvailabilitySuspended
		if _, err := s.Listings().Update(ctx, l); err != nil {
			return err
		}
		if _, err := s.Cases().Create(ctx, model.ModerationCase{Target: model.ListingTarget(l.ID)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := db.Listings().Get(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.ValidationStatus != enums.ValidationPending || got.Version != 1 {
		t.Fatalf("listing not rolled back: %+v", got)
	}
	if _, open, _ := db.Cases().FindOpenForUpdate(context.Background(), model.ListingTarget(l.ID)); open {
		t.Fatalf("case not rolled back")
	}
}

func TestUpdateDetectsStaleVersion(t *testing.T) {
	db := New()
	l := seedListing(t, db)

	if _, err := db.Listings().Update(context.Background(), l); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := db.Listings().Update(context.Background(), l); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict for stale version, got %v", err)
	}
}

func TestSingleOpenCasePerTarget(t *testing.T) {
	db := New()
	ctx := context.Background()
	target := model.AccountTarget(5)

	c, err := db.Cases().Create(ctx, model.ModerationCase{Target: target})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	if _, err := db.Cases().Create(ctx, model.ModerationCase{Target: target}); !errors.Is(err, errs.ErrDuplicateCase) {
		t.Fatalf("expected duplicate case, got %v", err)
	}

	action := enums.ActionSuspend
	c.Status = enums.CaseDecided
	c.Action = &action
	if _, err := db.Cases().Update(ctx, c); err != nil {
		t.Fatalf("decide case: %v", err)
	}
	if _, err := db.Cases().Create(ctx, model.ModerationCase{Target: target}); err != nil {
		t.Fatalf("new case after decision: %v", err)
	}
}

func TestResolvePendingAcrossTargets(t *testing.T) {
	db := New()
	ctx := context.Background()

	for _, rep := range []model.Report{
		{ReporterID: 10, Target: model.AccountTarget(1), Justification: "scam"},
		{ReporterID: 11, Target: model.ListingTarget(2), Justification: "fake photos"},
		{ReporterID: 12, Target: model.ListingTarget(3), Justification: "wrong price"},
	} {
		if _, err := db.Reports().Create(ctx, rep); err != nil {
			t.Fatalf("create report: %v", err)
		}
	}
	if _, err := db.Reports().Create(ctx, model.Report{ReporterID: 10, Target: model.AccountTarget(1), Justification: "again"}); !errors.Is(err, errs.ErrDuplicateReport) {
		t.Fatalf("expected duplicate report, got %v", err)
	}

	resolved, err := db.Reports().ResolvePending(ctx, []model.TargetRef{model.AccountTarget(1), model.ListingTarget(2)}, enums.ReportResolved, db.now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("unexpected resolved count: %d", len(resolved))
	}
	if n, _ := db.Reports().CountPending(ctx, model.ListingTarget(3)); n != 1 {
		t.Fatalf("unrelated report touched")
	}
}

func TestNotificationInsertIsIdempotent(t *testing.T) {
	db := New()
	ctx := context.Background()
	n := model.StoredNotification{EffectID: model.EffectID("k"), RecipientID: 3, Kind: enums.NotifyTargetModerated}

	if _, created, err := db.Notifications().Insert(ctx, n); err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}
	if _, created, err := db.Notifications().Insert(ctx, n); err != nil || created {
		t.Fatalf("second insert: created=%v err=%v", created, err)
	}
	items, _ := db.Notifications().ListByRecipient(ctx, 3, 10)
	if len(items) != 1 {
		t.Fatalf("unexpected inbox size: %d", len(items))
	}
}
