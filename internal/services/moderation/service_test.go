package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo"
	"github.com/ivankudzin/automarket/backend/internal/repo/memory"
	"github.com/ivankudzin/automarket/backend/internal/services/reports"
)

const adminID int64 = 900

type recordingDispatcher struct {
	mu      sync.Mutex
	effects []model.Effect
}

func (d *recordingDispatcher) Dispatch(_ context.Context, effects []model.Effect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.effects = append(d.effects, effects...)
}

func (d *recordingDispatcher) byKind(kind enums.NotificationKind) []model.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.Notification
	for _, e := range d.effects {
		if e.Notification != nil && e.Notification.Kind == kind {
			out = append(out, *e.Notification)
		}
	}
	return out
}

type fixture struct {
	db       *memory.DB
	index    *reports.Index
	svc      *Service
	effects  *recordingDispatcher
	clock    time.Time
	accounts int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	index := reports.NewIndex(reports.Dependencies{Store: db})
	effects := &recordingDispatcher{}
	svc := NewService(Dependencies{Store: db, Reports: index, Effects: effects})
	index.AttachCases(svc)

	f := &fixture{db: db, index: index, svc: svc, effects: effects}
	f.clock = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) account(t *testing.T, role enums.Role) model.Account {
	t.Helper()
	f.accounts++
	a, err := f.db.Accounts().Create(context.Background(), model.Account{
		Email:  fmt.Sprintf("user%d@example.com", f.accounts),
		Role:   role,
		Status: enums.AccountActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (f *fixture) listing(t *testing.T, ownerID int64, status enums.ValidationStatus) model.Listing {
	t.Helper()
	availability := enums.AvailabilityAvailable
	if status == enums.ValidationSuspended {
		availability = enums.AvailabilitySuspended
	}
	l, err := f.db.Listings().Create(context.Background(), model.Listing{
		OwnerID:          ownerID,
		Title:            "Volkswagen Golf",
		OfferType:        enums.OfferSale,
		Availability:     availability,
		ValidationStatus: status,
		Price:            decimal.NewFromInt(8000),
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return l
}

func (f *fixture) report(t *testing.T, reporterID int64, target model.TargetRef) model.Report {
	t.Helper()
	r, err := f.index.File(context.Background(), reports.FileInput{
		ReporterID:    reporterID,
		Target:        target,
		Justification: "looks like a scam",
	})
	if err != nil {
		t.Fatalf("file report: %v", err)
	}
	return r
}

func (f *fixture) openCase(t *testing.T, target model.TargetRef) model.ModerationCase {
	t.Helper()
	c, err := f.svc.OpenCase(context.Background(), OpenCaseInput{Target: target, Reason: "manual review", OpenedBy: adminID})
	if err != nil {
		t.Fatalf("open case: %v", err)
	}
	return c
}

func TestDecideValidatesPendingListing(t *testing.T) {
	f := newFixture(t)
	seller := f.account(t, enums.RoleSeller)
	l := f.listing(t, seller.ID, enums.ValidationPending)
	c := f.openCase(t, model.ListingTarget(l.ID))

	res, err := f.svc.Decide(context.Background(), DecideInput{CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionValidate})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.Case.Status != enums.CaseDecided || res.Case.Action == nil || *res.Case.Action != enums.ActionValidate {
		t.Fatalf("unexpected case: %+v", res.Case)
	}
	if res.Listing == nil || res.Listing.ValidationStatus != enums.ValidationValidated {
		t.Fatalf("unexpected listing: %+v", res.Listing)
	}

	moderated := f.effects.byKind(enums.NotifyTargetModerated)
	if len(moderated) != 1 || moderated[0].RecipientID != seller.ID {
		t.Fatalf("expected one moderated notification to the owner, got %+v", moderated)
	}
	if opened := f.effects.byKind(enums.NotifyCaseOpened); len(opened) != 1 {
		t.Fatalf("expected case opened notification, got %d", len(opened))
	}

	history, err := f.svc.History(context.Background(), model.ListingTarget(l.ID))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].FromStatus != "pending" || history[0].ToStatus != "validated" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestDecideTwiceFails(t *testing.T) {
	f := newFixture(t)
	seller := f.account(t, enums.RoleSeller)
	l := f.listing(t, seller.ID, enums.ValidationPending)
	c := f.openCase(t, model.ListingTarget(l.ID))

	in := DecideInput{CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionValidate}
	if _, err := f.svc.Decide(context.Background(), in); err != nil {
		t.Fatalf("first decide: %v", err)
	}
	in.Action = enums.ActionSuspend
	_, err := f.svc.Decide(context.Background(), in)
	if !errors.Is(err, errs.ErrAlreadyDecided) {
		t.Fatalf("expected already decided, got %v", err)
	}
}

func TestDecideIllegalActionLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	seller := f.account(t, enums.RoleSeller)
	l := f.listing(t, seller.ID, enums.ValidationPending)
	c := f.openCase(t, model.ListingTarget(l.ID))

	_, err := f.svc.Decide(context.Background(), DecideInput{CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionSuspend})
	if !errors.Is(err, errs.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}

	got, _ := f.db.Listings().Get(context.Background(), l.ID)
	if got.ValidationStatus != enums.ValidationPending {
		t.Fatalf("listing changed: %+v", got)
	}
	stillOpen, _ := f.svc.GetCase(context.Background(), c.ID)
	if stillOpen.Status != enums.CaseOpen {
		t.Fatalf("case must stay open after an illegal action")
	}
}

func TestRetiredListingNeedsNewCase(t *testing.T) {
	f := newFixture(t)
	seller := f.account(t, enums.RoleSeller)
	l := f.listing(t, seller.ID, enums.ValidationValidated)

	c := f.openCase(t, model.ListingTarget(l.ID))
	if _, err := f.svc.Decide(context.Background(), DecideInput{CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionRetire}); err != nil {
		t.Fatalf("retire: %v", err)
	}

	next := f.openCase(t, model.ListingTarget(l.ID))
	_, err := f.svc.Decide(context.Background(), DecideInput{CaseID: next.ID, ModeratorID: adminID, Action: enums.ActionValidate})
	if !errors.Is(err, errs.ErrActionNotAllowed) {
		t.Fatalf("expected retired listing to reject validate, got %v", err)
	}
}

func TestOpenCaseRejectsSecondOpenCase(t *testing.T) {
	f := newFixture(t)
	seller := f.account(t, enums.RoleSeller)
	l := f.listing(t, seller.ID, enums.ValidationPending)
	f.openCase(t, model.ListingTarget(l.ID))

	_, err := f.svc.OpenCase(context.Background(), OpenCaseInput{Target: model.ListingTarget(l.ID), Reason: "again", OpenedBy: adminID})
	if !errors.Is(err, errs.ErrDuplicateCase) {
		t.Fatalf("expected duplicate case, got %v", err)
	}
}

func TestOpenCaseRejectsUnknownReasonCode(t *testing.T) {
	f := newFixture(t)
	seller := f.account(t, enums.RoleSeller)
	l := f.listing(t, seller.ID, enums.ValidationPending)

	_, err := f.svc.OpenCase(context.Background(), OpenCaseInput{Target: model.ListingTarget(l.ID), ReasonCode: "NOPE", OpenedBy: adminID})
	if !errors.Is(err, ErrInvalidReasonCode) {
		t.Fatalf("expected invalid reason code, got %v", err)
	}
}

func TestBanCascadesToListingsAndResolvesReports(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, enums.RoleDealer)
	reporterA := f.account(t, enums.RoleClient)
	reporterB := f.account(t, enums.RoleClient)

	l1 := f.listing(t, owner.ID, enums.ValidationValidated)
	l2 := f.listing(t, owner.ID, enums.ValidationSuspended)

	f.report(t, reporterA.ID, model.AccountTarget(owner.ID))
	f.report(t, reporterA.ID, model.ListingTarget(l1.ID))
	f.report(t, reporterB.ID, model.ListingTarget(l2.ID))

	accountCase, found, err := f.db.Cases().FindOpenForUpdate(context.Background(), model.AccountTarget(owner.ID))
	if err != nil || !found {
		t.Fatalf("expected a case opened by the report, found=%v err=%v", found, err)
	}

	res, err := f.svc.Decide(context.Background(), DecideInput{
		CaseID:      accountCase.ID,
		ModeratorID: adminID,
		Action:      enums.ActionBan,
		ReasonCode:  "FRAUD_SUSPECT",
	})
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if res.Account == nil || res.Account.Status != enums.AccountBanned {
		t.Fatalf("account not banned: %+v", res.Account)
	}
	if len(res.CascadedListings) != 2 {
		t.Fatalf("expected 2 cascaded listings, got %d", len(res.CascadedListings))
	}

	for _, id := range []int64{l1.ID, l2.ID} {
		got, _ := f.db.Listings().Get(context.Background(), id)
		if got.IsAvailable() || got.ValidationStatus != enums.ValidationBanned {
			t.Fatalf("listing %d still available: %+v", id, got)
		}
		if n, _ := f.db.Reports().CountPending(context.Background(), model.ListingTarget(id)); n != 0 {
			t.Fatalf("listing %d has %d pending reports", id, n)
		}
		if _, open, _ := f.db.Cases().FindOpenForUpdate(context.Background(), model.ListingTarget(id)); open {
			t.Fatalf("listing %d still has an open case", id)
		}
	}
	if n, _ := f.db.Reports().CountPending(context.Background(), model.AccountTarget(owner.ID)); n != 0 {
		t.Fatalf("account has %d pending reports", n)
	}

	resolved := f.effects.byKind(enums.NotifyReportResolved)
	if len(resolved) != 2 {
		t.Fatalf("expected one report resolved notification per reporter, got %d", len(resolved))
	}
	if moderated := f.effects.byKind(enums.NotifyTargetModerated); len(moderated) != 1 || moderated[0].RecipientID != owner.ID {
		t.Fatalf("expected one moderated notification to the owner, got %+v", moderated)
	}
}

type failingResolver struct{}

func (failingResolver) ResolveAllFor(context.Context, repo.Store, ...model.TargetRef) ([]int64, error) {
	return nil, errors.New("report store unavailable")
}

func TestDecideIsAtomic(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, enums.RoleSeller)
	l := f.listing(t, owner.ID, enums.ValidationValidated)
	c := f.openCase(t, model.AccountTarget(owner.ID))

	f.svc.reports = failingResolver{}
	before := len(f.effects.effects)
	_, err := f.svc.Decide(context.Background(), DecideInput{CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionBan})
	if err == nil {
		t.Fatalf("expected decide to fail")
	}

	account, _ := f.db.Accounts().Get(context.Background(), owner.ID)
	listing, _ := f.db.Listings().Get(context.Background(), l.ID)
	stillOpen, _ := f.db.Cases().Get(context.Background(), c.ID)
	if account.Status != enums.AccountActive || listing.ValidationStatus != enums.ValidationValidated || stillOpen.Status != enums.CaseOpen {
		t.Fatalf("partial decision applied: account=%s listing=%s case=%s", account.Status, listing.ValidationStatus, stillOpen.Status)
	}
	if history, _ := f.svc.History(context.Background(), model.AccountTarget(owner.ID)); len(history) != 0 {
		t.Fatalf("audit log written for a rolled back decision")
	}
	if len(f.effects.effects) != before {
		t.Fatalf("effects dispatched for a rolled back decision")
	}
}

func TestRestoreExpiredSuspension(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, enums.RoleSeller)
	l := f.listing(t, owner.ID, enums.ValidationValidated)
	c := f.openCase(t, model.ListingTarget(l.ID))

	expires := f.clock.Add(24 * time.Hour)
	if _, err := f.svc.Decide(context.Background(), DecideInput{
		CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionSuspend, ExpiresAt: &expires,
	}); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	if n, err := f.svc.RestoreExpired(context.Background()); err != nil || n != 0 {
		t.Fatalf("nothing should expire yet, got %d %v", n, err)
	}

	f.clock = f.clock.Add(25 * time.Hour)
	n, err := f.svc.RestoreExpired(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one restore, got %d %v", n, err)
	}
	got, _ := f.db.Listings().Get(context.Background(), l.ID)
	if got.ValidationStatus != enums.ValidationRestored || !got.IsAvailable() {
		t.Fatalf("listing not restored: %+v", got)
	}

	if n, err := f.svc.RestoreExpired(context.Background()); err != nil || n != 0 {
		t.Fatalf("second run must be a no-op, got %d %v", n, err)
	}
}

func TestLaterDecisionSupersedesPendingExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, enums.RoleSeller)
	l := f.listing(t, owner.ID, enums.ValidationValidated)
	target := model.ListingTarget(l.ID)

	decide := func(action enums.CaseAction, expiresAt *time.Time) model.ModerationCase {
		t.Helper()
		c := f.openCase(t, target)
		res, err := f.svc.Decide(ctx, DecideInput{CaseID: c.ID, ModeratorID: adminID, Action: action, ExpiresAt: expiresAt})
		if err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		return res.Case
	}

	expires := f.clock.Add(24 * time.Hour)
	temporary := decide(enums.ActionSuspend, &expires)
	decide(enums.ActionRestore, nil)
	decide(enums.ActionSuspend, nil)

	superseded, _ := f.db.Cases().Get(ctx, temporary.ID)
	if !superseded.ExpiryHandled {
		t.Fatalf("restore must retire the pending expiry of case %d", temporary.ID)
	}

	f.clock = f.clock.Add(25 * time.Hour)
	if n, err := f.svc.RestoreExpired(ctx); err != nil || n != 0 {
		t.Fatalf("expected no restore, got %d %v", n, err)
	}
	got, _ := f.db.Listings().Get(ctx, l.ID)
	if got.ValidationStatus != enums.ValidationSuspended || got.IsAvailable() {
		t.Fatalf("indefinite suspension lifted: %+v", got)
	}
}

func TestRestoreExpiredSkipsTargetUnderReview(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, enums.RoleSeller)
	reporter := f.account(t, enums.RoleClient)
	l := f.listing(t, owner.ID, enums.ValidationValidated)
	c := f.openCase(t, model.ListingTarget(l.ID))

	expires := f.clock.Add(time.Hour)
	if _, err := f.svc.Decide(context.Background(), DecideInput{
		CaseID: c.ID, ModeratorID: adminID, Action: enums.ActionSuspend, ExpiresAt: &expires,
	}); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	f.report(t, reporter.ID, model.ListingTarget(l.ID))

	f.clock = f.clock.Add(2 * time.Hour)
	if n, err := f.svc.RestoreExpired(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected no restore while a case is open, got %d %v", n, err)
	}
	got, _ := f.db.Listings().Get(context.Background(), l.ID)
	if got.ValidationStatus != enums.ValidationSuspended {
		t.Fatalf("listing must stay suspended: %+v", got)
	}
	handled, _ := f.db.Cases().Get(context.Background(), c.ID)
	if !handled.ExpiryHandled {
		t.Fatalf("expired case must be marked handled")
	}
}

func TestDecideRejectsExpiryOnNonSuspension(t *testing.T) {
	f := newFixture(t)
	expires := f.clock.Add(time.Hour)
	_, err := f.svc.Decide(context.Background(), DecideInput{CaseID: 1, Action: enums.ActionBan, ExpiresAt: &expires})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
