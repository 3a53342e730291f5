package transactions

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/domain/rules"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

const maxRentalDays = 365

type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []model.Effect)
}

type Service struct {
	store   repo.TxRunner
	effects EffectDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

type Dependencies struct {
	Store   repo.TxRunner
	Effects EffectDispatcher
	Logger  *zap.Logger
}

type RentalInput struct {
	StartAt          time.Time
	ExpectedReturnAt time.Time
	Deposit          decimal.Decimal
}

type RequestInput struct {
	ListingID   int64
	RequesterID int64
	Kind        enums.OfferType
	Rental      *RentalInput
}

// Result carries the transaction after a call. Changed is false when the
// call was an idempotent repeat.
type Result struct {
	Transaction model.Transaction
	Changed     bool
	Effects     []model.Effect
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   deps.Store,
		effects: deps.Effects,
		logger:  logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *Service) Request(ctx context.Context, in RequestInput) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("transaction service dependencies are not configured")
	}
	if in.ListingID <= 0 || in.RequesterID <= 0 {
		return Result{}, errs.Invalid("invalid transaction request")
	}
	if !in.Kind.Valid() {
		return Result{}, errs.Invalid("invalid transaction kind")
	}
	now := s.now()
	if in.Kind == enums.OfferRental {
		if in.Rental == nil {
			return Result{}, errs.Invalid("rental terms are required")
		}
		if in.Rental.StartAt.Before(now.Add(-time.Minute)) {
			return Result{}, errs.Invalid("rental must not start in the past")
		}
		if !in.Rental.ExpectedReturnAt.After(in.Rental.StartAt) {
			return Result{}, errs.Invalid("expected return must be after the rental start")
		}
		if in.Rental.Deposit.IsNegative() {
			return Result{}, errs.Invalid("deposit must not be negative")
		}
	} else if in.Rental != nil {
		return Result{}, errs.Invalid("rental terms are only allowed for rentals")
	}

	var out Result
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		requester, err := st.Accounts().Get(txCtx, in.RequesterID)
		if err != nil {
			return err
		}
		if !requester.IsActive() {
			return errs.ErrAccountInactive
		}

		listing, err := st.Listings().GetForUpdate(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if listing.OwnerID == in.RequesterID {
			return errs.ErrSelfDealing
		}
		if !listing.IsAvailable() {
			return errs.ErrListingUnavailable
		}
		if listing.OfferType != in.Kind {
			return errs.Invalid("transaction kind must match the listing offer type")
		}

		t := model.Transaction{
			ListingID:   listing.ID,
			RequesterID: in.RequesterID,
			OwnerID:     listing.OwnerID,
			Kind:        in.Kind,
			Status:      enums.TransactionPending,
			Amount:      listing.Price,
		}
		if in.Kind == enums.OfferRental {
			days := rentalDays(in.Rental.StartAt, in.Rental.ExpectedReturnAt)
			if days > maxRentalDays {
				return errs.Invalid("rental is too long")
			}
			t.Rental = &model.RentalTerms{
				StartAt:          in.Rental.StartAt.UTC(),
				ExpectedReturnAt: in.Rental.ExpectedReturnAt.UTC(),
				DailyPrice:       listing.Price,
				Deposit:          in.Rental.Deposit,
			}
			t.Amount = listing.Price.Mul(decimal.NewFromInt(days))
		}

		created, err := st.Transactions().Create(txCtx, t)
		if err != nil {
			return err
		}
		out = Result{
			Transaction: created,
			Changed:     true,
			Effects:     rules.TransactionEffects(created, ""),
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, out.Effects)
	return out, nil
}

// Confirm sets role's confirmation flag under the transaction row lock. Both
// flags are read and written in the same unit of work, so of two concurrent
// confirmations exactly one observes completion. The listing flips to sold or
// rented in that same unit of work.
func (s *Service) Confirm(ctx context.Context, transactionID int64, role enums.PartyRole) (Result, error) {
	if err := s.validateCall(transactionID, role); err != nil {
		return Result{}, err
	}

	var out Result
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		t, err := st.Transactions().GetForUpdate(txCtx, transactionID)
		if err != nil {
			return err
		}

		next, changed, err := rules.ConfirmTransaction(t, role, s.now())
		if err != nil {
			return err
		}
		if !changed {
			out = Result{Transaction: t}
			return nil
		}

		if next.Status == enums.TransactionCompleted {
			listing, err := st.Listings().GetForUpdate(txCtx, t.ListingID)
			if err != nil {
				return err
			}
			if !listing.IsAvailable() {
				if rules.Blocks(listing.ValidationStatus) {
					return errs.ErrListingFrozen
				}
				return errs.ErrListingUnavailable
			}
			listing.Availability = rules.AvailabilityOnCompletion(t.Kind)
			if _, err := st.Listings().Update(txCtx, listing); err != nil {
				return err
			}
		}

		updated, err := st.Transactions().Update(txCtx, next)
		if err != nil {
			return err
		}
		out = Result{
			Transaction: updated,
			Changed:     true,
			Effects:     rules.TransactionEffects(updated, role),
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if out.Transaction.Status == enums.TransactionCompleted && out.Changed {
		s.logger.Info("transaction completed",
			zap.Int64("transaction_id", out.Transaction.ID),
			zap.Int64("listing_id", out.Transaction.ListingID),
			zap.String("kind", string(out.Transaction.Kind)),
		)
	}
	s.dispatch(ctx, out.Effects)
	return out, nil
}

func (s *Service) Cancel(ctx context.Context, transactionID int64, role enums.PartyRole) (Result, error) {
	if err := s.validateCall(transactionID, role); err != nil {
		return Result{}, err
	}

	var out Result
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		t, err := st.Transactions().GetForUpdate(txCtx, transactionID)
		if err != nil {
			return err
		}
		next, err := rules.CancelTransaction(t, s.now())
		if err != nil {
			return err
		}
		updated, err := st.Transactions().Update(txCtx, next)
		if err != nil {
			return err
		}
		out = Result{
			Transaction: updated,
			Changed:     true,
			Effects:     rules.TransactionEffects(updated, role),
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, out.Effects)
	return out, nil
}

// ReturnRental closes a completed rental and gives the listing back to the
// market, unless moderation blocked it meanwhile.
func (s *Service) ReturnRental(ctx context.Context, transactionID int64) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("transaction service dependencies are not configured")
	}
	if transactionID <= 0 {
		return Result{}, errs.Invalid("invalid transaction id")
	}

	var out Result
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		t, err := st.Transactions().GetForUpdate(txCtx, transactionID)
		if err != nil {
			return err
		}
		next, err := rules.ReturnRental(t, s.now())
		if err != nil {
			return err
		}

		listing, err := st.Listings().GetForUpdate(txCtx, t.ListingID)
		if err != nil {
			return err
		}
		if listing.Availability == enums.AvailabilityRented {
			listing.Availability = rules.AvailabilityAfterReturn(listing.ValidationStatus)
			if _, err := st.Listings().Update(txCtx, listing); err != nil {
				return err
			}
		}

		updated, err := st.Transactions().Update(txCtx, next)
		if err != nil {
			return err
		}
		out = Result{
			Transaction: updated,
			Changed:     true,
			Effects:     rules.TransactionEffects(updated, ""),
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, out.Effects)
	return out, nil
}

// ResolveRole maps an authenticated user onto their side of the transaction.
func (s *Service) ResolveRole(ctx context.Context, transactionID, userID int64) (enums.PartyRole, error) {
	t, err := s.Get(ctx, transactionID)
	if err != nil {
		return "", err
	}
	role, ok := t.RoleOf(userID)
	if !ok {
		return "", errs.ErrNotParty
	}
	return role, nil
}

func (s *Service) Get(ctx context.Context, transactionID int64) (model.Transaction, error) {
	if s.store == nil {
		return model.Transaction{}, fmt.Errorf("transaction service dependencies are not configured")
	}
	if transactionID <= 0 {
		return model.Transaction{}, errs.Invalid("invalid transaction id")
	}
	return s.store.Transactions().Get(ctx, transactionID)
}

func (s *Service) validateCall(transactionID int64, role enums.PartyRole) error {
	if s.store == nil {
		return fmt.Errorf("transaction service dependencies are not configured")
	}
	if transactionID <= 0 {
		return errs.Invalid("invalid transaction id")
	}
	if !role.Valid() {
		return errs.Invalid("invalid actor role")
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, effects []model.Effect) {
	if s.effects == nil || len(effects) == 0 {
		return
	}
	s.effects.Dispatch(ctx, effects)
}

func rentalDays(start, end time.Time) int64 {
	days := int64(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
