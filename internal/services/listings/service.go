package listings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/domain/rules"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

const (
	minYear         = 1900
	maxTitleLength  = 200
	submittedReason = "new listing submitted"
)

// PriceAdvisor is the external price sanity check.
type PriceAdvisor interface {
	Accept(ctx context.Context, q model.PriceQuery) (bool, error)
}

type CaseOpener interface {
	EnsureOpenCase(ctx context.Context, st repo.Store, target model.TargetRef, reason string) (model.ModerationCase, error)
}

type Service struct {
	store   repo.TxRunner
	advisor PriceAdvisor
	cases   CaseOpener
	logger  *zap.Logger
	now     func() time.Time
}

type Dependencies struct {
	Store   repo.TxRunner
	Advisor PriceAdvisor
	Cases   CaseOpener
	Logger  *zap.Logger
}

type SubmitInput struct {
	OwnerID    int64
	Title      string
	Make       string
	Model      string
	Year       int
	MileageKM  int
	OfferType  enums.OfferType
	Price      decimal.Decimal
	Negotiable bool
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   deps.Store,
		advisor: deps.Advisor,
		cases:   deps.Cases,
		logger:  logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Submit creates a pending listing and opens its review case. A failing
// advisor does not block submission; moderators still review the listing.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (model.Listing, error) {
	if s.store == nil {
		return model.Listing{}, fmt.Errorf("listing service dependencies are not configured")
	}
	if err := validateSubmit(&in, s.now()); err != nil {
		return model.Listing{}, err
	}

	owner, err := s.store.Accounts().Get(ctx, in.OwnerID)
	if err != nil {
		return model.Listing{}, err
	}
	if !owner.IsActive() {
		return model.Listing{}, errs.ErrAccountInactive
	}
	if !owner.CanSell() {
		return model.Listing{}, errs.ErrRoleNotAllowed
	}

	if s.advisor != nil {
		accepted, err := s.advisor.Accept(ctx, model.PriceQuery{
			Make:      in.Make,
			Model:     in.Model,
			Year:      in.Year,
			MileageKM: in.MileageKM,
			OfferType: in.OfferType,
			Price:     in.Price,
		})
		switch {
		case err != nil:
			s.logger.Warn("price advisor unavailable, accepting listing for review", zap.Int64("owner_id", in.OwnerID), zap.Error(err))
		case !accepted:
			return model.Listing{}, errs.ErrPriceRejected
		}
	}

	var created model.Listing
	err = s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		created, err = st.Listings().Create(txCtx, model.Listing{
			OwnerID:          in.OwnerID,
			Title:            in.Title,
			Make:             in.Make,
			Model:            in.Model,
			Year:             in.Year,
			MileageKM:        in.MileageKM,
			OfferType:        in.OfferType,
			Availability:     enums.AvailabilityAvailable,
			ValidationStatus: enums.ValidationPending,
			Price:            in.Price,
			Negotiable:       in.Negotiable,
		})
		if err != nil {
			return err
		}
		if s.cases != nil {
			if _, err := s.cases.EnsureOpenCase(txCtx, st, model.ListingTarget(created.ID), submittedReason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Listing{}, err
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (model.Listing, error) {
	if s.store == nil {
		return model.Listing{}, fmt.Errorf("listing service dependencies are not configured")
	}
	if id <= 0 {
		return model.Listing{}, errs.Invalid("invalid listing id")
	}
	return s.store.Listings().Get(ctx, id)
}

// RecordView bumps the view counter of a visible listing. Views by the owner
// and views of listings kept off the market by moderation are not counted.
func (s *Service) RecordView(ctx context.Context, id, viewerID int64) (int64, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if viewerID == listing.OwnerID || rules.Blocks(listing.ValidationStatus) {
		return listing.Views, nil
	}
	return s.store.Listings().IncrementViews(ctx, id)
}

func validateSubmit(in *SubmitInput, now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)

	if in.OwnerID <= 0 {
		return errs.Invalid("invalid owner id")
	}
	if in.Title == "" || len(in.Title) > maxTitleLength {
		return errs.Invalid("title is required and must be at most 200 characters")
	}
	if !in.OfferType.Valid() {
		return errs.Invalid("invalid offer type")
	}
	if !in.Price.IsPositive() {
		return errs.Invalid("price must be positive")
	}
	if in.Year != 0 && (in.Year < minYear || in.Year > now.Year()+1) {
		return errs.Invalid("invalid model year")
	}
	if in.MileageKM < 0 {
		return errs.Invalid("mileage must not be negative")
	}
	return nil
}
