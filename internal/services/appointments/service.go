package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/domain/rules"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

const maxMessageLength = 1000

type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []model.Effect)
}

// Service schedules visits and test drives. Appointments are advisory and
// never touch transactions or listing availability.
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

type RequestInput struct {
	ListingID   int64
	RequesterID int64
	Kind        enums.AppointmentKind
	When        time.Time
	Message     string
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

func (s *Service) Request(ctx context.Context, in RequestInput) (model.Appointment, error) {
	if s.store == nil {
		return model.Appointment{}, fmt.Errorf("appointment service dependencies are not configured")
	}
	if in.ListingID <= 0 || in.RequesterID <= 0 {
		return model.Appointment{}, errs.Invalid("invalid appointment request")
	}
	if !in.Kind.Valid() {
		return model.Appointment{}, errs.Invalid("invalid appointment kind")
	}
	if !in.When.After(s.now()) {
		return model.Appointment{}, errs.Invalid("appointment must be in the future")
	}
	message := strings.TrimSpace(in.Message)
	if len(message) > maxMessageLength {
		return model.Appointment{}, errs.Invalid("message is too long")
	}

	var created model.Appointment
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		requester, err := st.Accounts().Get(txCtx, in.RequesterID)
		if err != nil {
			return err
		}
		if !requester.IsActive() {
			return errs.ErrAccountInactive
		}

		listing, err := st.Listings().Get(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if listing.OwnerID == in.RequesterID {
			return errs.ErrSelfDealing
		}
		if rules.Blocks(listing.ValidationStatus) {
			return errs.ErrListingUnavailable
		}

		created, err = st.Appointments().Create(txCtx, model.Appointment{
			ListingID:   listing.ID,
			RequesterID: in.RequesterID,
			OwnerID:     listing.OwnerID,
			Kind:        in.Kind,
			Status:      enums.AppointmentPending,
			When:        in.When.UTC(),
			Message:     message,
		})
		return err
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.dispatch(ctx, []model.Effect{rules.AppointmentRequestedEffect(created)})
	return created, nil
}

func (s *Service) Confirm(ctx context.Context, appointmentID, actorID int64) (model.Appointment, error) {
	return s.act(ctx, appointmentID, actorID, rules.AppointmentConfirm)
}

func (s *Service) Decline(ctx context.Context, appointmentID, actorID int64) (model.Appointment, error) {
	return s.act(ctx, appointmentID, actorID, rules.AppointmentDecline)
}

func (s *Service) Cancel(ctx context.Context, appointmentID, actorID int64) (model.Appointment, error) {
	return s.act(ctx, appointmentID, actorID, rules.AppointmentCancel)
}

func (s *Service) Complete(ctx context.Context, appointmentID, actorID int64) (model.Appointment, error) {
	return s.act(ctx, appointmentID, actorID, rules.AppointmentComplete)
}

func (s *Service) Get(ctx context.Context, appointmentID int64) (model.Appointment, error) {
	if s.store == nil {
		return model.Appointment{}, fmt.Errorf("appointment service dependencies are not configured")
	}
	return s.store.Appointments().Get(ctx, appointmentID)
}

func (s *Service) act(ctx context.Context, appointmentID, actorID int64, action rules.AppointmentAction) (model.Appointment, error) {
	if s.store == nil {
		return model.Appointment{}, fmt.Errorf("appointment service dependencies are not configured")
	}
	if appointmentID <= 0 || actorID <= 0 {
		return model.Appointment{}, errs.Invalid("invalid appointment call")
	}

	var (
		updated model.Appointment
		effects []model.Effect
	)
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		a, err := st.Appointments().GetForUpdate(txCtx, appointmentID)
		if err != nil {
			return err
		}
		role, ok := a.RoleOf(actorID)
		if !ok {
			return errs.ErrNotParty
		}

		next, out, err := rules.ApplyAppointmentAction(a, action, role)
		if err != nil {
			return err
		}
		updated, err = st.Appointments().Update(txCtx, next)
		if err != nil {
			return err
		}
		effects = out
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.dispatch(ctx, effects)
	return updated, nil
}

func (s *Service) dispatch(ctx context.Context, effects []model.Effect) {
	if s.effects == nil || len(effects) == 0 {
		return
	}
	s.effects.Dispatch(ctx, effects)
}
