package moderation

import (
	"context"
	"errors"
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

const (
	maxReasonLength    = 1000
	expiryBatchSize    = 100
	expiryRestoreNote  = "suspension expired"
	cascadeBanNote     = "owner account banned"
	systemOpenedReason = "opened automatically"
)

var ErrInvalidReasonCode = errs.Invalid("invalid reason code")

type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []model.Effect)
}

// ReportResolver resolves pending reports inside the decision's unit of work
// and returns the distinct reporters.
type ReportResolver interface {
	ResolveAllFor(ctx context.Context, st repo.Store, targets ...model.TargetRef) ([]int64, error)
}

type Service struct {
	store   repo.TxRunner
	reports ReportResolver
	effects EffectDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

type Dependencies struct {
	Store   repo.TxRunner
	Reports ReportResolver
	Effects EffectDispatcher
	Logger  *zap.Logger
}

type OpenCaseInput struct {
	Target     model.TargetRef
	ReasonCode string
	Reason     string
	OpenedBy   int64
}

type DecideInput struct {
	CaseID      int64
	ModeratorID int64
	Action      enums.CaseAction
	ReasonCode  string
	Reason      string
	ExpiresAt   *time.Time
}

type DecisionResult struct {
	Case              model.ModerationCase
	Listing           *model.Listing
	Account           *model.Account
	CascadedListings  []model.Listing
	ResolvedReporters []int64
	Effects           []model.Effect
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   deps.Store,
		reports: deps.Reports,
		effects: deps.Effects,
		logger:  logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// OpenCase opens a case against an existing target. Cases opened by a
// moderator notify the target owner.
func (s *Service) OpenCase(ctx context.Context, in OpenCaseInput) (model.ModerationCase, error) {
	if s.store == nil {
		return model.ModerationCase{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if !in.Target.Valid() {
		return model.ModerationCase{}, errs.Invalid("invalid moderation target")
	}
	reason, ok := resolveReason(in.ReasonCode, in.Reason)
	if !ok {
		return model.ModerationCase{}, ErrInvalidReasonCode
	}
	if len(reason) > maxReasonLength {
		return model.ModerationCase{}, errs.Invalid("reason is too long")
	}

	var (
		opened  model.ModerationCase
		effects []model.Effect
	)
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		ownerID, err := targetOwner(txCtx, st, in.Target)
		if err != nil {
			return err
		}

		if _, open, err := st.Cases().FindOpenForUpdate(txCtx, in.Target); err != nil {
			return err
		} else if open {
			return errs.ErrDuplicateCase
		}

		opened, err = st.Cases().Create(txCtx, model.ModerationCase{
			Target:   in.Target,
			Reason:   reason,
			OpenedBy: in.OpenedBy,
		})
		if err != nil {
			return err
		}

		if in.OpenedBy != model.SystemActor {
			effects = append(effects, rules.CaseOpenedEffect(opened, ownerID))
		}
		return nil
	})
	if err != nil {
		return model.ModerationCase{}, err
	}

	s.dispatch(ctx, effects)
	return opened, nil
}

// EnsureOpenCase returns the open case for target, opening one on behalf of
// the system actor when there is none. It runs inside the caller's unit of
// work and emits no effects.
func (s *Service) EnsureOpenCase(ctx context.Context, st repo.Store, target model.TargetRef, reason string) (model.ModerationCase, error) {
	existing, open, err := st.Cases().FindOpenForUpdate(ctx, target)
	if err != nil {
		return model.ModerationCase{}, err
	}
	if open {
		return existing, nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = systemOpenedReason
	}
	return st.Cases().Create(ctx, model.ModerationCase{
		Target:   target,
		Reason:   reason,
		OpenedBy: model.SystemActor,
	})
}

// Decide applies action to the case target in one unit of work: target
// status, audit log, ban cascade, case status and report resolution either
// all commit or none do. Effects are dispatched after commit.
func (s *Service) Decide(ctx context.Context, in DecideInput) (DecisionResult, error) {
	if s.store == nil {
		return DecisionResult{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if in.CaseID <= 0 {
		return DecisionResult{}, errs.Invalid("invalid case id")
	}
	if !in.Action.Valid() {
		return DecisionResult{}, errs.Invalid("invalid moderation action")
	}
	reason, ok := resolveReason(in.ReasonCode, in.Reason)
	if !ok {
		return DecisionResult{}, ErrInvalidReasonCode
	}
	if len(reason) > maxReasonLength {
		return DecisionResult{}, errs.Invalid("reason is too long")
	}
	in.Reason = reason

	now := s.now()
	if in.ExpiresAt != nil {
		if in.Action != enums.ActionSuspend {
			return DecisionResult{}, errs.Invalid("expires_at is only allowed for suspensions")
		}
		if !in.ExpiresAt.After(now) {
			return DecisionResult{}, errs.Invalid("expires_at must be in the future")
		}
	}

	var result DecisionResult
	err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		var err error
		result, err = s.decideTx(txCtx, st, in, now)
		return err
	})
	if err != nil {
		return DecisionResult{}, err
	}

	s.logger.Info("moderation case decided",
		zap.Int64("case_id", result.Case.ID),
		zap.String("target", result.Case.Target.String()),
		zap.String("action", string(in.Action)),
		zap.Int64("moderator_id", in.ModeratorID),
		zap.Int("cascaded_listings", len(result.CascadedListings)),
		zap.Int("resolved_reporters", len(result.ResolvedReporters)),
	)

	s.dispatch(ctx, result.Effects)
	return result, nil
}

func (s *Service) decideTx(ctx context.Context, st repo.Store, in DecideInput, now time.Time) (DecisionResult, error) {
	c, err := st.Cases().GetForUpdate(ctx, in.CaseID)
	if err != nil {
		return DecisionResult{}, err
	}
	if c.Status != enums.CaseOpen {
		return DecisionResult{}, errs.ErrAlreadyDecided
	}
	if in.Reason != "" {
		c.Reason = in.Reason
	}

	result := DecisionResult{}
	targets := []model.TargetRef{c.Target}
	var ownerID int64

	switch c.Target.Kind {
	case enums.TargetListing:
		listing, err := st.Listings().GetForUpdate(ctx, c.Target.ID)
		if err != nil {
			return DecisionResult{}, err
		}
		next, err := rules.ApplyListingAction(listing, in.Action)
		if err != nil {
			return DecisionResult{}, err
		}
		updated, err := st.Listings().Update(ctx, next)
		if err != nil {
			return DecisionResult{}, err
		}
		if err := appendLog(ctx, st, c, in, string(listing.ValidationStatus), string(updated.ValidationStatus), false); err != nil {
			return DecisionResult{}, err
		}
		result.Listing = &updated
		ownerID = updated.OwnerID

	case enums.TargetAccount:
		account, err := st.Accounts().GetForUpdate(ctx, c.Target.ID)
		if err != nil {
			return DecisionResult{}, err
		}
		next, err := rules.ApplyAccountAction(account, in.Action)
		if err != nil {
			return DecisionResult{}, err
		}
		updated, err := st.Accounts().Update(ctx, next)
		if err != nil {
			return DecisionResult{}, err
		}
		if err := appendLog(ctx, st, c, in, string(account.Status), string(updated.Status), false); err != nil {
			return DecisionResult{}, err
		}
		result.Account = &updated
		ownerID = updated.ID

		if in.Action == enums.ActionBan {
			cascaded, cascadedTargets, err := s.cascadeBan(ctx, st, c, in, now)
			if err != nil {
				return DecisionResult{}, err
			}
			result.CascadedListings = cascaded
			targets = append(targets, cascadedTargets...)
		}

	default:
		return DecisionResult{}, errs.Invalid("invalid moderation target")
	}

	for _, target := range targets {
		if _, err := st.Cases().SupersedeExpiries(ctx, target); err != nil {
			return DecisionResult{}, err
		}
	}

	action := in.Action
	decidedBy := in.ModeratorID
	decidedAt := now
	c.Status = enums.CaseDecided
	c.Action = &action
	c.DecidedBy = &decidedBy
	c.DecidedAt = &decidedAt
	c.ExpiresAt = in.ExpiresAt

	decided, err := st.Cases().Update(ctx, c)
	if err != nil {
		return DecisionResult{}, err
	}
	result.Case = decided

	if s.reports != nil {
		reporters, err := s.reports.ResolveAllFor(ctx, st, targets...)
		if err != nil {
			return DecisionResult{}, fmt.Errorf("resolve reports: %w", err)
		}
		result.ResolvedReporters = reporters
	}

	result.Effects = rules.ModerationEffects(decided, in.Action, ownerID, result.ResolvedReporters)
	return result, nil
}

// cascadeBan bans every listing of the account bypassing the listing
// legality table, and closes the open cases those listings had. It returns
// the listings that changed and the targets whose reports must be resolved.
func (s *Service) cascadeBan(ctx context.Context, st repo.Store, c model.ModerationCase, in DecideInput, now time.Time) ([]model.Listing, []model.TargetRef, error) {
	listings, err := st.Listings().ListByOwnerForUpdate(ctx, c.Target.ID)
	if err != nil {
		return nil, nil, err
	}

	changed := make([]model.Listing, 0, len(listings))
	targets := make([]model.TargetRef, 0, len(listings))
	for _, listing := range listings {
		target := model.ListingTarget(listing.ID)
		targets = append(targets, target)

		banned, ok := rules.BanListing(listing)
		if ok {
			updated, err := st.Listings().Update(ctx, banned)
			if err != nil {
				return nil, nil, err
			}
			logCase := c
			logCase.Target = target
			if err := appendLog(ctx, st, logCase, in, string(listing.ValidationStatus), string(updated.ValidationStatus), true); err != nil {
				return nil, nil, err
			}
			changed = append(changed, updated)
		}

		open, found, err := st.Cases().FindOpenForUpdate(ctx, target)
		if err != nil {
			return nil, nil, err
		}
		if found {
			action := enums.ActionBan
			decidedBy := in.ModeratorID
			decidedAt := now
			open.Status = enums.CaseDecided
			open.Action = &action
			open.DecidedBy = &decidedBy
			open.DecidedAt = &decidedAt
			open.Reason = cascadeBanNote
			if _, err := st.Cases().Update(ctx, open); err != nil {
				return nil, nil, err
			}
		}
	}
	return changed, targets, nil
}

// RestoreExpired restores targets whose suspension expired. Each expired
// case is handled in its own unit of work and marked so that later runs skip
// it. Targets that are no longer suspended or that already have an open case
// are only marked.
func (s *Service) RestoreExpired(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, fmt.Errorf("moderation service dependencies are not configured")
	}

	now := s.now()
	expired, err := s.store.Cases().ListExpiredSuspensions(ctx, now, expiryBatchSize)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, candidate := range expired {
		var result *DecisionResult
		err := s.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
			result = nil
			c, err := st.Cases().GetForUpdate(txCtx, candidate.ID)
			if err != nil {
				return err
			}
			if c.ExpiryHandled {
				return nil
			}

			suspended, err := stillSuspended(txCtx, st, c.Target)
			if err != nil {
				return err
			}
			_, underReview, err := st.Cases().FindOpenForUpdate(txCtx, c.Target)
			if err != nil {
				return err
			}

			if suspended && !underReview {
				restoreCase, err := st.Cases().Create(txCtx, model.ModerationCase{
					Target:   c.Target,
					Reason:   expiryRestoreNote,
					OpenedBy: model.SystemActor,
				})
				if err != nil {
					return err
				}
				decision, err := s.decideTx(txCtx, st, DecideInput{
					CaseID:      restoreCase.ID,
					ModeratorID: model.SystemActor,
					Action:      enums.ActionRestore,
					Reason:      expiryRestoreNote,
				}, now)
				if err != nil {
					return err
				}
				// the restore decision supersedes c itself
				result = &decision
				return nil
			}

			c.ExpiryHandled = true
			_, err = st.Cases().Update(txCtx, c)
			return err
		})
		if err != nil {
			if errors.Is(err, errs.ErrConflict) {
				s.logger.Warn("expired suspension changed concurrently", zap.Int64("case_id", candidate.ID))
				continue
			}
			return restored, err
		}
		if result != nil {
			restored++
			s.dispatch(ctx, result.Effects)
		}
	}

	return restored, nil
}

func (s *Service) History(ctx context.Context, target model.TargetRef) ([]model.ModerationLogEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}
	if !target.Valid() {
		return nil, errs.Invalid("invalid moderation target")
	}
	return s.store.ModerationLog().ListByTarget(ctx, target)
}

func (s *Service) GetCase(ctx context.Context, id int64) (model.ModerationCase, error) {
	if s.store == nil {
		return model.ModerationCase{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	return s.store.Cases().Get(ctx, id)
}

func (s *Service) dispatch(ctx context.Context, effects []model.Effect) {
	if s.effects == nil || len(effects) == 0 {
		return
	}
	s.effects.Dispatch(ctx, effects)
}

func targetOwner(ctx context.Context, st repo.Store, target model.TargetRef) (int64, error) {
	switch target.Kind {
	case enums.TargetListing:
		listing, err := st.Listings().Get(ctx, target.ID)
		if err != nil {
			return 0, err
		}
		return listing.OwnerID, nil
	case enums.TargetAccount:
		account, err := st.Accounts().Get(ctx, target.ID)
		if err != nil {
			return 0, err
		}
		return account.ID, nil
	}
	return 0, errs.Invalid("invalid moderation target")
}

func stillSuspended(ctx context.Context, st repo.Store, target model.TargetRef) (bool, error) {
	switch target.Kind {
	case enums.TargetListing:
		listing, err := st.Listings().GetForUpdate(ctx, target.ID)
		if err != nil {
			return false, err
		}
		return listing.ValidationStatus == enums.ValidationSuspended, nil
	case enums.TargetAccount:
		account, err := st.Accounts().GetForUpdate(ctx, target.ID)
		if err != nil {
			return false, err
		}
		return account.Status == enums.AccountSuspended, nil
	}
	return false, nil
}

func appendLog(ctx context.Context, st repo.Store, c model.ModerationCase, in DecideInput, from, to string, cascaded bool) error {
	_, err := st.ModerationLog().Append(ctx, model.ModerationLogEntry{
		CaseID:      c.ID,
		Target:      c.Target,
		Action:      in.Action,
		FromStatus:  from,
		ToStatus:    to,
		ModeratorID: in.ModeratorID,
		Reason:      in.Reason,
		Cascaded:    cascaded,
	})
	return err
}
