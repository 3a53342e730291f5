package reports

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

const maxJustificationLength = 2000

type RateLimiter interface {
	Allow(ctx context.Context, userID int64) (int64, bool, error)
}

// CaseOpener attaches a report to the target's open case, opening one when
// needed, inside the caller's unit of work.
type CaseOpener interface {
	EnsureOpenCase(ctx context.Context, st repo.Store, target model.TargetRef, reason string) (model.ModerationCase, error)
}

// Index files reports and resolves them when their target is moderated.
type Index struct {
	store   repo.TxRunner
	cases   CaseOpener
	limiter RateLimiter
	logger  *zap.Logger
	now     func() time.Time
}

type Dependencies struct {
	Store       repo.TxRunner
	Cases       CaseOpener
	RateLimiter RateLimiter
	Logger      *zap.Logger
}

type FileInput struct {
	ReporterID    int64
	Target        model.TargetRef
	Justification string
}

func NewIndex(deps Dependencies) *Index {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		store:   deps.Store,
		cases:   deps.Cases,
		limiter: deps.RateLimiter,
		logger:  logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AttachCases sets the case opener after construction, since the moderation
// service itself depends on the index.
func (x *Index) AttachCases(cases CaseOpener) {
	x.cases = cases
}

func (x *Index) File(ctx context.Context, in FileInput) (model.Report, error) {
	if x.store == nil {
		return model.Report{}, fmt.Errorf("report index dependencies are not configured")
	}
	if in.ReporterID <= 0 {
		return model.Report{}, errs.Invalid("invalid reporter id")
	}
	if !in.Target.Valid() {
		return model.Report{}, errs.Invalid("invalid report target")
	}
	justification := strings.TrimSpace(in.Justification)
	if justification == "" {
		return model.Report{}, errs.Invalid("justification is required")
	}
	if len(justification) > maxJustificationLength {
		return model.Report{}, errs.Invalid("justification is too long")
	}
	if in.Target.Kind == enums.TargetAccount && in.Target.ID == in.ReporterID {
		return model.Report{}, errs.ErrSelfReport
	}

	if x.limiter != nil {
		retryAfter, allowed, err := x.limiter.Allow(ctx, in.ReporterID)
		if err != nil {
			x.logger.Warn("report rate limiter unavailable", zap.Int64("reporter_id", in.ReporterID), zap.Error(err))
		} else if !allowed {
			x.logger.Info("report rate limited", zap.Int64("reporter_id", in.ReporterID), zap.Int64("retry_after_sec", retryAfter))
			return model.Report{}, errs.ErrTooManyReports
		}
	}

	var filed model.Report
	err := x.store.WithTx(ctx, func(txCtx context.Context, st repo.Store) error {
		if _, err := st.Accounts().Get(txCtx, in.ReporterID); err != nil {
			return err
		}
		if in.Target.Kind == enums.TargetListing {
			listing, err := st.Listings().Get(txCtx, in.Target.ID)
			if err != nil {
				return err
			}
			if listing.OwnerID == in.ReporterID {
				return errs.ErrSelfReport
			}
			if rules.ListingClosed(listing.ValidationStatus) {
				return errs.ErrTargetClosed
			}
		} else {
			account, err := st.Accounts().Get(txCtx, in.Target.ID)
			if err != nil {
				return err
			}
			if rules.AccountClosed(account.Status) {
				return errs.ErrTargetClosed
			}
		}

		pending, err := st.Reports().HasPending(txCtx, in.ReporterID, in.Target)
		if err != nil {
			return err
		}
		if pending {
			return errs.ErrDuplicateReport
		}

		report := model.Report{
			ReporterID:    in.ReporterID,
			Target:        in.Target,
			Justification: justification,
		}
		if x.cases != nil {
			c, err := x.cases.EnsureOpenCase(txCtx, st, in.Target, "reported by users")
			if err != nil {
				return err
			}
			report.CaseID = &c.ID
		}

		filed, err = st.Reports().Create(txCtx, report)
		return err
	})
	if err != nil {
		return model.Report{}, err
	}

	return filed, nil
}

// ResolveAllFor resolves every pending report against targets within st and
// returns the distinct reporter ids in first-seen order.
func (x *Index) ResolveAllFor(ctx context.Context, st repo.Store, targets ...model.TargetRef) ([]int64, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	resolved, err := st.Reports().ResolvePending(ctx, targets, enums.ReportResolved, x.now())
	if err != nil {
		return nil, err
	}

	reporters := make([]int64, 0, len(resolved))
	for _, r := range resolved {
		reporters = append(reporters, r.ReporterID)
	}
	return rules.DedupIDs(reporters), nil
}

func (x *Index) Get(ctx context.Context, id int64) (model.Report, error) {
	if x.store == nil {
		return model.Report{}, fmt.Errorf("report index dependencies are not configured")
	}
	return x.store.Reports().Get(ctx, id)
}
