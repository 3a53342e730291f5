package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type listingRepo struct{ v view }

func (r listingRepo) Create(_ context.Context, l model.Listing) (model.Listing, error) {
	r.v.run(func(st *state) {
		now := r.v.db.now()
		l.ID = r.v.db.nextID()
		l.Version = 1
		l.Views = 0
		l.CreatedAt, l.UpdatedAt = now, now
		st.listings[l.ID] = l
	})
	return l, nil
}

func (r listingRepo) Get(_ context.Context, id int64) (model.Listing, error) {
	var (
		l  model.Listing
		ok bool
	)
	r.v.run(func(st *state) { l, ok = st.listings[id] })
	if !ok {
		return model.Listing{}, errs.ErrListingNotFound
	}
	return l, nil
}

func (r listingRepo) GetForUpdate(ctx context.Context, id int64) (model.Listing, error) {
	return r.Get(ctx, id)
}

func (r listingRepo) ListByOwnerForUpdate(_ context.Context, ownerID int64) ([]model.Listing, error) {
	var out []model.Listing
	r.v.run(func(st *state) {
		for _, l := range st.listings {
			if l.OwnerID == ownerID {
				out = append(out, l)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r listingRepo) Update(_ context.Context, l model.Listing) (model.Listing, error) {
	var err error
	r.v.run(func(st *state) {
		current, ok := st.listings[l.ID]
		if !ok || current.Version != l.Version {
			err = errs.ErrVersionConflict
			return
		}
		current.Title = l.Title
		current.Availability = l.Availability
		current.ValidationStatus = l.ValidationStatus
		current.Price = l.Price
		current.Negotiable = l.Negotiable
		current.Version++
		current.UpdatedAt = r.v.db.now()
		st.listings[l.ID] = current
		l = current
	})
	if err != nil {
		return model.Listing{}, err
	}
	return l, nil
}

func (r listingRepo) IncrementViews(_ context.Context, id int64) (int64, error) {
	var (
		views int64
		ok    bool
	)
	r.v.run(func(st *state) {
		var l model.Listing
		if l, ok = st.listings[id]; ok {
			l.Views++
			views = l.Views
			st.listings[id] = l
		}
	})
	if !ok {
		return 0, errs.ErrListingNotFound
	}
	return views, nil
}

type accountRepo struct{ v view }

func (r accountRepo) Create(_ context.Context, a model.Account) (model.Account, error) {
	var err error
	r.v.run(func(st *state) {
		for _, existing := range st.accounts {
			if strings.EqualFold(existing.Email, a.Email) {
				err = errs.Invalid("email is already registered")
				return
			}
		}
		now := r.v.db.now()
		a.ID = r.v.db.nextID()
		a.Version = 1
		a.CreatedAt, a.UpdatedAt = now, now
		st.accounts[a.ID] = a
	})
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (r accountRepo) Get(_ context.Context, id int64) (model.Account, error) {
	var (
		a  model.Account
		ok bool
	)
	r.v.run(func(st *state) { a, ok = st.accounts[id] })
	if !ok {
		return model.Account{}, errs.ErrAccountNotFound
	}
	return a, nil
}

func (r accountRepo) GetForUpdate(ctx context.Context, id int64) (model.Account, error) {
	return r.Get(ctx, id)
}

func (r accountRepo) Update(_ context.Context, a model.Account) (model.Account, error) {
	var err error
	r.v.run(func(st *state) {
		current, ok := st.accounts[a.ID]
		if !ok || current.Version != a.Version {
			err = errs.ErrVersionConflict
			return
		}
		a.Email = current.Email
		a.CreatedAt = current.CreatedAt
		a.Version = current.Version + 1
		a.UpdatedAt = r.v.db.now()
		st.accounts[a.ID] = a
	})
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

type caseRepo struct{ v view }

func (r caseRepo) Create(_ context.Context, c model.ModerationCase) (model.ModerationCase, error) {
	var err error
	r.v.run(func(st *state) {
		for _, existing := range st.cases {
			if existing.Target == c.Target && existing.Status == enums.CaseOpen {
				err = errs.ErrDuplicateCase
				return
			}
		}
		now := r.v.db.now()
		c.ID = r.v.db.nextID()
		c.Status = enums.CaseOpen
		c.Action = nil
		c.DecidedBy, c.DecidedAt = nil, nil
		c.Version = 1
		c.CreatedAt, c.UpdatedAt = now, now
		st.cases[c.ID] = c
	})
	if err != nil {
		return model.ModerationCase{}, err
	}
	return c, nil
}

func (r caseRepo) Get(_ context.Context, id int64) (model.ModerationCase, error) {
	var (
		c  model.ModerationCase
		ok bool
	)
	r.v.run(func(st *state) { c, ok = st.cases[id] })
	if !ok {
		return model.ModerationCase{}, errs.ErrCaseNotFound
	}
	return c, nil
}

func (r caseRepo) GetForUpdate(ctx context.Context, id int64) (model.ModerationCase, error) {
	return r.Get(ctx, id)
}

func (r caseRepo) FindOpenForUpdate(_ context.Context, target model.TargetRef) (model.ModerationCase, bool, error) {
	var (
		found model.ModerationCase
		ok    bool
	)
	r.v.run(func(st *state) {
		for _, c := range st.cases {
			if c.Target == target && c.Status == enums.CaseOpen {
				found, ok = c, true
				return
			}
		}
	})
	return found, ok, nil
}

func (r caseRepo) Update(_ context.Context, c model.ModerationCase) (model.ModerationCase, error) {
	var err error
	r.v.run(func(st *state) {
		current, ok := st.cases[c.ID]
		if !ok || current.Version != c.Version {
			err = errs.ErrVersionConflict
			return
		}
		c.Target = current.Target
		c.OpenedBy = current.OpenedBy
		c.CreatedAt = current.CreatedAt
		c.Version = current.Version + 1
		c.UpdatedAt = r.v.db.now()
		st.cases[c.ID] = c
	})
	if err != nil {
		return model.ModerationCase{}, err
	}
	return c, nil
}

func (r caseRepo) SupersedeExpiries(_ context.Context, target model.TargetRef) (int, error) {
	n := 0
	r.v.run(func(st *state) {
		for id, c := range st.cases {
			if c.Target != target || c.Status != enums.CaseDecided || c.Action == nil || *c.Action != enums.ActionSuspend {
				continue
			}
			if c.ExpiryHandled || c.ExpiresAt == nil {
				continue
			}
			c.ExpiryHandled = true
			c.Version++
			c.UpdatedAt = r.v.db.now()
			st.cases[id] = c
			n++
		}
	})
	return n, nil
}

func (r caseRepo) ListExpiredSuspensions(_ context.Context, now time.Time, limit int) ([]model.ModerationCase, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []model.ModerationCase
	r.v.run(func(st *state) {
		for _, c := range st.cases {
			if c.Status != enums.CaseDecided || c.Action == nil || *c.Action != enums.ActionSuspend {
				continue
			}
			if c.ExpiryHandled || c.ExpiresAt == nil || c.ExpiresAt.After(now) {
				continue
			}
			out = append(out, c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(*out[j].ExpiresAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type logRepo struct{ v view }

func (r logRepo) Append(_ context.Context, e model.ModerationLogEntry) (model.ModerationLogEntry, error) {
	r.v.run(func(st *state) {
		e.ID = r.v.db.nextID()
		e.CreatedAt = r.v.db.now()
		st.log = append(st.log, e)
	})
	return e, nil
}

func (r logRepo) ListByTarget(_ context.Context, target model.TargetRef) ([]model.ModerationLogEntry, error) {
	var out []model.ModerationLogEntry
	r.v.run(func(st *state) {
		for _, e := range st.log {
			if e.Target == target {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

type reportRepo struct{ v view }

func (r reportRepo) Create(_ context.Context, rep model.Report) (model.Report, error) {
	rep.Justification = strings.TrimSpace(rep.Justification)
	if rep.Justification == "" {
		return model.Report{}, errs.Invalid("justification is required")
	}

	var err error
	r.v.run(func(st *state) {
		for _, existing := range st.reports {
			if existing.ReporterID == rep.ReporterID && existing.Target == rep.Target && existing.Status == enums.ReportPending {
				err = errs.ErrDuplicateReport
				return
			}
		}
		now := r.v.db.now()
		rep.ID = r.v.db.nextID()
		rep.Status = enums.ReportPending
		rep.ResolvedAt = nil
		rep.Version = 1
		rep.CreatedAt, rep.UpdatedAt = now, now
		st.reports[rep.ID] = rep
	})
	if err != nil {
		return model.Report{}, err
	}
	return rep, nil
}

func (r reportRepo) Get(_ context.Context, id int64) (model.Report, error) {
	var (
		rep model.Report
		ok  bool
	)
	r.v.run(func(st *state) { rep, ok = st.reports[id] })
	if !ok {
		return model.Report{}, errs.ErrReportNotFound
	}
	return rep, nil
}

func (r reportRepo) HasPending(_ context.Context, reporterID int64, target model.TargetRef) (bool, error) {
	found := false
	r.v.run(func(st *state) {
		for _, rep := range st.reports {
			if rep.ReporterID == reporterID && rep.Target == target && rep.Status == enums.ReportPending {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r reportRepo) ResolvePending(_ context.Context, targets []model.TargetRef, status enums.ReportStatus, now time.Time) ([]model.Report, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	wanted := make(map[model.TargetRef]struct{}, len(targets))
	for _, t := range targets {
		wanted[t] = struct{}{}
	}

	var out []model.Report
	r.v.run(func(st *state) {
		for id, rep := range st.reports {
			if rep.Status != enums.ReportPending {
				continue
			}
			if _, ok := wanted[rep.Target]; !ok {
				continue
			}
			resolvedAt := now.UTC()
			rep.Status = status
			rep.ResolvedAt = &resolvedAt
			rep.Version++
			rep.UpdatedAt = r.v.db.now()
			st.reports[id] = rep
			out = append(out, rep)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r reportRepo) CountPending(_ context.Context, target model.TargetRef) (int, error) {
	count := 0
	r.v.run(func(st *state) {
		for _, rep := range st.reports {
			if rep.Target == target && rep.Status == enums.ReportPending {
				count++
			}
		}
	})
	return count, nil
}

type transactionRepo struct{ v view }

func (r transactionRepo) Create(_ context.Context, t model.Transaction) (model.Transaction, error) {
	r.v.run(func(st *state) {
		now := r.v.db.now()
		t.ID = r.v.db.nextID()
		t.Version = 1
		t.CreatedAt, t.UpdatedAt = now, now
		st.transactions[t.ID] = t
	})
	return t, nil
}

func (r transactionRepo) Get(_ context.Context, id int64) (model.Transaction, error) {
	var (
		t  model.Transaction
		ok bool
	)
	r.v.run(func(st *state) { t, ok = st.transactions[id] })
	if !ok {
		return model.Transaction{}, errs.ErrTransactionNotFound
	}
	return t, nil
}

func (r transactionRepo) GetForUpdate(ctx context.Context, id int64) (model.Transaction, error) {
	return r.Get(ctx, id)
}

func (r transactionRepo) Update(_ context.Context, t model.Transaction) (model.Transaction, error) {
	var err error
	r.v.run(func(st *state) {
		current, ok := st.transactions[t.ID]
		if !ok || current.Version != t.Version {
			err = errs.ErrVersionConflict
			return
		}
		t.CalendarEventID = current.CalendarEventID
		t.CreatedAt = current.CreatedAt
		t.Version = current.Version + 1
		t.UpdatedAt = r.v.db.now()
		st.transactions[t.ID] = t
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

func (r transactionRepo) SetCalendarEvent(_ context.Context, id int64, eventID string) error {
	ok := false
	r.v.run(func(st *state) {
		var t model.Transaction
		if t, ok = st.transactions[id]; ok {
			value := eventID
			t.CalendarEventID = &value
			st.transactions[id] = t
		}
	})
	if !ok {
		return errs.ErrTransactionNotFound
	}
	return nil
}

type appointmentRepo struct{ v view }

func (r appointmentRepo) Create(_ context.Context, a model.Appointment) (model.Appointment, error) {
	r.v.run(func(st *state) {
		now := r.v.db.now()
		a.ID = r.v.db.nextID()
		a.Version = 1
		a.CreatedAt, a.UpdatedAt = now, now
		st.appointments[a.ID] = a
	})
	return a, nil
}

func (r appointmentRepo) Get(_ context.Context, id int64) (model.Appointment, error) {
	var (
		a  model.Appointment
		ok bool
	)
	r.v.run(func(st *state) { a, ok = st.appointments[id] })
	if !ok {
		return model.Appointment{}, errs.ErrAppointmentNotFound
	}
	return a, nil
}

func (r appointmentRepo) GetForUpdate(ctx context.Context, id int64) (model.Appointment, error) {
	return r.Get(ctx, id)
}

func (r appointmentRepo) Update(_ context.Context, a model.Appointment) (model.Appointment, error) {
	var err error
	r.v.run(func(st *state) {
		current, ok := st.appointments[a.ID]
		if !ok || current.Version != a.Version {
			err = errs.ErrVersionConflict
			return
		}
		a.CreatedAt = current.CreatedAt
		a.Version = current.Version + 1
		a.UpdatedAt = r.v.db.now()
		st.appointments[a.ID] = a
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

type notificationRepo struct{ v view }

func (r notificationRepo) Insert(_ context.Context, n model.StoredNotification) (model.StoredNotification, bool, error) {
	created := false
	r.v.run(func(st *state) {
		for _, existing := range st.notifications {
			if existing.EffectID == n.EffectID {
				return
			}
		}
		n.ID = r.v.db.nextID()
		n.CreatedAt = r.v.db.now()
		st.notifications[n.ID] = n
		created = true
	})
	if !created {
		return model.StoredNotification{}, false, nil
	}
	return n, true, nil
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID int64, limit int) ([]model.StoredNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []model.StoredNotification
	r.v.run(func(st *state) {
		for _, n := range st.notifications {
			if n.RecipientID == recipientID {
				out = append(out, n)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
