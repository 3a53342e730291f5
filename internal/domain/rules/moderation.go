package rules

import (
	"fmt"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

var listingTransitions = map[enums.ValidationStatus]map[enums.CaseAction]enums.ValidationStatus{
	enums.ValidationPending: {
		enums.ActionValidate: enums.ValidationValidated,
		enums.ActionReject:   enums.ValidationRejected,
	},
	enums.ValidationValidated: {
		enums.ActionSuspend: enums.ValidationSuspended,
		enums.ActionRetire:  enums.ValidationRetired,
	},
	enums.ValidationRestored: {
		enums.ActionSuspend: enums.ValidationSuspended,
		enums.ActionRetire:  enums.ValidationRetired,
	},
	enums.ValidationSuspended: {
		enums.ActionRestore: enums.ValidationRestored,
		enums.ActionRetire:  enums.ValidationRetired,
	},
}

var accountTransitions = map[enums.AccountStatus]map[enums.CaseAction]enums.AccountStatus{
	enums.AccountActive: {
		enums.ActionSuspend: enums.AccountSuspended,
		enums.ActionBan:     enums.AccountBanned,
	},
	enums.AccountPending: {
		enums.ActionSuspend: enums.AccountSuspended,
		enums.ActionBan:     enums.AccountBanned,
	},
	enums.AccountSuspended: {
		enums.ActionRestore: enums.AccountActive,
		enums.ActionBan:     enums.AccountBanned,
	},
}

// AllowedListingActions lists the actions legal from a listing validation status.
func AllowedListingActions(current enums.ValidationStatus) []enums.CaseAction {
	return sortedActions(listingTransitions[current])
}

// AllowedAccountActions lists the actions legal from an account status.
func AllowedAccountActions(current enums.AccountStatus) []enums.CaseAction {
	out := make([]enums.CaseAction, 0, 2)
	for _, a := range actionOrder {
		if _, ok := accountTransitions[current][a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ListingClosed reports whether no moderation action can follow v.
func ListingClosed(v enums.ValidationStatus) bool {
	return len(listingTransitions[v]) == 0
}

// AccountClosed reports whether no moderation action can follow status.
func AccountClosed(status enums.AccountStatus) bool {
	return len(accountTransitions[status]) == 0
}

var actionOrder = []enums.CaseAction{
	enums.ActionValidate,
	enums.ActionReject,
	enums.ActionSuspend,
	enums.ActionRestore,
	enums.ActionRetire,
	enums.ActionBan,
}

func sortedActions(m map[enums.CaseAction]enums.ValidationStatus) []enums.CaseAction {
	out := make([]enums.CaseAction, 0, len(m))
	for _, a := range actionOrder {
		if _, ok := m[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ApplyListingAction returns the listing as it must look after action.
func ApplyListingAction(l model.Listing, action enums.CaseAction) (model.Listing, error) {
	next, ok := listingTransitions[l.ValidationStatus][action]
	if !ok {
		return model.Listing{}, illegal(string(l.ValidationStatus), action, AllowedListingActions(l.ValidationStatus))
	}
	l.Availability = AvailabilityFor(next, l.Availability)
	l.ValidationStatus = next
	return l, nil
}

// ApplyAccountAction returns the account as it must look after action.
func ApplyAccountAction(a model.Account, action enums.CaseAction) (model.Account, error) {
	next, ok := accountTransitions[a.Status][action]
	if !ok {
		return model.Account{}, illegal(string(a.Status), action, AllowedAccountActions(a.Status))
	}
	a.Status = next
	return a, nil
}

// BanListing forces a listing into the banned state regardless of its own
// legality table. ok is false when the listing is already banned.
func BanListing(l model.Listing) (model.Listing, bool) {
	next := AvailabilityFor(enums.ValidationBanned, l.Availability)
	if l.ValidationStatus == enums.ValidationBanned && l.Availability == next {
		return l, false
	}
	l.ValidationStatus = enums.ValidationBanned
	l.Availability = next
	return l, true
}

func illegal(from string, action enums.CaseAction, allowed []enums.CaseAction) error {
	return fmt.Errorf("%w: %s from %s (allowed: %v)", errs.ErrActionNotAllowed, action, from, allowed)
}

// ModerationEffects builds the notifications a decision emits: one
// TargetModerated to the target owner and one ReportResolved per distinct
// reporter.
func ModerationEffects(c model.ModerationCase, action enums.CaseAction, ownerID int64, reporterIDs []int64) []model.Effect {
	effects := make([]model.Effect, 0, len(reporterIDs)+1)

	if ownerID > 0 {
		effects = append(effects, model.NotificationEffect(
			fmt.Sprintf("case:%d:moderated:%d", c.ID, ownerID),
			model.Notification{
				RecipientID: ownerID,
				Kind:        enums.NotifyTargetModerated,
				Title:       moderatedTitle(c.Target.Kind, action),
				Message:     moderatedMessage(c.Target, action, c.Reason),
				Payload: map[string]any{
					"case_id":     c.ID,
					"target_type": string(c.Target.Kind),
					"target_id":   c.Target.ID,
					"action":      string(action),
					"reason":      c.Reason,
				},
			},
		))
	}

	for _, reporterID := range DedupIDs(reporterIDs) {
		effects = append(effects, model.NotificationEffect(
			fmt.Sprintf("case:%d:report_resolved:%d", c.ID, reporterID),
			model.Notification{
				RecipientID: reporterID,
				Kind:        enums.NotifyReportResolved,
				Title:       "Your report has been handled",
				Message:     fmt.Sprintf("A moderator reviewed the %s you reported.", c.Target.Kind),
				Payload: map[string]any{
					"case_id":     c.ID,
					"target_type": string(c.Target.Kind),
					"target_id":   c.Target.ID,
				},
			},
		))
	}

	return effects
}

// DedupIDs drops zero and repeated ids while keeping first-seen order.
func DedupIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func moderatedTitle(kind enums.TargetKind, action enums.CaseAction) string {
	switch action {
	case enums.ActionValidate:
		return "Your listing was approved"
	case enums.ActionReject:
		return "Your listing was rejected"
	case enums.ActionRetire:
		return "Your listing was retired"
	case enums.ActionRestore:
		if kind == enums.TargetAccount {
			return "Your account was restored"
		}
		return "Your listing was restored"
	case enums.ActionSuspend:
		if kind == enums.TargetAccount {
			return "Your account was suspended"
		}
		return "Your listing was suspended"
	case enums.ActionBan:
		return "Your account was banned"
	}
	return "Moderation decision"
}

func moderatedMessage(target model.TargetRef, action enums.CaseAction, reason string) string {
	if reason == "" {
		return fmt.Sprintf("Moderation applied %q to your %s #%d.", action, target.Kind, target.ID)
	}
	return fmt.Sprintf("Moderation applied %q to your %s #%d: %s", action, target.Kind, target.ID, reason)
}

// CaseOpenedEffect tells the target owner that a case was opened.
func CaseOpenedEffect(c model.ModerationCase, ownerID int64) model.Effect {
	return model.NotificationEffect(
		fmt.Sprintf("case:%d:opened:%d", c.ID, ownerID),
		model.Notification{
			RecipientID: ownerID,
			Kind:        enums.NotifyCaseOpened,
			Title:       fmt.Sprintf("Your %s is under review", c.Target.Kind),
			Message:     fmt.Sprintf("A moderator will review your %s #%d.", c.Target.Kind, c.Target.ID),
			Payload: map[string]any{
				"case_id":     c.ID,
				"target_type": string(c.Target.Kind),
				"target_id":   c.Target.ID,
			},
		},
	)
}
