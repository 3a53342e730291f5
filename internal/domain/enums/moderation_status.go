package enums

type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationRejected  ValidationStatus = "rejected"
	ValidationSuspended ValidationStatus = "suspended"
	ValidationRestored  ValidationStatus = "restored"
	ValidationRetired   ValidationStatus = "retired"
	ValidationBanned    ValidationStatus = "banned"
)

type CaseAction string

const (
	ActionValidate CaseAction = "validate"
	ActionReject   CaseAction = "reject"
	ActionSuspend  CaseAction = "suspend"
	ActionRestore  CaseAction = "restore"
	ActionRetire   CaseAction = "retire"
	ActionBan      CaseAction = "ban"
)

func (a CaseAction) Valid() bool {
	switch a {
	case ActionValidate, ActionReject, ActionSuspend, ActionRestore, ActionRetire, ActionBan:
		return true
	}
	return false
}

type CaseStatus string

const (
	CaseOpen    CaseStatus = "open"
	CaseDecided CaseStatus = "decided"
)

type TargetKind string

const (
	TargetListing TargetKind = "listing"
	TargetAccount TargetKind = "account"
)

func (k TargetKind) Valid() bool {
	return k == TargetListing || k == TargetAccount
}
