package enums

type TransactionStatus string

const (
	TransactionPending        TransactionStatus = "pending"
	TransactionConfirmedByOne TransactionStatus = "confirmed_by_one"
	TransactionCompleted      TransactionStatus = "completed"
	TransactionReturned       TransactionStatus = "returned"
	TransactionCancelled      TransactionStatus = "cancelled"
)

// PartyRole identifies which side of a transaction or appointment is acting.
type PartyRole string

const (
	PartyRequester PartyRole = "requester"
	PartyOwner     PartyRole = "owner"
)

func (r PartyRole) Valid() bool {
	return r == PartyRequester || r == PartyOwner
}

type AppointmentKind string

const (
	AppointmentVisit        AppointmentKind = "visit"
	AppointmentTestDrive    AppointmentKind = "test_drive"
	AppointmentFirstContact AppointmentKind = "first_contact"
)

func (k AppointmentKind) Valid() bool {
	switch k {
	case AppointmentVisit, AppointmentTestDrive, AppointmentFirstContact:
		return true
	}
	return false
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentDeclined  AppointmentStatus = "declined"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)
