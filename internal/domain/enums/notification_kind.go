package enums

type NotificationKind string

const (
	NotifyTargetModerated      NotificationKind = "target_moderated"
	NotifyReportResolved       NotificationKind = "report_resolved"
	NotifyCaseOpened           NotificationKind = "case_opened"
	NotifyTransactionRequested NotificationKind = "transaction_requested"
	NotifyTransactionConfirmed NotificationKind = "transaction_confirmed"
	NotifyTransactionCompleted NotificationKind = "transaction_completed"
	NotifyTransactionCancelled NotificationKind = "transaction_cancelled"
	NotifyRentalReturned       NotificationKind = "rental_returned"
	NotifyAppointmentRequested NotificationKind = "appointment_requested"
	NotifyAppointmentConfirmed NotificationKind = "appointment_confirmed"
	NotifyAppointmentDeclined  NotificationKind = "appointment_declined"
	NotifyAppointmentCancelled NotificationKind = "appointment_cancelled"
	NotifyAppointmentCompleted NotificationKind = "appointment_completed"
)

type EffectKind string

const (
	EffectNotification  EffectKind = "notification"
	EffectCalendarEvent EffectKind = "calendar_event"
)
