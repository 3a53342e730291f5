package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/repo"
	apptsvc "github.com/ivankudzin/automarket/backend/internal/services/appointments"
	authsvc "github.com/ivankudzin/automarket/backend/internal/services/auth"
	listingsvc "github.com/ivankudzin/automarket/backend/internal/services/listings"
	modsvc "github.com/ivankudzin/automarket/backend/internal/services/moderation"
	reportsvc "github.com/ivankudzin/automarket/backend/internal/services/reports"
	txsvc "github.com/ivankudzin/automarket/backend/internal/services/transactions"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	ListingService     *listingsvc.Service
	ReportIndex        *reportsvc.Index
	ModerationService  *modsvc.Service
	TransactionService *txsvc.Service
	AppointmentService *apptsvc.Service
	Notifications      repo.NotificationStore
	Logger             *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	listingsHandler := handlers.NewListingsHandler(deps.ListingService)
	reportsHandler := handlers.NewReportsHandler(deps.ReportIndex)
	casesHandler := handlers.NewCasesHandler(deps.ModerationService)
	transactionsHandler := handlers.NewTransactionsHandler(deps.TransactionService)
	appointmentsHandler := handlers.NewAppointmentsHandler(deps.AppointmentService)
	notificationsHandler := handlers.NewNotificationsHandler(deps.Notifications)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminRoleMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Post("/listings", listingsHandler.Submit)
		r.Get("/listings/{id}", listingsHandler.Get)

		r.Post("/reports", reportsHandler.File)

		r.Post("/transactions", transactionsHandler.Request)
		r.Get("/transactions/{id}", transactionsHandler.Get)
		r.Post("/transactions/{id}/confirm", transactionsHandler.Confirm)
		r.Post("/transactions/{id}/cancel", transactionsHandler.Cancel)
		r.Post("/transactions/{id}/return", transactionsHandler.Return)

		r.Post("/appointments", appointmentsHandler.Request)
		r.Get("/appointments/{id}", appointmentsHandler.Get)
		r.Post("/appointments/{id}/confirm", appointmentsHandler.Confirm)
		r.Post("/appointments/{id}/decline", appointmentsHandler.Decline)
		r.Post("/appointments/{id}/cancel", appointmentsHandler.Cancel)
		r.Post("/appointments/{id}/complete", appointmentsHandler.Complete)

		r.Get("/notifications", notificationsHandler.List)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRoleMW)
			r.Post("/cases", casesHandler.Open)
			r.Get("/cases/{id}", casesHandler.Get)
			r.Post("/cases/{id}/decide", casesHandler.Decide)
			r.Get("/reasons", casesHandler.Reasons)
			r.Get("/history", casesHandler.History)
		})
	})
}
