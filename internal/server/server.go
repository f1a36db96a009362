// Package server provides the HTTP server for the EMI admin API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	apierrors "github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/handler"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/health"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/metrics"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/middleware"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// ServiceName and Version identify the API on GET /api/.
const (
	ServiceName = "EMI Device Lock API"
	Version     = "1.0.0"
)

// Services bundles the application services the server exposes.
type Services struct {
	Admins        *service.AdminService
	Clients       *service.ClientService
	Devices       *service.DeviceService
	Loans         *service.LoanService
	Reports       *service.ReportService
	Reminders     *service.ReminderService
	Notifications *service.NotificationService
	Support       *service.SupportService
	Contracts     *service.ContractService
	Sweeps        *service.SweepService
}

// Server represents the HTTP server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	services     Services
	healthCheck  *health.Check
	metrics      *metrics.Metrics
	errorHandler *apierrors.Handler
	logger       *zap.Logger
	cfg          *config.Config
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, services Services, healthCheck *health.Check, m *metrics.Metrics, logger *zap.Logger) *Server {
	router := mux.NewRouter()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		router:       router,
		httpServer:   httpServer,
		services:     services,
		healthCheck:  healthCheck,
		metrics:      m,
		errorHandler: apierrors.NewHandler(logger),
		logger:       logger,
		cfg:          cfg,
	}
}

// SetupRoutes configures all HTTP routes.
func (s *Server) SetupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.CORS(s.cfg.CORS.AllowedOrigins),
		metrics.Middleware(s.metrics),
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	adminH := handler.NewAdminHandler(s.services.Admins, s.errorHandler, s.logger)
	clientH := handler.NewClientHandler(s.services.Clients, s.services.Admins, s.metrics, s.errorHandler, s.logger)
	deviceH := handler.NewDeviceHandler(s.services.Devices, s.errorHandler, s.logger)
	loanH := handler.NewLoanHandler(s.services.Loans, s.services.Sweeps, s.services.Admins, s.metrics, s.errorHandler, s.logger)
	reportH := handler.NewReportHandler(s.services.Reports, s.services.Admins, s.errorHandler, s.logger)
	reminderH := handler.NewReminderHandler(s.services.Reminders, s.services.Admins, s.metrics, s.errorHandler, s.logger)
	notificationH := handler.NewNotificationHandler(s.services.Notifications, s.services.Admins, s.errorHandler, s.logger)
	supportH := handler.NewSupportHandler(s.services.Support, s.services.Admins, s.errorHandler, s.logger)
	contractH := handler.NewContractHandler(s.services.Contracts, s.services.Admins, s.errorHandler, s.logger)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/", s.rootHandler).Methods(http.MethodGet)
	api.HandleFunc("", s.rootHandler).Methods(http.MethodGet)
	api.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)

	// Admin accounts
	api.HandleFunc("/admin/register", adminH.Register).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", adminH.Login).Methods(http.MethodPost)
	api.HandleFunc("/admin/verify/{token}", adminH.Verify).Methods(http.MethodGet)
	api.HandleFunc("/admin/list", adminH.List).Methods(http.MethodGet)
	api.HandleFunc("/admin/list-with-credits", adminH.List).Methods(http.MethodGet)
	api.HandleFunc("/admin/change-password", adminH.ChangePassword).Methods(http.MethodPost)
	api.HandleFunc("/admin/update-profile", adminH.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/admin/profile", adminH.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/admin/credits", adminH.Credits).Methods(http.MethodGet)
	api.HandleFunc("/admin/credits/assign", adminH.AssignCredits).Methods(http.MethodPost)
	api.HandleFunc("/admin/{admin_id}", adminH.Delete).Methods(http.MethodDelete)

	// Clients. Fixed paths before the {client_id} wildcard.
	api.HandleFunc("/clients", clientH.Create).Methods(http.MethodPost)
	api.HandleFunc("/clients", clientH.List).Methods(http.MethodGet)
	api.HandleFunc("/clients/silent", clientH.Silent).Methods(http.MethodGet)
	api.HandleFunc("/clients/export", clientH.Export).Methods(http.MethodGet)
	api.HandleFunc("/clients/locations", clientH.Locations).Methods(http.MethodGet)
	api.HandleFunc("/clients/bulk-operation", clientH.BulkOperation).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}", clientH.Get).Methods(http.MethodGet)
	api.HandleFunc("/clients/{client_id}", clientH.Update).Methods(http.MethodPut)
	api.HandleFunc("/clients/{client_id}", clientH.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/clients/{client_id}/generate-code", clientH.GenerateCode).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/lock", clientH.Lock).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/unlock", clientH.Unlock).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/warning", clientH.Warning).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/allow-uninstall", clientH.AllowUninstall).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/report-tamper", clientH.ReportTamper).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/report-reboot", clientH.ReportReboot).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/late-fees", clientH.LateFees).Methods(http.MethodGet)
	api.HandleFunc("/clients/{client_id}/reminders", reminderH.ListByClient).Methods(http.MethodGet)

	// Device app
	api.HandleFunc("/device/register", deviceH.Register).Methods(http.MethodPost)
	api.HandleFunc("/device/status/{client_id}", deviceH.Status).Methods(http.MethodGet)
	api.HandleFunc("/device/location", deviceH.UpdateLocation).Methods(http.MethodPost)
	api.HandleFunc("/device/push-token", deviceH.UpdatePushToken).Methods(http.MethodPost)
	api.HandleFunc("/device/clear-warning/{client_id}", deviceH.ClearWarning).Methods(http.MethodPost)
	api.HandleFunc("/device/report-admin-status", deviceH.ReportAdminStatus).Methods(http.MethodPost)

	// Loan plans and calculator
	api.HandleFunc("/loan-plans", loanH.CreatePlan).Methods(http.MethodPost)
	api.HandleFunc("/loan-plans", loanH.ListPlans).Methods(http.MethodGet)
	api.HandleFunc("/loan-plans/{plan_id}", loanH.GetPlan).Methods(http.MethodGet)
	api.HandleFunc("/loan-plans/{plan_id}", loanH.UpdatePlan).Methods(http.MethodPut)
	api.HandleFunc("/loan-plans/{plan_id}", loanH.DeletePlan).Methods(http.MethodDelete)
	api.HandleFunc("/calculator/compare", loanH.Compare).Methods(http.MethodGet)
	api.HandleFunc("/calculator/amortization", loanH.Amortization).Methods(http.MethodPost)

	// Loans and payments
	api.HandleFunc("/loans/{client_id}/setup", loanH.SetupLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{client_id}/payments", loanH.RecordPayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{client_id}/payments", loanH.Payments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{client_id}/schedule", loanH.Schedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{client_id}/settings", loanH.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/payments/history/{client_id}", loanH.PaymentHistory).Methods(http.MethodGet)
	api.HandleFunc("/late-fees/calculate-all", loanH.CalculateLateFees).Methods(http.MethodPost)

	// Reports and analytics
	api.HandleFunc("/reports/collection", reportH.Collection).Methods(http.MethodGet)
	api.HandleFunc("/reports/clients", reportH.Clients).Methods(http.MethodGet)
	api.HandleFunc("/reports/financial", reportH.Financial).Methods(http.MethodGet)
	api.HandleFunc("/stats", reportH.Stats).Methods(http.MethodGet)
	api.HandleFunc("/analytics/dashboard", reportH.Dashboard).Methods(http.MethodGet)

	// Notifications
	api.HandleFunc("/notifications", notificationH.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/mark-read", notificationH.MarkRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/mark-all-read", notificationH.MarkAllRead).Methods(http.MethodPost)

	// Support chat
	api.HandleFunc("/support/messages/{client_id}", supportH.Messages).Methods(http.MethodGet)
	api.HandleFunc("/support/messages/{client_id}", supportH.Send).Methods(http.MethodPost)
	api.HandleFunc("/support/messages/{client_id}/mark-read", supportH.MarkRead).Methods(http.MethodPost)

	// Reminders
	api.HandleFunc("/reminders", reminderH.List).Methods(http.MethodGet)
	api.HandleFunc("/reminders/pending", reminderH.Pending).Methods(http.MethodGet)
	api.HandleFunc("/reminders/create-all", reminderH.CreateAll).Methods(http.MethodPost)
	api.HandleFunc("/reminders/send-push", reminderH.SendPush).Methods(http.MethodPost)
	api.HandleFunc("/reminders/send-single/{client_id}", reminderH.SendSingle).Methods(http.MethodPost)
	api.HandleFunc("/reminders/{reminder_id}/mark-sent", reminderH.MarkSent).Methods(http.MethodPost)

	// Contracts
	api.HandleFunc("/contracts/{client_id}/preview", contractH.Preview).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{client_id}/download", contractH.Download).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{client_id}/send-email", contractH.SendEmail).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.HandleError(w, r, apierrors.NotFound("endpoint not found"))
	})

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.HandleError(w, r, apierrors.Validation("method not allowed"))
	})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"name":%q,"version":%q}`, ServiceName, Version)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the http.Handler for the server.
func (s *Server) GetHandler() http.Handler {
	return s.router
}
