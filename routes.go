package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"lengolf/coaching"
	"lengolf/config"
	"lengolf/database"
	"lengolf/faq"
	"lengolf/inventory"
	"lengolf/invoice"
	"lengolf/notify"
	"lengolf/payroll"
	"lengolf/posreview"
	"lengolf/schedule"
	"lengolf/timeclock"
)

// Deps is everything the HTTP surface needs. Handlers that switch on the
// method internally are registered on bare patterns; the rest use the
// method-qualified form.
type Deps struct {
	DB       *sqlx.DB
	Loc      *time.Location
	Cfg      config.Config
	Calc     *payroll.Calculator
	Invoices *invoice.Service
	Notifier *notify.Client
	Logger   *zap.Logger
}

func SetupRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		version, err := database.SchemaVersion(d.DB)
		if err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "schema": version})
	})

	// Time clock.
	mux.HandleFunc("POST /api/time/punch", timeclock.PunchHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/time/status", timeclock.StatusHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/time/entries", timeclock.EntriesHandler(d.DB, d.Loc))

	// Payroll.
	mux.HandleFunc("/api/payroll/runs", payroll.RunsHandler(d.DB, d.Calc))
	mux.HandleFunc("GET /api/payroll/runs/{id}", payroll.RunDetailHandler(d.DB))
	mux.HandleFunc("POST /api/payroll/runs/{id}/calculate", payroll.CalculateHandler(d.Calc))
	mux.HandleFunc("POST /api/payroll/runs/{id}/finalize", payroll.FinalizeHandler(d.DB, d.Calc, d.Notifier, d.Logger))
	mux.HandleFunc("GET /api/payroll/runs/{id}/export", payroll.ExportHandler(d.DB, d.Logger))
	mux.HandleFunc("/api/payroll/service-charge", payroll.ServiceChargeHandler(d.DB))

	// Scheduling.
	mux.HandleFunc("/api/schedules", schedule.SchedulesHandler(d.DB, d.Loc))
	mux.HandleFunc("/api/schedules/{id}", schedule.ScheduleItemHandler(d.DB))
	mux.HandleFunc("GET /api/schedules/week", schedule.WeekHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/schedules/conflicts", schedule.ConflictsHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/schedules/variance", schedule.VarianceHandler(d.DB, d.Loc, schedule.VarianceOptions{
		Grace:   time.Duration(d.Cfg.Payroll.ScheduleGraceMinutes) * time.Minute,
		Pairing: pairingOptions(d.Cfg),
	}))

	// Inventory.
	mux.HandleFunc("/api/inventory/products", inventory.ProductsHandler(d.DB))
	mux.HandleFunc("PUT /api/inventory/products/{id}", inventory.ProductItemHandler(d.DB))
	mux.HandleFunc("POST /api/inventory/counts", inventory.CountsHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/inventory/report", inventory.ReportHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/inventory/low-stock", inventory.LowStockHandler(d.DB, d.Loc))

	// POS review.
	mux.HandleFunc("GET /api/pos/summary", posreview.SummaryHandler(d.DB, d.Loc))
	mux.HandleFunc("GET /api/pos/anomalies", posreview.AnomaliesHandler(d.DB, d.Loc, posreview.AnomalyOptions{
		VenueOpen:  d.Cfg.VenueOpen,
		VenueClose: d.Cfg.VenueClose,
	}))
	mux.HandleFunc("POST /api/pos/reconcile", posreview.ReconcileHandler(d.DB, d.Loc, posreview.ReconcileOptions{
		CardMethods:  d.Cfg.POS.CardMethods,
		ToleranceTHB: d.Cfg.POS.ReconcileToleranceTHB,
	}))

	// Coaching.
	mux.HandleFunc("GET /api/coaching/slots", coaching.SlotsHandler(d.DB, d.Loc))
	mux.HandleFunc("POST /api/coaching/bookings", coaching.BookingsHandler(d.DB))
	mux.HandleFunc("POST /api/coaching/bookings/{id}/cancel", coaching.CancelHandler(d.DB))
	mux.HandleFunc("GET /api/coaching/double-bookings", coaching.DoubleBookingsHandler(d.DB, d.Loc))

	// FAQ.
	mux.HandleFunc("GET /api/faq/search", faq.SearchHandler(d.DB))

	// Suppliers, settings and invoices.
	mux.HandleFunc("/api/settings", invoice.SettingsHandler(d.DB))
	mux.HandleFunc("/api/suppliers", invoice.SuppliersHandler(d.DB))
	mux.HandleFunc("/api/suppliers/{id}", invoice.SupplierItemHandler(d.DB))
	mux.HandleFunc("/api/invoices", invoice.InvoicesHandler(d.Invoices, d.DB))
	mux.HandleFunc("GET /api/invoices/recent", invoice.RecentPDFsHandler(d.Cfg.InvoicesDir))
}
