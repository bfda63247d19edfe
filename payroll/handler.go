package payroll

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"lengolf/database"
	"lengolf/model"
	"lengolf/notify"
)

type createRunPayload struct {
	Month string `json:"month"`
	Note  string `json:"note"`
}

// RunsHandler lists runs (GET, optional ?month=) and opens drafts (POST).
func RunsHandler(db *sqlx.DB, calc *Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			runs, err := database.ListPayrollRuns(db, r.URL.Query().Get("month"))
			if err != nil {
				http.Error(w, "Failed to list payroll runs", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(runs)

		case http.MethodPost:
			var payload createRunPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			run, err := calc.CreateRun(payload.Month, payload.Note)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(run)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type runDetail struct {
	Run   model.PayrollRun    `json:"run"`
	Lines []model.PayrollLine `json:"lines"`
	Flags []model.PayrollFlag `json:"flags"`
}

// RunDetailHandler returns one run with its lines and flags.
func RunDetailHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		run, err := database.GetPayrollRun(db, runID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Run not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load run", http.StatusInternalServerError)
			return
		}
		lines, err := database.GetPayrollLines(db, runID)
		if err != nil {
			http.Error(w, "Failed to load lines", http.StatusInternalServerError)
			return
		}
		flags, err := database.GetPayrollFlags(db, runID)
		if err != nil {
			http.Error(w, "Failed to load flags", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runDetail{Run: run, Lines: lines, Flags: flags})
	}
}

// CalculateHandler recalculates a run in place.
func CalculateHandler(calc *Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := calc.Calculate(r.Context(), r.PathValue("id"))
		if err != nil {
			writeRunError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
	}
}

// FinalizeHandler locks a calculated run and pushes the summary to LINE when
// notifications are configured.
func FinalizeHandler(db *sqlx.DB, calc *Calculator, notifier *notify.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := calc.Finalize(r.PathValue("id"))
		if err != nil {
			writeRunError(w, err)
			return
		}

		lines, err := database.GetPayrollLines(db, run.ID)
		if err == nil {
			pushErr := notifier.Push(r.Context(), "", notify.PayrollFinalizedMessage(run, lines))
			if pushErr != nil && !errors.Is(pushErr, notify.ErrDisabled) {
				logger.Warn("payroll finalize push failed", zap.String("run", run.ID), zap.Error(pushErr))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
	}
}

// ExportHandler streams the review workbook.
func ExportHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		run, err := database.GetPayrollRun(db, runID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Run not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load run", http.StatusInternalServerError)
			return
		}
		lines, err := database.GetPayrollLines(db, runID)
		if err != nil {
			http.Error(w, "Failed to load lines", http.StatusInternalServerError)
			return
		}
		flags, err := database.GetPayrollFlags(db, runID)
		if err != nil {
			http.Error(w, "Failed to load flags", http.StatusInternalServerError)
			return
		}

		f, err := BuildWorkbook(run, lines, flags)
		if err != nil {
			http.Error(w, "Failed to build workbook", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll_%s.xlsx", run.Month))
		if err := f.Write(w); err != nil {
			logger.Warn("failed to stream payroll workbook", zap.String("run", runID), zap.Error(err))
		}
	}
}

type serviceChargePayload struct {
	Month       string  `json:"month"`
	TotalAmount float64 `json:"totalAmount"`
}

// ServiceChargeHandler reads (GET ?month=) and sets (PUT) the monthly pot.
func ServiceChargeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			month := r.URL.Query().Get("month")
			if month == "" {
				http.Error(w, "month query parameter is required", http.StatusBadRequest)
				return
			}
			pot, err := database.GetServiceChargePot(db, month)
			if err != nil {
				http.Error(w, "Failed to load service charge pot", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(pot)

		case http.MethodPut:
			var payload serviceChargePayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if payload.TotalAmount < 0 {
				http.Error(w, "totalAmount cannot be negative", http.StatusBadRequest)
				return
			}
			pot := model.ServiceChargePot{Month: payload.Month, TotalAmount: payload.TotalAmount}
			if err := database.UpsertServiceChargePot(db, pot); err != nil {
				http.Error(w, "Failed to save service charge pot", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(pot)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case err == sql.ErrNoRows:
		http.Error(w, "Run not found", http.StatusNotFound)
	case errors.Is(err, ErrRunFinalized):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
