package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"lengolf/database"
)

var (
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// Report is the outcome of one full diagnostic pass.
type Report struct {
	GeneratedAt string    `json:"generatedAt"`
	Checks      int       `json:"checks"`
	Findings    []Finding `json:"findings"`
}

// RunAll executes every registered check. A check that fails to run is
// itself reported as an ERROR finding rather than aborting the pass.
func RunAll(env Env) Report {
	checks := Checks()
	rep := Report{
		GeneratedAt: generatedAt(env),
		Checks:      len(checks),
		Findings:    []Finding{},
	}
	for _, c := range checks {
		rows, err := c.Run(env)
		if err != nil {
			rep.Findings = append(rep.Findings, Finding{
				Check:    c.Name,
				Severity: SeverityError,
				Subject:  "check failed",
				Detail:   err.Error(),
			})
			continue
		}
		for _, f := range rows {
			f.Check = c.Name
			if f.Severity == "" {
				f.Severity = c.Severity
			}
			rep.Findings = append(rep.Findings, f)
		}
	}
	return rep
}

func generatedAt(env Env) string {
	if env.Now.IsZero() {
		return database.UTCNow()
	}
	return env.Now.UTC().Format(time.RFC3339)
}

// HasErrors reports whether any finding carries ERROR severity.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r Report) countBySeverity() (errs, warns, infos int) {
	for _, f := range r.Findings {
		switch f.Severity {
		case SeverityError:
			errs++
		case SeverityWarn:
			warns++
		default:
			infos++
		}
	}
	return errs, warns, infos
}

// WriteTable renders the report for a terminal.
func WriteTable(w io.Writer, rep Report) error {
	if len(rep.Findings) == 0 {
		_, err := fmt.Fprintf(w, "all %d checks passed, no findings\n", rep.Checks)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Severity", "Check", "Subject", "Detail")
	for _, f := range rep.Findings {
		_ = table.Append(severityCell(f.Severity), f.Check, f.Subject, f.Detail)
	}
	if err := table.Render(); err != nil {
		return err
	}

	errs, warns, infos := rep.countBySeverity()
	_, err := fmt.Fprintf(w, "%d findings across %d checks: %d error, %d warn, %d info\n",
		len(rep.Findings), rep.Checks, errs, warns, infos)
	return err
}

func severityCell(severity string) string {
	switch severity {
	case SeverityError:
		return red.Sprint(severity)
	case SeverityWarn:
		return yellow.Sprint(severity)
	default:
		return cyan.Sprint(severity)
	}
}

// WriteJSON renders the report for machine consumers.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
