// Package datafix holds the ad-hoc repair tools for operational data.
// Every fix previews the affected rows first; nothing is written unless
// the caller explicitly applies, and every applied fix leaves an audit
// row in data_fixes.
package datafix

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"lengolf/database"
	"lengolf/model"
)

// Report is the preview (and, when applied, the outcome) of one fix.
type Report struct {
	FixName      string
	Params       map[string]interface{}
	Header       []string
	Rows         [][]string
	RowsAffected int
	Applied      bool
}

func newReport(name string, params map[string]interface{}, header ...string) *Report {
	return &Report{FixName: name, Params: params, Header: header}
}

func (r *Report) addRow(cols ...string) {
	r.Rows = append(r.Rows, cols)
}

// audit writes the data_fixes row for an applied fix. Params marshal with
// sorted keys, so the audit trail is stable.
func (r *Report) audit(db database.DBTX) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("failed to encode fix params: %w", err)
	}
	return database.InsertDataFix(db, model.DataFix{
		FixName:      r.FixName,
		Params:       string(params),
		RowsAffected: r.RowsAffected,
	})
}

func staffBar(n int, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("scanning staff"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
