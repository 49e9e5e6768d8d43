package telemetry

// Status values carried by a validation report.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Report summarizes one validation run. It is the only channel through which
// non-fatal anomalies reach the caller: invalid timestamps, redacted cells and
// dropped rows surface here as warnings, never as errors. A report is built
// once per invocation and not mutated afterwards.
type Report struct {
	Status          string   `json:"status"`
	Warnings        []string `json:"warnings"`
	Subsystems      []string `json:"subsystems_found"`
	Payloads        []string `json:"payloads_found"`
	RedactedColumns []string `json:"redacted_cols_found"`
}

// Failed reports whether validation aborted without producing a table.
func (r Report) Failed() bool { return r.Status != StatusSuccess }

func newReport() Report {
	return Report{
		Status:          StatusFailure,
		Warnings:        []string{},
		Subsystems:      []string{},
		Payloads:        []string{},
		RedactedColumns: []string{},
	}
}
