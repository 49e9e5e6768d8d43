package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/qyrowren/flightdeck/internal/flightpath"
	"github.com/qyrowren/flightdeck/internal/telemetry"
)

func buildSession(t *testing.T) (*telemetry.Table, telemetry.Report, flightpath.Summary) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("Timestamp,POS_Latitude_deg,POS_Longitude_deg,POS_Altitude_ft,GNC_Roll_deg,COMM_TCDL_Margin_dB,PL_GMTI_Status\n")
	for i := 0; i < 30; i++ {
		margin := 12.0
		if i > 10 && i < 16 {
			margin = 1.5
		}
		fmt.Fprintf(&sb, "2024-03-01 08:%02d:00,%.4f,%.4f,%.1f,%.2f,%.1f,TRACKING\n",
			i, 14.0+float64(i)*0.01, 121.0+float64(i)*0.01, 1000.0+float64(i)*50, float64(i%7), margin)
	}

	v := telemetry.NewValidator(telemetry.DefaultOptions())
	table, rep := v.Validate(strings.NewReader(sb.String()))
	if rep.Failed() {
		t.Fatalf("fixture failed validation: %v", rep.Warnings)
	}
	sum, err := flightpath.Stats(table)
	if err != nil {
		t.Fatal(err)
	}
	return table, rep, sum
}

func TestWriteProducesPDF(t *testing.T) {
	table, rep, sum := buildSession(t)

	var buf bytes.Buffer
	if err := Write(&buf, "flight.csv", table, rep, sum); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF: %q", buf.Bytes()[:8])
	}
}

func TestWriteEmptyTable(t *testing.T) {
	table, err := telemetry.NewTable(nil)
	if err != nil {
		t.Fatal(err)
	}
	var rep telemetry.Report
	rep.Status = telemetry.StatusSuccess

	var buf bytes.Buffer
	if err := Write(&buf, "empty.csv", table, rep, flightpath.Summary{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestPadRange(t *testing.T) {
	lo, hi := padRange(10, 10)
	if lo >= hi {
		t.Errorf("degenerate range not widened: %f..%f", lo, hi)
	}
	lo, hi = padRange(0, 100)
	if lo >= 0 || hi <= 100 {
		t.Errorf("range not padded: %f..%f", lo, hi)
	}
}
