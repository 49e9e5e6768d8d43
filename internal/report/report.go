// Package report renders a validated telemetry session as a printable PDF
// summary: the validation report, flight statistics, and plots of the ground
// track, altitude profile and comm-link margins.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/qyrowren/flightdeck/internal/flightpath"
	"github.com/qyrowren/flightdeck/internal/telemetry"
)

// DefaultOutageThreshold is the link margin below which the report flags an
// outage, in dB.
const DefaultOutageThreshold = 3.0

var seriesPalette = [][]int{
	{0x1f, 0x77, 0xb4},
	{0xff, 0x85, 0x1b},
	{0x2c, 0xa0, 0x2c},
	{0xd6, 0x27, 0x28},
	{0x94, 0x67, 0xbd},
}

var outageRGB = []int{0xdc, 0x35, 0x45}

// Write renders the summary PDF for one session.
func Write(w io.Writer, fileName string, t *telemetry.Table, rep telemetry.Report, sum flightpath.Summary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Flight Telemetry Summary", false)
	pdf.AddPage()

	writeHeader(pdf, fileName)
	writeValidationBlock(pdf, rep)
	writeFlightStats(pdf, sum)

	if t.NumRows() > 1 {
		pdf.AddPage()
		drawGroundTrack(pdf, t, sum)
		drawAltitudeProfile(pdf, t)

		if links := telemetry.CommLinks(t.ColumnNames()); len(links) > 0 {
			pdf.AddPage()
			drawCommMargins(pdf, t, links)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}

func writeHeader(pdf *gofpdf.Fpdf, fileName string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Flight Telemetry Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0x60, 0x60, 0x60)
	pdf.CellFormat(0, 5, fmt.Sprintf("Source file: %s", fileName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetTextColor(0, 0, 0)
}

func writeValidationBlock(pdf *gofpdf.Fpdf, rep telemetry.Report) {
	sectionTitle(pdf, "Data Validation Report")

	kv(pdf, "Status", rep.Status)
	kv(pdf, "Subsystems found", joinOrNone(rep.Subsystems))
	kv(pdf, "Payloads found", joinOrNone(rep.Payloads))
	kv(pdf, "Redacted columns", joinOrNone(rep.RedactedColumns))

	if len(rep.Warnings) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, 5, "Warnings", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, warning := range rep.Warnings {
			pdf.CellFormat(4, 5, "", "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 5, "- "+warning, "", "L", false)
		}
	}
	pdf.Ln(4)
}

func writeFlightStats(pdf *gofpdf.Fpdf, sum flightpath.Summary) {
	sectionTitle(pdf, "Flight Statistics")

	kv(pdf, "Samples", fmt.Sprintf("%d", sum.Rows))
	if sum.Rows == 0 {
		return
	}
	kv(pdf, "Start", sum.Start.Format(time.RFC3339))
	kv(pdf, "End", sum.End.Format(time.RFC3339))
	kv(pdf, "Duration", sum.Duration.Round(time.Second).String())
	kv(pdf, "Ground distance", fmt.Sprintf("%.1f km", sum.DistanceKM))
	kv(pdf, "Altitude envelope", fmt.Sprintf("%.0f - %.0f ft", sum.MinAltFt, sum.MaxAltFt))
	kv(pdf, "Latitude bounds", fmt.Sprintf("%.4f to %.4f", sum.MinLat, sum.MaxLat))
	kv(pdf, "Longitude bounds", fmt.Sprintf("%.4f to %.4f", sum.MinLng, sum.MaxLng))
	pdf.Ln(4)
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
}

func kv(pdf *gofpdf.Fpdf, key, value string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(40, 5, key, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, value, "", "L", false)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	out := items[0]
	for _, item := range items[1:] {
		out += ", " + item
	}
	return out
}

func drawGroundTrack(pdf *gofpdf.Fpdf, t *telemetry.Table, sum flightpath.Summary) {
	lats, latValid, err := t.Floats("POS_Latitude_deg")
	if err != nil {
		return
	}
	lngs, _, err := t.Floats("POS_Longitude_deg")
	if err != nil {
		return
	}

	minX, maxX := padRange(sum.MinLng, sum.MaxLng)
	minY, maxY := padRange(sum.MinLat, sum.MaxLat)
	g := &plotGrid{
		Fpdf:    pdf,
		offsetU: 30, offsetV: 25,
		w: 150, h: 110,
		minX: minX, maxX: maxX,
		minY: minY, maxY: maxY,
		xEvery: (maxX - minX) / 5, yEvery: (maxY - minY) / 5,
		xTickFmt: "%.2f", yTickFmt: "%.2f",
	}
	g.caption("Ground Track (deg)")
	g.drawFrame()
	g.polyline(lngs, lats, latValid, seriesPalette[1])
}

func drawAltitudeProfile(pdf *gofpdf.Fpdf, t *telemetry.Table) {
	alts, valid, err := t.Floats("POS_Altitude_ft")
	if err != nil {
		return
	}
	xs := elapsedMinutes(t)
	if xs == nil {
		return
	}

	minAlt, maxAlt, ok := t.MinMax("POS_Altitude_ft")
	if !ok {
		return
	}
	minY, maxY := padRange(minAlt, maxAlt)
	maxMin := xs[len(xs)-1]
	if maxMin <= 0 {
		maxMin = 1
	}
	g := &plotGrid{
		Fpdf:    pdf,
		offsetU: 30, offsetV: 160,
		w: 150, h: 90,
		minX: 0, maxX: maxMin,
		minY: minY, maxY: maxY,
		xEvery: niceStep(maxMin), yEvery: (maxY - minY) / 4,
		xTickFmt: "%.0f", yTickFmt: "%.0f",
	}
	g.caption("Altitude Profile (ft vs minutes)")
	g.drawFrame()
	g.polyline(xs, alts, valid, seriesPalette[0])
}

func drawCommMargins(pdf *gofpdf.Fpdf, t *telemetry.Table, links []string) {
	xs := elapsedMinutes(t)
	if xs == nil {
		return
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, link := range links {
		if lo, hi, ok := t.MinMax(link); ok {
			minY = math.Min(minY, lo)
			maxY = math.Max(maxY, hi)
		}
	}
	if math.IsInf(minY, 1) {
		return
	}
	minY, maxY = padRange(minY, maxY)

	maxMin := xs[len(xs)-1]
	if maxMin <= 0 {
		maxMin = 1
	}
	g := &plotGrid{
		Fpdf:    pdf,
		offsetU: 30, offsetV: 25,
		w: 150, h: 110,
		minX: 0, maxX: maxMin,
		minY: minY, maxY: maxY,
		xEvery: niceStep(maxMin), yEvery: (maxY - minY) / 5,
		xTickFmt: "%.0f", yTickFmt: "%.1f",
	}
	g.caption("Comm Link Margins (dB vs minutes)")
	g.drawFrame()
	g.hline(DefaultOutageThreshold, outageRGB)

	pdf.SetFont("Helvetica", "", 8)
	legendY := g.offsetV + g.h + 8.0
	for i, link := range links {
		margins, valid, err := t.Floats(link)
		if err != nil {
			continue
		}
		rgb := seriesPalette[i%len(seriesPalette)]
		g.polyline(xs, margins, valid, rgb)

		pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
		pdf.SetXY(g.offsetU, legendY+float64(i)*4)
		pdf.CellFormat(100, 4, link, "", 0, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// elapsedMinutes returns each sample's offset from the first timestamp.
func elapsedMinutes(t *telemetry.Table) []float64 {
	times, ok := t.Timestamps()
	if !ok || len(times) == 0 {
		return nil
	}
	xs := make([]float64, len(times))
	for i, ts := range times {
		xs[i] = ts.Sub(times[0]).Minutes()
	}
	return xs
}

// padRange widens a value range by 5% per side, and guarantees a non-zero
// span so the grid projection never divides by zero.
func padRange(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span <= 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	return lo - span*0.05, hi + span*0.05
}

// niceStep picks a tick spacing that yields a handful of x gridlines.
func niceStep(span float64) float64 {
	raw := span / 6
	magnitude := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, mult := range []float64{1, 2, 5, 10} {
		if raw <= mult*magnitude {
			return mult * magnitude
		}
	}
	return raw
}
