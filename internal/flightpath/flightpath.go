// Package flightpath derives geometry from a validated telemetry table: the
// ground track summary shown on the dashboard overview card and the OK/outage
// path segmentation used by the map view and the PDF report.
package flightpath

import (
	"fmt"
	"time"

	geo "github.com/paulmach/go.geo"

	"github.com/qyrowren/flightdeck/internal/telemetry"
)

const (
	colLat = "POS_Latitude_deg"
	colLng = "POS_Longitude_deg"
	colAlt = "POS_Altitude_ft"
)

// Summary describes the flight covered by one validated table.
type Summary struct {
	Rows       int           `json:"rows"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Duration   time.Duration `json:"-"`
	DurationS  float64       `json:"duration_s"`
	DistanceKM float64       `json:"distance_km"`
	MinLat     float64       `json:"min_lat"`
	MaxLat     float64       `json:"max_lat"`
	MinLng     float64       `json:"min_lng"`
	MaxLng     float64       `json:"max_lng"`
	MinAltFt   float64       `json:"min_alt_ft"`
	MaxAltFt   float64       `json:"max_alt_ft"`
}

// Stats computes the flight summary. The table must come out of a successful
// validation, so the position columns are complete; an empty table yields a
// zero summary.
func Stats(t *telemetry.Table) (Summary, error) {
	var s Summary
	s.Rows = t.NumRows()
	if s.Rows == 0 {
		return s, nil
	}

	lats, _, err := t.Floats(colLat)
	if err != nil {
		return s, fmt.Errorf("flight summary: %w", err)
	}
	lngs, _, err := t.Floats(colLng)
	if err != nil {
		return s, fmt.Errorf("flight summary: %w", err)
	}

	path := geo.NewPath()
	for i := range lats {
		path.Push(geo.NewPoint(lngs[i], lats[i]))
	}
	s.DistanceKM = path.GeoDistance() / 1000.0

	bound := path.Bound()
	s.MinLng, s.MinLat = bound.SouthWest().Lng(), bound.SouthWest().Lat()
	s.MaxLng, s.MaxLat = bound.NorthEast().Lng(), bound.NorthEast().Lat()

	if min, max, ok := t.MinMax(colAlt); ok {
		s.MinAltFt, s.MaxAltFt = min, max
	}

	if times, ok := t.Timestamps(); ok && len(times) > 0 {
		s.Start, s.End = times[0], times[0]
		for _, ts := range times[1:] {
			if ts.Before(s.Start) {
				s.Start = ts
			}
			if ts.After(s.End) {
				s.End = ts
			}
		}
		s.Duration = s.End.Sub(s.Start)
		s.DurationS = s.Duration.Seconds()
	}
	return s, nil
}

// Segment is a contiguous run of rows sharing a link state. Start and End are
// row indices, End exclusive.
type Segment struct {
	Outage bool `json:"outage"`
	Start  int  `json:"start"`
	End    int  `json:"end"`
}

// Segments splits the flight path by comm-link state: a row is in outage when
// the named margin column is below threshold. Rows with a missing margin cell
// count as link-OK, mirroring how the dashboard treats absent data.
func Segments(t *telemetry.Table, link string, threshold float64) ([]Segment, error) {
	margins, valid, err := t.Floats(link)
	if err != nil {
		return nil, fmt.Errorf("link segmentation: %w", err)
	}

	var segs []Segment
	for i := range margins {
		outage := valid[i] && margins[i] < threshold
		if len(segs) > 0 && segs[len(segs)-1].Outage == outage {
			segs[len(segs)-1].End = i + 1
			continue
		}
		segs = append(segs, Segment{Outage: outage, Start: i, End: i + 1})
	}
	return segs, nil
}
