package gen

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// IndustrialConfig shapes the multi-subsystem fixture file. Unlike the
// mission profile it deliberately contains dirt: sentinel-redacted spans and
// corrupt timestamps, so the validation pipeline's repair paths get exercised
// by realistic input.
type IndustrialConfig struct {
	Points        int       // number of 1 Hz samples; default 2 h worth
	Start         time.Time // timestamp of the first sample
	Seed          int64     // RNG seed for reproducible output
	RedactedSpans int       // classified data spans per redactable column
	BadTimestamps int       // rows whose timestamp is corrupted
}

const (
	industrialDefaultPoints = 2 * 3600
	sentinel                = "-999.0"
)

// Payload status values cycled by the GMTI instrument.
var gmtiStatuses = []string{"STANDBY", "SEARCHING", "TRACKING"}

// Industrial generates a racetrack surveillance flight covering the full
// column taxonomy: GNC, PROP, POWER and THERMAL subsystems, a PL_GMTI payload
// with a textual status column, and TCDL/LOS link margins.
func Industrial(cfg IndustrialConfig) *Dataset {
	n := cfg.Points
	if n <= 0 {
		n = industrialDefaultPoints
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2025, 9, 19, 6, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	const (
		baseLat   = 34.92
		baseLng   = 117.88
		cruiseAlt = 45000.0
	)

	header := []string{
		"Timestamp",
		"POS_Latitude_deg", "POS_Longitude_deg", "POS_Altitude_ft",
		"GNC_Roll_deg", "GNC_Pitch_deg", "GNC_TrueHeading_deg",
		"PROP_EngineRPM_pct", "PROP_FuelFlow_pph",
		"POWER_BusVoltage_V", "POWER_GeneratorLoad_pct",
		"THERMAL_AvionicsBay_degC",
		"COMM_TCDL_Margin_dB", "COMM_LOS_Margin_dB",
		"PL_GMTI_Status", "PL_GMTI_TargetsTracked",
	}

	climbEnd := int(float64(n) * 0.1)
	descentStart := int(float64(n) * 0.9)

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n)
		angle := 2 * math.Pi * frac * 4 // four laps of the racetrack

		lat := baseLat + 0.4*math.Sin(angle)
		lng := baseLng + 0.6*math.Cos(angle)

		var alt float64
		switch {
		case i < climbEnd:
			alt = cruiseAlt * float64(i) / float64(climbEnd)
		case i >= descentStart:
			alt = cruiseAlt * float64(n-1-i) / float64(n-1-descentStart+1)
		default:
			alt = cruiseAlt
		}

		roll := 15*math.Sin(angle+math.Pi/2) + rng.NormFloat64()*0.5
		pitch := 2*math.Sin(angle*3) + rng.NormFloat64()*0.2
		heading := math.Mod(angle*180/math.Pi+90, 360)

		rpm := 78 + 8*math.Sin(angle/2) + rng.NormFloat64()
		fuelFlow := 950 + 120*(alt/cruiseAlt) + rng.NormFloat64()*15
		busVolt := 28.1 + rng.NormFloat64()*0.05
		genLoad := 55 + 10*math.Sin(angle) + rng.NormFloat64()*2
		bayTemp := 35 + 6*(alt/cruiseAlt) + rng.NormFloat64()*0.4

		tcdl := 14 - math.Abs(roll)/6 + rng.NormFloat64()*0.3
		losDist := math.Hypot(lng-baseLng, lat-baseLat)
		los := math.Max(-10, 25*(alt/cruiseAlt)-losDist*20+rng.NormFloat64()*0.5)

		status := gmtiStatuses[(i/600)%len(gmtiStatuses)]
		targets := 0
		if status == "TRACKING" {
			targets = 1 + rng.Intn(7)
		}

		ts := start.Add(time.Duration(i) * time.Second)
		rows[i] = []string{
			ts.Format("2006-01-02 15:04:05"),
			fnum(lat, 6), fnum(lng, 6), fnum(alt, 1),
			fnum(roll, 3), fnum(pitch, 3), fnum(heading, 2),
			fnum(rpm, 2), fnum(fuelFlow, 1),
			fnum(busVolt, 3), fnum(genLoad, 2),
			fnum(bayTemp, 2),
			fnum(tcdl, 2), fnum(los, 2),
			status, strconv.Itoa(targets),
		}
	}

	d := &Dataset{Header: header, Rows: rows}
	redactSpans(d, rng, cfg.RedactedSpans, "THERMAL_AvionicsBay_degC")
	redactSpans(d, rng, cfg.RedactedSpans, "POWER_GeneratorLoad_pct")
	corruptTimestamps(d, rng, cfg.BadTimestamps)
	return d
}

// redactSpans blanks out contiguous runs of a column with the sentinel value,
// simulating classified data scrubbed before export.
func redactSpans(d *Dataset, rng *rand.Rand, spans int, column string) {
	if spans <= 0 || len(d.Rows) == 0 {
		return
	}
	col := -1
	for j, name := range d.Header {
		if name == column {
			col = j
		}
	}
	if col < 0 {
		panic(fmt.Sprintf("gen: no such column %q", column))
	}
	for s := 0; s < spans; s++ {
		length := 30 + rng.Intn(90)
		from := rng.Intn(len(d.Rows))
		for i := from; i < from+length && i < len(d.Rows); i++ {
			d.Rows[i][col] = sentinel
		}
	}
}

// corruptTimestamps overwrites the timestamp of count random rows with an
// unparseable token.
func corruptTimestamps(d *Dataset, rng *rand.Rand, count int) {
	for c := 0; c < count && len(d.Rows) > 0; c++ {
		d.Rows[rng.Intn(len(d.Rows))][0] = "INVALID_TIME"
	}
}
