package gen

import (
	"math"
	"math/rand"
	"strconv"
	"time"
)

// MissionConfig shapes the ISR mission profile: a multi-leg orbiting flight
// that departs a base, loiters over two points of interest and returns.
type MissionConfig struct {
	Points int       // number of 1 Hz samples; default 5 h worth
	Start  time.Time // timestamp of the first sample
	Seed   int64     // RNG seed for reproducible output
}

const missionDefaultPoints = 5 * 3600 // 5 hours at 1 Hz

type poi struct {
	lat, lng, radius float64
}

// Mission generates a clean 5-hour mission file: climb/cruise/descent
// altitude profile, transit and orbit legs around two POIs, and three comm
// links with distinct behaviors (stable GEO, LEO with a long outage window,
// distance-and-altitude-dependent UHF line of sight).
func Mission(cfg MissionConfig) *Dataset {
	n := cfg.Points
	if n <= 0 {
		n = missionDefaultPoints
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2025, 9, 19, 9, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	base := poi{lat: 14.33, lng: 121.05}
	poi1 := poi{lat: 14.01, lng: 120.99, radius: 0.15}
	poi2 := poi{lat: 14.59, lng: 120.98, radius: 0.10}

	totalSeconds := float64(n - 1)
	elapsed := linspace(0, totalSeconds, n)

	// Altitude: sine-eased climb, level cruise, linear descent to zero.
	const cruiseAlt = 60000.0
	climbEnd := int(float64(n) * 0.08)
	descentStart := int(float64(n) * 0.92)
	alt := make([]float64, n)
	for i := 0; i < climbEnd; i++ {
		alt[i] = cruiseAlt * math.Sin(math.Pi/2*elapsed[i]/elapsed[climbEnd-1])
	}
	for i := climbEnd; i < descentStart; i++ {
		alt[i] = cruiseAlt
	}
	descentDur := elapsed[n-1] - elapsed[descentStart-1]
	for i := descentStart; i < n; i++ {
		alt[i] = math.Max(0, cruiseAlt*(1-(elapsed[i]-elapsed[descentStart-1])/descentDur))
	}

	// Ground track: base -> POI1 orbit -> POI2 orbit -> base.
	lat := make([]float64, n)
	lng := make([]float64, n)
	for i := range lat {
		lat[i], lng[i] = base.lat, base.lng
	}
	transit1End := int(float64(n) * 0.15)
	orbit1End := int(float64(n) * 0.40)
	transit2End := int(float64(n) * 0.50)
	orbit2End := int(float64(n) * 0.75)
	rtbEnd := int(float64(n) * 0.92)

	fillTransit(lat, lng, climbEnd, transit1End, base.lat, base.lng, poi1.lat, poi1.lng)
	fillOrbit(lat, lng, transit1End, orbit1End, poi1)
	fillTransit(lat, lng, orbit1End, transit2End, lat[orbit1End-1], lng[orbit1End-1], poi2.lat, poi2.lng)
	fillOrbit(lat, lng, transit2End, orbit2End, poi2)
	fillTransit(lat, lng, orbit2End, rtbEnd, lat[orbit2End-1], lng[orbit2End-1], base.lat, base.lng)

	// Roll follows heading-rate, scaled and clipped like a bank-to-turn
	// airframe would fly it.
	headings := make([]float64, n)
	dLat := gradient(lat)
	dLng := gradient(lng)
	for i := range headings {
		headings[i] = math.Atan2(dLat[i], dLng[i])
	}
	roll := gradient(unwrap(headings))
	for i := range roll {
		roll[i] = clip(roll[i]*1000, -30, 30) + rng.NormFloat64()
	}

	// GEO SATCOM: very stable, slight degradation when banked.
	commGEO := make([]float64, n)
	for i := range commGEO {
		commGEO[i] = 20 - math.Abs(roll[i])/10 + rng.NormFloat64()*0.1
	}

	// LEO SATCOM: good signal with one deep, predictable outage window.
	commLEO := make([]float64, n)
	leoOutStart := int(float64(n) * 0.45)
	leoOutEnd := int(float64(n) * 0.65)
	for i := range commLEO {
		commLEO[i] = 18.0
		if i >= leoOutStart && i < leoOutEnd {
			commLEO[i] = -5.0
		}
		commLEO[i] += rng.NormFloat64() * 0.2
	}

	// UHF LOS: depends on altitude and distance from base.
	commUHF := make([]float64, n)
	for i := range commUHF {
		dist := math.Hypot(lng[i]-base.lng, lat[i]-base.lat)
		commUHF[i] = math.Max(-10, 30*(alt[i]/cruiseAlt)-dist*40+rng.NormFloat64())
	}

	d := &Dataset{
		Header: []string{
			"Timestamp",
			"POS_Latitude_deg", "POS_Longitude_deg", "POS_Altitude_ft",
			"GNC_Roll_deg",
			"COMM_GEO_SATCOM_dB", "COMM_LEO_SATCOM_dB", "COMM_UHF_LOS_dB",
		},
		Rows: make([][]string, n),
	}
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(int64(elapsed[i])) * time.Second)
		d.Rows[i] = []string{
			ts.Format("2006-01-02 15:04:05"),
			fnum(lat[i], 6), fnum(lng[i], 6), fnum(alt[i], 1),
			fnum(roll[i], 3),
			fnum(commGEO[i], 2), fnum(commLEO[i], 2), fnum(commUHF[i], 2),
		}
	}
	return d
}

func fillTransit(lat, lng []float64, from, to int, lat0, lng0, lat1, lng1 float64) {
	if to <= from {
		return
	}
	latSeg := linspace(lat0, lat1, to-from)
	lngSeg := linspace(lng0, lng1, to-from)
	copy(lat[from:to], latSeg)
	copy(lng[from:to], lngSeg)
}

// fillOrbit flies two full circles around a POI.
func fillOrbit(lat, lng []float64, from, to int, p poi) {
	if to <= from {
		return
	}
	angles := linspace(0, 4*math.Pi, to-from)
	for i, a := range angles {
		lat[from+i] = p.lat + p.radius*math.Sin(a)
		lng[from+i] = p.lng + p.radius*math.Cos(a)
	}
}

func fnum(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
