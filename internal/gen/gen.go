// Package gen produces synthetic flight telemetry CSV files: sample data for
// the dashboard and realistic fixtures for the validation pipeline.
package gen

import (
	"encoding/csv"
	"io"
	"math"
)

// Dataset is a generated telemetry file held as raw CSV cells.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes the dataset as comma-separated text with a header row.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// gradient returns central differences, one-sided at the edges.
func gradient(y []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = y[1] - y[0]
	out[n-1] = y[n-1] - y[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (y[i+1] - y[i-1]) / 2.0
	}
	return out
}

// unwrap removes 2π discontinuities from a phase sequence.
func unwrap(phases []float64) []float64 {
	out := make([]float64, len(phases))
	copy(out, phases)
	offset := 0.0
	for i := 1; i < len(out); i++ {
		diff := phases[i] - phases[i-1]
		if diff > math.Pi {
			offset -= 2 * math.Pi
		} else if diff < -math.Pi {
			offset += 2 * math.Pi
		}
		out[i] = phases[i] + offset
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
