package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// plotGrid maps a value-space rectangle onto a region of the PDF page and
// draws axes, gridlines and data polylines inside it. The grid origin is
// bottom-left: larger Y values plot higher on the page.
type plotGrid struct {
	*gofpdf.Fpdf

	// Page-space placement of the plot region, in mm.
	offsetU, offsetV float64
	w, h             float64

	// Value-space extent scaled onto the region.
	minX, maxX float64
	minY, maxY float64

	// Gridline/tick spacing in value space; zero disables.
	xEvery, yEvery float64
	xTickFmt       string
	yTickFmt       string
}

// u maps a value-space x onto page space.
func (g *plotGrid) u(x float64) float64 {
	ratio := (x - g.minX) / (g.maxX - g.minX)
	return g.offsetU + ratio*g.w
}

// v maps a value-space y onto page space (inverted: PDF y grows downward).
func (g *plotGrid) v(y float64) float64 {
	ratio := (y - g.minY) / (g.maxY - g.minY)
	return g.offsetV + g.h - ratio*g.h
}

func (g *plotGrid) inBounds(x, y float64) bool {
	return x >= g.minX && x <= g.maxX && y >= g.minY && y <= g.maxY
}

// drawFrame renders the plot border, gridlines and tick labels.
func (g *plotGrid) drawFrame() {
	g.SetLineWidth(0.3)
	g.SetDrawColor(0x40, 0x40, 0x40)
	g.Rect(g.offsetU, g.offsetV, g.w, g.h, "D")

	g.SetFont("Helvetica", "", 7)
	g.SetTextColor(0x40, 0x40, 0x40)
	g.SetLineWidth(0.05)
	g.SetDrawColor(0xd0, 0xd0, 0xd0)

	if g.xEvery > 0 {
		for x := g.minX; x <= g.maxX+g.xEvery/1e6; x += g.xEvery {
			g.MoveTo(g.u(x), g.v(g.minY))
			g.LineTo(g.u(x), g.v(g.maxY))
			g.DrawPath("D")
			if g.xTickFmt != "" {
				g.SetXY(g.u(x)-6, g.offsetV+g.h+1)
				g.CellFormat(12, 3, fmt.Sprintf(g.xTickFmt, x), "", 0, "C", false, 0, "")
			}
		}
	}
	if g.yEvery > 0 {
		for y := g.minY; y <= g.maxY+g.yEvery/1e6; y += g.yEvery {
			g.MoveTo(g.u(g.minX), g.v(y))
			g.LineTo(g.u(g.maxX), g.v(y))
			g.DrawPath("D")
			if g.yTickFmt != "" {
				g.SetXY(g.offsetU-17, g.v(y)-1.5)
				g.CellFormat(15, 3, fmt.Sprintf(g.yTickFmt, y), "", 0, "R", false, 0, "")
			}
		}
	}
}

// polyline draws a data series, lifting the pen across missing cells and
// points outside the value-space extent.
func (g *plotGrid) polyline(xs, ys []float64, valid []bool, rgb []int) {
	g.SetLineWidth(0.35)
	g.SetDrawColor(rgb[0], rgb[1], rgb[2])

	penDown := false
	for i := range xs {
		if (valid != nil && !valid[i]) || !g.inBounds(xs[i], ys[i]) {
			if penDown {
				g.DrawPath("D")
				penDown = false
			}
			continue
		}
		if !penDown {
			g.MoveTo(g.u(xs[i]), g.v(ys[i]))
			penDown = true
			continue
		}
		g.LineTo(g.u(xs[i]), g.v(ys[i]))
	}
	if penDown {
		g.DrawPath("D")
	}
}

// hline draws a horizontal reference line at value-space y.
func (g *plotGrid) hline(y float64, rgb []int) {
	if y < g.minY || y > g.maxY {
		return
	}
	g.SetLineWidth(0.25)
	g.SetDrawColor(rgb[0], rgb[1], rgb[2])
	g.SetDashPattern([]float64{1.5, 1.5}, 0)
	g.MoveTo(g.u(g.minX), g.v(y))
	g.LineTo(g.u(g.maxX), g.v(y))
	g.DrawPath("D")
	g.SetDashPattern([]float64{}, 0)
}

// caption writes the plot title above the grid.
func (g *plotGrid) caption(text string) {
	g.SetFont("Helvetica", "B", 9)
	g.SetTextColor(0x20, 0x20, 0x20)
	g.SetXY(g.offsetU, g.offsetV-5)
	g.CellFormat(g.w, 4, text, "", 0, "L", false, 0, "")
}
