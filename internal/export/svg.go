package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/psim/internal/sim"
)

// coordinationPalette colours particles by bond count. Counts past the end
// use the last entry.
var coordinationPalette = []string{
	"#555566", // free
	"#00ccff",
	"#00ff88",
	"#ffcc00",
	"#ff8800",
	"#ff00ff",
	"#ff4444",
}

func coordinationColor(n int) string {
	if n < 0 {
		n = 0
	}
	if n >= len(coordinationPalette) {
		n = len(coordinationPalette) - 1
	}
	return coordinationPalette[n]
}

// project drops the viewing axis and returns the in-plane coordinates and
// the depth along the axis.
func project(p *sim.Particle, axis string) (u, v, depth float64, err error) {
	switch axis {
	case "x":
		return p.Pos.Y, p.Pos.Z, p.Pos.X, nil
	case "y":
		return p.Pos.X, p.Pos.Z, p.Pos.Y, nil
	case "z", "":
		return p.Pos.X, p.Pos.Y, p.Pos.Z, nil
	}
	return 0, 0, 0, fmt.Errorf("export: unknown axis %q: %w", axis, sim.ErrInput)
}

// SnapshotSVG draws the particles seen along axis as circles in a square
// image of size pixels, coloured by coordination. Particles nearer the
// viewer are drawn last.
func SnapshotSVG(ps []*sim.Particle, box float64, axis string, size int) (string, error) {
	if box <= 0 || size <= 0 {
		return "", fmt.Errorf("export: box %g and size %d must be positive: %w", box, size, sim.ErrInput)
	}

	type disc struct {
		u, v, depth, r float64
		color          string
	}
	discs := make([]disc, 0, len(ps))
	for _, p := range ps {
		u, v, depth, err := project(p, axis)
		if err != nil {
			return "", err
		}
		discs = append(discs, disc{u, v, depth, p.Radius, coordinationColor(p.Coordination)})
	}
	sort.SliceStable(discs, func(i, j int) bool { return discs[i].depth < discs[j].depth })

	scale := float64(size) / box
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#0a0a0a" stroke-width="0.5">
`, size, size, size, size))

	for _, d := range discs {
		// svg y grows downward
		cx := d.u * scale
		cy := float64(size) - d.v*scale
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, math.Max(d.r*scale, 0.5), d.color))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String(), nil
}

// SeriesSVG draws ys against xs as a polyline
func SeriesSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return ""
	}

	// Find bounds
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
