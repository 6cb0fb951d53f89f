package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellShade
	cellRouteLocked
	cellRoute
	cellRouteBusy
	cellRouteSelected
	cellCityLocked
	cellCity
	cellCitySelected
	cellLabel
)

var cellStyles = map[cellKind]lipgloss.Style{
	cellShade:         lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	cellRouteLocked:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	cellRoute:         lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	cellRouteBusy:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	cellRouteSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	cellCityLocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	cellCity:          lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	cellCitySelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Bold(true),
	cellLabel:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
}

// mapCanvas is a character grid of the network. City coordinates are
// percentages of the map area.
type mapCanvas struct {
	width, height int
	runes         [][]rune
	kinds         [][]cellKind
}

// mapSelection marks what to highlight.
type mapSelection struct {
	routeID string
	cityIDs []string
}

func newMapCanvas(width, height int) *mapCanvas {
	if width < 10 {
		width = 10
	}
	if height < 5 {
		height = 5
	}
	c := &mapCanvas{width: width, height: height}
	c.runes = make([][]rune, height)
	c.kinds = make([][]cellKind, height)
	for y := range c.runes {
		c.runes[y] = []rune(strings.Repeat(" ", width))
		c.kinds[y] = make([]cellKind, width)
	}
	return c
}

func (c *mapCanvas) project(city state.City) (int, int) {
	x := int(math.Round(city.X / 100 * float64(c.width-1)))
	y := int(math.Round(city.Y / 100 * float64(c.height-1)))
	return clamp(x, 0, c.width-1), clamp(y, 0, c.height-1)
}

func (c *mapCanvas) set(x, y int, r rune, k cellKind) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.runes[y][x] = r
	c.kinds[y][x] = k
}

// shade fills every cell whose nearest city is locked.
func (c *mapCanvas) shade(gs *state.GameState) {
	if len(gs.Cities) == 0 {
		return
	}
	type point struct {
		x, y     int
		unlocked bool
	}
	points := make([]point, len(gs.Cities))
	for i, city := range gs.Cities {
		x, y := c.project(city)
		points[i] = point{x, y, gs.ZoneUnlocked(city.Zone)}
	}

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			best, bestDist := 0, math.MaxFloat64
			for i, p := range points {
				// Terminal cells are about twice as tall as wide.
				dx, dy := float64(x-p.x), float64(y-p.y)*2
				if d := dx*dx + dy*dy; d < bestDist {
					best, bestDist = i, d
				}
			}
			if !points[best].unlocked {
				c.set(x, y, '░', cellShade)
			}
		}
	}
}

// line draws a route with Bresenham's algorithm, leaving the endpoints free.
func (c *mapCanvas) line(x0, y0, x1, y1 int, r rune, k cellKind) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	x, y := x0, y0
	for {
		if !(x == x0 && y == y0) && !(x == x1 && y == y1) {
			c.set(x, y, r, k)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// routeRune picks a glyph for the line's slope.
func routeRune(x0, y0, x1, y1 int, unlocked bool) rune {
	if !unlocked {
		return '·'
	}
	dx, dy := float64(x1-x0), float64(y1-y0)*2
	switch {
	case dy == 0 || math.Abs(dx/dy) > 2:
		return '─'
	case dx == 0 || math.Abs(dy/dx) > 2:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func (c *mapCanvas) draw(gs *state.GameState, sel mapSelection) {
	c.shade(gs)

	for _, r := range gs.Routes {
		from, okFrom := gs.City(r.From)
		to, okTo := gs.City(r.To)
		if !okFrom || !okTo {
			continue
		}
		x0, y0 := c.project(from)
		x1, y1 := c.project(to)
		kind := cellRouteLocked
		switch {
		case r.ID == sel.routeID:
			kind = cellRouteSelected
		case r.IsUnlocked && r.Level >= 3:
			kind = cellRouteBusy
		case r.IsUnlocked:
			kind = cellRoute
		}
		c.line(x0, y0, x1, y1, routeRune(x0, y0, x1, y1, r.IsUnlocked), kind)
	}

	selected := make(map[string]bool, len(sel.cityIDs))
	for _, id := range sel.cityIDs {
		selected[id] = true
	}

	for _, city := range gs.Cities {
		x, y := c.project(city)
		marker, kind := '○', cellCityLocked
		if city.IsUnlocked {
			marker, kind = '●', cellCity
		}
		if selected[city.ID] {
			kind = cellCitySelected
		}
		c.set(x, y, marker, kind)
		c.label(x+2, y, city.Name)
	}
}

// label writes text to the right of a city, shifting left at the map edge.
func (c *mapCanvas) label(x, y int, text string) {
	runes := []rune(text)
	if x+len(runes) > c.width {
		x = c.width - len(runes)
	}
	for i, r := range runes {
		c.set(x+i, y, r, cellLabel)
	}
}

// String returns the canvas without styling.
func (c *mapCanvas) String() string {
	lines := make([]string, c.height)
	for y := range c.runes {
		lines[y] = string(c.runes[y])
	}
	return strings.Join(lines, "\n")
}

// Render returns the canvas with each run of same-kind cells styled.
func (c *mapCanvas) Render() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		start := 0
		for x := 1; x <= c.width; x++ {
			if x < c.width && c.kinds[y][x] == c.kinds[y][start] {
				continue
			}
			run := string(c.runes[y][start:x])
			if style, ok := cellStyles[c.kinds[y][start]]; ok {
				run = style.Render(run)
			}
			b.WriteString(run)
			start = x
		}
		if y < c.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderMap(gs *state.GameState, width, height int, sel mapSelection) string {
	c := newMapCanvas(width, height)
	c.draw(gs, sel)
	return c.Render()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
