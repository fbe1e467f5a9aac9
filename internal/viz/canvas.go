// Package viz renders trajectories in the terminal: a braille-dot canvas for
// static plots and a bubbletea live view that steps a propagation as it runs.
package viz

import "strings"

// Braille patterns pack 2x4 dots per character cell, unicode offset 0x2800:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotMask = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas maps a rectangular world region onto braille cells.
type Canvas struct {
	width, height int
	minX, maxX    float64
	minY, maxY    float64
	grid          [][]rune
}

// NewCanvas creates a canvas of the given character size covering the world
// rectangle [minX,maxX] x [minY,maxY].
func NewCanvas(width, height int, minX, maxX, minY, maxY float64) *Canvas {
	c := &Canvas{
		width: width, height: height,
		minX: minX, maxX: maxX,
		minY: minY, maxY: maxY,
		grid: make([][]rune, height),
	}
	for i := range c.grid {
		c.grid[i] = make([]rune, width)
	}
	c.Clear()
	return c
}

// Clear resets every cell to the empty braille character.
func (c *Canvas) Clear() {
	for _, row := range c.grid {
		for j := range row {
			row[j] = 0x2800
		}
	}
}

// subpixel converts world coordinates to dot coordinates; the y axis points
// up in world space and down on the terminal.
func (c *Canvas) subpixel(x, y float64) (int, int, bool) {
	if c.maxX == c.minX || c.maxY == c.minY {
		return 0, 0, false
	}
	fx := (x - c.minX) / (c.maxX - c.minX)
	fy := (c.maxY - y) / (c.maxY - c.minY)
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	px := int(fx * float64(c.width*2-1))
	py := int(fy * float64(c.height*4-1))
	return px, py, true
}

// Plot marks a world point.
func (c *Canvas) Plot(x, y float64) {
	px, py, ok := c.subpixel(x, y)
	if !ok {
		return
	}
	c.setDot(px, py)
}

// PlotLine marks the segment between two world points with Bresenham steps
// in dot space.
func (c *Canvas) PlotLine(x0, y0, x1, y1 float64) {
	p0x, p0y, ok0 := c.subpixel(x0, y0)
	p1x, p1y, ok1 := c.subpixel(x1, y1)
	if !ok0 || !ok1 {
		return
	}

	dx := abs(p1x - p0x)
	dy := abs(p1y - p0y)
	sx, sy := 1, 1
	if p0x > p1x {
		sx = -1
	}
	if p0y > p1y {
		sy = -1
	}
	err := dx - dy
	for {
		c.setDot(p0x, p0y)
		if p0x == p1x && p0y == p1y {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			p0x += sx
		}
		if e2 < dx {
			err += dx
			p0y += sy
		}
	}
}

// PlotRect marks the outline of a world-space rectangle.
func (c *Canvas) PlotRect(minX, minY, maxX, maxY float64) {
	c.PlotLine(minX, minY, maxX, minY)
	c.PlotLine(maxX, minY, maxX, maxY)
	c.PlotLine(maxX, maxY, minX, maxY)
	c.PlotLine(minX, maxY, minX, minY)
}

func (c *Canvas) setDot(px, py int) {
	col := px / 2
	row := py / 4
	if col < 0 || row < 0 || col >= c.width || row >= c.height {
		return
	}
	c.grid[row][col] |= dotMask[py%4][px%2]
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
