package game

import "fmt"

// Tolerance for pixel ownership: a pixel counts for a player when every
// channel differs from the player's color by less than this value.
const colorTolerance = 10

// RGB is a paint color. Alpha is implied (opaque) on the canvas.
type RGB struct {
	R, G, B uint8
}

// DefaultColor is the neutral fallback used when a client sends a color
// string the parser cannot understand. A dropped stroke would be more
// surprising to the player than a gray one.
var DefaultColor = RGB{R: 128, G: 128, B: 128}

// palette holds the colors assigned to players by join order. Every
// entry keeps at least one channel well above the tolerance so blank
// (zero) pixels never count toward a score.
var palette = []RGB{
	{R: 231, G: 76, B: 60},   // red
	{R: 52, G: 152, B: 219},  // blue
	{R: 46, G: 204, B: 113},  // green
	{R: 241, G: 196, B: 15},  // yellow
	{R: 155, G: 89, B: 182},  // purple
	{R: 230, G: 126, B: 34},  // orange
	{R: 26, G: 188, B: 156},  // teal
	{R: 236, G: 64, B: 122},  // pink
}

// PaletteColor returns the color for the n-th player to join a room.
func PaletteColor(n int) RGB {
	if n < 0 {
		n = 0
	}
	return palette[n%len(palette)]
}

// ParseRGB parses the textual "rgb(r, g, b)" form, with or without
// spaces. Malformed input falls back to DefaultColor.
func ParseRGB(s string) RGB {
	var r, g, b int
	n, err := fmt.Sscanf(s, "rgb(%d, %d, %d)", &r, &g, &b)
	if err != nil || n != 3 {
		return DefaultColor
	}
	if r < 0 || r > 255 || g < 0 || g > 255 || b < 0 || b > 255 {
		return DefaultColor
	}
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
}

// String renders the color in the wire form clients send and receive.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Canvas is the per-room pixel ownership buffer. The backing RGBA
// buffer is allocated lazily on the first paint so idle rooms cost
// nothing.
type Canvas struct {
	width  int
	height int
	data   []byte
}

// NewCanvas creates an unallocated canvas of the given dimensions.
func NewCanvas(width, height int) *Canvas {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	return &Canvas{width: width, height: height}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Allocated reports whether any stroke has been painted since the last
// Reset.
func (c *Canvas) Allocated() bool { return c.data != nil }

// Reset drops the pixel buffer. The next Paint reallocates it blank.
func (c *Canvas) Reset() { c.data = nil }

// Paint rasterizes a filled disc of the given radius centered at
// (x, y), clipped to the canvas bounds, overwriting RGBA for every
// covered pixel.
func (c *Canvas) Paint(x, y, radius int, color RGB) {
	if radius <= 0 {
		radius = 1
	}
	if c.data == nil {
		c.data = make([]byte, c.width*c.height*4)
	}
	rsq := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		py := y + dy
		if py < 0 || py >= c.height {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			px := x + dx
			if px < 0 || px >= c.width {
				continue
			}
			if dx*dx+dy*dy > rsq {
				continue
			}
			i := (py*c.width + px) * 4
			c.data[i] = color.R
			c.data[i+1] = color.G
			c.data[i+2] = color.B
			c.data[i+3] = 255
		}
	}
}

// CountMatching returns the number of pixels within tolerance of the
// given color. An unallocated canvas matches nothing.
func (c *Canvas) CountMatching(color RGB) int {
	if c.data == nil {
		return 0
	}
	count := 0
	for i := 0; i < len(c.data); i += 4 {
		if within(c.data[i], color.R) && within(c.data[i+1], color.G) && within(c.data[i+2], color.B) {
			count++
		}
	}
	return count
}

func within(a, b uint8) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d < colorTolerance
}
