package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// IconSize is the edge length of the generated icon in pixels.
const IconSize = 64

var (
	colorEnabled  = mustHex("#2e8b3e")
	colorDisabled = mustHex("#7d7d7d")
	colorActive   = mustHex("#e8871e")
	colorOutline  = colorful.Color{R: 1, G: 1, B: 1}
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// drawIcon renders a filled disc in fill with a white ring and an "M".
func drawIcon(fill colorful.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, IconSize, IconSize))
	const (
		center = IconSize / 2.0
		outer  = 24.0
		ring   = 3.0
	)
	fillC := toNRGBA(fill)
	ringC := toNRGBA(colorOutline)

	for y := 0; y < IconSize; y++ {
		for x := 0; x < IconSize; x++ {
			d := math.Hypot(float64(x)+0.5-center, float64(y)+0.5-center)
			switch {
			case d <= outer-ring:
				img.SetNRGBA(x, y, fillC)
			case d <= outer:
				img.SetNRGBA(x, y, ringC)
			}
		}
	}

	// The letter M as four strokes.
	strokes := [][4]float64{
		{20, 44, 20, 20},
		{20, 20, 32, 34},
		{32, 34, 44, 20},
		{44, 20, 44, 44},
	}
	for _, s := range strokes {
		drawLine(img, s[0], s[1], s[2], s[3], 2.5, ringC)
	}
	return img
}

// drawLine paints every pixel within width/2 of the segment.
func drawLine(img *image.NRGBA, x0, y0, x1, y1, width float64, c color.NRGBA) {
	dx, dy := x1-x0, y1-y0
	lenSq := dx*dx + dy*dy
	half := width / 2
	minX, maxX := int(math.Min(x0, x1)-half), int(math.Max(x0, x1)+half)+1
	minY, maxY := int(math.Min(y0, y1)-half), int(math.Max(y0, y1)+half)+1

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			t := ((px-x0)*dx + (py-y0)*dy) / lenSq
			t = math.Max(0, math.Min(1, t))
			if math.Hypot(px-(x0+t*dx), py-(y0+t*dy)) <= half {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// encodePNG renders the icon for fill as PNG.
func encodePNG(fill colorful.Color) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, drawIcon(fill)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO wraps a PNG image in a single-entry ICO container, which the
// Windows tray requires.
func wrapICO(pngData []byte, size int) []byte {
	const headerLen = 6 + 16
	var buf bytes.Buffer
	buf.Grow(headerLen + len(pngData))

	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	le := binary.LittleEndian
	// ICONDIR: reserved, type (1 = icon), image count.
	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1})
	// ICONDIRENTRY: width, height, palette, reserved, planes, bpp, size, offset.
	buf.Write([]byte{dim, dim, 0, 0})
	_ = binary.Write(&buf, le, [2]uint16{1, 32})
	_ = binary.Write(&buf, le, [2]uint32{uint32(len(pngData)), headerLen})
	buf.Write(pngData)
	return buf.Bytes()
}
