// Package render provides the elevation palette texture
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/colornames"
)

// paletteStop pairs a normalized elevation with a color
type paletteStop struct {
	at  float64
	col color.RGBA
}

// Elevation palette from deep ocean to snow line
var paletteStops = []paletteStop{
	{0.00, colornames.Midnightblue},
	{0.35, colornames.Steelblue},
	{0.48, colornames.Khaki},
	{0.55, colornames.Forestgreen},
	{0.75, colornames.Sienna},
	{0.90, colornames.Lightgray},
	{1.00, colornames.Snow},
}

// NewPaletteTexture builds a 1D elevation gradient texture bound as a
// 256x1 2D texture (GL 4.1 core has no 1D textures on all drivers).
func NewPaletteTexture() uint32 {
	const width = 256
	img := image.NewRGBA(image.Rect(0, 0, width, 1))
	draw.Draw(img, img.Bounds(), image.NewUniform(paletteStops[0].col), image.Point{}, draw.Src)

	for x := 0; x < width; x++ {
		t := float64(x) / (width - 1)
		img.SetRGBA(x, 0, sampleStops(t))
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	return tex
}

func sampleStops(t float64) color.RGBA {
	for i := 1; i < len(paletteStops); i++ {
		if t <= paletteStops[i].at {
			a, b := paletteStops[i-1], paletteStops[i]
			f := (t - a.at) / (b.at - a.at)
			return lerpRGBA(a.col, b.col, f)
		}
	}
	return paletteStops[len(paletteStops)-1].col
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}
