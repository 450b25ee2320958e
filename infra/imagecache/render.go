package imagecache

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// Fit scales img to fit w×h pixels, preserving aspect ratio. zoom > 1
// crops toward the center before scaling.
func Fit(img image.Image, w, h int, zoom float64) image.Image {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	src := b
	if zoom > 1 {
		cw := int(float64(b.Dx()) / zoom)
		ch := int(float64(b.Dy()) / zoom)
		x0 := b.Min.X + (b.Dx()-cw)/2
		y0 := b.Min.Y + (b.Dy()-ch)/2
		src = image.Rect(x0, y0, x0+max(cw, 1), y0+max(ch, 1))
	}

	scale := min(float64(w)/float64(src.Dx()), float64(h)/float64(src.Dy()))
	if zoom > 0 && zoom < 1 {
		scale *= zoom
	}
	dw := max(int(float64(src.Dx())*scale), 1)
	dh := max(int(float64(src.Dy())*scale), 1)

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// RenderANSI draws img into a block of cols×rows terminal cells. Each cell
// shows two vertically stacked pixels using the upper half block, with the
// picture centered on a dark background.
func RenderANSI(img image.Image, cols, rows int, zoom float64) string {
	if cols < 4 {
		cols = 4
	}
	if rows < 2 {
		rows = 2
	}
	fit := Fit(img, cols, rows*2, zoom)
	fb := fit.Bounds()
	offX := (cols - fb.Dx()) / 2
	offY := (rows*2 - fb.Dy()) / 2

	at := func(x, y int) (color.NRGBA, bool) {
		px, py := x-offX, y-offY
		if px < 0 || py < 0 || px >= fb.Dx() || py >= fb.Dy() {
			return color.NRGBA{}, false
		}
		return color.NRGBAModel.Convert(fit.At(fb.Min.X+px, fb.Min.Y+py)).(color.NRGBA), true
	}

	var out strings.Builder
	for row := 0; row < rows; row++ {
		for x := 0; x < cols; x++ {
			top, okTop := at(x, row*2)
			bottom, okBottom := at(x, row*2+1)
			switch {
			case !okTop && !okBottom:
				out.WriteByte(' ')
			case okTop && okBottom:
				fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀\x1b[0m",
					top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
			case okTop:
				fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm▀\x1b[0m", top.R, top.G, top.B)
			default:
				fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm▄\x1b[0m", bottom.R, bottom.G, bottom.B)
			}
		}
		if row < rows-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}
