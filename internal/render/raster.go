package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"country_fetcher/internal/domain"
)

const maxDimension = 4096

var errEmptyScene = errors.New("scene has no area")

// Rasterizer turns a Scene into PNG bytes. Glyphs come from a fixed bitmap
// face and are scaled to the requested size.
type Rasterizer struct {
	face   *basicfont.Face
	scaler draw.Scaler
}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		face:   basicfont.Face7x13,
		scaler: draw.ApproxBiLinear,
	}
}

// Render builds and rasterizes the summary scene.
func (r *Rasterizer) Render(top []domain.RankedCountry, total int64, lastRefresh time.Time) ([]byte, error) {
	return r.Rasterize(BuildSummary(top, total, lastRefresh))
}

func (r *Rasterizer) Rasterize(scene Scene) ([]byte, error) {
	if scene.Width <= 0 || scene.Height <= 0 || scene.Width > maxDimension || scene.Height > maxDimension {
		return nil, fmt.Errorf("rasterize %dx%d: %w", scene.Width, scene.Height, errEmptyScene)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, scene.Width, scene.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(scene.Background), image.Point{}, draw.Src)

	for _, rect := range scene.Rects {
		r.fillRect(canvas, rect)
	}

	for _, text := range scene.Texts {
		r.drawText(canvas, text)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return buf.Bytes(), nil
}

func (r *Rasterizer) fillRect(dst *image.RGBA, rect Rect) {
	if rect.W <= 0 || rect.H <= 0 {
		return
	}

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(rect.X, rect.Y)
	z.LineTo(rect.X+rect.W, rect.Y)
	z.LineTo(rect.X+rect.W, rect.Y+rect.H)
	z.LineTo(rect.X, rect.Y+rect.H)
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(rect.Fill), image.Point{})
}

func (r *Rasterizer) drawText(dst *image.RGBA, text Text) {
	if text.Content == "" || text.Size <= 0 {
		return
	}

	metrics := r.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()
	width := font.MeasureString(r.face, text.Content).Ceil()
	if width <= 0 {
		return
	}

	scratch := image.NewRGBA(image.Rect(0, 0, width, lineHeight))
	d := &font.Drawer{
		Dst:  scratch,
		Src:  image.NewUniform(text.Color),
		Face: r.face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(text.Content)

	scale := float64(text.Size) / float64(lineHeight)
	dw := int(math.Round(float64(width) * scale))
	dh := int(math.Round(float64(lineHeight) * scale))
	x0 := int(math.Round(float64(text.CenterX) - float64(dw)/2))
	y0 := int(math.Round(float64(text.Baseline) - float64(ascent)*scale))

	r.scaler.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), scratch, scratch.Bounds(), draw.Over, nil)
}
