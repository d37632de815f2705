package render

import (
	"fmt"
	"image/color"
	"time"

	"country_fetcher/internal/domain"
)

const (
	SummaryWidth  = 800
	SummaryHeight = 400
	TopN          = 5
)

var (
	colorBackground = color.RGBA{R: 25, G: 30, B: 45, A: 255}
	colorTitle      = color.RGBA{R: 0x00, G: 0xff, B: 0x99, A: 255}
	colorTotal      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 255}
	colorRanked     = color.RGBA{R: 0xff, G: 0xaa, B: 0x00, A: 255}
	colorFooter     = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 255}
)

// Scene is a resolution-independent description of an image: filled
// rectangles painted in order, then text lines.
type Scene struct {
	Width      int
	Height     int
	Background color.RGBA
	Rects      []Rect
	Texts      []Text
}

type Rect struct {
	X, Y, W, H float32
	Fill       color.RGBA
}

// Text is a single line horizontally centred on CenterX with its baseline at
// Baseline. Size is the cap-to-descender height in pixels.
type Text struct {
	Content  string
	CenterX  float32
	Baseline float32
	Size     float32
	Color    color.RGBA
}

func BuildSummary(top []domain.RankedCountry, total int64, lastRefresh time.Time) Scene {
	w, h := float32(SummaryWidth), float32(SummaryHeight)
	cx := w / 2

	scene := Scene{
		Width:      SummaryWidth,
		Height:     SummaryHeight,
		Background: colorBackground,
		Rects: []Rect{
			{X: 0, Y: 0, W: w, H: 6, Fill: colorTitle},
			{X: cx - 160, Y: h*0.18 + 14, W: 320, H: 2, Fill: colorTitle},
		},
		Texts: []Text{
			{Content: "Countries Summary", CenterX: cx, Baseline: h * 0.18, Size: 42, Color: colorTitle},
			{Content: fmt.Sprintf("Total Countries: %d", total), CenterX: cx, Baseline: h * 0.35, Size: 28, Color: colorTotal},
		},
	}

	for i, c := range top {
		if i == TopN {
			break
		}
		rank := c.Rank
		if rank == 0 {
			rank = i + 1
		}
		scene.Texts = append(scene.Texts, Text{
			Content:  fmt.Sprintf("%d. %s", rank, c.Name),
			CenterX:  cx,
			Baseline: h*0.52 + float32(i)*30,
			Size:     22,
			Color:    colorRanked,
		})
	}

	scene.Texts = append(scene.Texts, Text{
		Content:  "Last Refresh: " + lastRefresh.UTC().Format(time.RFC3339),
		CenterX:  cx,
		Baseline: h * 0.92,
		Size:     20,
		Color:    colorFooter,
	})

	return scene
}
