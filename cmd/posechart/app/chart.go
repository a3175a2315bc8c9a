package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	dpi             = 72.0
	fontSize        = 12.0
	tickMarkLength  = 5
	pixelsPerXLabel = 120
	pixelsPerYLabel = 45

	// Default panel and border sizes in pixels
	defaultPlotWidth    = 800
	defaultPlotHeight   = 220
	defaultTopBorder    = 30
	defaultLeftBorder   = 80
	defaultBottomBorder = 45
	defaultRightBorder  = 25
)

var (
	axisColor   = color.RGBA{0x60, 0x60, 0x60, 0xff}
	rawColor    = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	syncedColor = color.RGBA{0xd6, 0x27, 0x28, 0xff}
)

// BorderConfig defines the white space around each channel panel
type BorderConfig struct {
	Top    int // Space for the panel title
	Left   int // Space for the value scale
	Bottom int // Space for the time scale
	Right  int // Right padding
}

// RenderConfig holds all configuration options for chart rendering
type RenderConfig struct {
	PlotWidth  int
	PlotHeight int
	FontSize   float64
	FontPath   string // Optional TTF; empty selects the builtin bitmap font
	Borders    BorderConfig
}

// ChartRenderer draws channel panels stacked vertically into one image.
type ChartRenderer struct {
	config RenderConfig
}

// NewChartRenderer creates a renderer with the given configuration,
// filling in defaults for zero values.
func NewChartRenderer(config RenderConfig) (*ChartRenderer, error) {
	if config.PlotWidth == 0 {
		config.PlotWidth = defaultPlotWidth
	}
	if config.PlotHeight == 0 {
		config.PlotHeight = defaultPlotHeight
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.Borders.Top == 0 {
		config.Borders.Top = defaultTopBorder
	}
	if config.Borders.Left == 0 {
		config.Borders.Left = defaultLeftBorder
	}
	if config.Borders.Bottom == 0 {
		config.Borders.Bottom = defaultBottomBorder
	}
	if config.Borders.Right == 0 {
		config.Borders.Right = defaultRightBorder
	}

	return &ChartRenderer{config: config}, nil
}

// Render draws one panel per chart, stacked top to bottom.
func (r *ChartRenderer) Render(charts []ChartData) (*image.RGBA, error) {
	if len(charts) == 0 {
		return nil, fmt.Errorf("no charts to render")
	}

	b := r.config.Borders
	panelHeight := b.Top + r.config.PlotHeight + b.Bottom
	fullWidth := b.Left + r.config.PlotWidth + b.Right
	fullHeight := panelHeight * len(charts)

	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ann, err := newAnnotator(img, r.config.FontPath, r.config.FontSize)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	for i, chart := range charts {
		area := image.Rect(
			b.Left,
			i*panelHeight+b.Top,
			b.Left+r.config.PlotWidth,
			i*panelHeight+b.Top+r.config.PlotHeight,
		)
		if err := r.renderPanel(img, ann, area, &chart); err != nil {
			return nil, fmt.Errorf("rendering %s panel: %w", chart.Title, err)
		}
	}

	return img, nil
}

func (r *ChartRenderer) renderPanel(img *image.RGBA, ann *annotator, area image.Rectangle, chart *ChartData) error {
	drawBox(img, area, axisColor)

	if err := r.drawTitle(img, ann, area, chart); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}
	if err := r.drawTimeScale(img, ann, area, chart); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := r.drawValueScale(img, ann, area, chart); err != nil {
		return fmt.Errorf("drawing value scale: %w", err)
	}

	r.drawRawLine(img, area, chart)
	r.drawSyncedMarkers(img, area, chart)
	return nil
}

func (r *ChartRenderer) drawTitle(img *image.RGBA, ann *annotator, area image.Rectangle, chart *ChartData) error {
	title := fmt.Sprintf("%s [%s]  raw %s / synced %s",
		chart.Title, chart.Unit,
		humanize.Comma(int64(len(chart.Raw.Times))),
		humanize.Comma(int64(len(chart.Synced.Times))))

	return ann.drawString(title, area.Min.X, area.Min.Y-ann.descent()-4)
}

func (r *ChartRenderer) drawTimeScale(img *image.RGBA, ann *annotator, area image.Rectangle, chart *ChartData) error {
	step := niceStep(chart.TimeMax-chart.TimeMin, area.Dx()/pixelsPerXLabel)
	textY := area.Max.Y + tickMarkLength + ann.height()

	for t := math.Ceil(chart.TimeMin/step) * step; t <= chart.TimeMax; t += step {
		x := area.Min.X + scale(t, chart.TimeMin, chart.TimeMax, area.Dx())

		for y := area.Max.Y; y < area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		label := humanize.FtoaWithDigits(t, 2) + "s"
		if err := ann.drawString(label, x-ann.measure(label)/2, textY); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChartRenderer) drawValueScale(img *image.RGBA, ann *annotator, area image.Rectangle, chart *ChartData) error {
	step := niceStep(chart.ValueMax-chart.ValueMin, area.Dy()/pixelsPerYLabel)
	halfHeight := ann.height() / 2

	for v := math.Ceil(chart.ValueMin/step) * step; v <= chart.ValueMax; v += step {
		y := area.Max.Y - scale(v, chart.ValueMin, chart.ValueMax, area.Dy())

		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := humanize.FtoaWithDigits(v, 2)
		if err := ann.drawString(label, area.Min.X-tickMarkLength-ann.measure(label)-3, y+halfHeight-ann.descent()); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChartRenderer) drawRawLine(img *image.RGBA, area image.Rectangle, chart *ChartData) {
	s := chart.Raw
	for i := 1; i < len(s.Times); i++ {
		x0 := area.Min.X + scale(s.Times[i-1], chart.TimeMin, chart.TimeMax, area.Dx())
		y0 := area.Max.Y - scale(s.Values[i-1], chart.ValueMin, chart.ValueMax, area.Dy())
		x1 := area.Min.X + scale(s.Times[i], chart.TimeMin, chart.TimeMax, area.Dx())
		y1 := area.Max.Y - scale(s.Values[i], chart.ValueMin, chart.ValueMax, area.Dy())
		drawLine(img, x0, y0, x1, y1, rawColor)
	}
}

func (r *ChartRenderer) drawSyncedMarkers(img *image.RGBA, area image.Rectangle, chart *ChartData) {
	s := chart.Synced
	for i := range s.Times {
		x := area.Min.X + scale(s.Times[i], chart.TimeMin, chart.TimeMax, area.Dx())
		y := area.Max.Y - scale(s.Values[i], chart.ValueMin, chart.ValueMax, area.Dy())

		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				img.Set(x+dx, y+dy, syncedColor)
			}
		}
	}
}

// scale maps v from [lo, hi] onto [0, size] pixels.
func scale(v, lo, hi float64, size int) int {
	return int(math.Round((v - lo) / (hi - lo) * float64(size)))
}

// niceStep picks a 1/2/5-series step that yields at most maxLabels
// labels over the given range.
func niceStep(span float64, maxLabels int) float64 {
	if maxLabels < 1 {
		maxLabels = 1
	}
	rough := span / float64(maxLabels)

	magnitude := math.Pow(10, math.Floor(math.Log10(rough)))
	for _, mult := range []float64{1, 2, 5, 10} {
		if step := mult * magnitude; step >= rough {
			return step
		}
	}
	return 10 * magnitude
}

func drawBox(img *image.RGBA, area image.Rectangle, c color.Color) {
	for x := area.Min.X; x <= area.Max.X; x++ {
		img.Set(x, area.Min.Y, c)
		img.Set(x, area.Max.Y, c)
	}
	for y := area.Min.Y; y <= area.Max.Y; y++ {
		img.Set(area.Min.X, y, c)
		img.Set(area.Max.X, y, c)
	}
}

// drawLine draws a straight segment by stepping along the longer axis.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		img.Set(x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		img.Set(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// annotator draws text with a user-supplied TTF when available, falling
// back to the builtin fixed-size bitmap face.
type annotator struct {
	img     *image.RGBA
	face    font.Face
	context *freetype.Context // nil when using the builtin face
}

func newAnnotator(img *image.RGBA, fontPath string, size float64) (*annotator, error) {
	if fontPath == "" {
		return &annotator{img: img, face: basicfont.Face7x13}, nil
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}
	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	return &annotator{
		img:     img,
		context: ctx,
		face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if closer, ok := a.face.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (a *annotator) drawString(s string, x, y int) error {
	if a.context != nil {
		_, err := a.context.DrawString(s, freetype.Pt(x, y))
		return err
	}

	d := font.Drawer{
		Dst:  a.img,
		Src:  image.Black,
		Face: a.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
	return nil
}

func (a *annotator) measure(s string) int {
	return font.MeasureString(a.face, s).Round()
}

func (a *annotator) height() int {
	metrics := a.face.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) descent() int {
	return a.face.Metrics().Descent.Round()
}
