package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Bar is one labelled value in a bar chart.
type Bar struct {
	Label string
	Value float64
	Note  string
}

const (
	minBarWidth         = 10
	terminalWidthBackup = 80
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	colorLow            = "\x1b[31m"
	colorMid            = "\x1b[33m"
	colorHigh           = "\x1b[32m"
)

// Eighth-block glyphs, index n draws n/8 of a cell.
var barGlyphs = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

var sparkGlyphs = []rune("▁▂▃▄▅▆▇█")

// RenderBars draws one horizontal bar per entry, scaled so that scale fills
// the bar area. A non-positive scale uses the largest value. A non-positive
// totalWidth uses the terminal width.
func RenderBars(w io.Writer, title string, bars []Bar, scale float64, totalWidth int, forceColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	if scale <= 0 {
		for _, b := range bars {
			if b.Value > scale {
				scale = b.Value
			}
		}
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	labelWidth, noteWidth := 0, 0
	for _, b := range bars {
		labelWidth = max(labelWidth, displayWidth(b.Label))
		noteWidth = max(noteWidth, displayWidth(b.Note))
	}
	barWidth := BarWidthFor(totalWidth, labelWidth, noteWidth)
	useColor := shouldUseColor(w, forceColor)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, b := range bars {
		var row strings.Builder
		row.WriteString(padCell(b.Label, labelWidth, false))
		row.WriteString(axisSeparator)
		ratio := 0.0
		if scale > 0 {
			ratio = b.Value / scale
		}
		bar := drawBar(ratio, barWidth)
		if useColor && b.Value > 0 {
			row.WriteString(colorFor(ratio))
			row.WriteString(bar)
			row.WriteString(colorReset)
		} else {
			row.WriteString(bar)
		}
		if b.Note != "" {
			row.WriteByte(' ')
			row.WriteString(padCell(b.Note, noteWidth, true))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BarWidthFor computes the bar area left after labels and notes.
func BarWidthFor(totalWidth, labelWidth, noteWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	width := totalWidth - labelWidth - utf8.RuneCountInString(axisSeparator)
	if noteWidth > 0 {
		width -= noteWidth + 1
	}
	if width < minBarWidth {
		width = minBarWidth
	}
	return width
}

func drawBar(ratio float64, width int) string {
	if ratio < 0 || math.IsNaN(ratio) {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	eighths := int(math.Round(ratio * float64(width*8)))
	full := eighths / 8
	rest := eighths % 8
	var b strings.Builder
	b.WriteString(strings.Repeat(string(barGlyphs[8]), full))
	cells := full
	if rest > 0 {
		b.WriteRune(barGlyphs[rest])
		cells++
	}
	b.WriteString(strings.Repeat(" ", width-cells))
	return b.String()
}

func colorFor(ratio float64) string {
	switch {
	case ratio < 0.6:
		return colorLow
	case ratio < 0.8:
		return colorMid
	default:
		return colorHigh
	}
}

// Sparkline renders values as a single line of block glyphs scaled to their range.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkGlyphs[len(sparkGlyphs)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkGlyphs)-1)))
		b.WriteRune(sparkGlyphs[idx])
	}
	return b.String()
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
