package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRenderBars(t *testing.T) {
	var buf bytes.Buffer
	err := RenderBars(&buf, "Score by week", []Bar{
		{Label: "Mar 03", Value: 100, Note: "100%"},
		{Label: "Mar 10", Value: 50, Note: "50%"},
		{Label: "Mar 17", Value: 0, Note: "0%"},
	}, 100, 40, false)
	if err != nil {
		t.Fatalf("RenderBars failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title and 3 bars, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Score by week" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	barWidth := BarWidthFor(40, 6, 4)
	full := strings.Count(lines[1], "█")
	half := strings.Count(lines[2], "█")
	if full != barWidth {
		t.Fatalf("expected full bar of %d cells, got %d", barWidth, full)
	}
	if half != barWidth/2 {
		t.Fatalf("expected half bar of %d cells, got %d", barWidth/2, half)
	}
	if strings.Contains(lines[3], "█") {
		t.Fatalf("expected empty bar for zero value: %q", lines[3])
	}
	if !strings.HasSuffix(lines[3], "  0%") {
		t.Fatalf("expected right-aligned note: %q", lines[3])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no color codes for a buffer")
	}
}

func TestBarWidthFor(t *testing.T) {
	if got := BarWidthFor(80, 10, 5); got != 80-10-3-6 {
		t.Fatalf("unexpected bar width %d", got)
	}
	if got := BarWidthFor(0, 10, 5); got != minBarWidth {
		t.Fatalf("expected min width %d, got %d", minBarWidth, got)
	}
	if got := BarWidthFor(12, 10, 5); got != minBarWidth {
		t.Fatalf("expected min width for narrow terminals, got %d", got)
	}
}

func TestDrawBarPartialCells(t *testing.T) {
	bar := drawBar(0.55, 10)
	if utf8.RuneCountInString(bar) != 10 {
		t.Fatalf("expected 10 cells, got %q", bar)
	}
	if !strings.HasPrefix(bar, "█████▌") {
		t.Fatalf("unexpected partial bar %q", bar)
	}
	if drawBar(2, 4) != "████" {
		t.Fatalf("expected ratio above 1 to clamp")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != "▁▅█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "▅▅" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}
