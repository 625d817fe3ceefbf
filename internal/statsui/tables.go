package statsui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/versequiz/quizstats/internal/model"
	"github.com/versequiz/quizstats/internal/stats"
)

// dataTable is a bubbles table plus the layout it was last sized for.
type dataTable struct {
	table  table.Model
	layout tableLayout
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
	colCount int
}

func newDataTable() *dataTable {
	t := table.New(table.WithHeight(1))
	t.SetStyles(dataTableStyles())
	return &dataTable{table: t}
}

// apply swaps in new data, resizing only when the shape changed or force is set.
func (d *dataTable) apply(cols []table.Column, rows []table.Row, width, height int, force bool) {
	viewportHeight := maxInt(1, height-1)
	if !force &&
		d.layout.width == width &&
		d.layout.height == viewportHeight &&
		d.layout.rowCount == len(rows) &&
		d.layout.colCount == len(cols) {
		return
	}
	// Rows must match the new column count before columns change.
	d.table.SetRows(nil)
	d.table.SetColumns(cols)
	d.table.SetRows(rows)
	d.layout.rowCount = len(rows)
	d.layout.colCount = len(cols)
	d.layout.width = 0
	d.setSize(width, height)
}

func (d *dataTable) setSize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if d.layout.width == width && d.layout.height == viewportHeight {
		return
	}
	d.layout.width = width
	d.layout.height = viewportHeight
	d.table.SetWidth(width)
	d.table.SetHeight(viewportHeight)
	viewportHeight = d.adjustHeight(height)
	if d.layout.height != viewportHeight {
		d.layout.height = viewportHeight
		d.table.SetHeight(viewportHeight)
	}
}

// adjustHeight corrects for header and border lines so the rendered table
// fills exactly bodyHeight rows.
func (d *dataTable) adjustHeight(bodyHeight int) int {
	target := maxInt(1, bodyHeight)
	height := d.table.Height()
	viewHeight := lipgloss.Height(d.table.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	d.table.SetHeight(height)
	viewHeight = lipgloss.Height(d.table.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	return height
}

func dataTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func gapTableData(groupBy string, gaps []model.AggregateResult) ([]table.Column, []table.Row) {
	keyWidth := len(stats.GroupLabel(groupBy))
	for _, g := range gaps {
		keyWidth = maxInt(keyWidth, lipgloss.Width(g.Key))
	}
	columns := []table.Column{
		{Title: stats.GroupLabel(groupBy), Width: keyWidth},
		{Title: "Attempts", Width: 8},
		{Title: "Correct", Width: 7},
		{Title: "Points", Width: 13},
		{Title: "Score", Width: 7},
		{Title: "Time", Width: 9},
	}
	rows := make([]table.Row, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, table.Row{
			g.Key,
			humanize.Comma(int64(g.TotalAttempts)),
			humanize.Comma(int64(g.CorrectAttempts)),
			fmt.Sprintf("%s/%s", humanize.Comma(int64(g.TotalPointsEarned)), humanize.Comma(int64(g.TotalPointsPossible))),
			stats.FormatPercent(g.AverageScorePercent),
			stats.FormatSeconds(g.TotalTimeSpentSeconds),
		})
	}
	return columns, rows
}

func questionTableData(questions []model.QuestionPerformance) ([]table.Column, []table.Row) {
	idWidth := len("Question")
	for _, q := range questions {
		idWidth = maxInt(idWidth, lipgloss.Width(q.QuestionID))
	}
	columns := []table.Column{
		{Title: "Question", Width: idWidth},
		{Title: "Attempts", Width: 8},
		{Title: "Correct", Width: 7},
		{Title: "Accuracy", Width: 8},
		{Title: "Avg Time", Width: 8},
	}
	rows := make([]table.Row, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, table.Row{
			q.QuestionID,
			humanize.Comma(int64(q.Attempts)),
			humanize.Comma(int64(q.Correct)),
			fmt.Sprintf("%d%%", q.AccuracyPercent),
			stats.FormatSeconds(q.AverageTimeSeconds),
		})
	}
	return columns, rows
}
