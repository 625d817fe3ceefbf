// Package statsui provides the Bubble Tea quiz dashboard.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/model"
	"github.com/versequiz/quizstats/internal/stats"
)

const (
	tabOverview = iota
	tabTrend
	tabGaps
	tabQuestions
	tabLeaderboard
)

const (
	filterTeam = iota
	filterUser
	filterSince
	filterUntil
	filterPeriods
)

var groupings = []string{"book", "chapter", "tier", "user", "question"}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	src   stats.Source
	cache *stats.ReportCache
	cfg   model.StatsConfig
	acfg  model.AnalyticsConfig
	now   func() time.Time

	report stats.Report
	cached bool
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	tables    map[int]*dataTable

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs the dashboard. Reports are served through cache, which
// the caller owns; a nil cache gets a private one.
func NewModel(src stats.Source, cache *stats.ReportCache, cfg model.StatsConfig, acfg model.AnalyticsConfig) *Model {
	return newModel(src, cache, cfg, acfg, time.Now)
}

func newModel(src stats.Source, cache *stats.ReportCache, cfg model.StatsConfig, acfg model.AnalyticsConfig, now func() time.Time) *Model {
	if cache == nil {
		cache = stats.NewReportCache(8, time.Minute)
	}
	m := &Model{
		src:   src,
		cache: cache,
		cfg:   cfg,
		acfg:  acfg,
		now:   now,
		tabs:  []string{"Overview", "Trend", "Gaps", "Questions", "Leaderboard"},
		tables: map[int]*dataTable{
			tabGaps:      newDataTable(),
			tabQuestions: newDataTable(),
		},
	}
	m.initInputs()
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "t":
			m.toggleTimeframe()
			return m, nil
		case "b":
			m.cycleGrouping()
			return m, nil
		case "=", "+":
			m.adjustPeriods(1)
			return m, nil
		case "-":
			m.adjustPeriods(-1)
			return m, nil
		case "r":
			m.cache.Invalidate()
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if dt, ok := m.tables[m.activeTab]; ok {
				dt.table.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if dt, ok := m.tables[m.activeTab]; ok {
				dt.table.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if dt, ok := m.tables[m.activeTab]; ok {
				var cmd tea.Cmd
				dt.table, cmd = dt.table.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Team: "),
		newFilterInput("User: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Until (YYYY-MM-DD): "),
		newFilterInput("Periods: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[filterTeam].SetValue(m.cfg.TeamID)
	m.filterInputs[filterUser].SetValue(m.cfg.UserID)
	m.filterInputs[filterSince].SetValue(formatDay(m.cfg.Since, m.acfg.Location))
	m.filterInputs[filterUntil].SetValue(formatDay(m.cfg.Until, m.acfg.Location))
	if m.cfg.Periods > 0 {
		m.filterInputs[filterPeriods].SetValue(strconv.Itoa(m.cfg.Periods))
	} else {
		m.filterInputs[filterPeriods].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	for _, dt := range m.tables {
		dt.setSize(m.width, bodyHeight)
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	for tab, dt := range m.tables {
		if tab == m.activeTab {
			dt.table.Focus()
		} else {
			dt.table.Blur()
		}
	}
}

func (m *Model) toggleTimeframe() {
	current := m.report.Config.Timeframe
	if current == "" {
		current = m.acfg.Timeframe
	}
	if current == model.Monthly {
		m.cfg.Timeframe = model.Weekly
	} else {
		m.cfg.Timeframe = model.Monthly
	}
	m.refreshReport()
}

func (m *Model) cycleGrouping() {
	current := strings.ToLower(m.cfg.GroupBy)
	if current == "" {
		current = groupings[0]
	}
	next := groupings[0]
	for i, g := range groupings {
		if g == current {
			next = groupings[(i+1)%len(groupings)]
			break
		}
	}
	m.cfg.GroupBy = next
	m.refreshReport()
}

func (m *Model) adjustPeriods(delta int) {
	current := m.report.Config.Periods
	if current <= 0 {
		current = m.acfg.Periods
	}
	next := current + delta
	if next < 1 {
		next = 1
	}
	if next > analytics.MaxPeriodCount {
		next = analytics.MaxPeriodCount
	}
	if next == current {
		return
	}
	m.cfg.Periods = next
	m.refreshReport()
}

func (m *Model) refreshReport() {
	report, hit, err := m.cache.Report(context.Background(), m.src, m.cfg, m.acfg, m.now())
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.cached = hit
	m.report = report
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	cols, rows := gapTableData(report.Config.GroupBy, report.Gaps)
	m.tables[tabGaps].apply(cols, rows, width, bodyHeight, true)
	cols, rows = questionTableData(report.Questions)
	m.tables[tabQuestions].apply(cols, rows, width, bodyHeight, true)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabTrend].SetContent(renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderTrend(buf, m.report.Trend, width, true)
	}))
	m.viewports[tabLeaderboard].SetContent(renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderLeaderboard(buf, m.report.Leaderboard)
	}))
}

func renderWith(render func(*bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderOverview(r stats.Report, width int) string {
	if r.Overall.TotalAttempts == 0 && r.Completions == 0 {
		return "No activity in range."
	}
	cards := []string{
		metricCard("Completions", humanize.Comma(int64(r.Completions))),
		metricCard("Answers", humanize.Comma(int64(r.Overall.TotalAttempts))),
		metricCard("Score", stats.FormatPercent(r.Overall.AverageScorePercent)),
		metricCard("Time", stats.FormatSeconds(r.Overall.TotalTimeSpentSeconds)),
		metricCard("Streak", fmt.Sprintf("%d d", r.Streak.Current)),
		metricCard("Longest", fmt.Sprintf("%d d", r.Streak.Longest)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	scores := make([]float64, len(r.Trend))
	for i, s := range r.Trend {
		scores[i] = s.AverageScorePercent
	}
	lines := []string{summary, ""}
	if len(scores) > 0 {
		lines = append(lines, fmt.Sprintf("Score trend  %s  %s", stats.WindowLabel(r.Periods), stats.Sparkline(scores)))
	}
	if len(r.Gaps) > 0 {
		worst := make([]string, 0, 3)
		for i := 0; i < len(r.Gaps) && i < 3; i++ {
			worst = append(worst, fmt.Sprintf("%s (%s)", r.Gaps[i].Key, stats.FormatPercent(r.Gaps[i].AverageScorePercent)))
		}
		lines = append(lines, "Weakest: "+strings.Join(worst, ", "))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	cfg := m.report.Config
	since := formatDay(m.cfg.Since, m.acfg.Location)
	if since == "" {
		since = "any"
	}
	until := formatDay(m.cfg.Until, m.acfg.Location)
	if until == "" {
		until = "now"
	}
	summary := fmt.Sprintf("Filters: %s  since=%s  until=%s  %s x%d  group=%s",
		stats.ScopeLabel(m.cfg), since, until, cfg.Timeframe, cfg.Periods, strings.ToLower(stats.GroupLabel(m.cfg.GroupBy)))
	if m.cached {
		summary += "  (cached)"
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	return headerStyle.Render(truncateLine("Nav: left/right  Scroll: up/down  Timeframe: t  Group: b  Periods: -/=  Filters: /  Reload: r  Quit: q", m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabGaps:
		if len(m.report.Gaps) == 0 {
			return fitLines("No knowledge gaps found.", m.width, height)
		}
	case tabQuestions:
		if len(m.report.Questions) == 0 {
			return fitLines("No answers in range.", m.width, height)
		}
	}
	if dt, ok := m.tables[m.activeTab]; ok {
		return fitLines(tableMutedStyle.Render(dt.table.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	since, until, err := stats.ParseDateBounds(
		m.filterInputs[filterSince].Value(),
		m.filterInputs[filterUntil].Value(),
		m.acfg.Location,
	)
	if err != nil {
		return err
	}

	periodsInput := strings.TrimSpace(m.filterInputs[filterPeriods].Value())
	periods := 0
	if periodsInput != "" {
		parsed, err := strconv.Atoi(periodsInput)
		if err != nil || parsed < 1 || parsed > analytics.MaxPeriodCount {
			return fmt.Errorf("invalid periods (use 1-%d)", analytics.MaxPeriodCount)
		}
		periods = parsed
	}

	m.cfg.TeamID = strings.TrimSpace(m.filterInputs[filterTeam].Value())
	m.cfg.UserID = strings.TrimSpace(m.filterInputs[filterUser].Value())
	m.cfg.Since = since
	m.cfg.Until = until
	m.cfg.Periods = periods
	return nil
}

func formatDay(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc != nil {
		return t.In(loc).Format(stats.DayLayout)
	}
	return t.Format(stats.DayLayout)
}
