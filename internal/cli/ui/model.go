package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackvity/webp-converter/internal/cli/hooks"
	"github.com/stackvity/webp-converter/pkg/converter"
)

const (
	// listHeightMargin covers header and footer lines.
	listHeightMargin = 4
	// logPaneLines is how many trailing log lines stay on screen.
	logPaneLines = 6
	// maxLogLines bounds the in-memory log history.
	maxLogLines = 500

	phaseInitializing = "Initializing..."
	phaseConverting   = "Converting..."
	phaseComplete     = "Complete"
	phaseFailed       = "Failed"
)

// Model represents the state of the TUI application. Bubble Tea calls Update
// and View from a single goroutine, so the model needs no locking.
type Model struct {
	list    list.Model
	spinner spinner.Model
	width   int
	height  int
	// initialized tracks if the model has received initial dimensions.
	initialized bool
	appVersion  string

	fileItems []listItem
	itemMap   map[string]int
	// refreshPending is set while an UpdateListMsg tick is in flight.
	refreshPending bool

	logLines     []string
	summary      Summary
	phaseMessage string
	fatalError   string
	quitting     bool
	done         bool
}

// listItem represents a single candidate in the TUI list.
type listItem struct {
	path     string
	status   converter.Status
	message  string
	duration time.Duration
}

// Summary holds the aggregated statistics displayed in the TUI footer.
type Summary struct {
	Discovered   int
	SuccessCount int
	SkippedCount int
	ErrorCount   int
	Total        int
	StartTime    time.Time
	Elapsed      time.Duration // set once the run completes
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles user input and hook events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.listHeight())
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting || m.done {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	// --- Custom Messages from Library Hooks ---
	case hooks.FileDiscoveredMsg:
		if _, exists := m.itemMap[msg.Path]; !exists {
			m.fileItems = append(m.fileItems, listItem{path: msg.Path, status: converter.StatusPending})
			m.itemMap[msg.Path] = len(m.fileItems) - 1
			m.summary.Discovered++
			cmds = append(cmds, m.scheduleListRefresh())
		}

	case hooks.FileStatusUpdateMsg:
		idx, ok := m.itemMap[msg.Path]
		if !ok {
			m.fileItems = append(m.fileItems, listItem{path: msg.Path, status: converter.StatusPending})
			idx = len(m.fileItems) - 1
			m.itemMap[msg.Path] = idx
			m.summary.Discovered++
		}
		item := &m.fileItems[idx]
		if msg.Status.IsFinal() && !item.status.IsFinal() {
			m.countFinal(msg.Status)
		}
		item.status = msg.Status
		item.message = msg.Message
		item.duration = msg.Duration
		if msg.Status == converter.StatusProcessing && m.phaseMessage == phaseInitializing {
			m.phaseMessage = phaseConverting
		}
		cmds = append(cmds, m.scheduleListRefresh())

	case hooks.LogLineMsg:
		m.appendLog(msg.Line)

	case hooks.RunCompleteMsg:
		s := msg.Report.Summary
		m.summary.SuccessCount = s.SuccessCount
		m.summary.SkippedCount = s.SkippedCount
		m.summary.ErrorCount = s.ErrorCount
		m.summary.Total = s.Total
		m.summary.Elapsed = time.Since(m.summary.StartTime)
		m.phaseMessage = phaseComplete
		m.done = true

	case hooks.FatalErrorMsg:
		m.fatalError = fmt.Sprintf("Fatal error: %v", msg.Err)
		m.phaseMessage = phaseFailed
		m.done = true

	case UpdateListMsg:
		m.refreshPending = false
		items := make([]list.Item, len(m.fileItems))
		for i, item := range m.fileItems {
			items[i] = item
		}
		cmds = append(cmds, m.list.SetItems(items))
	}

	return m, tea.Batch(cmds...)
}

// View renders the current state of the TUI model.
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return phaseInitializing
	}

	// --- Header ---
	headerLeft := fmt.Sprintf("WebP Converter v%s", m.appVersion)
	headerRight := m.phaseMessage
	if !m.done && m.phaseMessage != phaseInitializing {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	headerCenter := ""
	if gap := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight); gap > 0 {
		headerCenter = lipgloss.PlaceHorizontal(gap, lipgloss.Center, " ")
	}
	header := HeaderStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, headerLeft, headerCenter, headerRight))

	// --- Footer ---
	elapsed := m.summary.Elapsed
	if !m.done {
		elapsed = time.Since(m.summary.StartTime)
	}
	footerLeft := m.summaryText(elapsed.Round(time.Millisecond))
	footerRight := "q: quit"
	footerCenter := ""
	if gap := m.width - lipgloss.Width(footerLeft) - lipgloss.Width(footerRight); gap > 0 {
		footerCenter = lipgloss.PlaceHorizontal(gap, lipgloss.Center, " ")
	}
	footer := FooterStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, footerLeft, footerCenter, footerRight))

	sections := []string{header, m.list.View(), m.logView()}
	if m.fatalError != "" {
		sections = append(sections, StatusStyleFailed.Render(m.fatalError))
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) summaryText(elapsed time.Duration) string {
	total := m.summary.Total
	if !m.done {
		total = m.summary.Discovered
	}
	return fmt.Sprintf("Success: %d (Skipped: %d) | Errors: %d | Total: %d | Elapsed: %s",
		m.summary.SuccessCount, m.summary.SkippedCount, m.summary.ErrorCount, total, elapsed)
}

// logView renders the last lines of the progress log. The summary block
// spans several lines, so lines are split before trimming.
func (m *Model) logView() string {
	var flat []string
	for _, line := range m.logLines {
		flat = append(flat, strings.Split(strings.TrimPrefix(line, "\n"), "\n")...)
	}
	if len(flat) > logPaneLines {
		flat = flat[len(flat)-logPaneLines:]
	}
	rendered := make([]string, len(flat))
	for i, line := range flat {
		if strings.HasPrefix(line, converter.LinePrefixError) {
			rendered[i] = StatusStyleFailed.Render(line)
		} else {
			rendered[i] = LogStyle.Render(line)
		}
	}
	return strings.Join(rendered, "\n")
}

// NewModel creates the initial model for the TUI.
func NewModel(appVersion string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorStatusProcessing)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorSelectedDescFg).
		Background(ColorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(ColorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(ColorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	if appVersion == "" {
		appVersion = "dev"
	}
	return &Model{
		list:         l,
		spinner:      s,
		appVersion:   appVersion,
		summary:      Summary{StartTime: time.Now()},
		phaseMessage: phaseInitializing,
		fileItems:    make([]listItem, 0, 256),
		itemMap:      make(map[string]int),
	}
}

func (m *Model) listHeight() int {
	h := m.height - listHeightMargin - logPaneLines
	if h < 1 {
		h = 1
	}
	return h
}

// countFinal updates live counts. RunCompleteMsg replaces them with the
// report's numbers.
func (m *Model) countFinal(status converter.Status) {
	switch status {
	case converter.StatusSuccess:
		m.summary.SuccessCount++
	case converter.StatusSkipped:
		m.summary.SuccessCount++
		m.summary.SkippedCount++
	case converter.StatusFailed:
		m.summary.ErrorCount++
	}
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

// --- List Item Interface ---

// FilterValue implements the list.Item interface.
func (i listItem) FilterValue() string { return i.path }

// Title implements the list.Item interface.
func (i listItem) Title() string { return filepath.Base(i.path) }

// Description implements the list.Item interface.
func (i listItem) Description() string {
	var statusStyle lipgloss.Style
	statusIcon := " "
	switch i.status {
	case converter.StatusSuccess:
		statusStyle = StatusStyleSuccess
		statusIcon = "✓"
	case converter.StatusFailed:
		statusStyle = StatusStyleFailed
		statusIcon = "✗"
	case converter.StatusSkipped:
		statusStyle = StatusStyleSkipped
		statusIcon = "S"
	case converter.StatusProcessing:
		statusStyle = StatusStyleProcessing
		statusIcon = "…"
	default:
		statusStyle = StatusStylePending
	}

	statusStr := statusStyle.Render(fmt.Sprintf("[%s]", statusIcon))
	details := ""
	switch i.status {
	case converter.StatusFailed:
		details = i.message
	case converter.StatusSkipped:
		details = "output exists"
	case converter.StatusSuccess:
		details = formatDuration(i.duration)
	}
	return strings.TrimRight(fmt.Sprintf("%s %s", statusStr, details), " ")
}

// formatDuration formats duration for display.
func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// --- List Refresh Throttling ---

// UpdateListMsg signals that the list component should update its items.
type UpdateListMsg struct{}

// listRefreshInterval caps list rebuilds at ~20 per second.
const listRefreshInterval = 50 * time.Millisecond

// scheduleListRefresh returns a tick that triggers UpdateListMsg, or nil if
// one is already pending.
func (m *Model) scheduleListRefresh() tea.Cmd {
	if m.refreshPending {
		return nil
	}
	m.refreshPending = true
	return tea.Tick(listRefreshInterval, func(time.Time) tea.Msg { return UpdateListMsg{} })
}
