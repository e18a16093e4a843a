package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/webp-converter/internal/cli/hooks"
	"github.com/stackvity/webp-converter/pkg/converter"
)

// newTestModel returns a model that already received its window size.
func newTestModel(width, height int) *Model {
	m := NewModel("1.0.0")
	m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return m
}

func update(t *testing.T, m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(*Model)
	require.True(t, ok)
	return updated, cmd
}

func TestModel_Init(t *testing.T) {
	m := newTestModel(80, 25)
	cmd := m.Init()
	require.NotNil(t, cmd)
	_, ok := cmd().(spinner.TickMsg)
	assert.True(t, ok, "Init should return a command that produces spinner.TickMsg")
}

func TestModel_Update_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			m, cmd := update(t, newTestModel(80, 25), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
			require.NotNil(t, cmd)
			assert.True(t, m.quitting)
			assert.Equal(t, tea.Quit(), cmd())
			assert.Equal(t, "Exiting...\n", m.View())
		})
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m, cmd := update(t, NewModel(""), tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Nil(t, cmd)
	assert.True(t, m.initialized)
	assert.Equal(t, 100, m.width)
	assert.Equal(t, 30, m.height)
	assert.Equal(t, 30-listHeightMargin-logPaneLines, m.list.Height())
	assert.Equal(t, 100, m.list.Width())
}

func TestModel_Update_FileDiscovered(t *testing.T) {
	m, cmd := update(t, newTestModel(80, 25), hooks.FileDiscoveredMsg{Path: "/in/a.png"})
	require.NotNil(t, cmd, "first change schedules a list refresh")
	require.Len(t, m.fileItems, 1)
	assert.Equal(t, converter.StatusPending, m.fileItems[0].status)
	assert.Equal(t, 1, m.summary.Discovered)

	m, cmd = update(t, m, hooks.FileDiscoveredMsg{Path: "/in/b.png"})
	assert.Nil(t, cmd, "refresh already pending")

	m, _ = update(t, m, hooks.FileDiscoveredMsg{Path: "/in/a.png"})
	assert.Len(t, m.fileItems, 2, "duplicate discovery is ignored")
	assert.Equal(t, 2, m.summary.Discovered)
}

func TestModel_Update_FileStatusUpdate(t *testing.T) {
	m := newTestModel(80, 25)
	m, _ = update(t, m, hooks.FileDiscoveredMsg{Path: "/in/a.png"})
	m, _ = update(t, m, hooks.FileDiscoveredMsg{Path: "/in/b.png"})
	m, _ = update(t, m, hooks.FileDiscoveredMsg{Path: "/in/c.png"})

	m, _ = update(t, m, hooks.FileStatusUpdateMsg{Path: "/in/a.png", Status: converter.StatusProcessing})
	assert.Equal(t, phaseConverting, m.phaseMessage)

	m, _ = update(t, m, hooks.FileStatusUpdateMsg{Path: "/in/a.png", Status: converter.StatusSuccess, Duration: 3 * time.Millisecond})
	m, _ = update(t, m, hooks.FileStatusUpdateMsg{Path: "/in/b.png", Status: converter.StatusSkipped})
	m, _ = update(t, m, hooks.FileStatusUpdateMsg{Path: "/in/c.png", Status: converter.StatusFailed, Message: "bad data"})

	assert.Equal(t, 2, m.summary.SuccessCount)
	assert.Equal(t, 1, m.summary.SkippedCount)
	assert.Equal(t, 1, m.summary.ErrorCount)
	assert.Equal(t, 3*time.Millisecond, m.fileItems[0].duration)
	assert.Equal(t, "bad data", m.fileItems[2].message)

	// A repeated final status must not double count.
	m, _ = update(t, m, hooks.FileStatusUpdateMsg{Path: "/in/c.png", Status: converter.StatusFailed, Message: "bad data"})
	assert.Equal(t, 1, m.summary.ErrorCount)
}

func TestModel_Update_UnknownItemIsAdded(t *testing.T) {
	m, _ := update(t, newTestModel(80, 25), hooks.FileStatusUpdateMsg{Path: "/in/x.gif", Status: converter.StatusSuccess})
	require.Len(t, m.fileItems, 1)
	assert.Equal(t, 1, m.summary.SuccessCount)
	assert.Equal(t, 1, m.summary.Discovered)
}

func TestModel_Update_UpdateListMsg(t *testing.T) {
	m, _ := update(t, newTestModel(80, 25), hooks.FileDiscoveredMsg{Path: "/in/a.png"})
	require.True(t, m.refreshPending)
	m, _ = update(t, m, UpdateListMsg{})
	assert.False(t, m.refreshPending)
	assert.Len(t, m.list.Items(), 1)
}

func TestModel_Update_RunComplete(t *testing.T) {
	m := newTestModel(80, 25)
	m, _ = update(t, m, hooks.RunCompleteMsg{Report: converter.Report{Summary: converter.BatchSummary{
		Total: 4, SuccessCount: 3, SkippedCount: 1, ErrorCount: 1,
	}}})

	assert.True(t, m.done)
	assert.Equal(t, phaseComplete, m.phaseMessage)
	assert.Equal(t, 3, m.summary.SuccessCount)
	assert.Equal(t, 4, m.summary.Total)

	_, cmd := update(t, m, spinner.TickMsg{})
	assert.Nil(t, cmd, "spinner stops once the run is done")
}

func TestModel_Update_FatalError(t *testing.T) {
	m, _ := update(t, newTestModel(80, 25), hooks.FatalErrorMsg{Err: errors.New("cannot read input")})
	assert.True(t, m.done)
	assert.Equal(t, "Fatal error: cannot read input", m.fatalError)
	assert.Contains(t, m.View(), "Fatal error: cannot read input")
}

func TestModel_LogPaneShowsTrailingLines(t *testing.T) {
	m := newTestModel(120, 30)
	m, _ = update(t, m, hooks.LogLineMsg{Line: "Starting conversion from: /in"})
	m, _ = update(t, m, hooks.LogLineMsg{Line: "Found 2 files to convert"})
	m, _ = update(t, m, hooks.LogLineMsg{Line: "Error: failed to decode image /in/b.png"})
	m, _ = update(t, m, hooks.LogLineMsg{Line: "\nFinished processing all files\nSuccess: 1\nErrors: 1\nTotal: 2"})

	view := m.logView()
	lines := strings.Split(view, "\n")
	assert.Len(t, lines, logPaneLines)
	assert.Contains(t, view, "Total: 2")
	assert.Contains(t, view, "Error: failed to decode image /in/b.png")
	assert.NotContains(t, view, "Starting conversion", "older lines scroll out")
}

func TestModel_LogHistoryIsBounded(t *testing.T) {
	m := newTestModel(80, 25)
	for i := 0; i < maxLogLines+10; i++ {
		m.appendLog("Converted: x")
	}
	assert.Len(t, m.logLines, maxLogLines)
}

func TestModel_View(t *testing.T) {
	assert.Equal(t, phaseInitializing, NewModel("").View())

	m := newTestModel(120, 30)
	m, _ = update(t, m, hooks.FileDiscoveredMsg{Path: "/in/a.png"})
	m, _ = update(t, m, UpdateListMsg{})
	view := m.View()
	assert.Contains(t, view, "WebP Converter v1.0.0")
	assert.Contains(t, view, "a.png")
	assert.Contains(t, view, "Errors: 0")
	assert.Contains(t, view, "q: quit")
}

func TestListItem_Description(t *testing.T) {
	assert.Contains(t, listItem{status: converter.StatusFailed, message: "boom"}.Description(), "boom")
	assert.Contains(t, listItem{status: converter.StatusSkipped}.Description(), "output exists")
	assert.Contains(t, listItem{status: converter.StatusSuccess, duration: 1500 * time.Millisecond}.Description(), "1.50s")
	assert.Equal(t, "a.png", listItem{path: "/in/a.png"}.Title())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", formatDuration(0))
	assert.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	assert.Equal(t, "12ms", formatDuration(12*time.Millisecond))
	assert.Equal(t, "2.00s", formatDuration(2*time.Second))
}
