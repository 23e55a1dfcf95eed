// Package ui implements an interactive terminal interface for library
// syncing using bubbletea's Elm architecture.
//
// The TUI provides a short workflow:
//  1. [KindListView] : Pick a resource kind, or the whole library
//  2. [ConfirmView] : Confirm the sync
//  3. [SyncView] : Monitor real-time reconciliation progress
//  4. [ResultView] : Display add/update/remove counters
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Progress updates flow through a channel from the ReconciliationEngine,
// providing non-blocking status reporting during the pass.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	KindListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// syncAllLabel is the picker entry that reconciles every kind at once.
const syncAllLabel = "everything"

// kindItem wraps one syncable choice to implement [list.Item].
type kindItem struct {
	label string
	kind  models.ResourceKind // empty for the whole-library entry
}

var _ list.Item = kindItem{}

func (i kindItem) FilterValue() string { return i.label }
func (i kindItem) Title() string       { return i.label }
func (i kindItem) Description() string {
	if i.kind == "" {
		return "playlists, tracks, albums and artists"
	}
	return fmt.Sprintf("mirror your %ss", i.kind)
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result    *models.SyncResult
	allResult *tasks.SyncAllResult
	err       error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.ReconciliationEngine
	userID       string
	token        string
	width        int
	height       int
	kindList     list.Model
	selected     kindItem
	progressChan chan tasks.ProgressUpdate
	done         chan syncCompleteMsg
	progress     tasks.ProgressUpdate
	result       *models.SyncResult
	allResult    *tasks.SyncAllResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model bound to one authenticated user.
func NewModel(ctx context.Context, engine *tasks.ReconciliationEngine, userID, token string) *Model {
	items := []list.Item{kindItem{label: syncAllLabel}}
	for _, kind := range models.ResourceKinds() {
		items = append(items, kindItem{label: fmt.Sprintf("%ss", kind), kind: kind})
	}

	kindList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	kindList.Title = "Sync Library"

	return &Model{
		ctx:      ctx,
		view:     KindListView,
		engine:   engine,
		userID:   userID,
		token:    token,
		kindList: kindList,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.kindList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case KindListView:
			return m.handleKindListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.allResult = msg.allResult
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == KindListView {
		m.kindList, cmd = m.kindList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case KindListView:
		return m.renderKindList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleKindListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected, ok := m.kindList.SelectedItem().(kindItem); ok {
			m.selected = selected
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.kindList, cmd = m.kindList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = KindListView
		return m, nil
	case "y", "enter":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = KindListView
		m.result = nil
		m.allResult = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

// startSync launches the reconciliation pass in a goroutine and begins
// draining its progress channel. The channel is closed by the goroutine, so
// waitForProgress observing the close is the completion signal.
func (m *Model) startSync() tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progressChan
	done := make(chan syncCompleteMsg, 1)

	selected := m.selected
	go func() {
		var msg syncCompleteMsg
		if selected.kind == "" {
			msg.allResult, msg.err = m.engine.SyncAll(m.ctx, progressChan, m.userID, m.token, true)
		} else {
			msg.result, msg.err = m.engine.Sync(m.ctx, progressChan, tasks.SyncRequest{
				UserID: m.userID,
				Kind:   selected.kind,
				Token:  m.token,
				Force:  true,
			})
		}
		done <- msg
		close(progressChan)
	}()

	m.done = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	done := m.done
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}
		update, ok := <-progressChan
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderKindList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.kindList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync %s from Spotify?", m.selected.label))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing %s", m.selected.label))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchRemote:
		phase = "Fetching remote library..."
	case tasks.DiffSets:
		phase = "Computing differences..."
	case tasks.ApplyAdds:
		phase = fmt.Sprintf("Linking new items (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ApplyUpdates:
		phase = fmt.Sprintf("Updating changed items (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.PruneRemoved:
		phase = fmt.Sprintf("Removing stale items (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)) + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Sync Complete")

	var body string
	switch {
	case m.allResult != nil:
		added, updated, removed := m.allResult.Totals()
		body = fmt.Sprintf("\n%d added, %d updated, %d removed across %d kinds",
			added, updated, removed, len(m.allResult.Results))
		if len(m.allResult.Skipped) > 0 {
			body += "\n" + styles.warn.Render(fmt.Sprintf("%d kinds skipped (cooldown)", len(m.allResult.Skipped)))
		}
	case m.result != nil:
		body = fmt.Sprintf("\n%ss: %d added, %d updated, %d removed",
			m.result.Kind, m.result.Added, m.result.Updated, m.result.Removed)
	default:
		body = "\nNo result available"
	}

	return fmt.Sprintf("%s%s\n\n%s", title, body, helpView)
}
