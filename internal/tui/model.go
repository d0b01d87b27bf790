package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/chat"
	"quill/internal/client"
	"quill/internal/logging"
	"quill/internal/store"
	"quill/internal/tasks"
	"quill/internal/types"
)

const (
	maxEventsPerTick = 64
	tickInterval     = 100 * time.Millisecond
	minViewportWidth = 20
	minContentHeight = 4
)

type Model struct {
	api        *client.Client
	logger     logging.Logger
	stateStore *store.AppStateStore

	controller *chat.Controller
	tracker    *tasks.Tracker

	vault     string
	sessionID string

	events <-chan types.ChatEvent
	cancel func()

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	showTasks  bool
	taskItems  []types.TaskItem
	taskCursor int

	status  string
	lastErr string
}

type tickMsg time.Time

type sessionOpenedMsg struct {
	session *client.SessionResponse
	events  <-chan types.ChatEvent
	cancel  func()
}

type tasksLoadedMsg struct {
	items []types.TaskItem
}

type taskPersistedMsg struct {
	req client.UpdateTaskRequest
	err error
}

type sendFailedMsg struct {
	err error
}

type apiErrMsg struct {
	err error
}

func NewModel(api *client.Client, stateStore *store.AppStateStore, vault, resumeSessionID string, logger logging.Logger) *Model {
	if logger == nil {
		logger = logging.Nop()
	}
	input := textinput.New()
	input.Placeholder = "Ask about your notes…"
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		api:        api,
		logger:     logging.Component(logger, "tui"),
		stateStore: stateStore,
		controller: chat.NewController(logging.Component(logger, "reconciler")),
		tracker:    tasks.NewTracker(),
		vault:      vault,
		sessionID:  resumeSessionID,
		viewport:   viewport.New(minViewportWidth, minContentHeight),
		input:      input,
		spin:       spin,
		status:     "connecting…",
	}
}

func Run(api *client.Client, stateStore *store.AppStateStore, vault, resumeSessionID string, logger logging.Logger) error {
	model := NewModel(api, stateStore, vault, resumeSessionID, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.openSessionCmd(), m.spin.Tick, tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refreshViewport()
		return m, nil

	case tickMsg:
		if m.consumeEvents() {
			m.refreshViewport()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.controller.Streaming() {
			m.refreshViewport()
		}
		return m, cmd

	case sessionOpenedMsg:
		m.sessionID = msg.session.SessionID
		m.events = msg.events
		m.cancel = msg.cancel
		m.status = fmt.Sprintf("vault %s · session %s", m.vault, m.sessionID)
		m.saveAppState()
		return m, nil

	case tasksLoadedMsg:
		m.taskItems = msg.items
		if m.taskCursor >= len(m.taskItems) {
			m.taskCursor = max(0, len(m.taskItems)-1)
		}
		return m, nil

	case taskPersistedMsg:
		if msg.err != nil {
			// The authoritative write failed; compensate with the
			// recorded pre-toggle state.
			if original, ok := m.tracker.Rollback(msg.req.FilePath, msg.req.LineNumber); ok {
				m.applyTaskState(msg.req.FilePath, msg.req.LineNumber, original)
			}
			m.lastErr = "task update failed: " + msg.err.Error()
			return m, nil
		}
		m.tracker.Confirm(msg.req.FilePath, msg.req.LineNumber)
		return m, nil

	case sendFailedMsg:
		m.lastErr = "send failed: " + msg.err.Error()
		return m, nil

	case apiErrMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case "ctrl+t":
		m.showTasks = !m.showTasks
		if m.showTasks {
			return m, m.loadTasksCmd()
		}
		return m, nil
	case "ctrl+y":
		m.copyLastAssistantMessage()
		return m, nil
	case "ctrl+x":
		return m, m.stopTurnCmd()
	}

	if m.showTasks {
		switch msg.String() {
		case "esc":
			m.showTasks = false
			return m, nil
		case "up", "k":
			if m.taskCursor > 0 {
				m.taskCursor--
			}
			return m, nil
		case "down", "j":
			if m.taskCursor < len(m.taskItems)-1 {
				m.taskCursor++
			}
			return m, nil
		case "enter", " ":
			return m, m.toggleSelectedTask()
		}
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m, m.sendCurrentInput()
	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	if !m.ready {
		return "loading…"
	}
	var body string
	if m.showTasks {
		body = renderTaskPanel(m.taskItems, m.taskCursor, m.viewport.Width, func(item types.TaskItem) bool {
			return m.tracker.InFlight(item.FilePath, item.LineNumber)
		})
	} else {
		body = m.viewport.View()
	}
	status := m.status
	if m.lastErr != "" {
		status = errorStyle.Render(m.lastErr)
	}
	return body + "\n" + statusLine(status, m.width) + "\n" + m.input.View()
}

// consumeEvents drains a bounded number of stream events per tick so a
// bursty stream cannot starve input handling.
func (m *Model) consumeEvents() bool {
	if m.events == nil {
		return false
	}
	changed := false
	for i := 0; i < maxEventsPerTick; i++ {
		select {
		case event, ok := <-m.events:
			if !ok {
				m.events = nil
				m.cancel = nil
				m.status = "stream closed"
				return changed
			}
			if event.Type == types.EventSessionReady && event.SessionID != "" {
				m.sessionID = event.SessionID
				m.saveAppState()
			}
			m.controller.Apply(event)
			changed = true
		default:
			return changed
		}
	}
	return changed
}

func (m *Model) refreshViewport() {
	glyph := ""
	if m.controller.Streaming() {
		glyph = m.spin.View()
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(m.controller.Messages(), m.viewport.Width, glyph))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize() {
	width := max(minViewportWidth, m.width)
	height := max(minContentHeight, m.height-2)
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.Width = width - len(m.input.Prompt) - 1
}

func (m *Model) sendCurrentInput() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.sessionID == "" {
		return nil
	}
	m.input.SetValue("")
	m.controller.AppendUserMessage(content)
	m.refreshViewport()
	m.viewport.GotoBottom()
	api, sessionID := m.api, m.sessionID
	return func() tea.Msg {
		if err := api.SendMessage(context.Background(), sessionID, content); err != nil {
			return sendFailedMsg{err: err}
		}
		return nil
	}
}

func (m *Model) toggleSelectedTask() tea.Cmd {
	if m.taskCursor < 0 || m.taskCursor >= len(m.taskItems) {
		return nil
	}
	item := m.taskItems[m.taskCursor]
	next, req := m.tracker.Toggle(item.FilePath, item.LineNumber, item.State)
	m.applyTaskState(item.FilePath, item.LineNumber, next)
	api, vault := m.api, m.vault
	persist := client.UpdateTaskRequest{
		FilePath:   req.FilePath,
		LineNumber: req.LineNumber,
		State:      req.State,
	}
	return func() tea.Msg {
		_, err := api.UpdateTask(context.Background(), vault, persist)
		return taskPersistedMsg{req: persist, err: err}
	}
}

func (m *Model) applyTaskState(filePath string, lineNumber int, state string) {
	for i := range m.taskItems {
		if m.taskItems[i].FilePath == filePath && m.taskItems[i].LineNumber == lineNumber {
			m.taskItems[i].State = state
			return
		}
	}
}

func (m *Model) copyLastAssistantMessage() {
	messages := m.controller.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleAssistant && messages[i].Content != "" {
			if err := copyToClipboard(messages[i].Content); err != nil {
				m.lastErr = err.Error()
			} else {
				m.status = "copied assistant message"
			}
			return
		}
	}
}

func (m *Model) openSessionCmd() tea.Cmd {
	api, vault, resume, logger := m.api, m.vault, m.sessionID, m.logger
	return func() tea.Msg {
		ctx := context.Background()
		session, err := api.OpenSession(ctx, vault, resume)
		if err != nil {
			return apiErrMsg{err: err}
		}
		events, cancel, err := api.Events(ctx, session.SessionID, logger)
		if err != nil {
			return apiErrMsg{err: err}
		}
		return sessionOpenedMsg{session: session, events: events, cancel: cancel}
	}
}

func (m *Model) loadTasksCmd() tea.Cmd {
	api, vault := m.api, m.vault
	return func() tea.Msg {
		items, err := api.ListTasks(context.Background(), vault)
		if err != nil {
			return apiErrMsg{err: err}
		}
		return tasksLoadedMsg{items: items}
	}
}

func (m *Model) stopTurnCmd() tea.Cmd {
	if m.sessionID == "" {
		return nil
	}
	api, sessionID := m.api, m.sessionID
	return func() tea.Msg {
		if err := api.StopTurn(context.Background(), sessionID); err != nil {
			return apiErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) saveAppState() {
	if m.stateStore == nil {
		return
	}
	err := m.stateStore.Save(store.AppState{
		SelectedVault: m.vault,
		LastSessionID: m.sessionID,
	})
	if err != nil {
		m.logger.Warn("failed to save app state", logging.F("err", err))
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
