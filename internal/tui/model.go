package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/huddle-chat/huddle/internal/feed"
	"github.com/huddle-chat/huddle/internal/feed/anchor"
)

// Options configure the chat TUI.
type Options struct {
	API             feed.API
	Viewer          feed.Viewer
	ChannelID       string
	ChannelName     string
	PageSize        int
	AnchorThreshold int
}

// Run starts the chat UI and blocks until it exits.
func Run(opts Options) error {
	if opts.PageSize <= 0 {
		opts.PageSize = 30
	}
	if opts.AnchorThreshold <= 0 {
		// Rows, not pixels: three lines from the bottom still counts
		// as anchored.
		opts.AnchorThreshold = 3
	}

	program := tea.NewProgram(newModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}

type pageLoadedMsg struct {
	initial bool
	err     error
}

type threadLoadedMsg struct {
	parentID string
	err      error
}

type sendResultMsg struct{ err error }

type toggleResultMsg struct{ err error }

type refreshMsg struct{}

// Model drives the channel feed: a viewport over the message list, a
// compose box, and an optional thread view layered over the same store.
type Model struct {
	opts   Options
	store  *feed.Store
	pager  *feed.Pager
	engine *feed.Engine
	anchor *anchor.Controller

	thread *feed.ThreadView

	viewport viewport.Model
	input    textarea.Model

	width    int
	height   int
	ready    bool
	selected int
	status   string
}

func newModel(opts Options) *Model {
	store := feed.NewStore()

	input := textarea.New()
	input.Placeholder = "Message #" + opts.ChannelName
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	return &Model{
		opts:     opts,
		store:    store,
		pager:    feed.NewPager(opts.API, store, opts.ChannelID, opts.PageSize),
		engine:   feed.NewEngine(opts.API, store, opts.Viewer),
		anchor:   anchor.NewController(nil, opts.AnchorThreshold),
		input:    input,
		selected: -1,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.loadInitialCmd()
}

func (m *Model) loadInitialCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.pager.LoadInitial(context.Background())
		return pageLoadedMsg{initial: true, err: err}
	}
}

func (m *Model) loadOlderCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.pager.LoadOlder(context.Background())
		return pageLoadedMsg{err: err}
	}
}

func (m *Model) sendCmd(content string) tea.Cmd {
	input := feed.CreateMessageInput{
		ChannelID: m.opts.ChannelID,
		Content:   content,
	}
	if m.thread != nil {
		if parent, ok := m.thread.Parent(); ok {
			input.ThreadID = parent.ID
		}
	}
	return tea.Batch(
		func() tea.Msg {
			_, err := m.engine.Send(context.Background(), input)
			return sendResultMsg{err: err}
		},
		refreshSoon(),
	)
}

func (m *Model) toggleCmd(messageID, emoji string) tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			_, err := m.engine.ToggleReaction(context.Background(), messageID, emoji)
			return toggleResultMsg{err: err}
		},
		refreshSoon(),
	)
}

func (m *Model) openThreadCmd(parentID string) tea.Cmd {
	view := feed.NewThreadView(m.opts.API, m.store, m.engine, parentID)
	m.thread = view
	return func() tea.Msg {
		err := view.Load(context.Background())
		return threadLoadedMsg{parentID: parentID, err: err}
	}
}

// refreshSoon redraws shortly after an optimistic write lands in the
// store, without waiting for the server round trip.
func refreshSoon() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case pageLoadedMsg:
		return m.handlePageLoaded(msg)
	case threadLoadedMsg:
		if msg.err != nil {
			m.thread = nil
			m.status = msg.err.Error()
			return m, nil
		}
		m.refreshContent(false)
		m.viewport.GotoBottom()
		return m, nil
	case sendResultMsg:
		if msg.err != nil {
			m.status = "send failed: " + msg.err.Error()
		} else {
			m.status = ""
		}
		m.refreshContent(false)
		m.anchor.HandleAppend()
		return m, nil
	case toggleResultMsg:
		if msg.err != nil {
			m.status = "reaction failed: " + msg.err.Error()
		}
		m.refreshContent(false)
		m.anchor.HandleContentGrowth()
		return m, nil
	case refreshMsg:
		m.refreshContent(false)
		m.anchor.HandleAppend()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.anchor.HandleScroll()
	return m, tea.Batch(cmd, m.maybeLoadOlder())
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	chromeHeight := m.input.Height() + 4
	if !m.ready {
		m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
		m.anchor.Attach(&viewportAdapter{vp: &m.viewport})
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - chromeHeight
	}
	m.input.SetWidth(msg.Width - 2)

	m.refreshContent(false)
	if m.pager.Loaded() {
		m.anchor.HandleInitialRender()
	}
	return m, nil
}

func (m *Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = msg.err.Error()
		return m, nil
	}
	m.status = ""

	if msg.initial {
		m.refreshContent(false)
		m.anchor.HandleInitialRender()
		return m, nil
	}

	// Older page: shift the offset by exactly the height the prepended
	// content introduced so the viewed message stays put.
	prev := m.viewport.TotalLineCount()
	m.refreshContent(false)
	if delta := m.viewport.TotalLineCount() - prev; delta > 0 {
		m.anchor.HandlePrepend(delta)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.thread != nil {
			m.thread = nil
			m.refreshContent(false)
			m.anchor.ScrollToBottom()
			return m, nil
		}
		return m, tea.Quit
	case "enter":
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.sendCmd(content)
	case "ctrl+p":
		m.moveSelection(-1)
		m.refreshContent(true)
		return m, nil
	case "ctrl+n":
		m.moveSelection(1)
		m.refreshContent(true)
		return m, nil
	case "ctrl+t":
		if m.thread == nil {
			if item, ok := m.selectedItem(); ok && item.ThreadID == "" && !feed.IsOptimisticID(item.ID) {
				return m, m.openThreadCmd(item.ID)
			}
		}
		return m, nil
	case "ctrl+r":
		if item, ok := m.selectedItem(); ok && !feed.IsOptimisticID(item.ID) {
			return m, m.toggleCmd(item.ID, "👍")
		}
		return m, nil
	case "ctrl+b":
		m.anchor.ScrollToBottom()
		return m, nil
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.anchor.HandleScroll()
		return m, tea.Batch(cmd, m.maybeLoadOlder())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// maybeLoadOlder triggers backward pagination once the viewport nears
// the top. The store's single-flight check makes repeated triggers
// harmless.
func (m *Model) maybeLoadOlder() tea.Cmd {
	if m.thread != nil {
		return nil
	}
	if !m.anchor.NearTop() || !m.pager.HasMore() {
		return nil
	}
	return m.loadOlderCmd()
}

func (m *Model) visibleItems() []feed.ListItem {
	if m.thread != nil {
		items := m.thread.Replies()
		if parent, ok := m.thread.Parent(); ok {
			return append([]feed.ListItem{parent}, items...)
		}
		return items
	}
	return m.pager.Items()
}

func (m *Model) selectedItem() (feed.ListItem, bool) {
	items := m.visibleItems()
	if m.selected < 0 || m.selected >= len(items) {
		return feed.ListItem{}, false
	}
	return items[m.selected], true
}

func (m *Model) moveSelection(delta int) {
	items := m.visibleItems()
	if len(items) == 0 {
		m.selected = -1
		return
	}
	if m.selected < 0 {
		m.selected = len(items) - 1
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(items) {
		m.selected = len(items) - 1
	}
}

func (m *Model) refreshContent(keepSelection bool) {
	if !m.ready {
		return
	}
	if !keepSelection {
		if items := m.visibleItems(); m.selected >= len(items) {
			m.selected = -1
		}
	}
	m.viewport.SetContent(m.renderMessages())
}

func statusLine(s string) string {
	if s == "" {
		return " "
	}
	return fmt.Sprintf("! %s", s)
}
