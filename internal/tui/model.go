// Package tui provides the BubbleTea-based preview of the watch face.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/daemon"
	"github.com/jmylchreest/notiface/internal/model"
	"github.com/jmylchreest/notiface/internal/surface"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeFace Mode = iota
	ModeCompose
	ModeHelp
)

// Face is the rendered watch face.
type Face interface {
	View() string
	Changes() <-chan struct{}
}

// Agent is the running agent behind the face.
type Agent interface {
	State() daemon.State
	Post(ev channel.Event) bool
	Capacity() (inbox, outbox int)
}

// Sender delivers a payload as if it came from the host.
type Sender interface {
	Send(p model.Payload) channel.Reason
}

// Model is the preview TUI model.
type Model struct {
	face   Face
	agent  Agent
	sender Sender
	now    func() time.Time

	mode Mode

	// Components
	input textinput.Model
	help  help.Model
	keys  KeyMap

	// State
	offset   time.Duration
	sent     int
	dropped  int
	lastSent time.Time
	width    int
	height   int

	// Status message
	statusMsg string
	statusErr bool
}

// New creates a preview model.
func New(face Face, agent Agent, sender Sender) Model {
	input := textinput.New()
	input.Placeholder = "Notification text..."
	input.CharLimit = model.MaxNotificationLen
	input.Prompt = "> "

	return Model{
		face:   face,
		agent:  agent,
		sender: sender,
		now:    time.Now,
		mode:   ModeFace,
		input:  input,
		help:   help.New(),
		keys:   DefaultKeyMap(),
	}
}

type faceChangedMsg struct{}

type ageTickMsg struct{}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Init starts watching the face for redraws.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.watchFace, ageTick())
}

// watchFace waits for the surface to change.
func (m Model) watchFace() tea.Msg {
	<-m.face.Changes()
	return faceChangedMsg{}
}

// ageTick refreshes relative times in the status bar.
func ageTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return ageTickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case faceChangedMsg:
		return m, m.watchFace

	case ageTickMsg:
		return m, ageTick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	if m.mode == ModeCompose {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Typing in compose mode must not quit on q.
	if m.mode == ModeCompose {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleComposeKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeFace
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeFace
		}
		return m, nil
	}
	return m.handleFaceKey(msg)
}

// handleFaceKey handles keys while the face is shown.
func (m Model) handleFaceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Compose):
		m.mode = ModeCompose
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Clear):
		return m.send("")

	case key.Matches(msg, m.keys.Advance):
		m.offset += time.Minute
		return m, m.tick()

	case key.Matches(msg, m.keys.Reset):
		m.offset = 0
		return m, m.tick()
	}
	return m, nil
}

// handleComposeKey handles keys while typing a notification.
func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeFace
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		m.mode = ModeFace
		m.input.Blur()
		m.input.SetValue("")
		return m.send(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send pushes text through the loopback channel as the host would.
func (m Model) send(text string) (tea.Model, tea.Cmd) {
	p := model.NotificationPayload(text)
	reason := m.sender.Send(p)
	m.lastSent = m.now()

	if reason != channel.ReasonOK {
		m.dropped++
		inbox, _ := m.agent.Capacity()
		return m, func() tea.Msg {
			return statusMsg{
				text: fmt.Sprintf("Dropped (%s): %s payload, inbox holds %s",
					reason, humanize.Bytes(uint64(p.EncodedSize())), humanize.Bytes(uint64(inbox))),
				isErr: true,
			}
		}
	}

	m.sent++
	return m, func() tea.Msg {
		return statusMsg{text: "Delivered " + humanize.Bytes(uint64(p.EncodedSize()))}
	}
}

// tick posts a clock refresh at the shifted preview time.
func (m Model) tick() tea.Cmd {
	at := m.now().Add(m.offset)
	agent := m.agent
	return func() tea.Msg {
		if !agent.Post(channel.Tick{Now: at}) {
			return statusMsg{text: "Event queue full", isErr: true}
		}
		return nil
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.mode == ModeHelp {
		return m.viewHelp()
	}

	s := m.face.View() + "\n"
	s += m.viewStatus() + "\n"

	if m.mode == ModeCompose {
		s += m.input.View() + "\n"
	}

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		s += statusStyle.Render(m.statusMsg)
	} else {
		s += m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return s
}

func (m Model) viewStatus() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	state := m.agent.State()

	last := "never"
	if !m.lastSent.IsZero() {
		last = humanize.RelTime(m.lastSent, m.now(), "ago", "from now")
	}

	s := labelStyle.Render("sent ") + humanize.Comma(int64(m.sent))
	s += labelStyle.Render("  dropped ") + humanize.Comma(int64(m.dropped))
	s += labelStyle.Render("  last ") + last
	if m.offset != 0 {
		s += labelStyle.Render("  clock +") + m.offset.String()
	}
	if !state.UpdatedAt.IsZero() {
		s += labelStyle.Render("  refreshed ") + humanize.RelTime(state.UpdatedAt, m.now().Add(m.offset), "ago", "from now")
	}
	return s
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"
	s += m.help.FullHelpView(m.keys.FullHelp()) + "\n\n"
	s += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")
	return s
}

// RunOptions configures the preview.
type RunOptions struct {
	Width      int
	Height     int
	InboxSize  int
	OutboxSize int
	QueueDepth int
	Location   *time.Location
	Haptics    daemon.Haptics
	Logger     *slog.Logger
}

// Run starts an agent on a terminal surface with a loopback channel and
// shows it until the user quits or ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	face := surface.NewTerminal(opts.Width, opts.Height)
	loopback := channel.NewLoopback()

	app, err := daemon.New(daemon.Options{
		Surface:    face,
		Transport:  loopback,
		Haptics:    opts.Haptics,
		Location:   opts.Location,
		InboxSize:  opts.InboxSize,
		OutboxSize: opts.OutboxSize,
		QueueDepth: opts.QueueDepth,
		Logger:     opts.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Startup(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	loopDone := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(loopDone)
	}()

	p := tea.NewProgram(New(face, app, loopback), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	interrupted := ctx.Err() != nil

	// The loop must be idle before the face is torn down.
	cancel()
	<-loopDone
	app.Shutdown()

	if err != nil && interrupted {
		return nil
	}
	return err
}
