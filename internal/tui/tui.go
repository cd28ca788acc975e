// Package tui hosts the status item in an interactive terminal UI.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/devtime/internal/models"
	"github.com/tOgg1/devtime/internal/prompt"
	"github.com/tOgg1/devtime/internal/statusbar"
)

const (
	defaultLogLines  = 8
	defaultNoticeTTL = 8 * time.Second
	tickInterval     = time.Second
	minWindowWidth   = 40
)

// Actions are the poller operations the UI triggers.
type Actions interface {
	Click() error
	RequestKey() error
	Refresh() error
}

// Config controls TUI behavior.
type Config struct {
	Theme    string
	LogLines int
	Initial  statusbar.Item

	// OnStart runs once the program loop is receiving messages.
	OnStart func()
}

// Run starts the TUI with bridge attached and blocks until the user quits.
func Run(actions Actions, bridge *Bridge, cfg Config) error {
	program := tea.NewProgram(newModel(actions, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	bridge.Attach(program)
	_, err := program.Run()
	return err
}

type uiMode int

const (
	modeMain uiMode = iota
	modeKeyInput
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusErr
)

type tickMsg struct{}

type logEntry struct {
	at   time.Time
	kind models.EventType
	text string
}

type model struct {
	actions  Actions
	palette  palette
	logLines int
	onStart  func()

	item    statusbar.Item
	notices []string

	noticeExpires time.Time
	statusText    string
	statusKind    statusKind

	log []logEntry

	mode   uiMode
	input  string
	submit func(string)

	width    int
	quitting bool
}

func newModel(actions Actions, cfg Config) model {
	if cfg.LogLines <= 0 {
		cfg.LogLines = defaultLogLines
	}
	return model{
		actions:  actions,
		palette:  resolvePalette(cfg.Theme),
		logLines: cfg.LogLines,
		onStart:  cfg.OnStart,
		item:     cfg.Initial,
		mode:     modeMain,
	}
}

func (m model) Init() tea.Cmd {
	if m.onStart == nil {
		return tickCmd()
	}
	onStart := m.onStart
	return tea.Batch(tickCmd(), func() tea.Msg {
		onStart()
		return nil
	})
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		if !m.noticeExpires.IsZero() && time.Now().After(m.noticeExpires) {
			m.notices = nil
			m.noticeExpires = time.Time{}
		}
		return m, tickCmd()
	case itemMsg:
		m.item = msg.item
		return m, nil
	case noticeMsg:
		if time.Now().After(m.noticeExpires) {
			m.notices = nil
		}
		m.notices = append(m.notices, msg.text)
		m.noticeExpires = time.Now().Add(defaultNoticeTTL)
		return m, nil
	case promptMsg:
		if m.mode == modeKeyInput {
			return m, nil
		}
		m.mode = modeKeyInput
		m.input = ""
		m.submit = msg.submit
		return m, nil
	case eventMsg:
		m.appendLog(msg.event)
		return m, nil
	case tea.MouseMsg:
		if m.mode == modeMain && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.run(m.actions.Click)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode == modeKeyInput {
			return m.updateKeyInputMode(msg)
		}
		return m.updateMainMode(msg)
	}
	return m, nil
}

func (m model) updateMainMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter", " ", "c":
		m.run(m.actions.Click)
	case "k":
		m.run(m.actions.RequestKey)
	case "r":
		m.run(m.actions.Refresh)
		m.setStatus(statusInfo, "Refreshing...")
	case "t":
		m.palette = cyclePalette(m.palette.Name, 1)
		m.setStatus(statusInfo, "Theme: "+m.palette.Name)
	}
	return m, nil
}

func (m model) updateKeyInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.finishInput(m.input), nil
	case tea.KeyEsc:
		return m.finishInput(""), nil
	case tea.KeyBackspace, tea.KeyDelete:
		m.input = removeLastRune(m.input)
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// finishInput closes the overlay and hands the answer, possibly empty, back.
func (m model) finishInput(answer string) model {
	submit := m.submit
	m.mode = modeMain
	m.input = ""
	m.submit = nil
	if submit != nil {
		submit(answer)
	}
	return m
}

func (m *model) run(action func() error) {
	if err := action(); err != nil {
		m.setStatus(statusErr, err.Error())
	}
}

func (m *model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.statusText = text
}

func (m *model) appendLog(event *models.Event) {
	if event == nil {
		return
	}
	text := event.Message
	if text == "" {
		text = string(event.Type)
	}
	m.log = append(m.log, logEntry{at: event.Timestamp, kind: event.Type, text: text})
	if len(m.log) > m.logLines {
		m.log = m.log[len(m.log)-m.logLines:]
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width < minWindowWidth {
		width = minWindowWidth
	}

	parts := []string{
		m.renderHeader(),
		m.renderItem(width),
	}
	if len(m.notices) > 0 {
		parts = append(parts, m.renderNotices(width))
	}
	parts = append(parts, m.renderLog(width))
	if m.mode == modeKeyInput {
		parts = append(parts, m.renderKeyInput(width))
	}
	if m.statusText != "" {
		parts = append(parts, m.renderStatusLine())
	}
	parts = append(parts, m.renderHelp())
	return strings.Join(parts, "\n")
}

func (m model) renderHeader() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Accent)).
		Bold(true).
		Render("devtime") +
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render("  theme:"+m.palette.Name)
}

func (m model) renderItem(width int) string {
	text := m.item.Text
	if text == "" {
		text = "…"
	}
	bar := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Border)).
		Foreground(lipgloss.Color(m.palette.Text)).
		Bold(true).
		Padding(0, 1).
		Width(width - 2)

	lines := text
	if m.item.Tooltip != "" {
		lines += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Bold(false).Render(m.item.Tooltip)
	}
	return bar.Render(lines)
}

func (m model) renderNotices(width int) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Success)).
		Width(width)
	return style.Render(strings.Join(m.notices, "\n"))
}

func (m model) renderLog(width int) string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render("Activity")
	if len(m.log) == 0 {
		return title + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render("  (no activity yet)")
	}

	rows := []string{title}
	for _, entry := range m.log {
		color := m.palette.Text
		switch entry.kind {
		case models.EventTypePollFailed:
			color = m.palette.Error
		case models.EventTypeKeyRequired:
			color = m.palette.Warning
		case models.EventTypePollSucceeded, models.EventTypeKeyAccepted:
			color = m.palette.Success
		}
		line := fmt.Sprintf("  %s  %-14s %s", entry.at.Local().Format("15:04:05"), entry.kind, entry.text)
		rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color(color)).MaxWidth(width).Render(line))
	}
	return strings.Join(rows, "\n")
}

func (m model) renderKeyInput(width int) string {
	masked := strings.Repeat("•", len([]rune(m.input)))
	body := prompt.Placeholder + ": " + masked + "▏"
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.palette.Focus)).
		Foreground(lipgloss.Color(m.palette.Text)).
		Padding(0, 1).
		Width(width - 2).
		Render(body + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render("enter save  esc cancel"))
}

func (m model) renderStatusLine() string {
	color := m.palette.Focus
	if m.statusKind == statusErr {
		color = m.palette.Error
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(m.statusText)
}

func (m model) renderHelp() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.TextMuted)).
		Render("enter/click details  k key  r refresh  t theme  q quit")
}

func removeLastRune(value string) string {
	runes := []rune(value)
	if len(runes) == 0 {
		return value
	}
	return string(runes[:len(runes)-1])
}
