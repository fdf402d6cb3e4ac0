package main

// This file implements the interactive chat session using bubbletea.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"canvasmind/cmd/canvasmind/ui"
	"canvasmind/internal/project"
	"canvasmind/internal/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// recentWindow is how many earlier queries are sent as request context.
const recentWindow = 5

const chatHelp = `Commands:
  /artifact TYPE DESCRIPTION   record an artifact (image, vector, embroidery, mockup, document)
  /summary                     list the session's projects
  /help                        show this help
Anything else is analyzed as a request.`

// chatCmd starts the interactive session
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive analysis session",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	sid := sessionID
	if sid == "" {
		sid = "chat_" + uuid.New().String()[:8]
	}
	p := tea.NewProgram(initChat(engine, sid, ui.DefaultStyles()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// chatBackend is the part of the engine the chat drives.
type chatBackend interface {
	AnalyzeRequest(ctx context.Context, query, sessionID string, reqCtx map[string]interface{}) (*types.AnalysisResult, error)
	AddArtifact(ctx context.Context, sessionID string, artifact types.Artifact) (*types.ProjectSnapshot, error)
	SessionSummary(ctx context.Context, sessionID string) (project.Summary, error)
}

// chatModel is the main model for the interactive chat interface
type chatModel struct {
	// UI Components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// State
	history   []chatMessage
	recent    []string
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	backend   chatBackend
	sessionID string
}

type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	time    time.Time
}

// Messages for tea updates
type (
	responseMsg string
	errorMsg    error
)

func initChat(backend chatBackend, sid string, styles ui.Styles) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Describe what you need... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 2048
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Prompt

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		renderer:  renderer,
		backend:   backend,
		sessionID: sid,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}
		}
		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		const chrome = 7 // header, input box and footer
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-chrome)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - chrome
		}
		m.textinput.Width = msg.Width - 6
		if m.renderer != nil {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(msg.Width-8),
			)
		}
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.isLoading {
			var spCmd tea.Cmd
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case responseMsg:
		m.isLoading = false
		m.err = nil
		m.history = append(m.history, chatMessage{role: "assistant", content: string(msg), time: time.Now()})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		m.err = msg
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}
	m.textinput.Reset()
	m.history = append(m.history, chatMessage{role: "user", content: input, time: time.Now()})
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	if strings.HasPrefix(input, "/") {
		return m, m.runCommand(input)
	}

	recent := append([]string(nil), m.recent...)
	m.recent = append(m.recent, input)
	if len(m.recent) > recentWindow {
		m.recent = m.recent[len(m.recent)-recentWindow:]
	}
	m.isLoading = true
	return m, tea.Batch(m.spinner.Tick, m.analyze(input, recent))
}

func (m chatModel) analyze(query string, recent []string) tea.Cmd {
	backend, sid, renderer := m.backend, m.sessionID, m.renderer
	return func() tea.Msg {
		var reqCtx map[string]interface{}
		if len(recent) > 0 {
			reqCtx = map[string]interface{}{types.ContextRecentQueries: recent}
		}
		res, err := backend.AnalyzeRequest(context.Background(), query, sid, reqCtx)
		if err != nil {
			return errorMsg(err)
		}
		md := resultMarkdown(res)
		if renderer != nil {
			if out, rerr := renderer.Render(md); rerr == nil {
				return responseMsg(strings.TrimSpace(out))
			}
		}
		return responseMsg(md)
	}
}

// runCommand handles slash commands. Unknown commands answer with help.
func (m chatModel) runCommand(input string) tea.Cmd {
	backend, sid, styles := m.backend, m.sessionID, m.styles
	fields := strings.Fields(input)
	return func() tea.Msg {
		switch fields[0] {
		case "/artifact":
			if len(fields) < 2 {
				return responseMsg("usage: /artifact TYPE DESCRIPTION")
			}
			typ := types.ArtifactType(strings.ToLower(fields[1]))
			if !knownArtifactType(typ) {
				return errorMsg(fmt.Errorf("unknown artifact type %q", fields[1]))
			}
			desc := strings.Join(fields[2:], " ")
			snap, err := backend.AddArtifact(context.Background(), sid, types.Artifact{Type: typ, Description: desc})
			if snap == nil {
				return errorMsg(err)
			}
			return responseMsg(fmt.Sprintf("Added %s to %s (phase %s, %d artifacts)", typ, snap.Title, snap.Phase, snap.ArtifactsCount))
		case "/summary":
			sum, err := backend.SessionSummary(context.Background(), sid)
			if err != nil {
				return errorMsg(err)
			}
			return responseMsg(summaryText(sum, styles))
		default:
			return responseMsg(chatHelp)
		}
	}
}

func (m chatModel) renderHistory() string {
	var b strings.Builder
	for _, msg := range m.history {
		stamp := m.styles.Muted.Render(msg.time.Format("15:04"))
		if msg.role == "user" {
			b.WriteString(stamp + " " + m.styles.Prompt.Render("you") + "  " + m.styles.UserInput.Render(msg.content) + "\n\n")
			continue
		}
		b.WriteString(m.styles.AgentResponse.Render(msg.content) + "\n\n")
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Header.Render(" canvasmind "),
		" ",
		m.styles.Muted.Render("session "+m.sessionID),
	)

	chatView := m.viewport.View()
	if m.isLoading {
		chatView += "\n" + m.spinner.View() + " Analyzing..."
	}
	if m.err != nil {
		chatView += "\n" + m.styles.Error.Render("Error: "+m.err.Error())
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textinput.View())

	footer := m.styles.Footer.Render("Enter: send • /help: commands • Ctrl+C: exit")

	return lipgloss.JoinVertical(lipgloss.Left, header, chatView, inputArea, footer)
}
