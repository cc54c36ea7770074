package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lokhin/coursechat/internal/chat"
	"github.com/lokhin/coursechat/internal/models"
	"github.com/lokhin/coursechat/internal/render"
)

// Message types for the TUI
type (
	// streamUpdateMsg signals new stream state is available on the controller
	streamUpdateMsg struct{}
	// turnDoneMsg signals the current generation finished
	turnDoneMsg struct{}
	// coursesLoadedMsg is sent when courses are loaded for the selector
	coursesLoadedMsg struct {
		courses []models.Course
		err     error
	}
)

// CourseLister loads the user's enrolled courses for the selector overlay.
type CourseLister interface {
	ListCourses(ctx context.Context, email string) ([]models.Course, error)
}

// Model represents the TUI state
type Model struct {
	controller *chat.Controller
	lister     CourseLister
	userEmail  string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	loading bool
	ready   bool
	err     error

	// Course selection state
	selectingCourses bool
	coursesLoading   bool
	courseList       []models.Course
	coursesCursor    int
	selected         map[int]bool

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(controller *chat.Controller, lister CourseLister, userEmail string) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your courses..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		controller: controller,
		lister:     lister,
		userEmail:  userEmail,
		textarea:   ta,
		spinner:    s,
		selected:   make(map[int]bool),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// waitForUpdate blocks until the controller publishes new stream state.
func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return streamUpdateMsg{}
	}
}

// waitForDone blocks until the current generation ends.
func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return turnDoneMsg{}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selectingCourses {
		return m.updateCourseSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.loading {
				// Stop generation but keep what already streamed
				m.controller.Cancel()
			} else {
				return m, tea.Quit
			}

		case "enter":
			if !m.loading && strings.TrimSpace(m.textarea.Value()) != "" {
				input := strings.TrimSpace(m.textarea.Value())
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					return m, tea.Quit
				}

				if input == "/courses" {
					m.textarea.Reset()
					m.selectingCourses = true
					m.coursesLoading = true
					m.coursesCursor = 0
					return m, m.loadCourses()
				}

				done, err := m.controller.Submit(input, m.selectedCourseIDs())
				if err != nil {
					m.err = err
					return m, nil
				}

				m.loading = true
				m.err = nil
				m.textarea.Reset()
				m.updateViewport()
				m.viewport.GotoBottom()

				return m, tea.Batch(
					waitForDone(done),
					waitForUpdate(m.controller.Updates()),
					m.spinner.Tick,
				)
			}
		}

	case streamUpdateMsg:
		m.updateViewport()
		m.viewport.GotoBottom()
		if m.loading {
			cmds = append(cmds, waitForUpdate(m.controller.Updates()))
		}

	case turnDoneMsg:
		m.loading = false
		m.err = m.controller.Err()
		m.updateViewport()
		m.viewport.GotoBottom()

	case coursesLoadedMsg:
		m.coursesLoading = false
		if msg.err != nil {
			m.selectingCourses = false
			m.err = msg.err
		} else {
			m.courseList = msg.courses
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.selectingCourses {
		return m.renderCourseSelector()
	}

	var sections []string
	contentWidth := m.width - 4

	headerParts := []string{
		titleStyle.Render("✦ Course Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.userEmail),
	}
	if n := len(m.selectedCourseIDs()); n > 0 {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			selectorValueStyle.Render(courseFilterLabel(n)),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	var messagesContent string
	if len(m.controller.Messages()) == 0 && !m.loading {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.loading {
		inputContent = m.spinner.View() + loadingStyle.Render(" Thinking...") +
			hintStyle.Render("  (Esc to stop)")
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func courseFilterLabel(n int) string {
	if n == 1 {
		return "1 course"
	}
	return fmt.Sprintf("%d courses", n)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to Course Chat")
	subtitle := welcomeStyle.Width(width).Render(
		"Ask a question about your course material below.\nUse /courses to narrow answers to specific courses.")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Stop/Quit"},
		{"↑↓", "Scroll"},
		{"/courses", "Filter"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	messages := m.controller.Messages()
	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}
		m.writeMessage(&content, msg, bubbleWidth)
		content.WriteString("\n")
	}

	// Live draft for the in-flight answer
	if m.loading {
		if draft := m.controller.Draft(); draft != "" {
			if len(messages) > 0 {
				content.WriteString("\n")
			}
			label := assistantLabelStyle.Render("✦ Assistant")
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(
				renderMarkdown(draft, bubbleWidth-4))
			content.WriteString(label + "\n" + bubble + "\n")
		}
	}

	m.viewport.SetContent(content.String())
}

func (m *Model) writeMessage(content *strings.Builder, msg models.Message, bubbleWidth int) {
	if msg.Role == models.RoleUser {
		label := userLabelStyle.Render("⬤ You")
		bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
		content.WriteString(label + "\n" + bubble)
		return
	}

	label := assistantLabelStyle.Render("✦ Assistant")
	bubble := assistantBubbleStyle.Width(bubbleWidth).Render(
		renderMarkdown(msg.Content, bubbleWidth-4))
	content.WriteString(label + "\n" + bubble)

	if sources := render.SourcesMarkdown(msg.Citations); sources != "" {
		content.WriteString("\n" + sourcesStyle.Width(bubbleWidth-2).Render(
			renderMarkdown(sources, bubbleWidth-6)))
	}
}

func renderMarkdown(content string, width int) string {
	rendered, err := render.MarkdownWithWidth(content, width)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// selectedCourseIDs returns the active course filter in stable order.
func (m Model) selectedCourseIDs() []int {
	if len(m.selected) == 0 {
		return nil
	}
	var ids []int
	for _, c := range m.courseList {
		if m.selected[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// loadCourses returns a command that loads the user's courses
func (m Model) loadCourses() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		courses, err := m.lister.ListCourses(ctx, m.userEmail)
		if err != nil {
			return coursesLoadedMsg{err: err}
		}
		return coursesLoadedMsg{courses: courses}
	}
}

// RunChat starts the chat TUI
func RunChat(controller *chat.Controller, lister CourseLister, userEmail string) error {
	p := tea.NewProgram(
		NewChatModel(controller, lister, userEmail),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
