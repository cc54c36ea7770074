package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// updateCourseSelection handles updates while the course selector is open
func (m Model) updateCourseSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case coursesLoadedMsg:
		m.coursesLoading = false
		if msg.err != nil {
			m.selectingCourses = false
			m.err = msg.err
		} else {
			m.courseList = msg.courses
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc", "enter":
			m.selectingCourses = false
			m.coursesCursor = 0

		case "up", "k":
			if len(m.courseList) > 0 {
				m.coursesCursor--
				if m.coursesCursor < 0 {
					m.coursesCursor = len(m.courseList) - 1
				}
			}

		case "down", "j":
			if len(m.courseList) > 0 {
				m.coursesCursor++
				if m.coursesCursor >= len(m.courseList) {
					m.coursesCursor = 0
				}
			}

		case " ":
			if len(m.courseList) > 0 && m.coursesCursor < len(m.courseList) {
				id := m.courseList[m.coursesCursor].ID
				if m.selected[id] {
					delete(m.selected, id)
				} else {
					m.selected[id] = true
				}
			}

		case "a":
			// Clear the filter: answers draw on all courses again
			m.selected = make(map[int]bool)
		}
	}

	return m, nil
}

// renderCourseSelector renders the course selection overlay
func (m Model) renderCourseSelector() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}

	var content strings.Builder

	title := selectorTitleStyle.Render("📚 Filter by course")
	if n := len(m.selectedCourseIDs()); n > 0 {
		title += hintStyle.Render(fmt.Sprintf("  (%s selected)", courseFilterLabel(n)))
	}
	content.WriteString(title)
	content.WriteString("\n\n")

	switch {
	case m.coursesLoading:
		content.WriteString(loadingStyle.Render("  Loading courses..."))
	case len(m.courseList) == 0:
		content.WriteString(hintStyle.Render("  No courses found for this account"))
	default:
		for i, course := range m.courseList {
			cursor := "  "
			nameStyle := selectorItemStyle
			if i == m.coursesCursor {
				cursor = selectorCursorStyle.Render("▸ ")
				nameStyle = selectorSelectedStyle
			}

			check := "[ ]"
			if m.selected[course.ID] {
				check = selectorSelectedStyle.Render("[x]")
			}

			line := fmt.Sprintf("%s%s %s", cursor, check, nameStyle.Render(course.Name))
			if course.UpdateTimeMoodle != "" {
				line += selectorValueStyle.Render("  updated " + course.UpdateTimeMoodle)
			}

			content.WriteString(line)
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")

	shortcuts := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Space") + statusDescStyle.Render(" Toggle"),
		statusKeyStyle.Render("a") + statusDescStyle.Render(" All"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Done"),
	}
	content.WriteString(strings.Join(shortcuts, "  │  "))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(width)

	return boxStyle.Render(content.String())
}
