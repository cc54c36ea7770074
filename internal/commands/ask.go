package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/lokhin/coursechat/internal/chat"
	"github.com/lokhin/coursechat/internal/render"
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	sourcesBlockStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colorTextDim).
				BorderLeft(true).
				Foreground(colorTextDim).
				PaddingLeft(1).
				MarginLeft(1)
)

// runAsk sends a single question and prints the answer with its sources.
// When stdout is not a terminal only the raw answer text is written.
func runAsk(question string, rawOutput bool) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	cfg := loadConfig()
	logger := setupLogger(cfg)
	rawOutput = rawOutput || !isStdoutTTY()

	if cfg.UserEmail == "" {
		return fmt.Errorf("no account configured: run 'coursechat config set user-email <email>' first")
	}

	client, err := deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	controller := chat.NewController(client, chat.Identity{
		UserID:    cfg.UserID,
		UserEmail: cfg.UserEmail,
	}, logger)

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Thinking")
		spin.start()
	}

	startTime := time.Now()
	done, err := controller.Submit(question, courseFlags)
	if err != nil {
		if !rawOutput {
			spin.stopWithError()
		}
		return err
	}
	<-done
	requestDuration := time.Since(startTime)

	if err := controller.Err(); err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Generation failed"))
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	messages := controller.Messages()
	answer := messages[len(messages)-1]

	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
		fmt.Fprintf(os.Stderr, "[verbose] %d sources cited\n", len(answer.Citations))
	}

	if rawOutput {
		if outputFlag != "" {
			return writeAnswerFile(answer.Content)
		}
		fmt.Print(answer.Content)
		return nil
	}

	fmt.Fprintln(os.Stderr)

	if copyFlag || cfg.CopyToClipboard {
		if err := clipboard.WriteAll(answer.Content); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(colorFailure).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(os.Stderr, warnMsg)
		} else {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(os.Stderr, clipMsg)
		}
	}

	if outputFlag != "" {
		if err := writeAnswerFile(answer.Content); err != nil {
			return err
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Answer saved to %s", outputFlag),
		)
		fmt.Fprintln(os.Stderr, successMsg)
		return nil
	}

	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Println(assistantLabelStyle.Render("✦ Assistant"))

	renderOpts := render.LoadOptionsFromConfig().WithWidth(contentWidth)
	rendered, err := render.Markdown(answer.Content, renderOpts)
	if err != nil {
		rendered = answer.Content
	}
	rendered = strings.TrimRight(rendered, "\n")
	fmt.Println(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	if sources := render.SourcesMarkdown(answer.Citations); sources != "" {
		renderedSources, err := render.Markdown(sources, renderOpts)
		if err != nil {
			renderedSources = sources
		}
		renderedSources = strings.TrimRight(renderedSources, "\n")
		fmt.Println(sourcesBlockStyle.Width(bubbleWidth - 2).Render(renderedSources))
	}

	return nil
}

func writeAnswerFile(text string) error {
	if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorFailure)
	sb := errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err))
	return sb
}
