package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lokhin/coursechat/internal/history"
	"github.com/lokhin/coursechat/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved conversations",
	Long: "List, show, export and delete saved chat transcripts.\n\n" +
		history.ReferenceHelp(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryList(cmd)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryShow(cmd, args[0])
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <ref>",
	Short: "Export a conversation as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return runHistoryExport(cmd, args[0], asJSON)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryDelete(cmd, args[0])
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryClear(cmd)
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search saved conversations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistorySearch(cmd, args[0])
	},
}

func init() {
	historyExportCmd.Flags().Bool("json", false, "Export as JSON instead of markdown")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historySearchCmd)
	rootCmd.AddCommand(historyCmd)
}

// newHistoryStore is swapped in tests.
var newHistoryStore = history.DefaultStore

func runHistoryList(cmd *cobra.Command) error {
	store, err := newHistoryStore()
	if err != nil {
		return err
	}

	conversations, err := store.ListConversations()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(conversations) == 0 {
		fmt.Fprintln(out, "No saved conversations. Finished chat sessions are saved automatically.")
		return nil
	}

	idxStyle := lipgloss.NewStyle().Foreground(colorTextDim)
	titleStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	timeStyle := lipgloss.NewStyle().Foreground(colorTextMute)

	for i, conv := range conversations {
		fmt.Fprintf(out, "%s %s %s\n",
			idxStyle.Render(fmt.Sprintf("%3d.", i+1)),
			titleStyle.Render(conv.Title),
			timeStyle.Render(fmt.Sprintf("(%d messages, %s)",
				len(conv.Messages), history.FormatRelativeTime(conv.UpdatedAt))),
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, ref string) error {
	store, err := newHistoryStore()
	if err != nil {
		return err
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(ref)
	if err != nil {
		return err
	}

	md, err := store.ExportToMarkdown(conv.ID)
	if err != nil {
		return err
	}

	if !isStdoutTTY() {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}

	rendered, err := render.MarkdownWithWidth(md, getTerminalWidth()-4)
	if err != nil {
		rendered = md
	}
	fmt.Fprint(cmd.OutOrStdout(), strings.TrimRight(rendered, "\n")+"\n")
	return nil
}

func runHistoryExport(cmd *cobra.Command, ref string, asJSON bool) error {
	store, err := newHistoryStore()
	if err != nil {
		return err
	}

	id, err := history.NewResolver(store).Resolve(ref)
	if err != nil {
		return err
	}

	var data []byte
	if asJSON {
		data, err = store.ExportToJSON(id)
	} else {
		var md string
		md, err = store.ExportToMarkdown(id)
		data = []byte(md)
	}
	if err != nil {
		return err
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", outputFlag)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runHistoryDelete(cmd *cobra.Command, ref string) error {
	store, err := newHistoryStore()
	if err != nil {
		return err
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(ref)
	if err != nil {
		return err
	}

	if err := store.DeleteConversation(conv.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s'\n", conv.Title)
	return nil
}

func runHistoryClear(cmd *cobra.Command) error {
	store, err := newHistoryStore()
	if err != nil {
		return err
	}

	if err := store.ClearAll(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
	return nil
}

func runHistorySearch(cmd *cobra.Command, query string) error {
	store, err := newHistoryStore()
	if err != nil {
		return err
	}

	results, err := store.SearchConversations(query, true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(out, "No conversations matching %q\n", query)
		return nil
	}

	titleStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	snippetStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	for _, res := range results {
		fmt.Fprintln(out, titleStyle.Render(res.Conversation.Title))
		if res.MatchField == "content" {
			fmt.Fprintln(out, snippetStyle.Render("    "+res.MatchSnippet))
		}
	}
	return nil
}
