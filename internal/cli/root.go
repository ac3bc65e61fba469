package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "margin",
	Short: "Item notes with per-user hashtag suggestions",
	Long:  "Margin keeps free-text notes on stored items and derives a per-user hashtag vocabulary from them: autocomplete suggestions, usage statistics, and search by tag. Single Go binary backed by SQLite.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(reconcileCmd)
}
