package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gorobchenkoann/save-from-inst/pkg/history"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
)

var (
	historyLimit int
	historyJSON  bool
)

// historyCmd groups the lookup history commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the lookup history",
	Long: `Every post that was classified successfully is recorded in a local
SQLite database. Disable recording with --no-history or history.enabled: false.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent lookups, newest first",
	Args:  cobra.NoArgs,
	Run:   runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded lookups",
	Args:  cobra.NoArgs,
	Run:   runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "print entries as JSON")
}

func openHistory(cmd *cobra.Command, out *ui.Printer) *history.Store {
	cfg, err := loadConfig(cmd)
	if err != nil {
		out.Error("Failed to load configuration", err)
		os.Exit(1)
	}

	path, err := cfg.HistoryPath()
	if err != nil {
		out.Error("Failed to resolve history path", err)
		os.Exit(1)
	}

	store, err := history.Open(cmd.Context(), path)
	if err != nil {
		out.Error("Failed to open history", err)
		os.Exit(1)
	}
	return store
}

func runHistoryList(cmd *cobra.Command, args []string) {
	out := ui.Stdout()
	store := openHistory(cmd, out)
	defer store.Close()

	entries, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		out.Error("Failed to read history", err)
		os.Exit(1)
	}

	if historyJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			out.Error("Failed to encode history", err)
			os.Exit(1)
		}
		fmt.Fprintln(out.Writer(), string(data))
		return
	}

	if len(entries) == 0 {
		out.Info("History", "no lookups recorded yet")
		return
	}

	for _, e := range entries {
		fmt.Fprintf(out.Writer(), "%s  %-8s %2d  %s\n",
			out.Dim(e.CreatedAt.Local().Format("2006-01-02 15:04")),
			e.Kind, e.Items, out.Cyan(e.URL))
	}
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	out := ui.Stdout()
	store := openHistory(cmd, out)
	defer store.Close()

	n, err := store.Clear(cmd.Context())
	if err != nil {
		out.Error("Failed to clear history", err)
		os.Exit(1)
	}
	out.Success(fmt.Sprintf("Removed %d entries", n))
}
