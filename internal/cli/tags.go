package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/marginhq/margin/internal/config"
	"github.com/marginhq/margin/internal/engine"
	"github.com/marginhq/margin/internal/hashtag"
	"github.com/marginhq/margin/internal/store"
	"github.com/spf13/cobra"
)

var (
	tagsUser string
	tagsSort string
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List a user's hashtag vocabulary with usage statistics",
	RunE:  runTags,
}

func init() {
	tagsCmd.Flags().StringVar(&tagsUser, "user", "", "user id (required)")
	tagsCmd.Flags().StringVar(&tagsSort, "sort", store.SortRecent, "sort order: usage, alphabetical, recent")
	tagsCmd.MarkFlagRequired("user")
}

func runTags(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := engine.New(db).ListAll(context.Background(), tagsUser, tagsSort)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("no tags")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tUSES\tFIRST USED\tLAST USED\t")
	for _, s := range stats {
		tag := hashtag.Format(s.Tag)
		if s.IsInactive {
			tag += " (inactive)"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t\n",
			tag, s.UsageCount, formatMillis(s.FirstUsed), formatMillis(s.LastUsed))
	}
	return w.Flush()
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
