package cli

import (
	"context"
	"fmt"

	"github.com/marginhq/margin/internal/config"
	"github.com/marginhq/margin/internal/engine"
	"github.com/marginhq/margin/internal/hashtag"
	"github.com/spf13/cobra"
)

var reconcileUser string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove tags no longer referenced by any surviving note",
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileUser, "user", "", "user id (required)")
	reconcileCmd.MarkFlagRequired("user")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	removed := engine.New(db).Reconcile(context.Background(), reconcileUser)
	if len(removed) == 0 {
		fmt.Println("nothing to reap")
		return nil
	}
	for _, tag := range removed {
		fmt.Printf("removed %s\n", hashtag.Format(tag))
	}
	return nil
}
