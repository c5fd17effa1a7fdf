package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/rlsnotes/pkg/audit"
	"github.com/doodlesbykumbi/rlsnotes/pkg/db"
)

var auditRecentLimit int

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest audit events",
	Long: `Show the newest audit events, newest first.

Example:
  rlsctl audit recent
  rlsctl audit recent -n 50`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if auditRecentLimit < 1 {
			fmt.Println("-n must be a positive integer")
			os.Exit(1)
		}

		sqlDB, err := db.OpenSQL(databaseURL())
		if err != nil {
			fmt.Println("Failed to open database:", err)
			os.Exit(1)
		}
		defer func() { _ = sqlDB.Close() }()

		if err := showRecentAudit(cmd.Context(), os.Stdout, audit.NewStore(sqlDB), auditRecentLimit); err != nil {
			fmt.Println("Failed to read audit events:", err)
			os.Exit(1)
		}
	},
}

func init() {
	auditRecentCmd.Flags().IntVarP(&auditRecentLimit, "limit", "n", 20, "number of events to show")
	auditCmd.AddCommand(auditRecentCmd)
}

func showRecentAudit(ctx context.Context, w io.Writer, store *audit.Store, limit int) error {
	messages, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		_, err := fmt.Fprintln(w, "No audit events recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tSEVERITY\tMSGID\tMESSAGE")
	for _, m := range messages {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", m.Timestamp.UTC().Format(time.RFC3339), m.Severity, m.Msgid, m.Message)
	}
	return tw.Flush()
}
