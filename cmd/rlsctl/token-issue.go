package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
	"github.com/doodlesbykumbi/rlsnotes/pkg/config"
	"github.com/doodlesbykumbi/rlsnotes/pkg/identity"
)

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Mint a bearer token for a user id",
	Long: `Mint a bearer token for a user id.

The token is signed with token_secret and carries the user id as its
subject. The server binds that id into every transaction it runs for the
request.

Example:
  rlsctl token issue 1
  rlsctl token issue 2 --ttl 10m`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if err := issueToken(cmd.OutOrStdout(), args[0], ttl); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenIssueCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to token_ttl)")
}

func issueToken(w io.Writer, subject string, ttl time.Duration) error {
	userID, ok := identity.ParseSubject(subject)
	if !ok {
		return fmt.Errorf("user id must be a positive integer, got %q", subject)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tokens, err := authenticator.NewToken(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenLifetime())
	if err != nil {
		return err
	}

	token, _, err := tokens.Issue(userID, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
