package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/rlsnotes/pkg/snippets"
)

// snippetsCmd represents the snippets command
var snippetsCmd = &cobra.Command{
	Use:   "snippets <file.md>",
	Short: "Extract fenced code blocks from an article",
	Long: `Extract fenced code blocks from a Markdown article.

Without --out the blocks are printed with their language and line number.
With --out each block is written to its own file in that directory.

Example:
  rlsctl snippets docs/row-level-security.md --lang sql
  rlsctl snippets docs/rxjs-patterns.md --lang typescript --out build/snippets`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lang, _ := cmd.Flags().GetString("lang")
		out, _ := cmd.Flags().GetString("out")

		if err := extractSnippets(cmd.OutOrStdout(), args[0], lang, out); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to extract snippets: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(snippetsCmd)
	snippetsCmd.Flags().StringP("lang", "l", "", "only blocks in this language")
	snippetsCmd.Flags().StringP("out", "o", "", "directory to write one file per block")
}

func extractSnippets(w io.Writer, path, lang, out string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	found, err := snippets.Extract(source, lang)
	if err != nil {
		return err
	}

	if out != "" {
		paths, err := snippets.WriteFiles(out, found)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		return nil
	}

	for _, s := range found {
		lang := s.Lang
		if lang == "" {
			lang = "-"
		}
		fmt.Fprintf(w, "-- %s:%d (%s)\n%s\n", path, s.Line, lang, s.Code)
	}
	return nil
}
