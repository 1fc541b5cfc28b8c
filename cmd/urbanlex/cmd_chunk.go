package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"urbanlex/internal/indexer"
	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
)

func newChunkCmd() *cobra.Command {
	var (
		docType string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Print the chunks of a legal text without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := legal.ParseDocumentType(strings.ToUpper(docType))
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			text := string(content)
			if indexer.IsMarkdown(args[0]) {
				text = indexer.NewFlattener().Flatten(content)
			}

			res, err := legal.NewChunker(lexicon.Default()).Chunk(dt, text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Chunks)
			}
			for _, c := range res.Chunks {
				fmt.Fprintf(out, "%s %s %s\n", boldCyan(c.Label()), faint(string(c.Type)), faint(c.ID))
				fmt.Fprintf(out, "  %s\n", excerpt(c.Text, 120))
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", boldYellow("warning:"), w)
			}
			fmt.Fprintf(out, "%s %d chunks\n", boldGreen("✓"), len(res.Chunks))
			return nil
		},
	}
	cmd.Flags().StringVar(&docType, "doc", string(legal.LUOS), "document type (LUOS or PDUS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print chunks as JSON")
	return cmd
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
