package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"urbanlex/internal/app"
	"urbanlex/internal/indexer"
	"urbanlex/internal/legal"
)

func newIndexCmd() *cobra.Command {
	var luos, pdus, dir string
	cmd := &cobra.Command{
		Use:   "index [--dir <corpus>] [--luos <file>] [--pdus <file>]",
		Short: "Chunk and store the legal texts",
		Long: `Chunk and store the legal texts. Unchanged documents are skipped.
Markdown files (.md) are flattened to plain text first. With --dir, every
file whose name starts with luos or pdus is picked up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if luos == "" && pdus == "" && dir == "" {
				return fmt.Errorf("one of --dir, --luos or --pdus is required")
			}
			var sources []indexer.Source
			if dir != "" {
				scanned, err := indexer.ScanDir(cmd.Context(), dir)
				if err != nil {
					return err
				}
				sources = append(sources, scanned...)
			}
			for _, f := range []struct {
				docType legal.DocumentType
				path    string
			}{{legal.LUOS, luos}, {legal.PDUS, pdus}} {
				if f.path == "" {
					continue
				}
				content, err := os.ReadFile(f.path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", f.path, err)
				}
				sources = append(sources, indexer.Source{DocumentType: f.docType, Name: filepath.Base(f.path), Content: content})
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats := a.Indexer.IndexAll(ctx, sources)
				printStats(cmd, stats)
				if stats.DocsFailed > 0 {
					return fmt.Errorf("%d document(s) failed to index", stats.DocsFailed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the legal texts")
	cmd.Flags().StringVar(&luos, "luos", "", "path to the LUOS text")
	cmd.Flags().StringVar(&pdus, "pdus", "", "path to the PDUS text")
	return cmd
}

func printStats(cmd *cobra.Command, s indexer.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s indexed %d, skipped %d, failed %d\n",
		boldGreen("✓"), s.DocsIndexed, s.DocsSkipped, s.DocsFailed)
	fmt.Fprintf(out, "  chunks: %d (embedded %d)\n", s.Chunks, s.ChunksEmbedded)
	for _, t := range []legal.ChunkType{
		legal.TypeTitle, legal.TypeChapter, legal.TypeSection, legal.TypeSubsection,
		legal.TypeArticle, legal.TypeParagraph, legal.TypeInciso,
	} {
		if n := s.ChunksByType[string(t)]; n > 0 {
			fmt.Fprintf(out, "  %-10s %d\n", t, n)
		}
	}
	if s.Chunks > 0 {
		fmt.Fprintf(out, "  tokens: min %d, max %d, mean %.1f, p95 %d\n",
			s.ChunkTokens.Min, s.ChunkTokens.Max, s.ChunkTokens.Mean, s.ChunkTokens.P95)
	}
	fmt.Fprintf(out, "  %s\n", faint("index version "+s.IndexVersion))
	for _, w := range s.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", boldYellow("warning:"), w)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", red("error:"), e)
	}
}
