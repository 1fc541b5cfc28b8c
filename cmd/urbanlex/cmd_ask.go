package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"urbanlex/internal/app"
	"urbanlex/internal/service"
)

func newAskCmd() *cobra.Command {
	var (
		bypass  bool
		trace   bool
		session string
		model   string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about the legislation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.QueryRequest{
				Query:       strings.Join(args, " "),
				SessionID:   session,
				BypassCache: bypass,
				Model:       model,
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Query.Query(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, resp.Response)
				fmt.Fprintln(out)
				fmt.Fprintf(out, "%s %s\n", boldCyan("confiança:"), confidence(resp.Confidence))
				if len(resp.Sources) > 0 {
					names := make([]string, 0, len(resp.Sources))
					for name := range resp.Sources {
						names = append(names, name)
					}
					sort.Strings(names)
					parts := make([]string, len(names))
					for i, name := range names {
						parts[i] = fmt.Sprintf("%s=%d", name, resp.Sources[name])
					}
					fmt.Fprintf(out, "%s %s\n", boldCyan("ferramentas:"), strings.Join(parts, ", "))
				}
				if trace {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(resp.Trace)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&bypass, "bypass-cache", false, "skip the response cache")
	cmd.Flags().BoolVar(&trace, "trace", false, "print the pipeline trace")
	cmd.Flags().StringVar(&session, "session", "", "session ID (generated when empty)")
	cmd.Flags().StringVar(&model, "model", "", "model name used in the cache key")
	return cmd
}

func confidence(c float64) string {
	s := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.7:
		return boldGreen(s)
	case c >= 0.35:
		return boldYellow(s)
	}
	return red(s)
}
