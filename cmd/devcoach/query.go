package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devcoach/internal/domain"
)

func newQueryCmd(configPath *string) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "print the passages most similar to text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("k") {
				k = cfg.Retrieval.TopK
			}
			if k <= 0 {
				return fmt.Errorf("%w: -k must be positive, got %d", domain.ErrInvalidArgument, k)
			}
			if err := a.retriever.Run(ctx, a.build); err != nil {
				return err
			}
			results, err := a.retriever.Retrieve(ctx, strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no passages indexed")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "[%d] %.4f  %s #%d\n%s\n\n", i+1, r.Score, r.Chunk.Source, r.Chunk.Index, strings.TrimSpace(r.Chunk.Text))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of passages (default retrieval.top_k)")
	return cmd
}
