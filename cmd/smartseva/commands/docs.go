package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/ingestion"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

// NewDocsCmd constructs the `smartseva docs` command group for inspecting
// and removing ingested documents.
func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage ingested scheme documents",
	}

	cmd.AddCommand(newDocsListCmd(), newDocsRemoveCmd())

	return cmd
}

func newDocsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			docs, err := openDocStore(log)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			defer func() { _ = docs.Close() }()

			list, err := docs.List(ctx)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			if len(list) == 0 {
				fmt.Println("no documents ingested yet — see 'smartseva ingest'")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tINGESTED")
			for _, d := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Source, d.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newDocsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [document-id]",
		Short: "Remove an ingested document and its index entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("docs remove: %w", err)
			}

			index, err := buildIndex(ctx, log)
			if err != nil {
				return fmt.Errorf("docs remove: %w", err)
			}
			defer index.Close()

			docs, err := openDocStore(log)
			if err != nil {
				return fmt.Errorf("docs remove: %w", err)
			}
			defer func() { _ = docs.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, index, docs, chunkConfig())
			if err != nil {
				return fmt.Errorf("docs remove: %w", err)
			}

			if err := pipeline.Remove(ctx, args[0]); err != nil {
				return fmt.Errorf("docs remove: %w", err)
			}

			fmt.Printf("removed document %s\n", args[0])
			return nil
		},
	}
}
