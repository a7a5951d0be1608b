package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ingestCmd adds documents to the retrieval corpus
func ingestCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the retrieval corpus",
		Long: `Chunk, embed and index one or more documents. Plain text, Markdown
and HTML are supported; HTML is reduced to its readable text first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			corpus, err := openCorpus(ctx)
			if err != nil {
				return err
			}
			defer corpus.close()

			ingestion := newIngestion(corpus)
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				ct := contentType
				if ct == "" {
					ct = guessContentType(path)
				}

				doc, err := ingestion.Ingest(ctx, filepath.Base(path), ct, string(data))
				if err != nil {
					return fmt.Errorf("failed to ingest %s: %w", path, err)
				}
				fmt.Printf("Ingested %s as %s (%d chunks)\n", path, doc.ID, doc.ChunkCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Force a content type instead of inferring from the extension")
	return cmd
}

// documentsCmd manages the ingested corpus
func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage the retrieval corpus",
	}

	cmd.AddCommand(
		documentsListCmd(),
		documentsDeleteCmd(),
		documentsStatsCmd(),
	)
	return cmd
}

func documentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			corpus, err := openCorpus(ctx)
			if err != nil {
				return err
			}
			defer corpus.close()

			docs, err := corpus.documents.List(ctx)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Println("No documents ingested.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILENAME\tTYPE\tCHUNKS\tCREATED")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					d.ID, d.Filename, d.ContentType, d.ChunkCount,
					d.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func documentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			corpus, err := openCorpus(ctx)
			if err != nil {
				return err
			}
			defer corpus.close()

			if err := newIngestion(corpus).Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func documentsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			corpus, err := openCorpus(ctx)
			if err != nil {
				return err
			}
			defer corpus.close()

			stats, err := corpus.index.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Documents: %d\n", stats.DocumentCount)
			fmt.Printf("Chunks:    %d\n", stats.ChunkCount)
			return nil
		},
	}
}

func guessContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
