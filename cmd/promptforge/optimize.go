package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/ports"
)

// optimizeCmd runs the full optimization loop against the ingested corpus
func optimizeCmd() *cobra.Command {
	var (
		maxIterations int
		threshold     float64
		model         string
		documents     []string
		outputPath    string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "optimize <spec.json>",
		Short: "Optimize a prompt for an expected-output template",
		Long: `Run the closed optimization loop for the given spec file.

The spec file is JSON with at least a "template" field:

  {
    "template": "Invoice {invoice_number}\nDue: {due_date}",
    "description": "summarize an invoice",
    "output_format": "record"
  }

Pass "-" to read the spec from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			corpus, err := openCorpus(ctx)
			if err != nil {
				return err
			}
			defer corpus.close()

			optimizer := newOptimizer(corpus)
			result, err := optimizer.Optimize(ctx, &ports.OptimizeRequest{
				Spec:        spec,
				DocumentIDs: documents,
			}, runConfigFromFlags(maxIterations, threshold, model))
			if err != nil {
				return err
			}

			if outputPath != "" {
				data, err := services.ExportOpenAI(result.FinalPrompt)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write prompt: %w", err)
				}
				fmt.Printf("Final prompt written to %s\n", outputPath)
			}

			if asJSON {
				return printJSON(result)
			}

			fmt.Printf("Status:     %s\n", result.Status)
			fmt.Printf("Best score: %.3f\n", result.FinalMatchScore)
			fmt.Printf("Iterations: %d\n", result.TotalIterations)
			fmt.Printf("Message:    %s\n", result.Message)
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ITER\tSCORE\tCAUSES\tQUERY")
			for _, it := range result.Iterations {
				score := 0.0
				causes := "-"
				if it.Evaluation != nil {
					score = it.Evaluation.MatchScore
					if len(it.Evaluation.RootCauses) > 0 {
						parts := make([]string, len(it.Evaluation.RootCauses))
						for i, c := range it.Evaluation.RootCauses {
							parts[i] = string(c)
						}
						causes = strings.Join(parts, ",")
					}
				}
				fmt.Fprintf(w, "%d\t%.3f\t%s\t%s\n", it.Iteration, score, causes, truncate(it.Query, 60))
			}
			w.Flush()

			fmt.Println()
			fmt.Println("Final prompt:")
			fmt.Println(services.RenderReadable(result.FinalPrompt))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Override the maximum iteration count")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override the success threshold")
	cmd.Flags().StringVar(&model, "model", "", "Override the generation model")
	cmd.Flags().StringSliceVar(&documents, "documents", nil, "Restrict retrieval to these document IDs")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the final prompt (OpenAI JSON) to a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")

	return cmd
}

// analyzeCmd runs template analysis alone, without touching the corpus
func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <spec.json>",
		Short: "Analyze an expected-output template",
		Long:  `Show the placeholders, structure and suggested retrieval queries derived from a spec file, without running the loop.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(args[0])
			if err != nil {
				return err
			}

			analysis, err := services.NewTemplateAnalyzerService().Analyze(spec)
			if err != nil {
				return err
			}
			return printJSON(analysis)
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
