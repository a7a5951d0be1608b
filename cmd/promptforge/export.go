package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longregen/promptforge/internal/application/services"
)

// exportCmd converts a saved prompt between wire formats
func exportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <prompt.json>",
		Short: "Render a saved prompt",
		Long: `Read a prompt previously written by "optimize -o" and render it in
the requested format: "openai" (the OpenAI chat completion request JSON)
or "readable" (plain text for inspection).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read prompt file: %w", err)
			}

			prompt, err := services.ImportOpenAI(data)
			if err != nil {
				return err
			}

			switch format {
			case "openai":
				out, err := services.ExportOpenAI(prompt)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			case "readable":
				fmt.Println(services.RenderReadable(prompt))
			default:
				return fmt.Errorf("unknown format %q: want openai or readable", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "readable", "Output format: openai or readable")
	return cmd
}
