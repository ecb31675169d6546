package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noesis-ai/noesis/internal/pipeline"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge base",
	Long: `Run one question through the full pipeline: parse, validate entities,
search with constraint fallback, rerank, and synthesize an answer.

Examples:
  noesis ask "魔都有哪些人工智能公司？"
  noesis ask --json "上海的天气怎么样"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		deps, err := buildDeps(ctx, cfg)
		if err != nil {
			return err
		}
		defer deps.Close()

		p := pipeline.New(cfg, pipeline.Deps{
			Registry: deps.Registry,
			Store:    deps.Store,
			Embedder: deps.Embedder,
			Provider: deps.Provider,
			Logger:   deps.Logger,
		})

		state := p.Ask(ctx, query)

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		}

		fmt.Println(state.Answer)
		if verbose {
			fmt.Fprintf(os.Stderr, "\n--- %d steps in %s ---\n", len(state.Steps), state.Duration.Round(0))
			for _, step := range state.Steps {
				line := fmt.Sprintf("%-10s %-9s %s", step.Name, step.Status, step.Duration.Round(0))
				if step.Error != "" {
					line += "  " + step.Error
				}
				fmt.Fprintln(os.Stderr, line)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full pipeline state as JSON")
	rootCmd.AddCommand(askCmd)
}
