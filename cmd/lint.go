package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/docsentry/docsentry/internal/config"
	"github.com/docsentry/docsentry/internal/lint"
	"github.com/docsentry/docsentry/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	lintFormat string
	lintStrict bool
	lintPaths  []string
)

// lintCmd represents the lint command.
var lintCmd = &cobra.Command{
	Use:   "lint [file.md...]",
	Short: "Lint front-matter and internal links",
	Long: `Lint documentation pages for content integrity issues including:

- Missing or malformed YAML front-matter
- Missing or overlong title and description
- Empty or duplicated keywords
- Internal links pointing at documents that do not exist
- Fragment links pointing at headings that do not exist
- Duplicate heading anchors within a page

Exit status is non-zero when any error-severity problem is found,
so the command slots into CI pipelines directly.

Examples:
  docsentry lint                      # Lint all configured roots
  docsentry lint docs/guide/setup.md  # Lint specific files
  docsentry lint --strict             # Treat warnings as errors
  docsentry lint --format json        # Output results as JSON`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFormat, "format", "f", "text", "Output format (text, json, yaml)")
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat warnings as errors")
	lintCmd.Flags().StringSliceVar(&lintPaths, "path", nil, "Additional paths to scan for documents")
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.TargetFiles = args

	reg, err := buildCorpus(cfg, lintPaths)
	if err != nil {
		return err
	}

	if reg.Count() == 0 {
		fmt.Println("No documents found to lint")
		return nil
	}

	opts := server.LinterOptions(cfg)
	opts.Strict = lintStrict
	summary := lint.New(opts).LintCorpus(reg)

	switch strings.ToLower(lintFormat) {
	case "json":
		err = outputLintJSON(summary)
	case "yaml":
		err = outputLintYAML(summary)
	case "text":
		err = outputLintText(summary)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", lintFormat)
	}
	if err != nil {
		return err
	}

	if summary.Errors > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d error(s) in %d document(s)", summary.Errors, summary.Invalid)
	}

	return nil
}

func outputLintJSON(summary lint.Summary) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func outputLintYAML(summary lint.Summary) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(summary)
}

func outputLintText(summary lint.Summary) error {
	for _, result := range summary.Results {
		if len(result.Problems) == 0 {
			continue
		}

		fmt.Printf("%s:\n", result.Path)
		for _, problem := range result.Problems {
			location := result.Path
			if problem.Line > 0 {
				location = fmt.Sprintf("%s:%d", result.Path, problem.Line)
			}
			fmt.Printf("  %-7s %s  [%s] (%s)\n", problem.Level, problem.Message, problem.Rule, location)
		}
	}

	fmt.Printf("\n%d document(s), %d valid, %d invalid, %d error(s), %d warning(s)\n",
		summary.Total, summary.Valid, summary.Invalid, summary.Errors, summary.Warnings)

	return nil
}
