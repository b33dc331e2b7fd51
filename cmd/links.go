package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docsentry/docsentry/internal/config"
	"github.com/docsentry/docsentry/internal/linkcheck"
	"github.com/docsentry/docsentry/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var linksFormat string

// linksCmd represents the links command.
var linksCmd = &cobra.Command{
	Use:   "links [file.md...]",
	Short: "Check external links for rot",
	Long: `Fetch every external http(s) link referenced by the documentation and
report dead or unreachable targets. Each unique URL is fetched once per run
regardless of how many documents reference it. HEAD is tried first with a
GET fallback for servers that reject it.

Exit status is non-zero when any broken link is found.

Examples:
  docsentry links                     # Check links across all roots
  docsentry links docs/intro.md       # Check links from specific files
  docsentry links --timeout 30s       # Allow slow servers more time
  docsentry links --format json       # Output results as JSON`,
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)

	linksCmd.Flags().StringVarP(&linksFormat, "format", "f", "text", "Output format (text, json, yaml)")
	linksCmd.Flags().Bool("external", true, "Fetch external links (false skips all network access)")
	linksCmd.Flags().Int("concurrency", 8, "Parallel fetches")
	linksCmd.Flags().Duration("timeout", 0, "Per-request timeout")
	linksCmd.Flags().Int("retries", 2, "Extra attempts for transient failures")
	linksCmd.Flags().Bool("check-fragments", false, "Verify #fragments against ids in fetched HTML")

	viper.BindPFlag("links.external", linksCmd.Flags().Lookup("external"))
	viper.BindPFlag("links.concurrency", linksCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("links.timeout", linksCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("links.retries", linksCmd.Flags().Lookup("retries"))
	viper.BindPFlag("links.check_fragments", linksCmd.Flags().Lookup("check-fragments"))
}

func runLinks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.TargetFiles = args

	if !cfg.Links.External {
		fmt.Println("External link checking is disabled (links.external=false)")
		return nil
	}

	reg, err := buildCorpus(cfg, nil)
	if err != nil {
		return err
	}

	if reg.Count() == 0 {
		fmt.Println("No documents found to check")
		return nil
	}

	// Cancel in-flight fetches on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := linkcheck.New(server.CheckerOptions(cfg))
	report := checker.CheckCorpus(ctx, reg)

	switch strings.ToLower(linksFormat) {
	case "json":
		err = outputLinksJSON(report)
	case "yaml":
		err = outputLinksYAML(report)
	case "text":
		err = outputLinksText(report)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", linksFormat)
	}
	if err != nil {
		return err
	}

	if report.HasBroken() {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d broken link(s)", report.Broken)
	}

	return nil
}

func outputLinksJSON(report linkcheck.Report) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func outputLinksYAML(report linkcheck.Report) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(report)
}

func outputLinksText(report linkcheck.Report) error {
	for _, result := range report.Results {
		if result.State == linkcheck.StateOK {
			continue
		}

		fmt.Printf("%-8s %s", result.State, result.URL)
		if result.StatusCode > 0 {
			fmt.Printf(" (%d)", result.StatusCode)
		}
		if result.Err != "" {
			fmt.Printf(": %s", result.Err)
		}
		fmt.Println()

		for _, doc := range result.Documents {
			fmt.Printf("         referenced by %s\n", doc)
		}
	}

	fmt.Printf("\n%d link(s), %d ok, %d broken, %d skipped\n",
		report.Total, report.OK, report.Broken, report.Skipped)

	return nil
}
