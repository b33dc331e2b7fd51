package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsentry/docsentry/internal/config"
	"github.com/docsentry/docsentry/internal/lint"
	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/scanner"
	"github.com/docsentry/docsentry/internal/server"
	"github.com/docsentry/docsentry/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for file changes and re-lint documents",
	Long: `Watch the documentation roots and automatically re-lint changed pages
without serving. This is useful for editing workflows where you want
instant feedback in the terminal but don't need the report server.

Examples:
  docsentry watch                 # Watch all configured roots
  docsentry watch --verbose       # Print every changed file`,
	RunE: runWatch,
}

var watchVerbose bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger()

	reg := registry.NewDocumentRegistry()

	root := "."
	if len(cfg.Docs.Roots) > 0 {
		root = cfg.Docs.Roots[0]
	}
	docScanner := scanner.NewDocumentScanner(reg,
		scanner.WithRoot(root),
		scanner.WithExcludePatterns(cfg.Docs.ExcludePatterns),
	)
	defer docScanner.Close()

	linter := lint.New(server.LinterOptions(cfg))

	fileWatcher, err := watcher.NewFileWatcher(300*time.Millisecond, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.MarkdownFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoVendorFilter)

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Printf("%d file(s) changed:\n", len(events))
			for _, event := range events {
				fmt.Printf("   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Printf("%d file(s) changed\n", len(events))
		}

		for _, event := range events {
			if event.Type == watcher.EventTypeDeleted {
				reg.Remove(docScanner.RelPath(event.Path))
				continue
			}
			if err := docScanner.ScanFile(event.Path); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to rescan %s: %v\n", event.Path, err)
			}
		}

		summary := linter.LintCorpus(reg)
		if err := outputLintText(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to print lint results: %v\n", err)
		}

		return nil
	})

	fmt.Println("Setting up file watching...")
	for _, path := range cfg.Docs.Roots {
		if err := fileWatcher.AddRecursive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, err)
		} else {
			fmt.Printf("   - Watching: %s\n", path)
		}
	}

	fmt.Println("Performing initial scan...")
	for _, path := range cfg.Docs.Roots {
		if err := docScanner.ScanDirectory(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to scan %s: %v\n", path, err)
		}
	}

	summary := linter.LintCorpus(reg)
	if err := outputLintText(summary); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	<-ctx.Done()

	return nil
}
