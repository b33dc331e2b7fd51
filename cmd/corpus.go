package cmd

import (
	"fmt"
	"os"

	"github.com/docsentry/docsentry/internal/config"
	"github.com/docsentry/docsentry/internal/logging"
	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/scanner"
	"github.com/spf13/viper"
)

// buildCorpus scans the configured roots (or explicit target files) into a
// fresh registry. Scan failures on individual roots are warnings, not fatal:
// the remaining roots still produce a usable corpus.
func buildCorpus(cfg *config.Config, extraPaths []string) (*registry.DocumentRegistry, error) {
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

	if len(cfg.TargetFiles) > 0 {
		for _, file := range cfg.TargetFiles {
			if err := docScanner.ScanFile(file); err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", file, err)
			}
		}
		return reg, nil
	}

	scanRoots := cfg.Docs.Roots
	scanRoots = append(scanRoots, extraPaths...)

	for _, scanRoot := range scanRoots {
		if err := docScanner.ScanDirectory(scanRoot); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to scan directory %s: %v\n", scanRoot, err)
		}
	}

	return reg, nil
}

// newLogger builds the CLI logger honoring the --log-level flag.
func newLogger() logging.Logger {
	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.ParseLevel(viper.GetString("log-level"))
	return logging.NewLogger(logConfig)
}
