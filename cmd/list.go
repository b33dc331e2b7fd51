package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/docsentry/docsentry/internal/config"
	"github.com/docsentry/docsentry/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all discovered documents",
	Long: `List all documents discovered under the configured roots with their
front-matter metadata. Shows paths, titles, and optionally keywords and
link counts.

Examples:
  docsentry list                  # List all documents in table format
  docsentry list -f json          # Output as JSON (short flag)
  docsentry list --format csv     # Output as CSV
  docsentry list -k               # Include keywords (short flag)
  docsentry list --keyword guide  # Only documents tagged "guide"`,
	RunE: runList,
}

var (
	listFormat       string
	listWithKeywords bool
	listWithLinks    bool
	listKeyword      string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml, csv)")
	listCmd.Flags().BoolVarP(&listWithKeywords, "with-keywords", "k", false, "Include document keywords")
	listCmd.Flags().BoolVar(&listWithLinks, "with-links", false, "Include link counts")
	listCmd.Flags().StringVar(&listKeyword, "keyword", "", "Only list documents carrying this keyword")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reg, err := buildCorpus(cfg, nil)
	if err != nil {
		return err
	}

	docs := reg.GetAll()
	if listKeyword != "" {
		docs = reg.ByKeyword(listKeyword)
	}

	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	switch strings.ToLower(listFormat) {
	case "json":
		return outputListJSON(docs)
	case "yaml":
		return outputListYAML(docs)
	case "table":
		return outputListTable(docs)
	case "csv":
		return outputListCSV(docs)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml, csv)", listFormat)
	}
}

func listItem(doc *types.DocumentInfo) map[string]interface{} {
	item := map[string]interface{}{
		"path":        doc.Path,
		"title":       doc.Title,
		"description": doc.Description,
		"aside":       doc.Aside,
		"words":       doc.WordCount,
	}

	if listWithKeywords {
		item["keywords"] = doc.Keywords
	}

	if listWithLinks {
		item["links"] = len(doc.Links)
	}

	return item
}

func outputListJSON(docs []*types.DocumentInfo) error {
	output := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		output[i] = listItem(doc)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputListYAML(docs []*types.DocumentInfo) error {
	output := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		output[i] = listItem(doc)
	}

	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(output)
}

func outputListTable(docs []*types.DocumentInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	header := "PATH\tTITLE\tWORDS"
	if listWithKeywords {
		header += "\tKEYWORDS"
	}
	if listWithLinks {
		header += "\tLINKS"
	}
	fmt.Fprintln(w, header)

	for _, doc := range docs {
		row := fmt.Sprintf("%s\t%s\t%d", doc.Path, doc.Title, doc.WordCount)
		if listWithKeywords {
			row += "\t" + strings.Join(doc.Keywords, ", ")
		}
		if listWithLinks {
			row += "\t" + strconv.Itoa(len(doc.Links))
		}
		fmt.Fprintln(w, row)
	}

	return nil
}

func outputListCSV(docs []*types.DocumentInfo) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"path", "title", "description", "words"}
	if listWithKeywords {
		header = append(header, "keywords")
	}
	if listWithLinks {
		header = append(header, "links")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, doc := range docs {
		row := []string{doc.Path, doc.Title, doc.Description, strconv.Itoa(doc.WordCount)}
		if listWithKeywords {
			row = append(row, strings.Join(doc.Keywords, ";"))
		}
		if listWithLinks {
			row = append(row, strconv.Itoa(len(doc.Links)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}
