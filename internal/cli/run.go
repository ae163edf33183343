package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/esgkit/factpanel/internal/model"
	"github.com/esgkit/factpanel/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	docIDs      []string
	docsFile    string
	storeRoot   string
	outputDir   string
	maxRank     int
	workers     int
	batchSize   int
	batchDelay  time.Duration
	runTimeout  time.Duration
	noCache     bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <attribute>...",
	Short: "Consolidate candidate facts into KPI panels",
	Long: `Run consolidates extracted candidate facts for a set of documents against
one or more target attributes (KPIs):
- Keep the most relevant candidate rows per (document, attribute) group
- Link each kept row back to its raw context and page image
- Verify values against the linked context
- Standardise entity names and reporting years across the batch
- Rank rows by relevance and recency, then pivot into wide panels

Example:
  factpanel run "ghg emissions" --docs-file docs.txt
  factpanel run "ghg emissions" "water consumption" --doc userdata_stanlib_abc --doc userdata_stanlib_def
  factpanel run "% women in workforce" --docs-file docs.txt --llm --max-rank 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Input flags
	runCmd.Flags().StringArrayVar(&docIDs, "doc", nil, "document ID to process (repeatable)")
	runCmd.Flags().StringVar(&docsFile, "docs-file", "", "file with document IDs, one per line")
	runCmd.Flags().StringVar(&storeRoot, "store", "./artifacts", "artifact store root directory")

	// Output flags
	runCmd.Flags().StringVar(&outputDir, "output-dir", "./panels", "output directory for panels and the run report")
	runCmd.Flags().IntVar(&maxRank, "max-rank", 0, "keep only rows at or above this similarity rank (0 keeps all)")

	// Concurrency flags
	runCmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent group workers")
	runCmd.Flags().IntVar(&batchSize, "batch-size", 10, "groups per batch")
	runCmd.Flags().DurationVar(&batchDelay, "batch-delay", 2*time.Second, "pause between batches")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total run timeout")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the collaborator response cache")

	// LLM flags
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM-backed verification and standardisation")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	attributes := args

	documents, err := collectDocuments()
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		return fmt.Errorf("no documents given: use --doc or --docs-file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// Build configuration from flags
	cfg := model.DefaultConfig()
	cfg.Store.Root = storeRoot
	cfg.Output.Dir = outputDir
	cfg.Output.MaxRank = maxRank
	cfg.Output.Verbose = verbose
	cfg.Concurrency.Workers = workers
	cfg.Collab.BatchSize = batchSize
	cfg.Collab.BatchDelay = batchDelay
	cfg.Cache.Enabled = !noCache

	// Configure LLM if enabled
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		if llmProvider == "openai" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Documents: %d\n", len(documents))
		fmt.Fprintf(os.Stderr, "Attributes: %s\n", strings.Join(attributes, ", "))
		fmt.Fprintf(os.Stderr, "Store: %s\n", storeRoot)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, documents, attributes)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printSummary(report)
	return nil
}

// collectDocuments merges --doc flags with the --docs-file list, first
// occurrence wins.
func collectDocuments() ([]string, error) {
	seen := make(map[string]bool)
	var documents []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		documents = append(documents, id)
	}

	for _, id := range docIDs {
		add(strings.TrimSpace(id))
	}

	if docsFile != "" {
		f, err := os.Open(docsFile)
		if err != nil {
			return nil, fmt.Errorf("open docs file: %w", err)
		}
		defer func() { _ = f.Close() }()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			add(line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read docs file: %w", err)
		}
	}

	return documents, nil
}

func printSummary(report *model.RunReport) {
	fmt.Printf("Run %s finished in %v\n", report.RunID, report.Duration.Round(time.Millisecond))
	fmt.Printf("  groups: %d  records: %d\n", len(report.Groups), report.Records)

	var ok, empty, failed int
	for _, g := range report.Groups {
		switch g.State {
		case model.GroupOK:
			ok++
		case model.GroupEmpty:
			empty++
		case model.GroupFailed:
			failed++
		}
	}
	fmt.Printf("  ok: %d  empty: %d  failed: %d\n", ok, empty, failed)

	for _, g := range report.Failed() {
		fmt.Printf("  FAILED %s / %s: %s\n", g.DocumentID, g.Attribute, g.Error)
	}
	for _, c := range report.Collisions {
		fmt.Printf("  collision in %q at %s, variable %q\n", c.Attribute, c.IndexKey, c.Variable)
	}
}
