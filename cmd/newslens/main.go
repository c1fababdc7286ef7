// NewsLens — company news sentiment analysis with Hindi narration.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rahulsidpara/newslens/api"
	"github.com/rahulsidpara/newslens/internal/analysis"
	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/internal/llm"
	"github.com/rahulsidpara/newslens/internal/logging"
	"github.com/rahulsidpara/newslens/internal/pipeline"
	"github.com/rahulsidpara/newslens/internal/scraper"
	"github.com/rahulsidpara/newslens/internal/speech"
	"github.com/rahulsidpara/newslens/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by PersistentPreRunE.
var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newslens",
	Short: "NewsLens — company news sentiment analysis with Hindi narration",
	Long: `NewsLens scrapes recent news for a company, summarizes and scores the
coverage with an LLM, stores one JSON report per company, and serves the
reports through an HTTP API and dashboard with Hindi text-to-speech.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log, err = logging.Setup(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.Logging.File,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildPipeline wires the discovery, extraction, analysis, and persistence
// stages from config.
func buildPipeline() (*pipeline.Pipeline, *store.Store, error) {
	searcher, err := scraper.NewSearcherFromConfig(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	extractor := scraper.NewExtractor(cfg.Scraper, log)

	provider, err := llm.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("LLM setup failed: %w", err)
	}
	analyzer := analysis.NewAnalyzer(provider, cfg.LLM, log)

	st := store.New(cfg.Store.Dir, log)
	return pipeline.New(searcher, extractor, analyzer, st, cfg.Scraper.MaxArticles, log), st, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("NewsLens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command (batch) ---

var runCmd = &cobra.Command{
	Use:   "run [csv]",
	Short: "Analyze every company in a CSV list",
	Long: `Read company names from a CSV file (default: data/company_list.csv)
and run the full pipeline for each: discover news, extract articles, analyze
sentiment, and persist one report per company.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath := "data/company_list.csv"
		if len(args) == 1 {
			csvPath = args[0]
		}

		companies, err := pipeline.LoadCompanyList(csvPath)
		if err != nil {
			return err
		}
		log.WithField("companies", len(companies)).Info("company list loaded")

		p, _, err := buildPipeline()
		if err != nil {
			return err
		}

		summary, err := p.RunBatch(cmd.Context(), companies)
		if err != nil {
			return err
		}

		fmt.Printf("Done: %d processed, %d failed, %d skipped\n",
			summary.Processed, summary.Failed, summary.Skipped)
		return nil
	},
}

// --- Analyze Command (single company) ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [company]",
	Short: "Analyze news coverage for one company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := args[0]

		p, _, err := buildPipeline()
		if err != nil {
			return err
		}

		report, err := p.Run(cmd.Context(), company)
		if err != nil {
			return err
		}

		fmt.Printf("Report for %s (%d articles)\n", report.Company, len(report.Articles))
		fmt.Printf("  %s\n", report.FinalSentimentAnalysis)
		fmt.Printf("  saved under %s/%s.json\n", cfg.Store.Dir, store.NormalizeKey(report.Company))
		return nil
	},
}

// --- Serve Command (API server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, st, err := buildPipeline()
		if err != nil {
			return err
		}

		narrator := speech.NewService(
			speech.NewGoogleTranslator(),
			speech.NewGoogleSynthesizer(cfg.Scraper.UserAgent),
			cfg.Speech.TargetLang,
			log,
		)

		srv := api.NewServer(cfg, st, p, narrator, log)
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Bool("no-ui", false, "disable the embedded dashboard")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  NewsLens — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    Scraper:       %s (max %d articles)\n", cfg.Scraper.Provider, cfg.Scraper.MaxArticles)
		fmt.Printf("    Store:         %s\n", cfg.Store.Dir)
		fmt.Printf("    Speech:        %s (cache %ds)\n", cfg.Speech.TargetLang, cfg.Speech.CacheTTL)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		st := store.New(cfg.Store.Dir, log)
		companies, err := st.List()
		if err == nil {
			fmt.Println()
			fmt.Printf("  Stored reports: %d\n", len(companies))
			for _, c := range companies {
				fmt.Printf("    - %s\n", c)
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
