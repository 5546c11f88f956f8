package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/agents"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/config"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/dispatch"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/docstore"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/eventlog"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/limiter"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/metrics"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/orchestrator"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/persistence"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/predictor"
)

// requestFile is the JSON shape accepted via -request.
type requestFile struct {
	Property analysis.PropertyDetails `json:"property"`
	Investor analysis.InvestorContext `json:"investor"`
}

func main() {
	var configPath string
	var requestPath string
	var corpusDir string
	var showID string
	var listReports bool
	var setKey bool
	var showUsage bool
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&requestPath, "request", "", "Path to analysis request JSON file")
	flag.StringVar(&corpusDir, "corpus", "", "Document corpus directory (overrides config)")
	flag.StringVar(&showID, "show", "", "Print a stored analysis report by request ID")
	flag.BoolVar(&listReports, "list", false, "List recent analysis reports")
	flag.BoolVar(&setKey, "set-key", false, "Store the provider API key in the encrypted secrets file")
	flag.BoolVar(&showUsage, "usage", false, "Show provider token usage from Prometheus")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("REIA_CONFIG")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if corpusDir != "" {
		cfg.Storage.CorpusDir = corpusDir
	}

	if setKey {
		if err := storeAPIKey(cfg); err != nil {
			log.Fatalf("Failed to store API key: %v", err)
		}
		return
	}

	if showUsage {
		if err := reportUsage(cfg); err != nil {
			log.Fatalf("Failed to query usage: %v", err)
		}
		return
	}

	if listReports || showID != "" {
		if err := inspectReports(cfg, showID, listReports); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if requestPath == "" {
		log.Fatalf("No request file given. Use -request <file.json>, -list, or -show <id>.")
	}

	req, err := loadRequest(requestPath)
	if err != nil {
		log.Fatalf("Failed to load request: %v", err)
	}

	if err := loadSecrets(cfg); err != nil {
		log.Fatalf("Failed to load secrets: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := runAnalysis(ctx, cfg, req)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	out, err := result.ToJSON()
	if err != nil {
		log.Fatalf("Failed to render result: %v", err)
	}
	fmt.Println(string(out))
}

// runAnalysis wires the full pipeline from config and runs one request.
func runAnalysis(ctx context.Context, cfg *config.Config, req *analysis.AnalysisRequest) (*analysis.InvestmentAnalysis, error) {
	logger := logx.NewLogger("main")

	var recorder metrics.Recorder = metrics.NopRecorder{}
	if cfg.Metrics.Addr != "" {
		recorder = metrics.NewPrometheusRecorder()
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	docs, err := docstore.Open(cfg.Storage.DocStorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	defer docs.Close() //nolint:errcheck // Close on shutdown

	if cfg.Storage.CorpusDir != "" {
		if err := seedCorpus(ctx, docs, cfg.Storage.CorpusDir, logger); err != nil {
			return nil, err
		}
	}

	reports, err := persistence.Open(cfg.Storage.ReportStorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}
	defer reports.Close() //nolint:errcheck // Close on shutdown

	events, err := eventlog.NewWriter(cfg.EventLogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}
	defer events.Close() //nolint:errcheck // Close on shutdown

	generator, err := generative.NewFromConfig(cfg, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrative generator: %w", err)
	}

	capabilityAgents := []agents.Agent{
		agents.NewValuationAgent(predictor.NewHedonicModel()),
		agents.NewMarketAgent(docs),
		agents.NewRiskAgent(docs),
	}
	timeouts := map[proto.Role]time.Duration{
		proto.RoleValuation:   cfg.Timeouts.Valuation,
		proto.RoleMarketIntel: cfg.Timeouts.MarketIntel,
		proto.RoleRisk:        cfg.Timeouts.Risk,
	}

	dispatcher, err := dispatch.NewDispatcher(capabilityAgents, timeouts, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	rateLimiter := limiter.NewLimiter(cfg.Limiter.TokensPerMinute, cfg.Limiter.MaxConcurrent)
	policy := agents.RetryPolicy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		InitialDelay:  cfg.Retry.InitialDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		Jitter:        cfg.Retry.Jitter,
	}
	runner := agents.NewNarrativeRunner(generator, policy, cfg.Timeouts.Narrative, rateLimiter, recorder)

	orch, err := orchestrator.New(orchestrator.Deps{
		Dispatcher:     dispatcher,
		Narrative:      runner,
		Recorder:       recorder,
		Events:         events,
		Reports:        reports,
		RequestTimeout: cfg.Timeouts.Request,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("analyzing %s property in %s (%s)", req.Property.PropertyType, req.Property.City, req.ID)
	return orch.Analyze(ctx, req)
}

func loadRequest(path string) (*analysis.AnalysisRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	var rf requestFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	req := analysis.NewAnalysisRequest(rf.Property, rf.Investor)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// seedCorpus loads the YAML corpus into an empty document store. A populated
// store is left alone.
func seedCorpus(ctx context.Context, docs *docstore.Store, dir string, logger *logx.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("corpus directory %s does not exist, skipping seed", dir)
		return nil
	}
	n, err := docs.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check document store: %w", err)
	}
	if n > 0 {
		return nil
	}
	seeded, err := docs.SeedFromDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to seed document corpus: %w", err)
	}
	logger.Info("seeded %d documents from %s", seeded, dir)
	return nil
}

// loadSecrets makes the provider API key available, decrypting the secrets
// file if one exists and the key is not already in the environment.
func loadSecrets(cfg *config.Config) error {
	keyName := cfg.APIKeyName()
	if keyName == "" {
		return nil // ollama and mock need no key
	}
	if os.Getenv(keyName) != "" {
		return nil
	}
	if !config.SecretsFileExists(".") {
		return nil // the factory reports the missing key with context
	}

	fmt.Print("Secrets file password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	secrets, err := config.DecryptSecretsFile(".", string(password))
	if err != nil {
		return fmt.Errorf("failed to decrypt secrets file: %w", err)
	}
	config.SetDecryptedSecrets(secrets)
	return nil
}

// storeAPIKey prompts for the provider key and a password and writes the
// encrypted secrets file.
func storeAPIKey(cfg *config.Config) error {
	keyName := cfg.APIKeyName()
	if keyName == "" {
		return fmt.Errorf("provider %s does not use an API key", cfg.Generative.Provider)
	}

	fmt.Printf("Enter value for %s: ", keyName)
	key, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("empty key")
	}

	fmt.Print("Choose a password for the secrets file: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	secrets := map[string]string{keyName: string(key)}
	if config.SecretsFileExists(".") {
		existing, err := config.DecryptSecretsFile(".", string(password))
		if err != nil {
			return fmt.Errorf("failed to decrypt existing secrets file: %w", err)
		}
		for k, v := range existing {
			if _, ok := secrets[k]; !ok {
				secrets[k] = v
			}
		}
	}

	if err := config.EncryptSecretsFile(".", string(password), secrets); err != nil {
		return err
	}
	fmt.Printf("Stored %s in encrypted secrets file.\n", keyName)
	return nil
}

// inspectReports services the -list and -show flags against the report store.
func inspectReports(cfg *config.Config, showID string, list bool) error {
	reports, err := persistence.Open(cfg.Storage.ReportStorePath)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	defer reports.Close() //nolint:errcheck // Close on shutdown

	ctx := context.Background()

	if showID != "" {
		result, err := reports.GetAnalysis(ctx, showID)
		if err != nil {
			return err
		}
		out, err := result.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	summaries, err := reports.ListRecent(ctx, 20)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No stored reports.")
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("%s  %-5s  conf=%.2f  degraded=%-5t  %s\n",
			s.RequestID, s.Recommendation, s.Confidence, s.Degraded,
			s.CompletedAt.Format(time.RFC3339))
	}
	return nil
}

// reportUsage queries the configured Prometheus server for generative token
// usage by the current provider.
func reportUsage(cfg *config.Config) error {
	if cfg.Metrics.PrometheusURL == "" {
		return fmt.Errorf("no prometheus_url configured")
	}
	qs, err := metrics.NewQueryService(cfg.Metrics.PrometheusURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usage, err := qs.GetProviderUsage(ctx, cfg.Generative.Provider)
	if err != nil {
		return err
	}
	fmt.Printf("Provider %s usage:\n", cfg.Generative.Provider)
	fmt.Printf("  prompt tokens:     %d\n", usage.PromptTokens)
	fmt.Printf("  completion tokens: %d\n", usage.CompletionTokens)
	fmt.Printf("  total tokens:      %d\n", usage.TotalTokens)
	fmt.Printf("  fallbacks:         %d\n", usage.Fallbacks)
	return nil
}

func serveMetrics(addr string, logger *logx.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics endpoint listening on %s", addr)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error: %v", err)
	}
}
