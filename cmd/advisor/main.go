// Advisor server - streams course-planning chat answers over SSE and exposes
// the graph, grades, profile, and calendar APIs around them.
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/tfpre/CourseNavigator-sub000/pkg/api"
	"github.com/tfpre/CourseNavigator-sub000/pkg/calendar"
	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	advcontext "github.com/tfpre/CourseNavigator-sub000/pkg/context"
	"github.com/tfpre/CourseNavigator-sub000/pkg/convstore"
	"github.com/tfpre/CourseNavigator-sub000/pkg/degreeprogress"
	"github.com/tfpre/CourseNavigator-sub000/pkg/gradesdata"
	"github.com/tfpre/CourseNavigator-sub000/pkg/graph"
	"github.com/tfpre/CourseNavigator-sub000/pkg/kvstore"
	"github.com/tfpre/CourseNavigator-sub000/pkg/llmrouter"
	"github.com/tfpre/CourseNavigator-sub000/pkg/metrics"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/orchestrator"
	"github.com/tfpre/CourseNavigator-sub000/pkg/profilestore"
	"github.com/tfpre/CourseNavigator-sub000/pkg/provenance"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schedulefit"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schema"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tagcache"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tokenbudget"
	"github.com/tfpre/CourseNavigator-sub000/pkg/vector"
	"github.com/tfpre/CourseNavigator-sub000/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: ignoring non-numeric %s=%q", key, v)
		return 0, false
	}
	return n, true
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	log.Printf("Starting %s %s", version.AppName, version.Full())

	ctx := context.Background()
	production := getEnv("ENVIRONMENT", "development") == "production"

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	reg := metrics.New()

	// KV store (Redis) - the single source of durable state.
	kvCfg := kvstore.LoadConfigFromEnv()
	kv, err := kvstore.NewClient(kvCfg)
	if err != nil {
		log.Fatalf("Failed to open Redis client: %v", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}()
	if _, err := kv.Health(ctx); err != nil {
		if production {
			log.Fatalf("Redis health check failed: %v", err)
		}
		log.Printf("Warning: Redis unreachable (%v) - caches and stores degrade to misses", err)
	}

	cache := tagcache.New(kv)
	prov := provenance.New(kv, reg.OnIndexGrow())
	profiles := profilestore.New(kv)
	conversations := convstore.New(kv, cfg.Defaults.ConversationTTL)

	// Graph engine (Neo4j + GDS).
	neo4jURI := getEnv("NEO4J_URI", "bolt://localhost:7687")
	driver, err := neo4j.NewDriverWithContext(neo4jURI,
		neo4j.BasicAuth(getEnv("NEO4J_USERNAME", "neo4j"), os.Getenv("NEO4J_PASSWORD"), ""))
	if err != nil {
		log.Fatalf("Failed to open Neo4j driver: %v", err)
	}
	defer func() {
		if err := driver.Close(ctx); err != nil {
			log.Printf("Error closing Neo4j driver: %v", err)
		}
	}()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		if production {
			log.Fatalf("Neo4j health check failed: %v", err)
		}
		log.Printf("Warning: Neo4j unreachable (%v) - graph endpoints will error until it returns", err)
	}

	catalog := graph.NewCatalogManager(driver)
	centrality := graph.NewCentralityService(driver, catalog)
	communities := graph.NewCommunityService(driver, catalog)
	pathfinding := graph.NewPathfindingService(driver, catalog)
	requirements := graph.NewRequirementsService(driver)

	// Vector index + embeddings.
	qdrantHost, qdrantPort := splitQdrantURL(getEnv("QDRANT_URL", "localhost:6334"))
	vectorCtx, err := vector.New(kv, vector.Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("VLLM_BASE_URL"),
		QdrantHost:    qdrantHost,
		QdrantPort:    qdrantPort,
		QdrantAPIKey:  os.Getenv("QDRANT_API_KEY"),
		Collection:    getEnv("QDRANT_COLLECTION_NAME", "cornell_courses"),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Qdrant: %v", err)
	}

	// Grades CSV.
	gradesPath := getEnv("GRADES_CSV", cfg.Server.GradesCSVPath)
	grades := gradesdata.New(gradesPath, cache, prov, cfg.Defaults.GradesTTL)

	// Roster: no live registrar feed exists, so section bundles come from a
	// deterministic per-course mock, cached like any other roster source.
	term := currentTerm(time.Now())
	roster := schedulefit.NewRoster(mockRosterFetcher, cache)

	scheduleFitCfg := schedulefit.DefaultConfig()
	if cfg.ScheduleFit != nil {
		if cfg.ScheduleFit.BeamWidth > 0 {
			scheduleFitCfg.BeamWidth = cfg.ScheduleFit.BeamWidth
		}
		if cfg.ScheduleFit.NodeLimit > 0 {
			scheduleFitCfg.NodeLimit = cfg.ScheduleFit.NodeLimit
		}
		if cfg.ScheduleFit.Timeout > 0 {
			scheduleFitCfg.Timeout = int(cfg.ScheduleFit.Timeout.Milliseconds())
		}
	}
	// Environment wins over YAML for the schedule-fit tunables so operators
	// can retune a running deployment without editing config files.
	if n, ok := intEnv("SCHEDULE_FIT_BEAM_WIDTH"); ok {
		scheduleFitCfg.BeamWidth = n
	}
	if n, ok := intEnv("SCHEDULE_FIT_NODE_LIMIT"); ok {
		scheduleFitCfg.NodeLimit = n
	}
	if n, ok := intEnv("SCHEDULE_FIT_TIMEOUT_MS"); ok {
		scheduleFitCfg.Timeout = n
	}

	scheduleFitEnabled := getEnv("ENABLE_SCHEDULE_FIT", "true") != "false"
	degreeProgressEnabled := cfg.DegreeProgress == nil || cfg.DegreeProgress.Enabled
	if v := os.Getenv("ENABLE_DEGREE_PROGRESS"); v != "" {
		degreeProgressEnabled = v != "false"
	}

	degreeStore := degreeprogress.New(requirements.LoadForMajor, cache, cfg.Defaults.DegreeReqsTTL)

	providers := []advcontext.Provider{
		advcontext.NewVectorProvider(vectorCtx),
		advcontext.NewGraphProvider(pathfinding),
		advcontext.NewProfessorProvider(nil, cache),
		advcontext.NewDifficultyProvider(grades),
		advcontext.NewGradesProvider(grades),
		advcontext.NewEnrollmentProvider(cache),
		advcontext.NewConflictProvider(roster, term),
	}
	if scheduleFitEnabled {
		providers = append(providers, advcontext.NewScheduleFitProvider(roster, term, scheduleFitCfg))
	}
	if degreeProgressEnabled {
		providers = append(providers, advcontext.NewDegreeProgressProvider(degreeStore))
	}

	providerCfg := make(map[string]config.ContextProviderConfig)
	for name, pc := range cfg.ContextProviderRegistry.GetAll() {
		providerCfg[name] = *pc
	}
	manager := advcontext.NewManager(providers, providerCfg)

	budget := tokenbudget.New(&cfg.Defaults.TokenBudget)
	router, err := llmrouter.New(cfg.LLMProviderRegistry, cfg.LLMRouting)
	if err != nil {
		log.Fatalf("Failed to build LLM router: %v", err)
	}
	enforcer := schema.NewEnforcer(reg)

	orch := orchestrator.New(manager, budget, router, enforcer, conversations, profiles, reg)
	defer orch.Stop()

	exporter := calendar.New(roster, term, nextSemesterStart(time.Now()), 15)

	server := api.NewServer(cfg, api.Dependencies{
		Chat:          orch,
		Conversations: conversations,
		Profiles:      profiles,
		Grades:        grades,
		Cache:         cache,
		Centrality:    centrality,
		Communities:   communities,
		Pathfinding:   pathfinding,
		Vector:        vectorCtx,
		Calendar:      exporter,
		Metrics:       reg,
		CheckRedis: func(ctx context.Context) bool {
			_, err := kv.Health(ctx)
			return err == nil
		},
		CheckNeo4j: func(ctx context.Context) bool {
			return driver.VerifyConnectivity(ctx) == nil
		},
		CheckQdrant: vectorCtx.Health,
	})
	if err := server.ValidateWiring(); err != nil {
		log.Fatalf("Server wiring incomplete: %v", err)
	}

	addr := cfg.Server.Addr
	log.Printf("Listening on %s", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(addr) }()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		log.Fatalf("HTTP server exited: %v", err)
	case <-stopCtx.Done():
		log.Printf("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	orch.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
}

// splitQdrantURL accepts "host:port", "http://host:port", or a bare host,
// defaulting the gRPC port.
func splitQdrantURL(raw string) (string, int) {
	host, port := raw, 6334
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil {
			host = u.Hostname()
			if p := u.Port(); p != "" {
				if n, err := strconv.Atoi(p); err == nil {
					port = n
				}
			}
			return host, port
		}
	}
	if h, p, ok := strings.Cut(raw, ":"); ok {
		if n, err := strconv.Atoi(p); err == nil {
			return h, n
		}
	}
	return host, port
}

// currentTerm maps a date to a registrar-style term label, e.g. "FA25".
func currentTerm(now time.Time) string {
	year := now.Year() % 100
	if now.Month() >= time.August {
		return fmt.Sprintf("FA%02d", year)
	}
	if now.Month() <= time.May {
		return fmt.Sprintf("SP%02d", year)
	}
	return fmt.Sprintf("SU%02d", year)
}

// nextSemesterStart anchors calendar exports at the next Monday.
func nextSemesterStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}

// mockRosterFetcher derives a small, stable set of section bundles per
// course from a hash of its code: one MWF pattern starting between 8:00 and
// 15:00 and one TR pattern starting between 8:30 and 15:30, so schedule-fit
// has real choices to rank.
func mockRosterFetcher(_ context.Context, term string, code models.CourseCode) ([]models.SectionBundle, error) {
	sum := sha256.Sum256([]byte(term + ":" + string(code)))

	mwfStart := 480 + int(sum[0]%8)*60 // 8:00..15:00
	trStart := 510 + int(sum[1]%8)*60  // 8:30..15:30
	duration := 50
	if sum[2]%2 == 1 {
		duration = 75
	}

	return []models.SectionBundle{
		{
			BundleID:   fmt.Sprintf("%s-LEC-001", strings.ReplaceAll(string(code), " ", "")),
			CourseCode: code,
			Meetings: []models.SectionMeeting{
				{Days: []string{"M", "W", "F"}, StartMin: mwfStart, EndMin: mwfStart + duration},
			},
		},
		{
			BundleID:   fmt.Sprintf("%s-LEC-002", strings.ReplaceAll(string(code), " ", "")),
			CourseCode: code,
			Meetings: []models.SectionMeeting{
				{Days: []string{"T", "R"}, StartMin: trStart, EndMin: trStart + duration + 25},
			},
		},
	}, nil
}
