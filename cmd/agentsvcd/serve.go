package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/R3E-Network/agentsvc/agents"
	"github.com/R3E-Network/agentsvc/api/rest"
	"github.com/R3E-Network/agentsvc/auth"
	"github.com/R3E-Network/agentsvc/codeintel"
	"github.com/R3E-Network/agentsvc/eventbus"
	"github.com/R3E-Network/agentsvc/graph"
	"github.com/R3E-Network/agentsvc/internal/logging"
	"github.com/R3E-Network/agentsvc/internal/metrics"
	"github.com/R3E-Network/agentsvc/internal/middleware"
	"github.com/R3E-Network/agentsvc/memory"
	"github.com/R3E-Network/agentsvc/orchestrator"
	"github.com/R3E-Network/agentsvc/pkg/config"
	"github.com/R3E-Network/agentsvc/pkg/version"
	"github.com/R3E-Network/agentsvc/session"
	"github.com/R3E-Network/agentsvc/store"
	memstore "github.com/R3E-Network/agentsvc/store/memory"
	"github.com/R3E-Network/agentsvc/store/blobstore"
	"github.com/R3E-Network/agentsvc/store/postgres"
	"github.com/R3E-Network/agentsvc/vfs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the agentsvc server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "path to a YAML or JSON configuration file")
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringSlice("cors-origin", nil, "allowed CORS origins (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	addrFlag, _ := cmd.Flags().GetString("addr")
	corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origin")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New("agentsvcd", cfg.Logging.Level, cfg.Logging.Format)
	m := metrics.New("agentsvc")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, graphStore, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	defer closeStores()

	vectors := memstore.NewVectorStore()

	blobs := buildBlobStore(cfg, m, log)

	engine := vfs.NewEngine(blobs)
	sessions := session.NewManager(engine)
	graphCache := graph.NewCache(graphStore, cfg.Graph.MaxNodes)
	memSub := memory.NewSubsystem(kv, vectors, m, "agentsvc")
	bus := eventbus.New(m, "agentsvc")
	pipeline := codeintel.NewPipeline(graphCache, memSub.Semantic, bus)

	pool := agents.NewPool()
	matcher := agents.NewMatcher()
	executor := orchestrator.NewExecutor(pool, matcher,
		orchestrator.WithMaxConcurrent(cfg.Orchestrator.MaxConcurrent),
		orchestrator.WithTaskTimeout(time.Duration(cfg.Orchestrator.TaskTimeoutSecs)*time.Second),
		orchestrator.WithAlertSink(bus),
	)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		log.Warn(ctx, "AUTH_JWT_SECRET not set; issuing credentials with an empty signing key", nil)
	}
	issuer := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLMS)*time.Millisecond)

	scheduler := memory.NewScheduler(memSub, memory.SchedulerConfig{
		ConsolidationSpec: cfg.Memory.ConsolidationCron,
		ForgettingSpec:    cfg.Memory.ForgettingCron,
	}, log)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start memory scheduler: %w", err)
	}
	defer scheduler.Stop()

	sessionSweep := startSessionSweep(ctx, sessions, cfg.Session, log)
	defer sessionSweep.Stop()

	server := rest.NewServer(rest.Deps{
		Engine:   engine,
		Sessions: sessions,
		Graph:    graphCache,
		Memory:   memSub,
		Pipeline: pipeline,
		Executor: executor,
		Bus:      bus,
		Issuer:   issuer,
		Metrics:  m,
		Log:      log,
		Service:  "agentsvc",
	}, corsOrigins)

	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	health := middleware.NewHealthChecker(version.Version)
	mux.Handle("/health", health.Handler())
	mux.HandleFunc("/livez", middleware.LivenessHandler())

	addr := resolveAddr(addrFlag, cfg)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "agentsvcd listening", map[string]interface{}{"addr": addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-sigCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		if strings.HasSuffix(trimmed, ".json") {
			return config.LoadConfig(trimmed)
		}
		return config.LoadFile(trimmed)
	}
	return config.Load()
}

func resolveAddr(flagAddr string, cfg *config.Config) string {
	if trimmed := strings.TrimSpace(flagAddr); trimmed != "" {
		return trimmed
	}
	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// buildStores selects a Postgres-backed KV/graph store when a DSN is
// configured, falling back to the in-memory implementation otherwise.
// There is no Postgres-backed VectorStore in this tree: embedding
// search always runs against the in-memory brute-force store.
func buildStores(ctx context.Context, cfg *config.Config) (store.KvStore, store.GraphStore, func(), error) {
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return memstore.NewKvStore(), memstore.NewGraphStore(), func() {}, nil
	}

	db, err := postgres.Open(ctx, dsn, cfg.Database.MigrateOnStart)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { db.Close(context.Background()) }
	return postgres.NewKvStore(db), postgres.NewGraphStore(db), closeFn, nil
}

func buildBlobStore(cfg *config.Config, m *metrics.Metrics, log *logging.Logger) vfs.BlobStore {
	mem := blobstore.NewMemoryBlobStore(cfg.BlobStore.MaxCacheBytes)
	instrumented := blobstore.NewInstrumented(mem, m, "agentsvc")

	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return instrumented
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ttl := time.Duration(cfg.BlobStore.DefaultTTLSecs) * time.Second
	return blobstore.NewRedisMirror(mem, client, cfg.BlobStore.RedisNamespace, ttl, log)
}
