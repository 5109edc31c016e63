package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/config"
	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/importer"
	"github.com/royana/catalog-engine/pkg/llm"
	"github.com/royana/catalog-engine/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.csv|file.md>\n", os.Args[0])
		os.Exit(2)
	}
	fileName := os.Args[1]

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("catalog import engine starting",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("file", fileName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, fileName, logger); err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, fileName string, logger *zap.Logger) error {
	dsn := cfg.Database.ConnectionString()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            dsn,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("database connected", zap.String("dsn", logging.SanitizeConnectionString(dsn)))

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		sqlDB.Close()
		return err
	}
	sqlDB.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var client llm.LLMClient
	if cfg.AI.IsAvailable() {
		c, err := llm.NewClient(&llm.Config{
			Endpoint:  cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			APIKey:    cfg.AI.APIKey,
			MaxTokens: cfg.AI.MaxTokens,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
		client = c
	} else {
		logger.Info("AI classifier not configured, using rule-based classification only")
	}

	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}
	defer f.Close()

	rows, err := importer.ReadRows(f)
	if err != nil {
		return err
	}

	o := importer.NewOrchestrator(cfg, db, client, redisClient, importer.NewRepositories(), logger)
	report, err := o.Run(ctx, fileName, rows)
	if report != nil {
		printReport(report)
	}
	return err
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printReport(report *importer.Report) {
	fmt.Printf("\nImport task %s\n", report.TaskID)
	fmt.Printf("  total:   %d\n", report.Total)
	fmt.Printf("  success: %d\n", report.Success)
	fmt.Printf("  failed:  %d\n", report.Failed)
	for _, e := range report.Errors {
		fmt.Printf("  row %d [%s/%s] %s\n", e.RowNumber, e.Stage, e.Kind, e.Message)
	}
}
