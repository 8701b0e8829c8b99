// Command catalog inspects and maintains the cached video catalog.
//
// Usage:
//
//	catalog [-json] load|refresh|clear
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"utdr-guide/internal/adapter"
	"utdr-guide/internal/cache"
	"utdr-guide/internal/config"
	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"
	"utdr-guide/internal/repository/sqlite"
	"utdr-guide/internal/service"
	"utdr-guide/web"

	"github.com/joho/godotenv"
)

func main() {
	asJSON := flag.Bool("json", false, "print the full catalog document as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "overall time limit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] load|refresh|clear\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *asJSON, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(command string, asJSON bool, timeout time.Duration) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Keep stdout for the command's own output
	logger.SetGlobalLogger(logger.NewWithWriter(logger.ParseLevel(cfg.LogLevel), os.Stderr))

	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	client := adapter.NewCatalogClient(adapter.CatalogClientConfig{
		Endpoint: cfg.CatalogEndpoint,
		AppID:    cfg.AppID,
		APIKey:   cfg.APIKey,
		TokenURL: cfg.UpstreamTokenURL,
		Timeout:  cfg.UpstreamTimeout,
	})
	store := cache.NewEnvelopeStore(sqlite.NewKVRepository(db), cfg.Location())
	catalogService := service.NewCatalogService(client, store, web.Static(), cfg.Location())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result *domain.LoadResult
	switch command {
	case "load":
		result = catalogService.Load(ctx)
	case "refresh":
		result = catalogService.Refresh(ctx)
	case "clear":
		if err := catalogService.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("catalog cache cleared")
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(domain.NewCatalogDocument(result.Catalog))
	}

	fmt.Printf("origin:        %s\n", result.Origin)
	if result.Source != "" {
		fmt.Printf("source:        %s\n", result.Source)
	}
	fmt.Printf("videos:        %d\n", len(result.Catalog.Videos))
	fmt.Printf("notifications: %d\n", len(result.Catalog.Notifications))
	if result.Notice != nil {
		fmt.Printf("notice:        %s\n", result.Notice.Message)
	}
	return nil
}
