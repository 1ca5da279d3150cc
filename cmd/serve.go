package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/index"
	"github.com/verilink/profile-verify/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Profile Verify web server.
The server exposes match runs, result retrieval and nearest-neighbor
candidate lookups over a JSON API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (defaults to WEB_HOST)")
}

// initPoolIndex loads the persisted pool index and backfills missing
// candidates from cached embeddings in the background.
func initPoolIndex(ctx context.Context, p *poolIndexWarmer, indexPath string) *index.PoolIndex {
	poolIndex := index.NewPoolIndex()
	if indexPath != "" {
		fmt.Printf("Loading pool index from %s...\n", indexPath)
		if err := poolIndex.Load(indexPath); err != nil {
			fmt.Printf("Warning: failed to load pool index: %v\n", err)
		}
	}
	if poolIndex.Count() > 0 {
		fmt.Printf("Pool index ready with %d candidates\n", poolIndex.Count())
	} else {
		fmt.Println("Building pool index in the background...")
	}

	go p.warm(ctx, poolIndex)
	return poolIndex
}

// savePoolIndex persists the pool index during shutdown.
func savePoolIndex(poolIndex *index.PoolIndex, indexPath string) {
	if indexPath == "" {
		return
	}
	if err := poolIndex.Save(indexPath); err != nil {
		fmt.Printf("Warning: failed to save pool index: %v\n", err)
	} else {
		fmt.Printf("Pool index saved with %d candidates\n", poolIndex.Count())
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	pool, err := loadPool(cfg.Profiles.Path)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d candidates from %s\n", len(pool), cfg.Profiles.Path)

	p, extractor, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	warmer := &poolIndexWarmer{pipeline: p, pool: pool}
	poolIndex := initPoolIndex(ctx, warmer, cfg.Index.Path)

	server := web.NewServer(cfg, p, extractor, poolIndex, pool, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
		savePoolIndex(poolIndex, cfg.Index.Path)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Profile Verify API on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
