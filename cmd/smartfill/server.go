package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/smartfill/internal/api"
	"github.com/kalambet/smartfill/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local automation hook (HTTP, optionally MCP on stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		port, _ := cmd.Flags().GetInt("port")
		return runServer(cmd.Context(), withMCP, port)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show SmartFill status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP over stdin/stdout")
	serveCmd.Flags().Int("port", 0, "listen port (default: server.port from config)")
}

func runServer(parent context.Context, withMCP bool, port int) error {
	fmt.Fprintf(os.Stderr, "smartfill version %s\n", version)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg.Config()
	if port == 0 {
		port = cfg.Server.Port
	}

	token, err := a.cfg.APIToken()
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	deps := api.Deps{
		Fills:   a.fills,
		Profile: a.profiles,
		History: a.history,
		Token:   token,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "smartfill listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.cfg.Watch(gctx, filepath.Join(config.Dir(), "config.json"), func(c config.AppConfig) {
			setupLogging(c.Log.Level)
			if err := a.reloadBackend(gctx, c); err != nil {
				slog.Warn("keeping previous LLM backend", "error", err)
				return
			}
			slog.Info("LLM backend reloaded", "provider", a.backend.gateway().Name())
		})
	})

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(deps, version))
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func showStatus(ctx context.Context) error {
	store, err := config.Open()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}
	cfg := store.Config()

	client, err := newAPIClient()
	if err != nil {
		printStatus("Server", "unknown (%v)", err)
	} else {
		resp, err := client.get(ctx, "/health")
		switch {
		case err != nil:
			printStatus("Server", "stopped")
		case resp.StatusCode == http.StatusOK:
			resp.Body.Close()
			printStatus("Server", "running on port %d", cfg.Server.Port)
		default:
			resp.Body.Close()
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Provider", "%s", cfg.LLM.Provider)
	printStatus("API key", "%s", storedLabel(cfg.LLM.APIKeyStored))
	printStatus("Active profile", "%s", cfg.ActiveProfile)
	printStatus("Local preferred", "%t", cfg.Privacy.LocalProcessingPreferred)
	printStatus("Data dir", "%s", config.Dir())
	return nil
}

func storedLabel(stored bool) string {
	if stored {
		return "stored"
	}
	return "not set"
}
