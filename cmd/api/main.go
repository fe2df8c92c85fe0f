package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PaulBabatuyi/portfolio-api/internal/auth"
	"github.com/PaulBabatuyi/portfolio-api/internal/chat"
	"github.com/PaulBabatuyi/portfolio-api/internal/config"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/db"
	"github.com/PaulBabatuyi/portfolio-api/internal/logger"
	"github.com/PaulBabatuyi/portfolio-api/internal/media"
	"github.com/PaulBabatuyi/portfolio-api/internal/metrics"
	"github.com/PaulBabatuyi/portfolio-api/internal/notify"
	"github.com/PaulBabatuyi/portfolio-api/internal/portfolio"
	"github.com/PaulBabatuyi/portfolio-api/internal/posts"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "portfolio-api",
		Short:        "Portfolio site backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		newSessionsCmd(&configPath),
	)
	return root
}

func newSessionsCmd(configPath *string) *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Manage owner sessions",
	}
	sessions.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired owner sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			dbClient, err := db.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to DB: %w", err)
			}
			defer func() {
				_ = dbClient.Close(context.Background())
			}()

			n, err := ownerSessionsFor(cfg, dbClient).Purge(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired owner sessions\n", n)
			return nil
		},
	})
	return sessions
}

func ownerSessionsFor(cfg *config.Config, dbClient *db.Client) *auth.Sessions {
	store := data.NewOwnerSessionsStore(dbClient.OwnerSessionsCollection())
	return auth.NewSessions(store, auth.NewTokenHasher(cfg.Owner.Pepper), cfg.Owner.SessionTTL)
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	// Initialize database; any failure here exits before listening
	dbClient, err := db.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Error("failed to connect to DB", zap.Error(err))
		return err
	}
	defer func() {
		_ = dbClient.Close(context.Background())
	}()
	if err := dbClient.CreateIndexes(ctx); err != nil {
		log.Error("failed to create indexes", zap.Error(err))
		return err
	}

	srv, err := buildServer(ctx, cfg, log, dbClient)
	if err != nil {
		return err
	}
	defer srv.Close()

	healthAddr := ""
	if cfg.Server.GRPCHealthPort > 0 {
		healthAddr = ":" + strconv.Itoa(cfg.Server.GRPCHealthPort)
	}
	httpLis, healthLis, err := openListeners(":"+strconv.Itoa(cfg.Server.Port), healthAddr)
	if err != nil {
		log.Error("failed to listen", zap.Error(err))
		return err
	}

	httpSrv := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", httpLis.Addr().String()))
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var hs *healthServer
	if healthLis != nil {
		hs = newHealthServer(log)
		g.Go(func() error {
			hs.watch(gctx, dbClient, 15*time.Second)
			return nil
		})
		g.Go(func() error {
			log.Info("grpc health server listening", zap.String("addr", healthLis.Addr().String()))
			return hs.serve(healthLis)
		})
	}

	// Graceful shutdown on SIGINT/SIGTERM or when a listener fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if hs != nil {
			hs.stop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openListeners binds the HTTP address and, when healthAddr is set, the gRPC
// health address. Nothing is left open if either bind fails.
func openListeners(httpAddr, healthAddr string) (httpLis, healthLis net.Listener, err error) {
	httpLis, err = net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen for http: %w", err)
	}
	if healthAddr == "" {
		return httpLis, nil, nil
	}
	healthLis, err = net.Listen("tcp", healthAddr)
	if err != nil {
		_ = httpLis.Close()
		return nil, nil, fmt.Errorf("failed to listen for grpc health: %w", err)
	}
	return httpLis, healthLis, nil
}

// buildServer wires stores, providers and services into a Server.
func buildServer(ctx context.Context, cfg *config.Config, log *zap.Logger, dbClient *db.Client) (*Server, error) {
	destroyer, err := media.NewCloudinary(cfg.Media)
	if err != nil {
		return nil, err
	}
	if !cfg.Media.Enabled() {
		log.Warn("cloudinary configuration missing; media will not be released on delete")
	}

	provider, err := chat.NewGemini(ctx, cfg.Chat)
	if err != nil {
		return nil, err
	}
	if cfg.Chat.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set; chat is disabled")
	}

	passkey := auth.NewPasskeyVerifier(cfg.Owner.Passkey)
	if !passkey.Configured() {
		log.Warn("OWNER_PASSKEY not set; owner login is disabled")
	}

	postsStore := data.NewPostsStore(dbClient.PostsCollection())
	chatsStore := data.NewChatsStore(dbClient.ChatsCollection())

	return newServer(cfg, log, serverDeps{
		Passkey:   passkey,
		Sessions:  ownerSessionsFor(cfg, dbClient),
		Posts:     posts.NewService(postsStore, destroyer, log.Named("posts"), cfg.Owner.DisplayName),
		Chat:      chat.NewRelay(chatsStore, provider, cfg.Chat.HistoryLimit, log.Named("chat")),
		Contacts:  data.NewContactsStore(dbClient.ContactsCollection()),
		Analytics: data.NewAnalyticsStore(dbClient.AnalyticsCollection()),
		Notifier:  notify.New(cfg.Mail, log.Named("notify")),
		Portfolio: portfolio.NewSource(cfg.PortfolioDataPath),
		Metrics:   metrics.New(),
	}), nil
}
