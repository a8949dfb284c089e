package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"explore-backend/config"
	"explore-backend/database"
	"explore-backend/handlers"
	"explore-backend/logging"
	"explore-backend/services"
	"explore-backend/utils"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "explore",
		Short:         "Explore feed ranking and recommendation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(feedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

/* =======================
   WIRING
======================= */

type app struct {
	cfg       *config.Config
	db        *gorm.DB
	refresher *services.AverageRefresher
	catalog   *services.CatalogService
	explore   *services.ExploreService
	activity  *services.ActivityService
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	if err := database.InitDB(cfg, logging.WithComponent("database")); err != nil {
		return nil, err
	}
	db := database.GetDB()

	guarded := services.NewGuardedStore(database.NewStore(db), cfg.Breaker, logging.WithComponent("breaker"))
	average := services.NewGlobalAverage(0, cfg.Explore.BayesConfidence)
	refresher := services.NewAverageRefresher(guarded, average, cfg.Rating.RefreshSpec, cfg.Server.RequestTimeout, logging.WithComponent("rating"))

	catalog, err := services.NewCatalogService(guarded, cfg.Explore, cfg.Cache, average, logging.WithComponent("catalog"))
	if err != nil {
		return nil, err
	}

	rng := utils.NewLockedRand(cfg.Explore.Seed)
	recommender := services.NewRecommendationService(guarded, catalog, cfg.Explore, rng, logging.WithComponent("recommendation"))

	return &app{
		cfg:       cfg,
		db:        db,
		refresher: refresher,
		catalog:   catalog,
		explore:   services.NewExploreService(catalog, recommender, cfg.Explore, rng, logging.WithComponent("explore")),
		activity:  services.NewActivityService(guarded, average, catalog, guarded, logging.WithComponent("activity")),
	}, nil
}

func (a *app) close() {
	a.refresher.Stop()
	a.catalog.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

/* =======================
   COMMANDS
======================= */

func serveCmd() *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logging.Logger()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if catalogFile != "" {
				if err := database.LoadCatalog(a.db, catalogFile, logging.WithComponent("seed")); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.refresher.Start(ctx); err != nil {
				return err
			}

			router := handlers.NewRouter(
				handlers.RouterConfig{Mode: cfg.Server.Mode, RequestTimeout: cfg.Server.RequestTimeout},
				handlers.NewExploreHandler(a.explore),
				handlers.NewActivityHandler(a.activity),
				logging.Logger(),
			)

			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Server.Port).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "load this catalog file at startup when the database is empty")
	return cmd
}

func seedCmd() *cobra.Command {
	var (
		catalogFile  string
		withActivity bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the book catalog and optional sample activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logging.WithComponent("seed")

			db, err := database.Open(cfg.Database, logging.WithComponent("database"))
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.LoadCatalog(db, catalogFile, log); err != nil {
				return err
			}
			if withActivity {
				return database.SeedActivity(db, time.Now().UTC(), log)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "file", "data/catalog.json", "catalog JSON file")
	cmd.Flags().BoolVar(&withActivity, "activity", true, "also generate sample views and ratings")
	return cmd
}

func feedCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the Explore feed as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.refresher.Refresh(ctx); err != nil {
				return err
			}

			var uid *int64
			if userID > 0 {
				uid = &userID
			}
			categories, err := a.explore.ComposeExploreFeed(ctx, uid)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(categories, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to personalize for (0 for anonymous)")
	return cmd
}
