package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/config"
	"studyquest-backend/internal/infra/memory"
	pgstore "studyquest-backend/internal/infra/postgres"
	redisinfra "studyquest-backend/internal/infra/redis"
	transport "studyquest-backend/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the StudyQuest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	// Durable state: Postgres when configured, in-memory fallback for dev.
	var (
		users       app.UserStore
		settlements app.SettlementStore
		progress    app.ProgressStore
		reflections app.ReflectionStore
		loader      memory.CatalogLoader = memory.NewStaticCatalogLoader(memory.DefaultCatalog())
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		gameStore := pgstore.NewGameStore(db)
		users = gameStore
		settlements = gameStore
		progress = gameStore
		reflections = gameStore

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgstore.NewCatalogLoader(pool)
	} else {
		gameStore := memory.NewGameStore()
		users = gameStore
		settlements = gameStore
		progress = gameStore
		reflections = gameStore
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var bank app.QuestionBank
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, loader, catalogTTL)
	} else {
		bank = memory.NewQuestionBank(loader, catalogTTL)
	}

	var sessions app.SessionStore
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	battles := app.NewBattleService(sessions, bank, users, settlements)
	progressService := app.NewProgressService(progress)
	mentor := app.NewMentorService(users, reflections)
	srv := transport.NewServer(battles, users, progressService, mentor)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if raw := cfg.Boss.SweepInterval; raw != "" {
		interval := config.TTLDuration(raw, time.Minute)
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := battles.SweepExpired(sweepCtx); n > 0 {
						log.Printf("swept %d expired boss battles", n)
					}
				case <-sweepCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		log.Printf("starting studyquest backend on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
