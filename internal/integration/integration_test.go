package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/domain"
	"studyquest-backend/internal/infra/postgres"
	pgmigrations "studyquest-backend/internal/infra/postgres/migrations"
	infraredis "studyquest-backend/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestBossBattleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := postgres.NewGameStore(db)
	bank := infraredis.NewQuestionBank(redisClient, postgres.NewCatalogLoader(pool), 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewBattleService(sessions, bank, store, store)

	if _, err := store.CreateUser(ctx, domain.User{Username: "lynn"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	// The migrations seed the question catalog; answer every round correctly.
	catalog, err := bank.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("expected seeded catalog")
	}

	start, err := service.Start(ctx, app.StartConfig{
		User:             "lynn",
		TotalQuestions:   len(catalog),
		TimeLimitSeconds: app.DefaultTimeLimitSeconds,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.Lives != 3 || start.Question.Number != 1 {
		t.Fatalf("unexpected start state: %+v", start)
	}

	var result *domain.BattleResult
	for _, q := range catalog {
		_, result, err = service.SubmitAnswer(ctx, "lynn", q.AnswerIdx)
		if err != nil {
			t.Fatalf("answer %q: %v", q.Prompt, err)
		}
	}
	if result == nil {
		t.Fatal("expected the final answer to end the battle")
	}
	if result.Status != domain.OutcomeCompleted {
		t.Fatalf("expected completed battle, got %q", result.Status)
	}
	wantXP := len(catalog) * app.XPPerCorrectAnswer
	if result.XPReward != wantXP {
		t.Fatalf("expected %d xp, got %d", wantXP, result.XPReward)
	}

	// Settlement is atomic: the user's XP and the battle record land together.
	var totalXP int
	if err := db.QueryRowContext(ctx, `SELECT total_xp FROM users WHERE username = ?`, "lynn").Scan(&totalXP); err != nil {
		t.Fatalf("query total_xp: %v", err)
	}
	if totalXP != wantXP {
		t.Fatalf("expected total_xp=%d, got %d", wantXP, totalXP)
	}

	var battles int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM boss_battles WHERE username = ?`, "lynn").Scan(&battles); err != nil {
		t.Fatalf("query boss_battles: %v", err)
	}
	if battles != 1 {
		t.Fatalf("expected exactly one battle record, got %d", battles)
	}

	// The settled session is gone from the store and from redis.
	if _, _, err := service.Status(ctx, "lynn"); err != domain.ErrNoBattle {
		t.Fatalf("expected ErrNoBattle after settlement, got %v", err)
	}
	if n, err := redisClient.Exists(ctx, "boss:session:lynn").Result(); err != nil || n != 0 {
		t.Fatalf("expected redis liveness key cleared, exists=%d err=%v", n, err)
	}
}

func TestSettlementIsIdempotentAcrossStores(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()

	store := postgres.NewGameStore(db)
	if _, err := store.CreateUser(ctx, domain.User{Username: "walid"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := domain.BattleRecord{
		User:           "walid",
		Date:           time.Now().UTC(),
		Score:          2,
		TotalQuestions: 5,
		XPReward:       40,
		Difficulty:     "medium",
		Outcome:        domain.OutcomeForfeited,
	}
	if err := store.Settle(ctx, rec); err != nil {
		t.Fatalf("settle: %v", err)
	}

	user, err := store.GetUser(ctx, "walid")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.TotalXP != 40 {
		t.Fatalf("expected 40 xp, got %d", user.TotalXP)
	}
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "study", "POSTGRES_PASSWORD": "studypass", "POSTGRES_DB": "studyquest"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://study:studypass@%s:%s/studyquest?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
