package main

import (
	"context"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexibly/quotakit/modules/usage"
	"github.com/lexibly/quotakit/pkg/billing"
	"github.com/lexibly/quotakit/pkg/config"
	"github.com/lexibly/quotakit/pkg/dedup"
	"github.com/lexibly/quotakit/pkg/httpserver"
	"github.com/lexibly/quotakit/pkg/ledger"
	"github.com/lexibly/quotakit/pkg/logger"
	"github.com/lexibly/quotakit/pkg/quota"
)

type appConfig struct {
	Env        string `env:"APP_ENV" envDefault:"production"`   // Env selects the logger preset: "development" or "production".
	PolicyPath string `env:"QUOTA_POLICY_PATH,required"`        // PolicyPath points to the YAML file with token limits and operation costs.
}

func main() {
	ctx := context.Background()

	var (
		appCfg    appConfig
		httpCfg   httpserver.Config
		mongoCfg  ledger.Config
		redisCfg  dedup.RedisConfig
		dedupCfg  dedup.Config
		paddleCfg billing.PaddleConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&dedupCfg)
	config.MustLoad(&paddleCfg)

	logOpt := logger.WithProduction("quotad")
	if appCfg.Env == "development" {
		logOpt = logger.WithDevelopment("quotad")
	}
	log := logger.New(logOpt)
	logger.SetAsDefault(log)

	db, err := ledger.Connect(ctx, mongoCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect to mongodb", logger.Error(err))
		os.Exit(1)
	}
	defer db.Client().Disconnect(ctx) //nolint:errcheck

	redisClient, err := dedup.Connect(ctx, redisCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close() //nolint:errcheck

	provider, err := billing.NewPaddleProvider(paddleCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to init paddle provider", logger.Error(err))
		os.Exit(1)
	}

	store := ledger.NewMongoStore(db, mongoCfg.Collection)
	deduper := dedup.NewRedisDeduper(redisClient, dedupCfg)

	svc, err := quota.NewService(ctx, quota.NewYAMLSource(appCfg.PolicyPath), store, provider,
		quota.WithLogger(log),
		quota.WithEventDeduper(deduper),
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to init quota service", logger.Error(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log,
		func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	))
	r.Mount("/billing", usage.Router(svc, log))

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.ErrorContext(ctx, "http server stopped", logger.Error(err))
		os.Exit(1)
	}
}
