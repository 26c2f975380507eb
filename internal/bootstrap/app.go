package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"careerpilot-backend/internal/analyses"
	"careerpilot-backend/internal/llm"
	openai "careerpilot-backend/internal/llm/openai"
	"careerpilot-backend/internal/notify"
	"careerpilot-backend/internal/pipeline"
	"careerpilot-backend/internal/profile"
	"careerpilot-backend/internal/queue"
	"careerpilot-backend/internal/resumes"
	"careerpilot-backend/internal/shared/config"
	"careerpilot-backend/internal/shared/storage/db"
	"careerpilot-backend/internal/shared/storage/object"
	localstore "careerpilot-backend/internal/shared/storage/object/local"
	s3store "careerpilot-backend/internal/shared/storage/object/s3"
	"careerpilot-backend/internal/tailoring"
)

// App holds shared dependencies for the api and worker binaries.
type App struct {
	Config config.Config
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	Redis  *redis.Client
	LLM    llm.Client

	ResumesRepo  resumes.Repo
	AnalysesRepo analyses.Repo
	PreviewsRepo tailoring.PreviewRepo
	ProfilesRepo profile.Repo

	ResumesService   *resumes.Service
	TailoringService *tailoring.Service
	AnalysesService  *analyses.Service
	Pipeline         *pipeline.Pipeline
}

// Options tunes what Build wires up.
type Options struct {
	// NeedQueue requires a working queue client; without one, parse jobs
	// run inline on a background goroutine.
	NeedQueue bool
	DBOptions db.Options
}

// Build prepares shared dependencies without wiring routes.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}

	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts.DBOptions))
		if err != nil {
			if cfg.Env == "production" {
				return nil, fmt.Errorf("connect database: %w", err)
			}
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else if err := db.RunMigrations(ctx, conn); err != nil {
			if cfg.Env == "production" {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			log.Printf("failed to run migrations, falling back to memory: %v", err)
		} else {
			app.DB = conn
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if cfg.QueueURL != "" {
		queueClient, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("build queue client: %w", err)
		}
		app.Queue = queueClient
	} else if opts.NeedQueue {
		return nil, fmt.Errorf("CP_SQS_QUEUE_URL is required")
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		app.Redis = redis.NewClient(redisOpts)
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	app.LLM = llmClient

	buildRepos(app)
	buildServices(app)
	return app, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when OBJECT_STORE=s3")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("build s3 store: %w", err)
		}
		return store, nil
	}
	return localstore.New(cfg.LocalStoreDir), nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMAPIKey == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		log.Printf("no llm api key configured; completion calls will fail")
	}
	client, err := openai.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.GenerateTimeout)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	return llm.NewBreakerClient(client), nil
}

func buildRepos(app *App) {
	if app.DB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
		app.PreviewsRepo = &tailoring.PGPreviewRepo{DB: app.DB}
		app.ProfilesRepo = &profile.PGRepo{DB: app.DB}
		return
	}
	app.ResumesRepo = resumes.NewMemoryRepo()
	app.AnalysesRepo = analyses.NewMemoryRepo()
	app.PreviewsRepo = tailoring.NewMemoryPreviewRepo()
	app.ProfilesRepo = profile.NewMemoryRepo()
}

func buildServices(app *App) {
	cfg := app.Config

	parser := resumes.NewParser(app.LLM, cfg.ParseTimeout)
	app.Pipeline = pipeline.New(app.ResumesRepo, app.Store, parser)
	app.Pipeline.Profiles = app.ProfilesRepo
	app.Pipeline.Analyses = app.AnalysesRepo
	app.Pipeline.Previews = app.PreviewsRepo
	app.Pipeline.Notifier = notify.LogNotifier{}

	app.ResumesService = resumes.NewService(app.Store, app.ResumesRepo)
	app.ResumesService.Queue = app.Queue
	app.ResumesService.Runner = app.Pipeline

	tailorer := tailoring.NewTailorer(app.LLM, cfg.GenerateTimeout)
	app.TailoringService = tailoring.NewService(tailorer, app.PreviewsRepo, app.ResumesRepo)

	analyzer := analyses.NewAnalyzer(app.LLM, cfg.GenerateTimeout)
	app.AnalysesService = analyses.NewService(analyzer, app.AnalysesRepo, app.ResumesRepo)
	app.Pipeline.AutoAnalyze = app.AnalysesService
}
