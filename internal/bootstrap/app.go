package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/extraction"
	"documind-backend/internal/llm"
	"documind-backend/internal/llm/bedrock"
	"documind-backend/internal/ocr"
	ocrlocal "documind-backend/internal/ocr/local"
	ocrtextract "documind-backend/internal/ocr/textract"
	"documind-backend/internal/queries"
	"documind-backend/internal/queue"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/server"
	"documind-backend/internal/shared/storage/blob"
	bloblocal "documind-backend/internal/shared/storage/blob/local"
	blobs3 "documind-backend/internal/shared/storage/blob/s3"
	"documind-backend/internal/shared/storage/db"
	"documind-backend/internal/summaries"
	"documind-backend/internal/uploads"
)

// App holds shared dependencies for every entrypoint.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Blob  blob.Store
	Repo  documents.Repo
	Queue queue.Client
	OCR   ocr.Provider
	LLM   llm.Client

	DocumentsService  *documents.Service
	ExtractionService *extraction.Service
	QueriesService    *queries.Service
	SummariesService  *summaries.Service
}

// Build wires every dependency eagerly so misconfiguration fails at startup
// rather than on the first request.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	store, err := buildBlob(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, repo, err := buildRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ocrProvider, err := buildOCR(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	assistant := llm.NewAssistant(llmClient)

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Blob:   store,
		Repo:   repo,
		Queue:  queueClient,
		OCR:    ocrProvider,
		LLM:    llmClient,

		DocumentsService:  &documents.Service{Repo: repo, Blob: store},
		ExtractionService: &extraction.Service{Repo: repo, OCR: ocrProvider},
		QueriesService:    &queries.Service{Repo: repo, Assistant: assistant},
		SummariesService:  &summaries.Service{Repo: repo, Assistant: assistant},
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		Uploads:    uploads.NewHandler(store, repo, queueClient),
		Documents:  documents.NewHandler(app.DocumentsService),
		Extraction: extraction.NewHandler(app.ExtractionService),
		Queries:    queries.NewHandler(app.QueriesService),
		Summaries:  summaries.NewHandler(app.SummariesService),
	})

	return app, nil
}

func buildBlob(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.BlobStore {
	case "s3":
		return blobs3.New(ctx, cfg.AWSRegion, cfg.DocumentsBucket)
	default:
		return bloblocal.New(cfg.LocalStoreDir), nil
	}
}

func buildRepo(ctx context.Context, cfg config.Config) (*sql.DB, documents.Repo, error) {
	switch cfg.MetadataStore {
	case "dynamo":
		repo, err := documents.NewDynamoRepo(ctx, cfg.AWSRegion, cfg.DocumentsTable)
		if err != nil {
			return nil, nil, err
		}
		return nil, repo, nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, fmt.Errorf("METADATA_STORE=postgres requires DATABASE_URL")
		}
		var (
			sqlDB *sql.DB
			err   error
		)
		if db.IsLambdaRuntime() {
			sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
		} else {
			sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		}
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return sqlDB, &documents.PGRepo{DB: sqlDB}, nil
	default:
		if cfg.Env == "production" {
			log.Printf("bootstrap: using in-memory metadata store in production")
		}
		return nil, documents.NewMemoryRepo(), nil
	}
}

func buildOCR(ctx context.Context, cfg config.Config, store blob.Store) (ocr.Provider, error) {
	switch cfg.OCRProvider {
	case "textract":
		return ocrtextract.NewProvider(ctx, cfg.DocumentsBucket, cfg.AWSRegion)
	default:
		return ocrlocal.NewProvider(store), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "bedrock":
		return bedrock.NewClient(ctx, cfg.LLMModelID, cfg.AWSRegion)
	default:
		return llm.PlaceholderClient{}, nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ExtractQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.ExtractQueueURL, cfg.AWSRegion)
}
