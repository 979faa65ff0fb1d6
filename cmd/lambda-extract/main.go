package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-extract

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"documind-backend/internal/bootstrap"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

// handler processes S3 ObjectCreated events. Each record is handled
// independently; one bad object must not block the rest of the batch.
func handler(ctx context.Context, event events.S3Event) error {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return initErr
	}

	var firstErr error
	for _, record := range event.Records {
		key := decodeS3Key(record.S3.Object.Key)
		telemetry.Info("lambda_extract.record", map[string]any{
			"bucket": record.S3.Bucket.Name,
			"key":    key,
		})
		if err := app.ExtractionService.ProcessStorageKey(ctx, key); err != nil {
			telemetry.Error("lambda_extract.failed", map[string]any{
				"key": key,
				"err": err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// decodeS3Key undoes the URL encoding S3 applies to object keys in event
// notifications, including "+" for spaces.
func decodeS3Key(raw string) string {
	unescaped, err := url.QueryUnescape(strings.ReplaceAll(raw, "+", "%20"))
	if err != nil {
		return raw
	}
	return unescaped
}

func main() {
	lambda.Start(handler)
}
