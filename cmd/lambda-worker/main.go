package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"smartdoc-backend/internal/bootstrap"
	"smartdoc-backend/internal/shared/config"
	"smartdoc-backend/internal/shared/metrics"
	"smartdoc-backend/internal/shared/telemetry"
	"smartdoc-backend/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	extractor workerproc.Extractor
)

func initApp() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	telemetry.Init(cfg.LogLevel)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	extractor = app.Extractor
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr})
		return events.SQSEventResponse{BatchItemFailures: allFailed(event)}, initErr
	}
	return events.SQSEventResponse{BatchItemFailures: processBatch(ctx, extractor, event)}, nil
}

// processBatch reports only records worth retrying. Unreadable messages and
// permanent extraction failures are dropped.
func processBatch(ctx context.Context, ex workerproc.Extractor, event events.SQSEvent) []events.SQSBatchItemFailure {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		msg, _, err := workerproc.ParseMessage(record.Body)
		if err != nil {
			telemetry.Error("lambda.extract.unreadable", map[string]any{"sqs_message_id": record.MessageId, "error": err})
			metrics.IncExtractionJob("dropped")
			continue
		}
		err = workerproc.Process(ctx, ex, msg)
		if err == nil {
			metrics.IncExtractionJob("succeeded")
			continue
		}
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) && procErr.Permanent {
			telemetry.Error("lambda.extract.permanent_failure", map[string]any{"document_id": msg.DocumentID, "error": err})
			metrics.IncExtractionJob("dropped")
			continue
		}
		telemetry.Warn("lambda.extract.failed", map[string]any{"document_id": msg.DocumentID, "error": err})
		metrics.IncExtractionJob("failed")
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return failures
}

func allFailed(event events.SQSEvent) []events.SQSBatchItemFailure {
	failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
	for _, record := range event.Records {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return failures
}

func main() {
	lambda.Start(handler)
}
