package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/robfig/cron/v3"

	"smartdoc-backend/internal/bootstrap"
	"smartdoc-backend/internal/queue"
	"smartdoc-backend/internal/shared/config"
	"smartdoc-backend/internal/shared/metrics"
	"smartdoc-backend/internal/shared/telemetry"
	"smartdoc-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 300
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.MustLoad()
	telemetry.Init(cfg.LogLevel)
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	scheduler, err := startPurge(cfg.NotificationPurgeSchedule, func(ctx context.Context) (int64, error) {
		return app.NotificationsService.Purge(ctx, cfg.NotificationRetention)
	})
	if err != nil {
		log.Fatalf("schedule notification purge: %v", err)
	}
	defer func() { <-scheduler.Stop().Done() }()

	sqsClient, ok := app.Queue.(*queue.SQSClient)
	if !ok || sqsClient == nil {
		telemetry.Info("worker.started", map[string]any{"mode": "purge_only"})
		<-ctx.Done()
		return
	}

	visibilitySeconds := envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	telemetry.Info("worker.started", map[string]any{
		"mode":        "extract",
		"queue":       sqsClient.QueueURL(),
		"concurrency": concurrency,
		"visibility":  visibilitySeconds,
	})
	w := &worker{
		client:     sqsClient.API(),
		queueURL:   sqsClient.QueueURL(),
		extractor:  app.Extractor,
		visibility: int32(visibilitySeconds),
	}
	w.run(ctx, max(1, concurrency), shutdownTimeout)
}

// startPurge runs purge on the cron schedule until the returned scheduler
// is stopped.
func startPurge(schedule string, purge func(ctx context.Context) (int64, error)) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		removed, err := purge(context.Background())
		if err != nil {
			telemetry.Error("worker.notifications.purge_failed", map[string]any{"error": err})
			return
		}
		telemetry.Info("worker.notifications.purged", map[string]any{"removed": removed})
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type worker struct {
	client     sqsAPI
	queueURL   string
	extractor  workerproc.Extractor
	visibility int32
}

func (w *worker) run(ctx context.Context, concurrency int, shutdownTimeout time.Duration) {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(w.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   w.visibility,
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				w.handleMessage(ctx, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// handleMessage deletes the message once extraction succeeds or can never
// succeed. Transient failures are left for SQS to redeliver.
func (w *worker) handleMessage(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.extract.unreadable", fields)
		if w.deleteMessage(ctx, msg, decoded.DocumentID, decoded.RequestID) {
			metrics.IncExtractionJob("dropped")
		}
		return
	}

	telemetry.Info("worker.extract.received", baseFields(msg, decoded.DocumentID, decoded.RequestID))

	if err := workerproc.Process(ctx, w.extractor, decoded); err != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["error"] = err.Error()
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) && procErr.Permanent {
			telemetry.Error("worker.extract.permanent_failure", fields)
			if w.deleteMessage(ctx, msg, decoded.DocumentID, decoded.RequestID) {
				metrics.IncExtractionJob("dropped")
			}
			return
		}
		telemetry.Warn("worker.extract.failed", fields)
		metrics.IncExtractionJob("failed")
		return
	}

	if w.deleteMessage(ctx, msg, decoded.DocumentID, decoded.RequestID) {
		telemetry.Info("worker.extract.completed", baseFields(msg, decoded.DocumentID, decoded.RequestID))
		metrics.IncExtractionJob("succeeded")
	}
}

func (w *worker) deleteMessage(ctx context.Context, msg sqstypes.Message, documentID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.extract.delete_failed", fields)
		return false
	}
	if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.extract.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, documentID, requestID string) map[string]any {
	fields := map[string]any{
		"document_id":    documentID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
