package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ceworks/cevent/internal/buffer"
	"github.com/ceworks/cevent/internal/config"
	"github.com/ceworks/cevent/internal/config/dto"
	"github.com/ceworks/cevent/internal/kafka"
	"github.com/ceworks/cevent/internal/observability"
	"github.com/ceworks/cevent/internal/server"
	"github.com/ceworks/cevent/internal/storage"
	"github.com/ceworks/cevent/internal/validator"
	"github.com/ceworks/cevent/pkg/event"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Load configuration
	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize observability
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})
	logger.Info("starting event archiver",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Track cleanup functions, run in reverse order on exit
	var cleanupFuncs []func() error
	addCleanup := func(name string, fn func() error) {
		cleanupFuncs = append(cleanupFuncs, fn)
		logger.Debug("registered cleanup", "component", name)
	}
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}
	}()

	// Initialize event validator
	eventValidator := validator.NewCloudEventsValidator()

	// Initialize partition router
	protocol := getStorageProtocol(cfg.Storage.Backend)
	bucket := getStorageBucket(cfg)
	basePath := getStorageBasePath(cfg)
	router := storage.NewRouter(protocol, bucket, basePath, "v1")

	// Initialize rotation policy
	policy := storage.NewPolicy(storage.PolicyConfig{
		MaxFileSizeMB:      cfg.FileRotation.MaxFileSizeMB,
		MaxRecordsPerFile:  cfg.FileRotation.MaxRecordsPerFile,
		MaxDurationSeconds: cfg.FileRotation.MaxDurationSeconds,
		Strategy:           cfg.FileRotation.Strategy,
	})

	// Initialize infrastructure
	consumerConfig := kafka.ConsumerConfig{
		BootstrapServers:    cfg.Kafka.BootstrapServers,
		GroupID:             cfg.Kafka.Consumer.GroupID,
		SecurityProtocol:    cfg.Kafka.SecurityProtocol,
		SASLMechanism:       cfg.Kafka.SASLMechanism,
		SASLUsername:        cfg.Kafka.SASLUsername,
		SASLPassword:        cfg.Kafka.SASLPassword,
		AutoOffsetReset:     cfg.Kafka.Consumer.AutoOffsetReset,
		EnableAutoCommit:    cfg.Kafka.Consumer.EnableAutoCommit,
		MaxPollIntervalMS:   cfg.Kafka.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:    cfg.Kafka.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS: cfg.Kafka.Consumer.HeartbeatIntervalMS,
	}
	consumer, err := kafka.NewSaramaConsumer(consumerConfig, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	addCleanup("kafka-consumer", consumer.Close)

	dlqConfig := kafka.DLQConfig{
		Enabled:     cfg.Kafka.DLQ.Enabled,
		TopicSuffix: cfg.Kafka.DLQ.TopicSuffix,
		MaxRetries:  cfg.Kafka.DLQ.MaxRetries,
	}
	dlqPublisher, err := kafka.NewDLQPublisher(cfg.Kafka.BootstrapServers, consumerConfig, dlqConfig, logger, cfg.Application.Name)
	if err != nil {
		return fmt.Errorf("failed to create DLQ publisher: %w", err)
	}
	addCleanup("dlq-publisher", dlqPublisher.Close)

	// Get file format
	format := event.FormatParquet
	if cfg.Storage.Format == "avro" {
		format = event.FormatAvro
	}

	// Get compression (default to format-specific default if not specified)
	compression := cfg.Storage.Compression
	if compression == "" {
		if format == event.FormatParquet {
			compression = "snappy"
		} else {
			compression = "gzip"
		}
	}

	// Create storage writer based on backend
	var writer storageWriter
	switch cfg.Storage.Backend {
	case "file":
		fileConfig := storage.FileConfig{
			BasePath: cfg.Storage.File.BasePath,
		}
		writer, err = storage.NewFileWriter(fileConfig, format, compression, logger, metrics)
		if err != nil {
			return fmt.Errorf("failed to create filesystem writer: %w", err)
		}
	case "s3":
		s3Config := storage.S3Config{
			Bucket:       cfg.Storage.S3.Bucket,
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
			SSEEnabled:   cfg.Storage.S3.SSEEnabled,
			SSEKMSKeyID:  cfg.Storage.S3.SSEKMSKeyID,
		}
		writer, err = storage.NewS3Writer(s3Config, format, compression, logger, metrics)
		if err != nil {
			return fmt.Errorf("failed to create S3 writer: %w", err)
		}
	case "azure":
		azureConfig := storage.AzureConfig{
			AccountName:   cfg.Storage.Azure.AccountName,
			AccountKey:    os.Getenv("AZURE_STORAGE_ACCOUNT_KEY"),
			ContainerName: cfg.Storage.Azure.Container,
			Endpoint:      "",
		}
		writer, err = storage.NewAzureWriter(azureConfig, format, compression, logger, metrics)
		if err != nil {
			return fmt.Errorf("failed to create Azure Blob writer: %w", err)
		}
	case "gcs":
		gcsConfig := storage.GCSConfig{
			Bucket:               cfg.Storage.GCS.Bucket,
			ProjectID:            cfg.Storage.GCS.ProjectID,
			CredentialsFile:      cfg.Storage.GCS.CredentialsFile,
			CredentialsJSON:      os.Getenv("GCP_CREDENTIALS_JSON"),
			UseDefaultCredential: cfg.Storage.GCS.UseDefaultCredential,
		}
		writer, err = storage.NewGCSWriter(gcsConfig, format, compression, logger, metrics)
		if err != nil {
			return fmt.Errorf("failed to create GCS writer: %w", err)
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s (supported: file, s3, azure, gcs)", cfg.Storage.Backend)
	}
	addCleanup("storage-writer", writer.Close)

	// Initialize buffer manager
	bufferSizeBytes := int64(cfg.Processing.BufferSizeMB * 1024 * 1024)
	bufferMgr := buffer.NewManager(bufferSizeBytes, cfg.FileRotation.MaxRecordsPerFile)

	// Create simple health checker
	healthChecker := &simpleHealthChecker{isHealthy: true}

	// Start HTTP server
	httpServer := server.NewServer(
		cfg.Observability.Health.Port,
		cfg.Observability.Metrics.Port,
		healthChecker,
		registry,
		logger,
	)

	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	addCleanup("http-server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	logger.Info("application started successfully")

	// Subscribe to topics
	if err := consumer.Subscribe(context.Background(), cfg.Kafka.Consumer.Topics); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start consuming
	eventChan, errorChan, err := consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	// Start consume loop in background
	consumeErrChan := make(chan error, 1)
	go func() {
		consumeErrChan <- processEvents(ctx, eventChan, errorChan, eventValidator, writer, router, policy, dlqPublisher, bufferMgr, format, logger, metrics)
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	processingDone := false
	select {
	case <-sigChan:
		logger.Info("received termination signal")
	case err := <-consumeErrChan:
		processingDone = true
		if err != nil {
			logger.Error("consume error", "error", err)
			return err
		}
	}

	// Graceful shutdown
	logger.Info("initiating graceful shutdown")
	cancel()

	// Wait for the processing loop to drain its buffers, bounded by the
	// configured grace period.
	if !processingDone {
		shutdownTimeout := time.Duration(cfg.Shutdown.GracePeriodSeconds) * time.Second
		select {
		case <-consumeErrChan:
		case <-time.After(shutdownTimeout):
			logger.Warn("grace period elapsed before processing stopped")
		}
	}

	logger.Info("application stopped successfully")
	return nil
}

// storageWriter abstracts the backend-specific writers.
type storageWriter interface {
	Write(ctx context.Context, records []event.Record, path string, format event.FileFormat) (int64, error)
	Close() error
}

func processEvents(
	ctx context.Context,
	eventChan <-chan *event.ConsumedEvent,
	errorChan <-chan error,
	eventValidator event.Validator,
	writer storageWriter,
	router *storage.DefaultRouter,
	policy *storage.CompositePolicy,
	dlq *kafka.DLQPublisher,
	bufferMgr *buffer.Manager,
	format event.FileFormat,
	logger *slog.Logger,
	metrics *observability.Metrics,
) error {
	flush := func(ctx context.Context, partitionID event.PartitionID, records []event.Record) {
		if len(records) == 0 {
			return
		}

		// Route by the first record's event time and spec version. All records
		// in a batch fall within the same rotation window.
		eventTime := records[0].GetEventTimeUnix()
		specVersion := ""
		if records[0].Event != nil {
			specVersion = records[0].Event.SpecVersion()
		}
		path := router.Route(partitionID, eventTime, specVersion)

		bytesWritten, err := writer.Write(ctx, records, path, format)
		if err != nil {
			logger.Error("failed to write to storage",
				"topic", partitionID.Topic,
				"partition", partitionID.Partition,
				"error", err,
			)

			// Dead-letter the batch. Serialization is idempotent, so the
			// re-encoded bytes match what was consumed.
			if dlq != nil {
				for _, rec := range records {
					raw, merr := json.Marshal(rec.Event)
					if merr != nil {
						continue
					}
					if dlqErr := dlq.Publish(ctx, raw, rec.Kafka, "storage_failed"); dlqErr == nil && metrics != nil {
						metrics.IncDLQPublishes(partitionID.Topic, "storage_failed")
					}
				}
			}
			return
		}

		logger.Info("wrote batch to storage",
			"topic", partitionID.Topic,
			"partition", partitionID.Partition,
			"records", len(records),
			"bytes", bytesWritten,
			"path", path,
		)
	}

	// Track active partitions so remaining buffers can be flushed on shutdown.
	active := make(map[event.PartitionID]struct{})
	flushAll := func() {
		// The loop context is already done at this point; give in-flight
		// writes their own deadline.
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for partitionID := range active {
			flush(flushCtx, partitionID, bufferMgr.GetOrCreate(partitionID).Drain())
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, stopping processing")
			flushAll()
			return nil
		case err := <-errorChan:
			if err != nil {
				logger.Error("consumer error", "error", err)
			}
		case consumedEvent, ok := <-eventChan:
			if !ok {
				logger.Info("event channel closed")
				flushAll()
				return nil
			}

			partitionID := event.PartitionID{
				Topic:     consumedEvent.Metadata.Topic,
				Partition: consumedEvent.Metadata.Partition,
			}
			active[partitionID] = struct{}{}

			// Validate event
			if err := eventValidator.Validate(consumedEvent.Event); err != nil {
				logger.Warn("invalid cloud event",
					"topic", partitionID.Topic,
					"partition", partitionID.Partition,
					"offset", consumedEvent.Metadata.Offset,
					"error", err,
				)
				if metrics != nil {
					metrics.IncValidationFailures(partitionID.Topic, partitionID.Partition)
				}

				// Forward the original message bytes to the DLQ
				if dlq != nil {
					if dlqErr := dlq.Publish(ctx, consumedEvent.Raw, consumedEvent.Metadata, "validation_failed"); dlqErr == nil && metrics != nil {
						metrics.IncDLQPublishes(partitionID.Topic, "validation_failed")
					}
				}

				// Commit the offset to skip bad message
				if consumedEvent.CommitFunc != nil {
					_ = consumedEvent.CommitFunc()
				}
				continue
			}

			// Create storage record
			record := event.Record{
				Event:       consumedEvent.Event,
				Kafka:       consumedEvent.Metadata,
				Offset:      consumedEvent.Metadata.Offset,
				ProcessedAt: time.Now(),
			}

			buf := bufferMgr.GetOrCreate(partitionID)
			if err := buf.Add(record); err != nil {
				// Buffer full: flush the batch, then retry once.
				flush(ctx, partitionID, buf.Drain())
				if err := buf.Add(record); err != nil {
					logger.Error("failed to buffer record",
						"topic", partitionID.Topic,
						"partition", partitionID.Partition,
						"offset", consumedEvent.Metadata.Offset,
						"error", err,
					)
					continue
				}
			}

			if policy.ShouldRotate(buf.Stats()) {
				flush(ctx, partitionID, buf.Drain())
			}

			// Commit offset
			if consumedEvent.CommitFunc != nil {
				if err := consumedEvent.CommitFunc(); err != nil {
					logger.Error("failed to commit offset",
						"topic", partitionID.Topic,
						"partition", partitionID.Partition,
						"offset", consumedEvent.Metadata.Offset,
						"error", err,
					)
				}
			}
		}
	}
}

func getStorageProtocol(backend string) string {
	switch backend {
	case "s3":
		return "s3"
	case "azure":
		return "wasbs"
	case "gcs":
		return "gs"
	case "file":
		return "file"
	default:
		return "file"
	}
}

func getStorageBucket(cfg *dto.ApplicationConfig) string {
	switch cfg.Storage.Backend {
	case "s3":
		return cfg.Storage.S3.Bucket
	case "azure":
		return cfg.Storage.Azure.Container
	case "gcs":
		return cfg.Storage.GCS.Bucket
	case "file":
		return "" // File backend uses basePath only, no bucket
	default:
		return "events"
	}
}

func getStorageBasePath(cfg *dto.ApplicationConfig) string {
	switch cfg.Storage.Backend {
	case "s3":
		return cfg.Storage.S3.BasePath
	case "gcs":
		return cfg.Storage.GCS.BasePath
	case "azure":
		return ""
	case "file":
		return "" // File backend: basePath is handled by FileWriter, router only needs topic/date/partition structure
	default:
		return ""
	}
}

// simpleHealthChecker implements server.HealthChecker interface
type simpleHealthChecker struct {
	isHealthy bool
}

func (h *simpleHealthChecker) Liveness() bool {
	return h.isHealthy
}

func (h *simpleHealthChecker) Readiness(ctx context.Context) bool {
	return h.isHealthy
}

func (h *simpleHealthChecker) IsHealthy() bool {
	return h.isHealthy
}

func (h *simpleHealthChecker) GetStatus() map[string]string {
	return map[string]string{
		"status": "healthy",
	}
}
