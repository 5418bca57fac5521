package event

import (
	"fmt"
	"time"
)

// KafkaMetadata contains Kafka-specific metadata for an ingested event.
type KafkaMetadata struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Headers   map[string]string
	Timestamp time.Time
}

// PartitionID uniquely identifies a Kafka partition.
type PartitionID struct {
	Topic     string
	Partition int32
}

// String returns a string representation of the partition ID in the format "topic-partition".
func (p PartitionID) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Partition)
}

// Record represents a decoded event ready for archival.
type Record struct {
	Event       *Event
	Kafka       KafkaMetadata
	Offset      int64
	ProcessedAt time.Time
}

// FileStats contains statistics about buffered events.
type FileStats struct {
	RecordCount    int
	SizeBytes      int64
	FirstWriteTime time.Time
	LastWriteTime  time.Time
}

// FileFormat represents the archival file format.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatAvro    FileFormat = "avro"
)

// Validator validates decoded events before they enter the pipeline.
type Validator interface {
	// Validate checks if an event satisfies the CloudEvents context
	// attribute requirements.
	Validate(event *Event) error
}

// ConsumedEvent represents an event consumed from Kafka.
// Raw holds the original structured-mode message bytes for sizing and
// dead-lettering.
type ConsumedEvent struct {
	Event      *Event
	Raw        []byte
	Metadata   KafkaMetadata
	CommitFunc func() error
}

// GetEventTime returns the event's timestamp.
// It returns the event time attribute if present, otherwise falls back to
// the Kafka message timestamp.
func (r *Record) GetEventTime() time.Time {
	if r.Event != nil {
		if t := r.Event.Time(); t != nil {
			return *t
		}
	}
	// Fallback to Kafka timestamp (when message was produced)
	return r.Kafka.Timestamp
}

// GetEventTimeUnix returns the event's timestamp as Unix seconds.
func (r *Record) GetEventTimeUnix() int64 {
	return r.GetEventTime().Unix()
}
