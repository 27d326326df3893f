package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"gsearch/internal/models"
	"gsearch/internal/queue"
)

// JobProducer publishes SearchJob messages.
type JobProducer interface {
	WriteJob(ctx context.Context, job models.SearchJob) error
}

// Producer wraps a Kafka writer for publishing search jobs.
type Producer struct {
	writer queue.MessageWriter
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return &Producer{writer: queue.NewWriter(broker, topic)}
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer queue.MessageWriter) *Producer {
	return &Producer{writer: writer}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// WriteJob publishes a SearchJob keyed by its job id.
func (p *Producer) WriteJob(ctx context.Context, job models.SearchJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(job.JobID),
		Value: payload,
		Time:  time.Now().UTC(),
	}

	return p.writer.WriteMessages(ctx, msg)
}
