package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	kgo "github.com/segmentio/kafka-go"

	gkafka "gsearch/internal/kafka"
	"gsearch/internal/models"
	"gsearch/mocks"
)

func TestProducerWriteJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	prod := gkafka.NewProducerWithWriter(writer)

	job := models.SearchJob{
		JobID: "job-123",
		Request: models.SearchRequest{
			Type:    models.SearchTypeImage,
			Query:   "american idol",
			Count:   32,
			Filters: map[string]string{"size": "medium"},
		},
		CreatedAt: time.Unix(0, 0).UTC(),
	}

	writer.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kgo.Message) error {
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			if string(msgs[0].Key) != job.JobID {
				t.Fatalf("unexpected message key: %s", string(msgs[0].Key))
			}

			var got models.SearchJob
			if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
				t.Fatalf("failed to decode message: %v", err)
			}
			if got.JobID != job.JobID || got.Request.Type != job.Request.Type || got.Request.Query != job.Request.Query || got.Request.Count != job.Request.Count {
				t.Fatalf("unexpected job payload: %+v", got)
			}
			if got.Request.Filters["size"] != "medium" {
				t.Fatalf("filters not preserved: %+v", got.Request.Filters)
			}
			return nil
		})

	if err := prod.WriteJob(context.Background(), job); err != nil {
		t.Fatalf("WriteJob returned error: %v", err)
	}
}

func TestProducerWriteJobError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	prod := gkafka.NewProducerWithWriter(writer)

	job := models.SearchJob{JobID: "job-err"}
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("write failed"))
	if err := prod.WriteJob(context.Background(), job); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestProducerClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	writer.EXPECT().Close().Return(nil)
	if err := gkafka.NewProducerWithWriter(writer).Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
