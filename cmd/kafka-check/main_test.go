package main

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestMissingTopics(t *testing.T) {
	partitions := []kafka.Partition{
		{Topic: "gsearch.search.jobs", ID: 0},
		{Topic: "gsearch.search.jobs", ID: 1},
		{Topic: "other", ID: 0},
	}
	got := missingTopics(partitions, []string{"gsearch.search.results", "gsearch.search.jobs", "gsearch.search.dlq", "gsearch.search.dlq", ""})
	want := []string{"gsearch.search.dlq", "gsearch.search.results"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("missingTopics() = %v, want %v", got, want)
	}
}

func TestMissingTopicsAllPresent(t *testing.T) {
	partitions := []kafka.Partition{{Topic: "a"}, {Topic: "b"}}
	if got := missingTopics(partitions, []string{"a", "b"}); len(got) != 0 {
		t.Fatalf("expected none missing, got %v", got)
	}
}

func TestTopicConfigs(t *testing.T) {
	configs := topicConfigs([]string{"a", "b"}, 3, 2)
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[1].Topic != "b" || configs[1].NumPartitions != 3 || configs[1].ReplicationFactor != 2 {
		t.Fatalf("unexpected config: %+v", configs[1])
	}
}
