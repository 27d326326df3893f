package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"gsearch/internal/config"
)

func main() {
	create := flag.Bool("create", false, "Create missing topics on the controller")
	partitions := flag.Int("partitions", 3, "Partitions for created topics")
	replication := flag.Int("replication", 1, "Replication factor for created topics")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	broker := cfg.Kafka.Broker
	topics := []string{cfg.Kafka.JobsTopic, cfg.Kafka.ResultsTopic, cfg.Kafka.DLQTopic}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Kafka at %s: %v\n", broker, err)
		os.Exit(1)
	}
	defer conn.Close()

	existing, err := conn.ReadPartitions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read metadata: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("connected to Kafka at %s (%d partitions)\n", broker, len(existing))

	missing := missingTopics(existing, topics)
	if len(missing) == 0 {
		fmt.Println("all search topics present")
		return
	}
	if !*create {
		fmt.Fprintf(os.Stderr, "missing topics: %v\n", missing)
		os.Exit(1)
	}
	if err := createTopics(ctx, conn, topicConfigs(missing, *partitions, *replication)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create topics: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created topics: %v\n", missing)
}

// missingTopics returns the wanted topics that have no partition, sorted.
func missingTopics(partitions []kafka.Partition, wanted []string) []string {
	present := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		present[p.Topic] = true
	}
	var missing []string
	seen := make(map[string]bool, len(wanted))
	for _, topic := range wanted {
		if topic == "" || present[topic] || seen[topic] {
			continue
		}
		seen[topic] = true
		missing = append(missing, topic)
	}
	sort.Strings(missing)
	return missing
}

func topicConfigs(topics []string, partitions, replication int) []kafka.TopicConfig {
	configs := make([]kafka.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replication,
		}
	}
	return configs
}

// createTopics issues CreateTopics against the cluster controller.
func createTopics(ctx context.Context, conn *kafka.Conn, configs []kafka.TopicConfig) error {
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer controllerConn.Close()
	return controllerConn.CreateTopics(configs...)
}
