//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/adapter/fetch"
	"github.com/couchcryptid/disease-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/disease-map-service/internal/adapter/sheet"
	"github.com/couchcryptid/disease-map-service/internal/config"
	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/couchcryptid/disease-map-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSummaryTopic = "test-summaries"
	fixtureDir       = "../pipeline/testdata"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("casemap-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readSummary reads a single summary message and its headers.
func readSummary(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.Summary, string, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from summary topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var s domain.Summary
	require.NoError(t, json.Unmarshal(msg.Value, &s), "unmarshal summary message")
	return s, string(msg.Key), headers
}

// TestLoadPublishesSummary wires the real fetcher, decoder and Kafka writer
// and verifies that a successful load lands on the summary topic.
func TestLoadPublishesSummary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSummaryTopic)

	cfg := &config.Config{
		KafkaEnabled:      true,
		KafkaBrokers:      []string{broker},
		KafkaSummaryTopic: testSummaryTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	catalog := domain.Catalog{
		{ID: "TB_data.csv", Name: "Tuberculosis", File: "TB_data.csv"},
		{ID: "Empty_data.csv", Name: "Empty", File: "Empty_data.csv"},
	}
	loader := pipeline.New(fetch.NewDir(fixtureDir, metrics), sheet.Decoder{}, catalog, "usa_states.geojson", writer, discardLogger(), metrics)

	_, err := loader.Load(ctx, "Empty_data.csv")
	require.ErrorIs(t, err, domain.ErrEmptyDataset, "empty loads publish nothing")

	res, err := loader.Load(ctx, "TB_data.csv")
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSummaryTopic,
		GroupID:     fmt.Sprintf("test-summaries-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	s, key, headers := readSummary(ctx, t, consumer)
	assert.Equal(t, "TB_data.csv", key)
	assert.Equal(t, "TB_data.csv", headers["dataset"])
	_, err = time.Parse(time.RFC3339, headers["loaded_at"])
	assert.NoError(t, err, "loaded_at should be valid RFC3339")

	assert.Equal(t, []int{2019, 2020, 2021}, s.Years)
	assert.Equal(t, 3, s.StateCount)
	assert.Equal(t, map[int]float64{2019: 200, 2020: 1800, 2021: 75}, s.YearTotals)
	assert.Equal(t, 7, s.Rows)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, res.Summary.Years, s.Years)

	// Nothing else should be on the topic.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected a single summary message")
}
