package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// OpenSearchConfig holds OpenSearch client connection parameters.
type OpenSearchConfig struct {
	Addresses    []string `env:"ANALYTICS_OPENSEARCH_ADDRESSES,required"`
	Username     string   `env:"ANALYTICS_OPENSEARCH_USERNAME,notEmpty"`
	Password     string   `env:"ANALYTICS_OPENSEARCH_PASSWORD,notEmpty"`
	Index        string   `env:"ANALYTICS_OPENSEARCH_INDEX" envDefault:"experiment-events"`
	MaxRetries   int      `env:"ANALYTICS_OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"ANALYTICS_OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
}

// ConnectOpenSearch creates an OpenSearch client and verifies connectivity.
func ConnectOpenSearch(ctx context.Context, cfg OpenSearchConfig) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrOpenSearchConnectionFailed, err)
	}

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return nil, errors.Join(ErrOpenSearchConnectionFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: ping returned %s", ErrOpenSearchConnectionFailed, res.Status())
	}

	return client, nil
}

// OpenSearchSink indexes one document per event, enabling ad-hoc experiment
// analysis without touching the primary event log.
type OpenSearchSink struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchSink creates a sink writing to the given index. An empty
// index name falls back to "experiment-events".
func NewOpenSearchSink(client *opensearch.Client, index string) *OpenSearchSink {
	if client == nil {
		panic("analytics: opensearch client cannot be nil")
	}
	if index == "" {
		index = "experiment-events"
	}
	return &OpenSearchSink{client: client, index: index}
}

// Append indexes the event keyed by its ID, making redelivery idempotent.
func (s *OpenSearchSink) Append(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: event encoding: %w", ErrAppendFailed, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: event.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errors.Join(ErrAppendFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index returned %s", ErrAppendFailed, res.Status())
	}
	return nil
}
