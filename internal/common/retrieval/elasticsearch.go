package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"dashboard-assistant/internal/models"
)

// ElasticsearchRetriever reads payload documents with id "<source>:<month>";
// the payload is the document _source.
type ElasticsearchRetriever struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchRetriever(client *elasticsearch.Client, index string) *ElasticsearchRetriever {
	return &ElasticsearchRetriever{client: client, index: index}
}

func (r *ElasticsearchRetriever) Name() string {
	return "elasticsearch"
}

func DocumentID(sourceID, month string) string {
	return sourceID + ":" + month
}

func (r *ElasticsearchRetriever) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	req := esapi.GetRequest{
		Index:      r.index,
		DocumentID: DocumentID(source.ID, month),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch retrieval %s/%s: %w", source.ID, month, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch retrieval %s/%s: %s", source.ID, month, res.Status())
	}

	var doc struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !doc.Found || len(doc.Source) == 0 {
		return nil, ErrNotFound
	}
	return doc.Source, nil
}
