package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"retention-engine/internal/common/database"
	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

// ESIndexer indexes scored customers for ad-hoc search and dashboards.
// Documents are keyed by customer ID so re-runs overwrite instead of
// duplicating.
type ESIndexer struct {
	es    *database.ElasticsearchClient
	index string
	log   logger.Logger
}

// NewESIndexer creates an Elasticsearch sink targeting index.
func NewESIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *ESIndexer {
	return &ESIndexer{es: es, index: index, log: log}
}

// Name identifies the sink in batch logs.
func (i *ESIndexer) Name() string { return "elasticsearch:" + i.index }

// WriteScored indexes each scored customer as its own document.
func (i *ESIndexer) WriteScored(ctx context.Context, customers []models.ScoredCustomer) error {
	for _, c := range customers {
		body, err := json.Marshal(c)
		if err != nil {
			return stderrors.NewIndexingFailedError(i.index, err)
		}

		res, err := i.es.Client.Index(
			i.index,
			bytes.NewReader(body),
			i.es.Client.Index.WithContext(ctx),
			i.es.Client.Index.WithDocumentID(fmt.Sprintf("%d", c.CustomerID)),
		)
		if err != nil {
			return stderrors.NewIndexingFailedError(i.index, err)
		}
		res.Body.Close()
		if res.IsError() {
			return stderrors.NewIndexingFailedError(i.index, fmt.Errorf("index response: %s", res.Status()))
		}
	}

	i.log.Info("Indexed scored customers", map[string]interface{}{
		"index": i.index,
		"count": len(customers),
	})
	return nil
}
