package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "keyword"},
      "email":             {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "name":              {"type": "text"},
      "role":              {"type": "keyword"},
      "avatar_url":        {"type": "keyword", "index": false},
      "is_active":         {"type": "boolean"},
      "is_email_verified": {"type": "boolean"},
      "google_linked":     {"type": "boolean"},
      "last_login_at":     {"type": "date"},
      "created_at":        {"type": "date"},
      "updated_at":        {"type": "date"}
    }
  }
}`

// UserIndex stores BackofficeUser documents keyed by user id.
type UserIndex struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index, timeout: 3 * time.Second}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(c),
		x.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	return nil
}

func (x *UserIndex) Index(ctx context.Context, u application.BackofficeUser) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	req := esapi.IndexRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user %s: %s", u.ID, res.Status())
	}
	return nil
}

// Search runs a multi_match over email and name, email weighted higher.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]application.BackofficeUser, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string                     `json:"_id"`
				Source application.BackofficeUser `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]application.BackofficeUser, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if h.Source.ID == "" {
			h.Source.ID = h.ID
		}
		out = append(out, h.Source)
	}
	return out, nil
}

var _ application.UserIndexer = (*UserIndex)(nil)
