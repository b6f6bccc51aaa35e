package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/legalconnect/legalconnect-api/models"
)

// LawyerDocument is what the search index keeps per lawyer profile
type LawyerDocument struct {
	ProfileID uint             `json:"profile_id"`
	UserID    uint             `json:"user_id"`
	FullName  string           `json:"full_name"`
	Expertise models.Expertise `json:"expertise"`
	Location  string           `json:"location"`
	Approved  bool             `json:"approved"`
}

// LawyerDocumentOf builds the index document of a profile
func LawyerDocumentOf(p *models.LawyerProfile) LawyerDocument {
	return LawyerDocument{
		ProfileID: p.ID,
		UserID:    p.UserID,
		FullName:  p.FullName,
		Expertise: p.Expertise,
		Location:  p.Location,
		Approved:  p.Approved,
	}
}

// LawyerIndex is a full-text index over lawyer profiles
type LawyerIndex interface {
	IndexLawyer(ctx context.Context, doc LawyerDocument) error
	// SearchApproved returns ids of approved profiles whose name contains search and whose
	// expertise equals expertise, both case-insensitive; empty arguments match everything.
	SearchApproved(ctx context.Context, search, expertise string) ([]uint, error)
}

var lawyerIndexInstance LawyerIndex

// GetLawyerIndex returns the configured index, nil when search falls back to SQL
func GetLawyerIndex() LawyerIndex {
	return lawyerIndexInstance
}

// SetLawyerIndex sets the process-wide lawyer index
func SetLawyerIndex(index LawyerIndex) {
	lawyerIndexInstance = index
}

// ElasticLawyerIndex implements LawyerIndex on Elasticsearch
type ElasticLawyerIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticLawyerIndex connects to the cluster at url and checks it answers
func NewElasticLawyerIndex(url, index string) (*ElasticLawyerIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return &ElasticLawyerIndex{client: es, index: index}, nil
}

func (e *ElasticLawyerIndex) IndexLawyer(ctx context.Context, doc LawyerDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: strconv.FormatUint(uint64(doc.ProfileID), 10),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to index lawyer: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// wildcardEscaper makes a wildcard query match the search text literally
var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// searchQuery builds the bool query for SearchApproved
func searchQuery(search, expertise string) map[string]any {
	filters := []map[string]any{
		{"term": map[string]any{"approved": true}},
	}
	if s := strings.TrimSpace(search); s != "" {
		filters = append(filters, map[string]any{
			"wildcard": map[string]any{
				"full_name.keyword": map[string]any{
					"value":            "*" + wildcardEscaper.Replace(s) + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	if x := strings.TrimSpace(expertise); x != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{
				"expertise.keyword": map[string]any{
					"value":            x,
					"case_insensitive": true,
				},
			},
		})
	}

	return map[string]any{
		"size":    1000,
		"query":   map[string]any{"bool": map[string]any{"filter": filters}},
		"sort":    []any{map[string]any{"profile_id": "asc"}},
		"_source": []string{"profile_id"},
	}
}

func (e *ElasticLawyerIndex) SearchApproved(ctx context.Context, search, expertise string) ([]uint, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery(search, expertise)); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search lawyers: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source LawyerDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ProfileID)
	}
	return ids, nil
}
