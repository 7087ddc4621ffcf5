// Package archive maintains a full-text index over a user's saved documents
// so earlier CVs can be found by role, content, or goal keywords.
package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/pkg/utils"
)

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// indexedDocument is the flattened shape stored in the index. Markup is
// stripped to plain text before indexing so tag names never match queries.
type indexedDocument struct {
	UserID     string `json:"user_id"`
	TargetRole string `json:"target_role"`
	Preview    string `json:"preview"`
	Content    string `json:"content"`
	Summary    string `json:"summary"`
}

// Index is a Bleve-backed archive index.
type Index struct {
	index bleve.Index
}

// NewIndex creates or opens an archive index at path. An existing index is
// reused; remove the directory to force a rebuild after mapping changes.
func NewIndex(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so role queries
	// like "analyst" match exactly what was written.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("target_role", textFieldMapping)
	docMapping.AddFieldMappingsAt("preview", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("summary", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)
	im.AddDocumentMapping("saved_document", docMapping)
	im.DefaultType = "saved_document"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open archive index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive index: %w", err)
	}
	return &Index{index: index}, nil
}

// IndexDocument adds or replaces a saved document in the index.
func (x *Index) IndexDocument(ctx context.Context, doc *models.SavedDocument) error {
	return x.index.Index(doc.ID, indexedDocument{
		UserID:     doc.UserID,
		TargetRole: doc.TargetRole,
		Preview:    doc.PreviewText,
		Content:    utils.StripTags(doc.State.Markup),
		Summary:    doc.State.DigitalSummary,
	})
}

// Search returns the top matches for a query within one user's archive. The
// target role field is boosted so "fintech analyst" surfaces documents built
// for that role before documents that merely mention it.
func (x *Index) Search(ctx context.Context, userID, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	roleQuery := bleve.NewMatchQuery(query)
	roleQuery.SetField("target_role")
	roleQuery.SetBoost(2.0)

	bodyQuery := bleve.NewMatchQuery(query)

	content := bleve.NewDisjunctionQuery(roleQuery, bodyQuery)

	userQuery := bleve.NewTermQuery(userID)
	userQuery.SetField("user_id")

	q := bleve.NewConjunctionQuery(userQuery, content)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("archive search failed: %w", err)
	}

	out := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a document from the index.
func (x *Index) Delete(ctx context.Context, id string) error {
	return x.index.Delete(id)
}

// DocCount returns the number of indexed documents.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close closes the index.
func (x *Index) Close() error {
	return x.index.Close()
}
