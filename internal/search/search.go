// Package search maintains a full-text index over the download history so
// past downloads can be found by title or filename.
package search

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

// Hit is one history match.
type Hit struct {
	ID    string
	Title string
	Score float64
}

// Index wraps a bleve index of history records.
type Index struct {
	idx bleve.Index
}

type historyDoc struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Format   string `json:"format"`
}

// Open opens the index at path, creating it when absent.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to open search index at %s: %w", path, err)
		}
		mapping := bleve.NewIndexMapping()
		idx, err = bleve.New(path, mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create search index at %s: %w", path, err)
		}
		log.Debugf("Created search index at %s", path)
	}
	return &Index{idx: idx}, nil
}

// Add indexes one history record. Indexing failures are logged, never
// propagated: search is a convenience over the durable history, not part
// of it.
func (i *Index) Add(rec models.HistoryRecord) {
	doc := historyDoc{
		Title:    rec.Title,
		URL:      rec.URL,
		Filename: rec.Filename,
		Format:   string(rec.Format),
	}
	if err := i.idx.Index(rec.ID, doc); err != nil {
		log.WithError(err).Warnf("Could not index history record %s", rec.ID)
	}
}

// Search returns history record ids matching the query, best first.
func (i *Index) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"title"}
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.idx.Close()
}
