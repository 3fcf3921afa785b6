package keyword

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
)

// BleveIndex implements ListingIndex with an in-memory Bleve index.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex builds an in-memory index over every record in store.
// Label and body use the CJK analyzer, which splits Hangul into bigrams so that
// a query such as "신청" matches "수강신청".
func NewBleveIndex(store *reference.Store) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = cjk.AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = cjk.AnalyzerName
	docMapping.AddFieldMappingsAt("label", textFieldMapping)
	docMapping.AddFieldMappingsAt("body", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("domain", keywordFieldMapping)
	im.AddDocumentMapping("record", docMapping)
	im.DefaultType = "record"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}

	batch := index.NewBatch()
	for _, d := range models.Domains {
		for _, rec := range store.Records(d) {
			label, body := indexText(rec)
			doc := map[string]interface{}{
				"domain": string(d),
				"label":  label,
				"body":   body,
			}
			if err := batch.Index(docID(d, rec.RecordID()), doc); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("failed to index %s %d: %w", d, rec.RecordID(), err)
			}
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to commit Bleve batch: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// indexText returns the searchable label and body. Secondary fields are folded into the body.
func indexText(rec models.FactRecord) (string, string) {
	parts := []string{rec.Body()}
	label := rec.Label()
	switch r := rec.(type) {
	case *models.Notice:
		parts = append(parts, r.Department)
	case *models.Program:
		parts = append(parts, r.Target, r.Benefits, r.Requirements)
	case *models.GlossaryTerm:
		if r.TermEn != "" {
			label += " " + r.TermEn
		}
	}
	return label, strings.Join(parts, "\n")
}

func docID(d models.Domain, id int) string {
	return string(d) + ":" + strconv.Itoa(id)
}

func parseDocID(d models.Domain, id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, string(d)+":")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil
}

// Search implements ListingIndex. Every query term must appear in the label or in the body.
func (b *BleveIndex) Search(ctx context.Context, domain models.Domain, query string) (map[int]bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	domainQuery := bleve.NewTermQuery(string(domain))
	domainQuery.SetField("domain")

	labelQuery := bleve.NewMatchQuery(query)
	labelQuery.SetField("label")
	labelQuery.SetOperator(blevequery.MatchQueryOperatorAnd)
	bodyQuery := bleve.NewMatchQuery(query)
	bodyQuery.SetField("body")
	bodyQuery.SetOperator(blevequery.MatchQueryOperatorAnd)

	q := bleve.NewConjunctionQuery(domainQuery, bleve.NewDisjunctionQuery(labelQuery, bodyQuery))

	total, err := b.index.DocCount()
	if err != nil {
		return nil, err
	}
	search := bleve.NewSearchRequest(q)
	search.Size = int(total)
	results, err := b.index.SearchInContext(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	ids := make(map[int]bool, len(results.Hits))
	for _, hit := range results.Hits {
		if id, ok := parseDocID(domain, hit.ID); ok {
			ids[id] = true
		}
	}
	return ids, nil
}

// DocCount implements ListingIndex.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close implements ListingIndex.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
