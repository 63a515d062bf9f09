// Package extract runs bank documents through the grammar engine and the
// security resolver. Documents are parsed concurrently; resolution against
// the shared catalogue is serialized so every run sees one canonical
// security per identifier.
package extract

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/parser"
	"github.com/insightdelivered/portfolio-extractor/internal/resolver"
)

// Engine coordinates parsing and security resolution over document batches.
// Four documents are parsed concurrently unless WithWorkers says otherwise.
type Engine struct {
	res     *resolver.Resolver
	workers int
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers caps the number of documents parsed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger routes the engine's per-document events to log.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an Engine resolving against cat. A nil cat gets a fresh
// in-memory catalogue, scoped to this engine.
func New(cat resolver.Catalogue, opts ...Option) *Engine {
	if cat == nil {
		cat = resolver.NewMemoryCatalogue()
	}
	e := &Engine{
		res:     resolver.New(cat),
		workers: 4,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type docResult struct {
	items []models.Item
	errs  []models.ExtractionError
}

// Extract parses every document and resolves the produced securities. Items
// are returned in document order; a failed document contributes its errors
// and never suppresses the other documents. Cancellation stops feeding new
// documents, lets the dispatched ones finish and adds one batch-level error
// noting the cutoff.
func (e *Engine) Extract(ctx context.Context, docs []models.Document) ([]models.Item, []models.ExtractionError) {
	results := make([]docResult, len(docs))

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	fed := len(docs)
	for i := range docs {
		if ctx.Err() != nil {
			fed = i
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.extractOne(docs[i])
		}(i)
	}
	wg.Wait()

	var items []models.Item
	var errs []models.ExtractionError
	for _, r := range results[:fed] {
		items = append(items, r.items...)
		errs = append(errs, r.errs...)
	}
	if fed < len(docs) {
		errs = append(errs, models.ExtractionError{Err: ctx.Err()})
	}

	resolved, resolveErrs := e.res.Resolve(items)
	errs = append(errs, resolveErrs...)
	return resolved, errs
}

func (e *Engine) extractOne(doc models.Document) docResult {
	bank, err := e.bankFor(doc)
	if err != nil {
		e.log.Warn().Str("source", doc.Source).Err(err).Msg("no bank claims document")
		return docResult{errs: []models.ExtractionError{{Source: doc.Source, Err: err}}}
	}

	items, blockErrs := bank.Extract(doc)
	var errs []models.ExtractionError
	for _, berr := range blockErrs {
		errs = append(errs, models.ExtractionError{Source: doc.Source, Err: berr})
	}

	e.log.Debug().
		Str("source", doc.Source).
		Str("bank", string(bank.ID)).
		Int("items", len(items)).
		Int("errors", len(errs)).
		Msg("document extracted")
	return docResult{items: items, errs: errs}
}

// bankFor honors an explicit bank hint on the document and probes the
// registry otherwise.
func (e *Engine) bankFor(doc models.Document) (*parser.Bank, error) {
	if doc.Bank != "" {
		return parser.Lookup(doc.Bank)
	}
	bank, err := parser.Detect(doc.Text)
	if err != nil {
		return nil, &models.UnsupportedDocumentError{Source: doc.Source, Reason: err.Error()}
	}
	return bank, nil
}
