// Package search holds the in-memory TF-IDF index and the autocomplete
// matcher. The index is owned by the server and rebuilt or patched through
// explicit calls from the book handlers, never implicitly.
package search

import (
	"math"
	"sort"
	"strings"
	"sync"

	"librolink/internal/model"
)

type document struct {
	book       model.Book
	termCounts map[string]int
	termTotal  int
}

// Index is a TF-IDF index over available books, safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	docs map[string]document // keyed by book ID hex
	df   map[string]int      // term -> number of docs containing it
}

func NewIndex() *Index {
	return &Index{
		docs: map[string]document{},
		df:   map[string]int{},
	}
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

func newDocument(b model.Book) document {
	d := document{book: b, termCounts: map[string]int{}}
	text := strings.Join([]string{b.Title, b.Author, b.Category, b.Genre, b.Description}, " ")
	for _, t := range tokenize(text) {
		d.termCounts[t]++
		d.termTotal++
	}
	return d
}

// Rebuild replaces the whole index with the given books. Non-available
// books are skipped.
func (ix *Index) Rebuild(books []model.Book) {
	docs := map[string]document{}
	df := map[string]int{}
	for _, b := range books {
		if b.Status != model.StatusAvailable {
			continue
		}
		d := newDocument(b)
		docs[b.ID.Hex()] = d
		for t := range d.termCounts {
			df[t]++
		}
	}
	ix.mu.Lock()
	ix.docs = docs
	ix.df = df
	ix.mu.Unlock()
}

// UpdateDocument indexes one book, replacing any previous version. A book
// that is no longer available is removed instead.
func (ix *Index) UpdateDocument(b model.Book) {
	if b.Status != model.StatusAvailable {
		ix.RemoveDocument(b.ID.Hex())
		return
	}
	d := newDocument(b)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(b.ID.Hex())
	ix.docs[b.ID.Hex()] = d
	for t := range d.termCounts {
		ix.df[t]++
	}
}

func (ix *Index) RemoveDocument(bookID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(bookID)
}

func (ix *Index) removeLocked(bookID string) {
	d, ok := ix.docs[bookID]
	if !ok {
		return
	}
	for t := range d.termCounts {
		if ix.df[t] <= 1 {
			delete(ix.df, t)
		} else {
			ix.df[t]--
		}
	}
	delete(ix.docs, bookID)
}

func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

type Result struct {
	Book  model.Book
	Score float64
}

// Search ranks indexed books by summed TF-IDF relevance of the query terms.
func (ix *Index) Search(query string, limit int) []Result {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := float64(len(ix.docs))
	var results []Result
	for _, d := range ix.docs {
		var score float64
		for _, t := range terms {
			count, ok := d.termCounts[t]
			if !ok || d.termTotal == 0 {
				continue
			}
			tf := float64(count) / float64(d.termTotal)
			idf := math.Log((n + 1) / (float64(ix.df[t]) + 1))
			score += tf * (idf + 1)
		}
		if score > 0 {
			results = append(results, Result{Book: d.book, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Book.ID.Hex() < results[j].Book.ID.Hex()
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
