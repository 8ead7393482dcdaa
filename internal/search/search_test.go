package search

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"librolink/internal/model"
)

func availableBook(title, author, category, genre string) model.Book {
	return model.Book{
		ID:       primitive.NewObjectID(),
		Title:    title,
		Author:   author,
		Category: category,
		Genre:    genre,
		Status:   model.StatusAvailable,
	}
}

func TestAutocompletePrefixBeforeSubstring(t *testing.T) {
	books := []model.Book{
		availableBook("Children of Dune", "Frank Herbert", "fiction", "sci-fi"),
		availableBook("Dune", "Frank Herbert", "fiction", "sci-fi"),
	}

	got := Autocomplete("dune", books, 10)
	if len(got) == 0 {
		t.Fatal("want suggestions, got none")
	}
	if got[0] != "Dune" {
		t.Fatalf("want prefix match \"Dune\" first, got %q", got[0])
	}
}

func TestAutocompleteDeduplicatesAndLimits(t *testing.T) {
	books := []model.Book{
		availableBook("Dune", "Frank Herbert", "fiction", "sci-fi"),
		availableBook("Dune Messiah", "Frank Herbert", "fiction", "sci-fi"),
	}

	got := Autocomplete("frank", books, 10)
	if len(got) != 1 {
		t.Fatalf("want author deduplicated to one suggestion, got %v", got)
	}

	if got := Autocomplete("dune", books, 1); len(got) != 1 {
		t.Fatalf("want limit applied, got %v", got)
	}
}

func TestAutocompleteEmptyQuery(t *testing.T) {
	if got := Autocomplete("  ", []model.Book{availableBook("Dune", "", "", "")}, 5); got != nil {
		t.Fatalf("want nil for blank query, got %v", got)
	}
}

func TestIndexSearchRanksRelevantFirst(t *testing.T) {
	dune := availableBook("Dune", "Frank Herbert", "fiction", "sci-fi")
	cooking := availableBook("Cooking Basics", "Jane Smith", "non-fiction", "cooking")

	ix := NewIndex()
	ix.Rebuild([]model.Book{dune, cooking})

	got := ix.Search("dune", 10)
	if len(got) != 1 {
		t.Fatalf("want one hit, got %d", len(got))
	}
	if got[0].Book.ID != dune.ID {
		t.Fatalf("want Dune, got %q", got[0].Book.Title)
	}
}

func TestIndexSkipsUnavailableBooks(t *testing.T) {
	sold := availableBook("Dune", "Frank Herbert", "fiction", "sci-fi")
	sold.Status = model.StatusSold

	ix := NewIndex()
	ix.Rebuild([]model.Book{sold})
	if ix.Size() != 0 {
		t.Fatalf("want sold book excluded from index, size %d", ix.Size())
	}
}

func TestIndexUpdateAndRemove(t *testing.T) {
	b := availableBook("Dune", "Frank Herbert", "fiction", "sci-fi")
	ix := NewIndex()
	ix.Rebuild([]model.Book{b})

	b.Title = "Dune Messiah"
	ix.UpdateDocument(b)
	if got := ix.Search("messiah", 10); len(got) != 1 {
		t.Fatalf("want updated document found, got %v", got)
	}

	// a book that leaves the available status drops out of the index
	b.Status = model.StatusSold
	ix.UpdateDocument(b)
	if ix.Size() != 0 {
		t.Fatalf("want index empty after status change, size %d", ix.Size())
	}
	if got := ix.Search("dune", 10); len(got) != 0 {
		t.Fatalf("want no hits after removal, got %v", got)
	}
}

func TestTokenizeDropsShortAndNonAlnum(t *testing.T) {
	got := tokenize("A Tale of Two Cities! (1859)")
	want := map[string]bool{"tale": true, "of": true, "two": true, "cities": true, "1859": true}
	if len(got) != len(want) {
		t.Fatalf("want %d terms, got %v", len(want), got)
	}
	for _, term := range got {
		if !want[term] {
			t.Fatalf("unexpected term %q in %v", term, got)
		}
	}
}
