package chat

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Can you recommend a good sci-fi book?", IntentRecommendation},
		{"I'm looking for something like Dune", IntentRecommendation},
		{"I have a problem with my order", IntentSupport},
		{"how do I reset my password", IntentSupport},
		{"hello there", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		if got := Classify(tt.message); got != tt.want {
			t.Fatalf("Classify(%q): want %s, got %s", tt.message, tt.want, got)
		}
	}
}

func TestClassifyFixedOrder(t *testing.T) {
	// contains keywords from both sets; recommendation is checked first
	if got := Classify("recommend me something, I had a problem last time"); got != IntentRecommendation {
		t.Fatalf("want recommendation to win, got %s", got)
	}
}

func TestReplyEmbedsLiveData(t *testing.T) {
	b := NewBot()
	facts := CatalogFacts{PopularTitles: []string{"Dune", "Emma"}}

	intent, reply := b.Reply("u1", "any suggestions?", facts)
	if intent != IntentRecommendation {
		t.Fatalf("want recommendation intent, got %s", intent)
	}
	if !strings.Contains(reply, "Dune") || !strings.Contains(reply, "Emma") {
		t.Fatalf("want popular titles embedded, got %q", reply)
	}
}

func TestReplyDegradesWithoutFacts(t *testing.T) {
	b := NewBot()
	_, reply := b.Reply("u1", "any suggestions?", CatalogFacts{})
	if reply == "" {
		t.Fatal("want a fallback reply, got empty string")
	}
}

func TestHistoryCapped(t *testing.T) {
	b := NewBot()
	b.maxHistory = 3
	for i := 0; i < 10; i++ {
		b.Reply("u1", "hello", CatalogFacts{})
	}
	if got := b.HistoryLen("u1"); got != 3 {
		t.Fatalf("want history capped at 3, got %d", got)
	}
	if got := b.HistoryLen("u2"); got != 0 {
		t.Fatalf("want empty history for other users, got %d", got)
	}
}
