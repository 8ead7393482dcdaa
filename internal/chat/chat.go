// Package chat implements the rule-based chatbot: keyword intent
// classification and canned responses that may embed live catalog data.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	IntentRecommendation = "recommendation"
	IntentSupport        = "support"
	IntentGeneral        = "general"
)

// Intent keyword sets are checked in a fixed order; the first category with
// a matching keyword wins.
var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{IntentRecommendation, []string{
		"recommend", "suggestion", "suggest", "what should i read",
		"looking for", "similar", "like this", "good book",
	}},
	{IntentSupport, []string{
		"help", "problem", "issue", "order", "refund", "shipping",
		"delivery", "payment", "account", "password", "cancel",
	}},
}

// Classify maps a message to an intent. Anything unmatched is general.
func Classify(message string) string {
	m := strings.ToLower(message)
	for _, ik := range intentKeywords {
		for _, kw := range ik.keywords {
			if strings.Contains(m, kw) {
				return ik.intent
			}
		}
	}
	return IntentGeneral
}

// CatalogFacts is the live data a response may embed. Empty values degrade
// to fully canned responses.
type CatalogFacts struct {
	TopCategories []string
	PopularTitles []string
}

type Message struct {
	Text string
	At   time.Time
}

// Bot keeps a capped per-user message history. The history is retained but
// never read back for context continuity, matching the system this
// replaces.
type Bot struct {
	mu         sync.Mutex
	history    map[string][]Message
	maxHistory int
}

func NewBot() *Bot {
	return &Bot{
		history:    map[string][]Message{},
		maxHistory: 50,
	}
}

func (b *Bot) record(userID string, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := append(b.history[userID], Message{Text: text, At: time.Now()})
	if len(h) > b.maxHistory {
		h = h[len(h)-b.maxHistory:]
	}
	b.history[userID] = h
}

func (b *Bot) HistoryLen(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history[userID])
}

// Reply classifies the message and generates a response. It never fails;
// missing catalog facts just shorten the reply.
func (b *Bot) Reply(userID string, message string, facts CatalogFacts) (intent string, reply string) {
	b.record(userID, message)
	intent = Classify(message)
	switch intent {
	case IntentRecommendation:
		reply = recommendationReply(facts)
	case IntentSupport:
		reply = supportReply()
	default:
		reply = generalReply(facts)
	}
	return intent, reply
}

func recommendationReply(facts CatalogFacts) string {
	if len(facts.PopularTitles) > 0 {
		return fmt.Sprintf(
			"Here are some books other readers are loving right now: %s. You can also check your personalized picks on the recommendations page.",
			strings.Join(facts.PopularTitles, ", "),
		)
	}
	if len(facts.TopCategories) > 0 {
		return fmt.Sprintf(
			"Our most stocked categories right now are %s. Browse any of them and I can suggest something similar to what you pick.",
			strings.Join(facts.TopCategories, ", "),
		)
	}
	return "Tell me a book or genre you enjoyed and I'll look for something similar."
}

func supportReply() string {
	return "Sorry you're having trouble. For orders, shipping and refunds check the My Purchases page; for account issues use the profile settings. If that doesn't solve it, contact support@librolink.example."
}

func generalReply(facts CatalogFacts) string {
	if len(facts.TopCategories) > 0 {
		return fmt.Sprintf(
			"Welcome to LibroLink! You can browse used books by category (%s), keep a wishlist with price alerts, and sell your own books.",
			strings.Join(facts.TopCategories, ", "),
		)
	}
	return "Welcome to LibroLink! You can browse used books, keep a wishlist with price alerts, and sell your own books. Ask me for a recommendation any time."
}
