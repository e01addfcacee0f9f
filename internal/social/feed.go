// Package social provides the append-only sentiment feed customers post to
// and both kinds of agent read from.
package social

import (
	"sync"

	"github.com/talgya/mini-market/internal/metrics"
)

// Sentiment is a post label.
type Sentiment string

const (
	Positive Sentiment = "POSITIVE"
	Negative Sentiment = "NEGATIVE"
)

// Post is one feed entry: who said what about a product.
type Post struct {
	Poster    string
	Sentiment Sentiment
}

// Feed is a per-product post log. Appends and suffix reads are guarded by
// a single lock; critical sections are short and contention is acceptable.
type Feed struct {
	mu    sync.Mutex
	posts map[string][]Post
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{posts: make(map[string][]Post)}
}

// Post appends a sentiment entry for a product.
func (f *Feed) Post(poster, product string, s Sentiment) {
	f.mu.Lock()
	f.posts[product] = append(f.posts[product], Post{Poster: poster, Sentiment: s})
	f.mu.Unlock()
	metrics.FeedPosts.WithLabelValues(string(s)).Inc()
}

// Recent returns the last n sentiment labels for a product, oldest first.
// Fewer than n are returned when the product has a short history.
func (f *Feed) Recent(product string, n int) []Sentiment {
	f.mu.Lock()
	defer f.mu.Unlock()

	posts := f.posts[product]
	if len(posts) > n {
		posts = posts[len(posts)-n:]
	}
	out := make([]Sentiment, len(posts))
	for i, p := range posts {
		out[i] = p.Sentiment
	}
	return out
}

// Len returns the total post count for a product.
func (f *Feed) Len(product string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts[product])
}

// PositiveShare computes the fraction of labels that are positive. An
// empty window counts as fully positive: a product nobody has spoken
// about yet has no reputation to lose.
func PositiveShare(labels []Sentiment) float64 {
	if len(labels) == 0 {
		return 1
	}
	positive := 0
	for _, s := range labels {
		if s == Positive {
			positive++
		}
	}
	return float64(positive) / float64(len(labels))
}
