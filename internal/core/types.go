// Package core provides shared types and the error taxonomy for the course grabber.
package core

import (
	"strings"
	"time"
)

// APIVersion tags fetch metadata so cached payloads from older builds can be told apart.
const APIVersion = "1.0"

// SortBy maps UI sort labels to the field names the remote API sorts on.
var SortBy = map[string]string{
	"Date":       "sale_start",
	"Duration":   "lectures",
	"Popularity": "views",
	"Rating":     "rating",
}

// DefaultSort is used when a query carries an unrecognized sort label.
const DefaultSort = "Date"

// CategoryAll disables category filtering.
const CategoryAll = "All"

// Categories is the fixed set of course categories the remote API understands.
var Categories = []string{
	"Business",
	"Design",
	"Development",
	"Finance & Accounting",
	"Health & Fitness",
	"IT & Software",
	"Lifestyle",
	"Marketing",
	"Music",
	"Office Productivity",
	"Personal Development",
	"Photography & Video",
	"Teaching & Academics",
}

// ValidCategory reports whether name is one of the known categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// SortOptions returns the sort labels in a stable order for UI consumption.
func SortOptions() []string {
	return []string{"Date", "Duration", "Popularity", "Rating"}
}

// Query identifies one page of results. It is both the remote request shape
// and the cache key seed, so it must be normalized before use.
type Query struct {
	Page     int    `json:"page"`
	Category string `json:"category"`
	Sort     string `json:"sort"`
	Search   string `json:"search,omitempty"`
}

// Normalized returns a copy with defaults applied: page clamped to >= 1,
// unknown sort labels replaced by DefaultSort, unknown categories treated as
// "All" (the remote API silently ignores them anyway), and whitespace-only
// search collapsed to empty.
func (q Query) Normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if _, ok := SortBy[q.Sort]; !ok {
		q.Sort = DefaultSort
	}
	if q.Category == "" || (q.Category != CategoryAll && !ValidCategory(q.Category)) {
		q.Category = CategoryAll
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Course is the canonical per-record shape after normalization.
type Course struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Category    string  `json:"category"`
	Rating      string  `json:"rating"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Instructor  string  `json:"instructor"`
	Duration    string  `json:"duration"`
	Price       string  `json:"price"`
	Discount    string  `json:"discount"`
	Students    int     `json:"students"`
	Level       string  `json:"level"`
	Language    string  `json:"language"`
	LastUpdated string  `json:"last_updated"`
	Lectures    int     `json:"lectures"`
	ExpiryDate  string  `json:"expiry_date"`
	SaleStart   string  `json:"sale_start"`
	SalePrice   float64 `json:"sale_price"`
	Views       int     `json:"views"`
}

// Metadata records when and how a FetchResult was produced.
type Metadata struct {
	FetchedAt  time.Time `json:"fetched_at"`
	Page       int       `json:"page"`
	Category   string    `json:"category"`
	Sort       string    `json:"sort"`
	Search     string    `json:"search,omitempty"`
	APIVersion string    `json:"api_version"`
}

// Source tells the UI where a result came from.
type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// Provenance annotates a FetchResult for status display. AgeSeconds is zero
// for network results.
type Provenance struct {
	Source     Source    `json:"source"`
	CacheFile  string    `json:"cache_file,omitempty"`
	CachedAt   time.Time `json:"cached_at,omitzero"`
	AgeSeconds float64   `json:"age_seconds,omitempty"`
}

// FetchResult is the single normalized result the orchestrator hands to the
// UI layer, whether it came from cache or network.
type FetchResult struct {
	Items       []Course    `json:"items"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
	Metadata    Metadata    `json:"metadata"`
	Provenance  *Provenance `json:"provenance,omitempty"`
}
