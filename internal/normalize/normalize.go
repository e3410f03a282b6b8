// Package normalize cleans heterogeneous course objects from the remote API
// into the canonical record shape.
//
// The API mixes field names (name/title, url/link, instructor/author, ...)
// and types (ratings as numbers or strings, durations as hours or free-form
// text) across items, so every accessor here resolves an ordered list of
// alias keys and coerces the value it finds.
package normalize

import (
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"coursegrab/internal/core"
)

var ratingPattern = regexp.MustCompile(`(\d+\.?\d*)`)

// Course converts one raw course object into the canonical shape. The second
// return value is false when the record has no usable URL under any alias,
// in which case it must be dropped.
func Course(raw gjson.Result) (core.Course, bool) {
	if !raw.IsObject() {
		return core.Course{}, false
	}

	c := core.Course{
		Name:        firstString(raw, "Unknown Course", "name", "title"),
		URL:         firstString(raw, "", "url", "link"),
		Category:    firstString(raw, "General", "category"),
		Rating:      cleanRating(raw.Get("rating")),
		Image:       firstString(raw, "", "image", "thumbnail"),
		Description: firstString(raw, "", "description", "summary"),
		Instructor:  firstString(raw, "Unknown", "instructor", "author"),
		Duration:    cleanDuration(raw.Get("duration")),
		Price:       firstString(raw, "Free", "price"),
		Discount:    firstString(raw, "100%", "discount"),
		Students:    firstInt(raw, "students", "enrollments"),
		Level:       firstString(raw, "All Levels", "level"),
		Language:    firstString(raw, "English", "language"),
		LastUpdated: firstString(raw, "", "last_updated", "updated_at"),
		Lectures:    firstInt(raw, "lectures", "lessons"),
		ExpiryDate:  firstString(raw, "", "expiry_date", "expires_at"),
		SaleStart:   firstString(raw, "", "sale_start", "saleStart"),
		SalePrice:   nonNegativeFloat(raw.Get("sale_price")),
		Views:       firstInt(raw, "views"),
	}

	if c.URL == "" {
		return core.Course{}, false
	}
	return c, true
}

// Items normalizes every element, silently dropping invalid records.
func Items(items []gjson.Result) []core.Course {
	courses := make([]core.Course, 0, len(items))
	for _, item := range items {
		if c, ok := Course(item); ok {
			courses = append(courses, c)
		}
	}
	return courses
}

// firstString returns the first non-empty value among the alias keys,
// stringifying numbers, or fallback when none resolves.
func firstString(raw gjson.Result, fallback string, keys ...string) string {
	for _, key := range keys {
		v := raw.Get(key)
		switch v.Type {
		case gjson.String:
			if v.Str != "" {
				return v.Str
			}
		case gjson.Number:
			if v.Num != 0 {
				return v.String()
			}
		}
	}
	return fallback
}

// firstInt returns the first positive integer among the alias keys, or zero.
func firstInt(raw gjson.Result, keys ...string) int {
	for _, key := range keys {
		v := raw.Get(key)
		if v.Type == gjson.Number || v.Type == gjson.String {
			if n := v.Int(); n > 0 {
				return int(n)
			}
		}
	}
	return 0
}

func nonNegativeFloat(v gjson.Result) float64 {
	if f := v.Float(); f > 0 {
		return f
	}
	return 0
}

// cleanRating renders a rating to one decimal place. Numeric strings have the
// first decimal number extracted ("4.5 stars" -> "4.5"); strings without a
// number pass through unchanged; anything else is "N/A".
func cleanRating(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return fmt.Sprintf("%.1f", v.Num)
	case gjson.String:
		if m := ratingPattern.FindString(v.Str); m != "" {
			return fmt.Sprintf("%.1f", gjson.Parse(m).Float())
		}
		if v.Str != "" {
			return v.Str
		}
	}
	return "N/A"
}

// cleanDuration interprets numeric durations as hours: fractions render as
// whole minutes, the rest as hours with one decimal place. String durations
// pass through untouched.
func cleanDuration(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		if v.Num < 1 {
			return fmt.Sprintf("%dm", int(v.Num*60))
		}
		return fmt.Sprintf("%.1fh", v.Num)
	case gjson.String:
		if v.Str != "" {
			return v.Str
		}
	}
	return "N/A"
}
