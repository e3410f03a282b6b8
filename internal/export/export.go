// Package export writes course lists to portable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"coursegrab/internal/core"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// FormatForPath picks a format from a filename extension, defaulting to the
// plain-text format like the desktop app did.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatText
	}
}

// Write encodes courses to w in the given format.
func Write(w io.Writer, format Format, courses []core.Course) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, courses)
	case FormatCSV:
		return writeCSV(w, courses)
	case FormatText:
		return writeText(w, courses)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeJSON(w io.Writer, courses []core.Course) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(courses)
}

var csvHeader = []string{
	"name", "url", "category", "rating", "image", "description", "instructor",
	"duration", "price", "discount", "students", "level", "language",
	"last_updated", "lectures", "expiry_date", "sale_start", "sale_price", "views",
}

func writeCSV(w io.Writer, courses []core.Course) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range courses {
		row := []string{
			c.Name, c.URL, c.Category, c.Rating, c.Image, c.Description,
			c.Instructor, c.Duration, c.Price, c.Discount,
			strconv.Itoa(c.Students), c.Level, c.Language, c.LastUpdated,
			strconv.Itoa(c.Lectures), c.ExpiryDate, c.SaleStart,
			strconv.FormatFloat(c.SalePrice, 'f', -1, 64), strconv.Itoa(c.Views),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeText(w io.Writer, courses []core.Course) error {
	for _, c := range courses {
		if _, err := fmt.Fprintf(w, "Title: %s\nCategory: %s\nRating: %s\nURL: %s\n%s\n",
			c.Name, c.Category, c.Rating, c.URL, strings.Repeat("-", 50)); err != nil {
			return err
		}
	}
	return nil
}
