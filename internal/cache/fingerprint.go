package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"coursegrab/internal/core"
)

// Fingerprint derives the deterministic cache filename for a query. Search
// terms can contain characters that are unsafe in filenames, so they
// contribute an 8-character hash suffix instead of appearing literally.
func Fingerprint(q core.Query) string {
	q = q.Normalized()
	if q.Search == "" {
		return fmt.Sprintf("%s_%s_%d.json", q.Category, q.Sort, q.Page)
	}
	hash := fmt.Sprintf("%016x", xxhash.Sum64String(q.Search))[:8]
	return fmt.Sprintf("%s_%s_%d_%s.json", q.Category, q.Sort, q.Page, hash)
}
