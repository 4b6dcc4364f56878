// Package etag derives conditional-cache fingerprints for Service records.
//
// A fingerprint is a fast content hash over a canonical serialization of the
// record: keys in sorted order, compact separators, no incidental
// whitespace. The same content always yields the same fingerprint, so a
// client holding one can revalidate with If-None-Match. The hash is
// non-cryptographic; it is a cache-validation token, not a security token.
//
// Fingerprints are recomputed per request and never cached server-side, so
// they always reflect the current record content.
package etag

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"

	"servicedir/internal/domain"
)

// CacheControl forces clients to revalidate on every request and keeps
// shared caches out entirely.
const CacheControl = "private, max-age=0, must-revalidate"

// Compute returns the fixed-length content fingerprint for a record.
func Compute(s domain.Service) string {
	// Maps marshal with sorted keys, which gives us the canonical form.
	canonical := map[string]string{
		"id":        s.ID,
		"type":      s.Type,
		"name":      s.Name,
		"address":   s.Address,
		"hours":     s.Hours,
		"phone":     s.Phone,
		"updatedAt": s.UpdatedAt.Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(canonical)
	if err != nil {
		// A map[string]string cannot fail to marshal.
		panic(err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}

// Match reports whether the If-None-Match precondition satisfies the
// current fingerprint. An empty precondition never matches.
func Match(ifNoneMatch, fingerprint string) bool {
	return ifNoneMatch != "" && ifNoneMatch == fingerprint
}

// SetHeaders writes the ETag and Cache-Control headers for a fingerprint.
// Both the 200 and 304 paths carry the identical header pair.
func SetHeaders(w http.ResponseWriter, fingerprint string) {
	w.Header().Set("ETag", fingerprint)
	w.Header().Set("Cache-Control", CacheControl)
}
