package helpers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ParseTimeRange reads the start and end query parameters as RFC 3339 timestamps.
// Both are required and end must not precede start.
func ParseTimeRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	rawStart, rawEnd := q.Get("start"), q.Get("end")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end query parameters are required")
	}
	if start, err = time.Parse(time.RFC3339, rawStart); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start must be an RFC 3339 timestamp")
	}
	if end, err = time.Parse(time.RFC3339, rawEnd); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end must be an RFC 3339 timestamp")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end must not be before start")
	}
	return start, end, nil
}

// PathID returns the named path value in canonical UUID form. On failure it
// writes a 400 and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id.String(), true
}

// CanonicalIDs rewrites each id in the lowercase hyphenated form the store returns.
// Ids that do not parse are kept as given; request validation rejects them first.
func CanonicalIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, raw := range ids {
		if id, err := uuid.Parse(raw); err == nil {
			raw = id.String()
		}
		out[i] = raw
	}
	return out
}
