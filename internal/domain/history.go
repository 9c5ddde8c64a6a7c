package domain

import (
	"time"
)

// DispatchKind identifies which workflow a dispatch targeted.
type DispatchKind string

const (
	DispatchKindISO     DispatchKind = "iso"
	DispatchKindPackage DispatchKind = "package"
)

// DispatchRecord is one entry of the local dispatch history.
type DispatchRecord struct {
	ID         string         `json:"id"`
	Kind       DispatchKind   `json:"kind"`
	Owner      string         `json:"owner"`
	Repo       string         `json:"repo"`
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload,omitempty"`
	DispatchAt time.Time      `json:"dispatched_at"`
}

// DispatchHistory is the persisted list of dispatches, oldest first.
type DispatchHistory struct {
	Records []DispatchRecord `json:"records"`
}

// Append adds a record and trims the history to at most limit entries.
func (h *DispatchHistory) Append(rec DispatchRecord, limit int) {
	h.Records = append(h.Records, rec)
	if limit > 0 && len(h.Records) > limit {
		h.Records = h.Records[len(h.Records)-limit:]
	}
}

// Latest returns up to n records, newest first.
func (h *DispatchHistory) Latest(n int) []DispatchRecord {
	if n <= 0 || n > len(h.Records) {
		n = len(h.Records)
	}
	out := make([]DispatchRecord, 0, n)
	for i := len(h.Records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.Records[i])
	}
	return out
}

// DistinctEventTypes counts the distinct event types per owner/repo pair.
func (h *DispatchHistory) DistinctEventTypes(owner, repo string) int {
	seen := make(map[string]struct{})
	for _, r := range h.Records {
		if r.Owner == owner && r.Repo == repo {
			seen[r.EventType] = struct{}{}
		}
	}
	return len(seen)
}
