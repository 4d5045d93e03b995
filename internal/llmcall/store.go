package llmcall

import (
	"time"
)

// QueryFilter specifies filters for listing calls.
type QueryFilter struct {
	AssetID   string
	ChapterID string
	AssetType string
	PromptKey string
	Provider  string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

func (f QueryFilter) match(c *Call) bool {
	if f.AssetID != "" && c.AssetID != f.AssetID {
		return false
	}
	if f.ChapterID != "" && c.ChapterID != f.ChapterID {
		return false
	}
	if f.AssetType != "" && c.AssetType != f.AssetType {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}

// Get retrieves a single call by ID. It returns nil when the call is unknown.
func (r *Recorder) Get(id string) *Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.calls {
		if r.calls[i].ID == id {
			c := r.calls[i]
			return &c
		}
	}
	return nil
}

// List returns calls matching the filter, newest first.
func (r *Recorder) List(filter QueryFilter) []Call {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Call{}
	skipped := 0
	for i := len(r.calls) - 1; i >= 0; i-- {
		c := &r.calls[i]
		if !filter.match(c) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, *c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// CountByPromptKey returns call counts grouped by prompt key.
func (r *Recorder) CountByPromptKey() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range r.calls {
		counts[c.PromptKey]++
	}
	return counts
}
