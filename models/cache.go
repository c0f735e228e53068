package models

import "time"

// ResolutionCacheEntry maps a normalized IPO name to a registrar identifier.
// A nil Value records a lookup that found nothing.
type ResolutionCacheEntry struct {
	Key        string    `json:"key"`
	Value      *string   `json:"value"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Found reports whether the entry holds a positive resolution
func (e ResolutionCacheEntry) Found() bool {
	return e.Value != nil
}

// ResolutionCacheStats summarizes one registrar cache
type ResolutionCacheStats struct {
	Registrar RegistrarID `json:"registrar"`
	Size      int         `json:"size"`
	Positive  int         `json:"positive"`
	Negative  int         `json:"negative"`
	MaxSize   int         `json:"max_size"`
	TTL       string      `json:"ttl"`
	Hits      int64       `json:"hits"`
	Misses    int64       `json:"misses"`
	Evictions int64       `json:"evictions"`
}
