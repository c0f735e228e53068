package services

import (
	"context"
	"sync"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/sirupsen/logrus"
)

// IdentifierResolver maps a free-text IPO name to a registrar's company code
type IdentifierResolver interface {
	Resolve(ctx context.Context, registrar models.RegistrarID, rawName string) (string, bool)
}

// ResolverConfig bounds the per-registrar caches
type ResolverConfig struct {
	CacheTTL     time.Duration
	CacheMaxSize int
	Snapshots    *ListingSnapshotCache
}

// RegistrarResolver resolves names against each registrar's listing sources, caching both
// hits and misses per registrar.
type RegistrarResolver struct {
	config  ResolverConfig
	utility *UtilityService
	matcher *NameMatcher

	mutex   sync.RWMutex
	caches  map[models.RegistrarID]*ResolutionCache
	sources map[models.RegistrarID][]ListingSource
	order   []models.RegistrarID
}

// NewRegistrarResolver creates a resolver with no registrars
func NewRegistrarResolver(config ResolverConfig) *RegistrarResolver {
	utility := NewUtilityService()
	return &RegistrarResolver{
		config:  config,
		utility: utility,
		matcher: NewNameMatcher(utility),
		caches:  make(map[models.RegistrarID]*ResolutionCache),
		sources: make(map[models.RegistrarID][]ListingSource),
	}
}

// Register gives a registrar its own cache and an ordered list of listing sources
func (r *RegistrarResolver) Register(registrar models.RegistrarID, sources ...ListingSource) *ResolutionCache {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cache, exists := r.caches[registrar]
	if !exists {
		cache = NewResolutionCache(registrar, r.config.CacheTTL, r.config.CacheMaxSize)
		r.caches[registrar] = cache
		r.order = append(r.order, registrar)
	}
	r.sources[registrar] = append(r.sources[registrar], sources...)
	return cache
}

// Cache returns the registrar's cache
func (r *RegistrarResolver) Cache(registrar models.RegistrarID) (*ResolutionCache, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	cache, ok := r.caches[registrar]
	return cache, ok
}

// Caches returns every cache in registration order
func (r *RegistrarResolver) Caches() []*ResolutionCache {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	caches := make([]*ResolutionCache, 0, len(r.order))
	for _, registrar := range r.order {
		caches = append(caches, r.caches[registrar])
	}
	return caches
}

// Resolve never fails: unreachable listings and unmatched names both report false.
// A miss is cached only when at least one listing source answered.
func (r *RegistrarResolver) Resolve(ctx context.Context, registrar models.RegistrarID, rawName string) (string, bool) {
	key := r.utility.NormalizeIPOName(rawName)
	if key == "" {
		return "", false
	}

	r.mutex.RLock()
	cache := r.caches[registrar]
	sources := r.sources[registrar]
	r.mutex.RUnlock()

	logger := logrus.WithFields(logrus.Fields{
		"component": "IdentifierResolver",
		"registrar": registrar,
		"ipo_name":  key,
	})

	if cache == nil {
		logger.Warn("Registrar has no listing sources registered")
		shared.RecordResolutionLookup(string(registrar), "unresolved")
		return "", false
	}

	if entry, ok := cache.Get(key); ok {
		if entry.Found() {
			shared.RecordResolutionLookup(string(registrar), "hit")
			return *entry.Value, true
		}
		shared.RecordResolutionLookup(string(registrar), "negative_hit")
		return "", false
	}

	reachable := false
	for _, source := range sources {
		candidates, err := r.candidates(ctx, registrar, source)
		if err != nil {
			logger.WithError(err).WithField("source", source.Name()).Warn("Listing source unreachable, skipping")
			continue
		}
		reachable = true

		candidate, stage, ok := r.matcher.Match(rawName, candidates)
		if !ok {
			continue
		}

		logger.WithFields(logrus.Fields{
			"source":     source.Name(),
			"stage":      stage,
			"identifier": candidate.Value,
			"label":      candidate.Label,
		}).Debug("Resolved IPO name")
		value := candidate.Value
		cache.Put(key, &value)
		shared.RecordResolutionLookup(string(registrar), "resolved")
		return value, true
	}

	if reachable {
		cache.Put(key, nil)
	}
	logger.WithField("reachable", reachable).Info("IPO name did not resolve")
	shared.RecordResolutionLookup(string(registrar), "unresolved")
	return "", false
}

func (r *RegistrarResolver) candidates(ctx context.Context, registrar models.RegistrarID, source ListingSource) ([]ListingCandidate, error) {
	if snapshot, ok := r.config.Snapshots.Get(registrar, source); ok {
		shared.RecordListingFetch(string(registrar), "cached")
		return snapshot, nil
	}

	candidates, err := source.FetchCandidates(ctx)
	if err != nil {
		shared.RecordListingFetch(string(registrar), "unreachable")
		return nil, err
	}
	shared.RecordListingFetch(string(registrar), "ok")
	r.config.Snapshots.Add(registrar, source, candidates)
	return candidates, nil
}

// ClearCaches empties every resolution cache and listing snapshot
func (r *RegistrarResolver) ClearCaches() int {
	removed := 0
	for _, cache := range r.Caches() {
		removed += cache.Clear()
	}
	r.config.Snapshots.Purge()
	return removed
}

// SweepCaches drops expired entries from every cache
func (r *RegistrarResolver) SweepCaches() int {
	removed := 0
	for _, cache := range r.Caches() {
		removed += cache.EvictExpired()
	}
	return removed
}

// CacheStats returns per-registrar cache statistics in registration order
func (r *RegistrarResolver) CacheStats() []models.ResolutionCacheStats {
	caches := r.Caches()
	stats := make([]models.ResolutionCacheStats, 0, len(caches))
	for _, cache := range caches {
		stats = append(stats, cache.Stats())
	}
	return stats
}

// resolveIdentifier passes numeric codes through and resolves names otherwise
func resolveIdentifier(ctx context.Context, resolver IdentifierResolver, registrar models.RegistrarID, identifier string) (string, bool) {
	if models.IsNumericIdentifier(identifier) {
		return identifier, true
	}
	if resolver == nil {
		return "", false
	}
	return resolver.Resolve(ctx, registrar, identifier)
}
