package collab

import (
	"context"
	"encoding/json"

	"github.com/esgkit/factpanel/internal/cache"
)

// Cached wraps a Collaborator with a content-addressed cache keyed by
// (operation, input-hash). Every operation is idempotent, so a hit is always
// safe to serve; the external call only happens on a miss.
type Cached struct {
	next  Collaborator
	cache cache.Cache
}

// NewCached creates the caching wrapper. A nil cache disables caching.
func NewCached(next Collaborator, c cache.Cache) *Cached {
	return &Cached{next: next, cache: c}
}

// lookup deserializes a cached response into out. Returns false on miss or
// on an unreadable entry.
func (c *Cached) lookup(key string, out interface{}) bool {
	if c.cache == nil {
		return false
	}
	data, found := c.cache.Get(key)
	if !found {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *Cached) put(key string, resp interface{}) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = c.cache.Set(key, data, 0)
}

func requestKey(operation string, req interface{}) string {
	payload, err := json.Marshal(req)
	if err != nil {
		payload = []byte{}
	}
	return cache.Key(operation, payload)
}

// ExtractCandidates implements Collaborator.
func (c *Cached) ExtractCandidates(ctx context.Context, req *ExtractCandidatesRequest) (*ExtractCandidatesResponse, error) {
	key := requestKey(OpExtractCandidates, req)
	var cached ExtractCandidatesResponse
	if c.lookup(key, &cached) {
		return &cached, nil
	}

	resp, err := c.next.ExtractCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	c.put(key, resp)
	return resp, nil
}

// ResolveLineage implements Collaborator.
func (c *Cached) ResolveLineage(ctx context.Context, req *ResolveLineageRequest) (*ResolveLineageResponse, error) {
	key := requestKey(OpResolveLineage, req)
	var cached ResolveLineageResponse
	if c.lookup(key, &cached) {
		return &cached, nil
	}

	resp, err := c.next.ResolveLineage(ctx, req)
	if err != nil {
		return nil, err
	}
	// Empty resolutions are not cached: a broken link may heal when the
	// upstream store is refreshed.
	if !resp.Empty() {
		c.put(key, resp)
	}
	return resp, nil
}

// Verify implements Collaborator.
func (c *Cached) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	key := requestKey(OpVerify, req)
	var cached VerifyResponse
	if c.lookup(key, &cached) {
		return &cached, nil
	}

	resp, err := c.next.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	c.put(key, resp)
	return resp, nil
}

// StandardizeNames implements Collaborator.
func (c *Cached) StandardizeNames(ctx context.Context, req *StandardizeNamesRequest) (*StandardizeNamesResponse, error) {
	key := requestKey(OpStandardizeNames, req)
	var cached StandardizeNamesResponse
	if c.lookup(key, &cached) {
		return &cached, nil
	}

	resp, err := c.next.StandardizeNames(ctx, req)
	if err != nil {
		return nil, err
	}
	c.put(key, resp)
	return resp, nil
}

// ParseYear implements Collaborator.
func (c *Cached) ParseYear(ctx context.Context, req *ParseYearRequest) (*ParseYearResponse, error) {
	key := requestKey(OpParseYear, req)
	var cached ParseYearResponse
	if c.lookup(key, &cached) {
		return &cached, nil
	}

	resp, err := c.next.ParseYear(ctx, req)
	if err != nil {
		return nil, err
	}
	c.put(key, resp)
	return resp, nil
}
