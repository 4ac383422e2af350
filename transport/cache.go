package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/depshield/cache"
	"github.com/jonwraymond/depshield/resilience"
)

// CachingTransport is a read-through decorator over a Transport. Responses
// to idempotent requests (GET, HEAD) are served from the cache when fresh;
// everything else passes straight through. Only 2xx responses are stored.
//
// Cached entries decode back into *Response, so callers see the same
// concrete type on a hit as on a live call.
type CachingTransport struct {
	next   resilience.Transport
	name   string
	cache  cache.Cache
	keyer  cache.Keyer
	policy cache.Policy
}

// NewCachingTransport wraps next with read-through caching for the named
// dependency. The name scopes cache keys so dependencies sharing a store
// never collide.
func NewCachingTransport(name string, next resilience.Transport, c cache.Cache, policy cache.Policy) *CachingTransport {
	return &CachingTransport{
		next:   next,
		name:   name,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		policy: policy,
	}
}

// Send serves idempotent requests from the cache when possible, and stores
// successful responses for the policy's TTL. Cache failures never fail the
// call; they degrade to a pass-through.
func (t *CachingTransport) Send(ctx context.Context, req any, connectTimeout, readTimeout time.Duration) (any, error) {
	var r *Request
	switch v := req.(type) {
	case *Request:
		r = v
	case Request:
		r = &v
	}
	if r == nil || !idempotentMethod(r.Method) || !t.policy.ShouldCache() {
		return t.next.Send(ctx, req, connectTimeout, readTimeout)
	}

	key, keyErr := t.keyer.Key(t.name, r)
	if keyErr == nil {
		if raw, hit := t.cache.Get(ctx, key); hit {
			var resp Response
			if err := json.Unmarshal(raw, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	v, err := t.next.Send(ctx, req, connectTimeout, readTimeout)
	if err != nil {
		return v, err
	}

	if resp, isResp := v.(*Response); isResp && keyErr == nil && resp.StatusCode < http.StatusMultipleChoices {
		if raw, marshalErr := json.Marshal(resp); marshalErr == nil {
			_ = t.cache.Set(ctx, key, raw, t.policy.EffectiveTTL(0))
		}
	}

	return v, nil
}

// idempotentMethod reports whether responses to the method may be reused.
// The empty method is GET by convention.
func idempotentMethod(method string) bool {
	switch method {
	case "", http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

var _ resilience.Transport = (*CachingTransport)(nil)
