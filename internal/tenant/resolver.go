package tenant

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"tableside-order-services/internal/apperr"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// SlugFromHost extracts <slug> from "<slug>.<baseDomain>[:port]".
func SlugFromHost(host, baseDomain string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	base := strings.ToLower(strings.Trim(strings.TrimSpace(baseDomain), "."))
	if host == "" || base == "" {
		return "", false
	}
	suffix := "." + base
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}
	slug := strings.TrimSuffix(host, suffix)
	if strings.Contains(slug, ".") || !slugPattern.MatchString(slug) {
		return "", false
	}
	return slug, true
}

type Resolver struct {
	store         Store
	baseDomain    string
	overrideParam string
	allowOverride bool
	ttl           time.Duration

	mu    sync.Mutex
	cache map[string]cachedTenant
}

type cachedTenant struct {
	tenant  *Tenant
	expires time.Time
}

func NewResolver(store Store, baseDomain, overrideParam string, allowOverride bool) *Resolver {
	if overrideParam == "" {
		overrideParam = "tenant"
	}
	return &Resolver{
		store:         store,
		baseDomain:    baseDomain,
		overrideParam: overrideParam,
		allowOverride: allowOverride,
		ttl:           30 * time.Second,
		cache:         make(map[string]cachedTenant),
	}
}

// Slug picks the tenant slug for a request. The query override wins on
// non-production hosts only.
func (r *Resolver) Slug(host string, query url.Values) (string, bool) {
	if r.allowOverride {
		if v := strings.ToLower(strings.TrimSpace(query.Get(r.overrideParam))); v != "" && slugPattern.MatchString(v) {
			return v, true
		}
	}
	return SlugFromHost(host, r.baseDomain)
}

func (r *Resolver) Resolve(ctx context.Context, host string, query url.Values) (*Tenant, error) {
	slug, ok := r.Slug(host, query)
	if !ok {
		return nil, apperr.NotFound("TENANT_NOT_FOUND", "Business could not be determined from the address")
	}

	r.mu.Lock()
	cached, hit := r.cache[slug]
	r.mu.Unlock()
	if hit && time.Now().Before(cached.expires) {
		return cached.tenant, nil
	}

	t, err := r.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, apperr.Forbidden("Business is currently disabled")
	}

	r.mu.Lock()
	r.cache[slug] = cachedTenant{tenant: t, expires: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return t, nil
}

// Invalidate drops a cached tenant after its settings change.
func (r *Resolver) Invalidate(slug string) {
	r.mu.Lock()
	delete(r.cache, slug)
	r.mu.Unlock()
}

// SetTTL changes how long resolved tenants are cached.
func (r *Resolver) SetTTL(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.ttl = d
	r.mu.Unlock()
}
