package value

import "sync"

// ResourceURL is a document-relative resource reference. The resolved URI is
// cached per base location until SetRaw replaces the source string.
type ResourceURL struct {
	mu       sync.Mutex
	raw      string
	base     string
	resolved string
	cached   bool
}

// NewResourceURL returns a resource reference for raw.
func NewResourceURL(raw string) *ResourceURL {
	return &ResourceURL{raw: raw}
}

// Raw returns the source string.
func (r *ResourceURL) Raw() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raw
}

// SetRaw replaces the source string and drops the cached URI.
func (r *ResourceURL) SetRaw(raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if raw == r.raw {
		return
	}
	r.raw = raw
	r.cached = false
	r.resolved = ""
}

// Resolve returns the URI derived from base, calling derive only when the
// cache is empty or was filled for another base.
func (r *ResourceURL) Resolve(base string, derive func(base, raw string) (string, error)) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached && r.base == base {
		return r.resolved, nil
	}
	out, err := derive(base, r.raw)
	if err != nil {
		return "", err
	}
	r.base, r.resolved, r.cached = base, out, true
	return out, nil
}

func (r *ResourceURL) String() string {
	return r.Raw()
}
