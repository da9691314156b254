package resolver

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// archiveSeparator separates an archive location from the entry path in
// jar: and zip: URLs.
const archiveSeparator = "!/"

// ResolveResource resolves raw against base. Absolute URLs are returned
// unchanged. Archive bases (jar:, zip:) are joined as strings on their entry
// path; anything else follows RFC 3986 reference resolution.
func ResolveResource(base, raw string) (string, error) {
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw, nil
	}
	if base == "" {
		return "", fmt.Errorf("no base location")
	}
	if isArchive(base) {
		i := strings.LastIndex(base, archiveSeparator)
		entry := base[i+len(archiveSeparator):]
		dir := entry
		if !strings.HasSuffix(entry, "/") {
			dir = path.Dir(entry)
		}
		joined := path.Join(dir, raw)
		if strings.HasPrefix(raw, "/") {
			joined = path.Clean(raw)[1:]
		}
		if joined == ".." || strings.HasPrefix(joined, "../") {
			return "", fmt.Errorf("%q escapes the archive root", raw)
		}
		if joined == "." {
			joined = ""
		}
		return base[:i+len(archiveSeparator)] + joined, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	return b.ResolveReference(ref).String(), nil
}

func isArchive(base string) bool {
	scheme, _, ok := strings.Cut(base, ":")
	if !ok {
		return false
	}
	scheme = strings.ToLower(scheme)
	return (scheme == "jar" || scheme == "zip") && strings.Contains(base, archiveSeparator)
}
