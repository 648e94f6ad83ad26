// Package cache maps dependency sources to stable, filesystem-safe
// directories under the user-global cache root.
//
// A pinned (url, rev) pair always resolves to the same directory. Without a
// pin the key tracks the remote's current latest stable tag, so it may move
// between runs; pin a revision for reproducible layouts.
package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cxxnode/cxxnode/internal/vcs"
)

// EnvCacheDir overrides the cache root directory when set.
const EnvCacheDir = "CXXNODE_CACHE_DIR"

// Dir returns the user-global cache root, creating it if needed.
func Dir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		return dir, nil
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(userCacheDir, ".cxxnode")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// TagLister is the remote tag lookup used when no revision is pinned.
// vcs.VCS satisfies it.
type TagLister interface {
	Tags(ctx context.Context, remote string) ([]string, error)
}

var _ TagLister = vcs.VCS(nil)

// Resolver computes cache paths for dependency sources. Tag lookups are
// memoized per remote URL for the lifetime of the resolver.
type Resolver struct {
	root string
	vcs  TagLister
	tags *lru.Cache[string, string]
}

// NewResolver creates a Resolver rooted at dir.
func NewResolver(dir string, lister TagLister) *Resolver {
	tags, _ := lru.New[string, string](64)
	return &Resolver{root: dir, vcs: lister, tags: tags}
}

// ResolvePath maps (url, rev) to the cache directory for that source.
//
// With rev given the result is a pure function of the inputs. Without rev
// the remote's tags are consulted and the highest stable tag wins; any
// lookup failure degrades silently to a "-main" suffix.
func (r *Resolver) ResolvePath(ctx context.Context, url, rev string) string {
	name := RepoName(url)
	if rev != "" {
		return filepath.Join(r.root, name+"-"+Sanitize(rev))
	}
	if tag := r.latestTag(ctx, url); tag != "" {
		return filepath.Join(r.root, name+"-"+Sanitize(tag))
	}
	return filepath.Join(r.root, name+"-main")
}

// latestTag returns the highest stable tag of the remote, or "" when the
// lookup fails or only pre-releases exist.
func (r *Resolver) latestTag(ctx context.Context, url string) string {
	if tag, ok := r.tags.Get(url); ok {
		return tag
	}
	tags, err := r.vcs.Tags(ctx, url)
	if err != nil {
		// Never fatal: the "-main" fallback keeps the build moving.
		slog.Warn("remote tag lookup failed", "url", url, "err", err)
		return ""
	}
	tag := LatestStable(tags)
	r.tags.Add(url, tag)
	return tag
}

// RepoName extracts the sanitized repository name from a URL.
func RepoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return Sanitize(name)
}

// reservedChars are replaced during sanitization; they are hostile to at
// least one supported filesystem.
const reservedChars = `/\:*?"<>|^{}`

// Sanitize makes a string safe for use as a path component. It is
// idempotent and never returns an empty string.
func Sanitize(name string) string {
	safe := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) {
			return '_'
		}
		return r
	}, name)
	safe = strings.Trim(safe, ". ")
	if safe == "" {
		return "default"
	}
	return safe
}
