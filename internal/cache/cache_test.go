package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"a/b\\c", "a_b_c"},
		{`we:ird*na?me"`, "we_ird_na_me_"},
		{"<angle>|pipe^caret", "_angle__pipe_caret"},
		{"{braces}", "_braces_"},
		{"..dotted..", "dotted"},
		{"  spaced  ", "spaced"},
		{"", "default"},
		{"...", "default"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Sanitizing twice must be a no-op.
			if got := Sanitize(Sanitize(tt.in)); got != tt.want {
				t.Errorf("Sanitize not idempotent for %q: got %q", tt.in, got)
			}
		})
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/fmtlib/fmt", "fmt"},
		{"https://github.com/fmtlib/fmt.git", "fmt"},
		{"https://github.com/fmtlib/fmt/", "fmt"},
		{"git@github.com:nlohmann/json.git", "json"},
		{"fmt", "fmt"},
	}
	for _, tt := range tests {
		if got := RepoName(tt.url); got != tt.want {
			t.Errorf("RepoName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

type fakeTagLister struct {
	tags  []string
	err   error
	calls int
}

func (f *fakeTagLister) Tags(ctx context.Context, remote string) ([]string, error) {
	f.calls++
	return f.tags, f.err
}

func TestResolvePathPinned(t *testing.T) {
	lister := &fakeTagLister{}
	r := NewResolver("/cache", lister)
	ctx := context.Background()

	got := r.ResolvePath(ctx, "https://github.com/fmtlib/fmt", "9.1.0")
	want := filepath.Join("/cache", "fmt-9.1.0")
	if got != want {
		t.Fatalf("ResolvePath = %q, want %q", got, want)
	}
	if lister.calls != 0 {
		t.Errorf("pinned resolution consulted remote tags %d times", lister.calls)
	}
	// Same inputs, same output.
	if again := r.ResolvePath(ctx, "https://github.com/fmtlib/fmt", "9.1.0"); again != got {
		t.Errorf("ResolvePath not stable: %q then %q", got, again)
	}
}

func TestResolvePathLatestTag(t *testing.T) {
	lister := &fakeTagLister{tags: []string{"v1.0.0", "v1.1.0-rc1", "v1.2.0"}}
	r := NewResolver("/cache", lister)

	got := r.ResolvePath(context.Background(), "https://github.com/acme/widget", "")
	want := filepath.Join("/cache", "widget-v1.2.0")
	if got != want {
		t.Fatalf("ResolvePath = %q, want %q (pre-release must not win)", got, want)
	}
}

func TestResolvePathTagLookupMemoized(t *testing.T) {
	lister := &fakeTagLister{tags: []string{"v2.0.0"}}
	r := NewResolver("/cache", lister)
	ctx := context.Background()

	r.ResolvePath(ctx, "https://github.com/acme/widget", "")
	r.ResolvePath(ctx, "https://github.com/acme/widget", "")
	if lister.calls != 1 {
		t.Errorf("tag lookup ran %d times, want 1", lister.calls)
	}
}

func TestResolvePathFallbackOnError(t *testing.T) {
	lister := &fakeTagLister{err: errors.New("network down")}
	r := NewResolver("/cache", lister)

	got := r.ResolvePath(context.Background(), "https://github.com/acme/widget", "")
	want := filepath.Join("/cache", "widget-main")
	if got != want {
		t.Fatalf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePathFallbackOnNoStableTags(t *testing.T) {
	lister := &fakeTagLister{tags: []string{"v1.0.0-alpha", "v1.0.0-beta.2"}}
	r := NewResolver("/cache", lister)

	got := r.ResolvePath(context.Background(), "https://github.com/acme/widget", "")
	want := filepath.Join("/cache", "widget-main")
	if got != want {
		t.Fatalf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePathSanitizesRev(t *testing.T) {
	r := NewResolver("/cache", &fakeTagLister{})
	got := r.ResolvePath(context.Background(), "https://github.com/acme/widget", "feature/new:thing")
	want := filepath.Join("/cache", "widget-feature_new_thing")
	if got != want {
		t.Fatalf("ResolvePath = %q, want %q", got, want)
	}
}
