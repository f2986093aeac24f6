package runtime

import (
	"sync"
	"testing"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"hello", false},
		{"^[a-z]+$", false},
		{"(foo|bar)", false},
		{"\\d+", false},
		{"[invalid", true},
		{"(unclosed", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, err := Compile(tt.pattern)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for pattern %q", tt.pattern)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if re.Pattern() != tt.pattern {
				t.Errorf("Pattern() = %q, want %q", re.Pattern(), tt.pattern)
			}
		})
	}
}

func TestMustCompile(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for invalid pattern")
		}
	}()
	MustCompile("[invalid")
}

func TestMatchString(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"hello", "hello world", true},
		{"hello", "goodbye world", false},
		{"^hello", "say hello", false},
		{"[0-9]+", "abc123def", true},
		{"^$", "", true},
		{"foo|bar", "bar", true},
		{"foo|bar", "baz", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.input, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			if got := re.MatchString(tt.input); got != tt.want {
				t.Errorf("MatchString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindStringIndex(t *testing.T) {
	re := MustCompile("[0-9]+")
	got := re.FindStringIndex("abc123def")
	if len(got) != 2 || got[0] != 3 || got[1] != 6 {
		t.Errorf("FindStringIndex = %v, want [3 6]", got)
	}
	if got := re.FindStringIndex("abc"); got != nil {
		t.Errorf("FindStringIndex = %v, want nil", got)
	}
}

func TestFilter(t *testing.T) {
	all, err := Filter("")
	if err != nil {
		t.Fatal(err)
	}
	if !all("anything") {
		t.Error("empty filter should select every rule")
	}

	only, err := Filter("^spawn")
	if err != nil {
		t.Fatal(err)
	}
	if !only("spawn bots") || only("respawn") {
		t.Error("filter ^spawn selected the wrong rules")
	}

	if _, err := Filter("(bad"); err == nil {
		t.Error("expected error for invalid filter")
	}
}

func TestRegexCache(t *testing.T) {
	cache := NewRegexCache(3)

	if cache.Len() != 0 {
		t.Errorf("new cache Len() = %d, want 0", cache.Len())
	}

	re1, err := cache.Get("hello")
	if err != nil {
		t.Fatalf("Get(hello): %v", err)
	}
	re2, err := cache.Get("hello")
	if err != nil {
		t.Fatalf("Get(hello) again: %v", err)
	}
	if re1 != re2 {
		t.Error("expected same Regex instance from cache")
	}

	cache.Get("world")
	cache.Get("foo")
	if cache.Len() != 3 {
		t.Errorf("after 3 patterns, Len() = %d, want 3", cache.Len())
	}

	// oldest (hello) is evicted
	cache.Get("bar")
	if cache.Len() != 3 {
		t.Errorf("after eviction, Len() = %d, want 3", cache.Len())
	}
	re3, _ := cache.Get("hello")
	if re3 == re1 {
		t.Error("hello should have been evicted and recompiled")
	}

	if _, err := cache.Get("[invalid"); err == nil {
		t.Error("expected error for invalid pattern")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear(), Len() = %d, want 0", cache.Len())
	}
}

func TestRegexCacheConcurrency(t *testing.T) {
	cache := NewRegexCache(100)
	patterns := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	var wg sync.WaitGroup
	for i := range patterns {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := cache.Get(p); err != nil {
					t.Errorf("concurrent Get error: %v", err)
				}
			}
		}(patterns[i])
	}
	wg.Wait()

	if cache.Len() != len(patterns) {
		t.Errorf("Len() = %d, want %d", cache.Len(), len(patterns))
	}
}

func BenchmarkRegexCache(b *testing.B) {
	cache := NewRegexCache(100)
	cache.Get("hello")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get("hello")
	}
}
