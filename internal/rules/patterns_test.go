// internal/rules/patterns_test.go
package rules

import (
	"sync"
	"testing"
)

func TestPatternCache_ReusesCompiledInstance(t *testing.T) {
	cache := NewPatternCache()

	first, err := cache.Get("^The")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := cache.Get("^The")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first != second {
		t.Error("two lookups of the same pattern returned different instances")
	}
}

func TestPatternCache_InvalidPatternNotCached(t *testing.T) {
	cache := NewPatternCache()

	if _, err := cache.Get("[unclosed"); err == nil {
		t.Fatal("Get(invalid) error = nil, want compile error")
	}

	// The failure leaves no entry; a corrected pattern is a different key
	// and compiles cleanly.
	if _, err := cache.Get("[unclosed]"); err != nil {
		t.Fatalf("Get(corrected) error = %v, want nil", err)
	}

	// Retrying the invalid pattern still errors rather than serving a
	// stale failure or a wrong entry.
	if _, err := cache.Get("[unclosed"); err == nil {
		t.Fatal("Get(invalid) after correction = nil error, want compile error")
	}
}

func TestPatternCache_ConcurrentGetConverges(t *testing.T) {
	cache := NewPatternCache()

	const goroutines = 32
	results := make([]interface{}, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			re, err := cache.Get(`\d{4}`)
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			results[i] = re
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different compiled instance", i)
		}
	}
}
