package parser

import (
	"sync"
	"testing"
)

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}

	// Return to pool — must not panic.
	pool.Put(sp)
}

func TestParserPool_ReusesParsers(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp1 := pool.Get()
	pool.Put(sp1)

	// The sync.Pool may or may not return the exact same pointer (GC can
	// clear it), but it must return a valid, usable parser.
	sp2 := pool.Get()
	if sp2 == nil {
		t.Fatal("expected non-nil parser on second Get")
	}
	pool.Put(sp2)
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	// Put(nil) must be a no-op — must not panic.
	pool.Put(nil)
}

func TestParserPool_ParsesValidPython(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	src := []byte("from upstream import thing\n__all__ = [\"thing\"]\n")
	tree := sp.Parse(src, nil)
	if tree == nil {
		t.Fatal("expected non-nil parse tree for valid Python source")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		t.Fatalf("expected error-free root node, got hasError=%v", root.HasError())
	}
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	src := []byte("from upstream.mod import name\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}

	wg.Wait()
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	// Verify that Get() re-sets the language after Reset() was called.
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	sp.Reset() // Simulate external reset before Put.
	pool.Put(sp)

	// Next Get() should still return a parser with the language set.
	sp2 := pool.Get()
	defer pool.Put(sp2)

	src := []byte("import os\n")
	tree := sp2.Parse(src, nil)
	if tree == nil {
		t.Fatal("parser with reset language should still parse correctly after Get")
	}
	defer tree.Close()
}
