package shuffle

import (
	"errors"
	"testing"

	"github.com/desertthunder/qfill/internal/shared"
)

func TestChain(t *testing.T) {
	t.Run("Pick", func(t *testing.T) {
		t.Run("fails on a chain with no pools", func(t *testing.T) {
			chain := New(DefaultWindow)

			_, err := chain.Pick()
			if err == nil {
				t.Fatal("expected error picking from empty chain")
			}
			if !errors.Is(err, shared.ErrEmptyChain) {
				t.Errorf("expected ErrEmptyChain, got %v", err)
			}
		})

		t.Run("only returns tracks that were added", func(t *testing.T) {
			chain := New(10)
			added := map[string]bool{
				"song_a": true,
				"song_b": true,
				"song_c": true,
				"song_d": true,
				"song_e": true,
			}
			for uri := range added {
				chain.Add(uri)
			}

			for i := 0; i < 500; i++ {
				uri, err := chain.Pick()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if !added[uri] {
					t.Fatalf("picked %q, which was never added", uri)
				}
			}
		})

		t.Run("covers every pool when window holds them all", func(t *testing.T) {
			chain := New(5)
			uris := []string{"song_a", "song_b", "song_c", "song_d", "song_e"}
			for _, uri := range uris {
				chain.Add(uri)
			}

			seen := map[string]bool{}
			for i := 0; i < 2000 && len(seen) < len(uris); i++ {
				uri, err := chain.Pick()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				seen[uri] = true
			}

			for _, uri := range uris {
				if !seen[uri] {
					t.Errorf("expected %q to be picked at least once", uri)
				}
			}
		})

		t.Run("does not consume the picked pool", func(t *testing.T) {
			chain := New(DefaultWindow)
			chain.Add("song_a")

			for i := 0; i < 10; i++ {
				uri, err := chain.Pick()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if uri != "song_a" {
					t.Fatalf("expected song_a, got %q", uri)
				}
			}
		})

		t.Run("finalizes an open pool", func(t *testing.T) {
			chain := New(DefaultWindow)
			chain.AddToCurrentPool("song_a")

			uri, err := chain.Pick()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if uri != "song_a" {
				t.Errorf("expected song_a, got %q", uri)
			}
		})
	})

	t.Run("pools carry equal weight regardless of size", func(t *testing.T) {
		chain := New(2)
		chain.Add("single")
		for i := 0; i < 100; i++ {
			chain.AddToCurrentPool("album_track")
		}
		chain.StartNewPool()

		const picks = 10000
		singles := 0
		for i := 0; i < picks; i++ {
			uri, err := chain.Pick()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if uri == "single" {
				singles++
			}
		}

		// Two pools, so the single-track pool should win about half the
		// picks. 40-60% leaves generous room for noise at 10k picks.
		fraction := float64(singles) / picks
		if fraction < 0.4 || fraction > 0.6 {
			t.Errorf("expected single pool to win ~50%% of picks, got %.1f%%", fraction*100)
		}
	})

	t.Run("window", func(t *testing.T) {
		t.Run("evicts the oldest pool permanently", func(t *testing.T) {
			chain := New(1)
			chain.Add("song_a")
			chain.Add("song_b")

			for i := 0; i < 50; i++ {
				uri, err := chain.Pick()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if uri != "song_b" {
					t.Fatalf("expected only song_b after eviction, got %q", uri)
				}
			}
		})

		t.Run("keeps every pool when sized to the pool count", func(t *testing.T) {
			chain := New(3)
			chain.Add("song_a")
			chain.Add("song_b")
			chain.Add("song_c")

			seen := map[string]bool{}
			for i := 0; i < 500; i++ {
				uri, err := chain.Pick()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				seen[uri] = true
			}
			if len(seen) != 3 {
				t.Errorf("expected all 3 pools eligible, saw %d", len(seen))
			}
		})
	})

	t.Run("Len", func(t *testing.T) {
		t.Run("counts all tracks ever added", func(t *testing.T) {
			chain := New(1)
			chain.Add("song_a")
			chain.AddToCurrentPool("song_b")
			chain.AddToCurrentPool("song_c")
			chain.StartNewPool()

			// song_a's pool has been evicted, but it still counts.
			if got := chain.Len(); got != 3 {
				t.Errorf("expected Len 3, got %d", got)
			}
		})

		t.Run("includes tracks in the open pool", func(t *testing.T) {
			chain := New(DefaultWindow)
			chain.AddToCurrentPool("song_a")

			if got := chain.Len(); got != 1 {
				t.Errorf("expected Len 1, got %d", got)
			}
		})
	})

	t.Run("New falls back to the default window", func(t *testing.T) {
		chain := New(0)
		if chain.window != DefaultWindow {
			t.Errorf("expected window %d, got %d", DefaultWindow, chain.window)
		}
	})
}
