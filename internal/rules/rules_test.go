package rules

import (
	"errors"
	"testing"

	"github.com/desertthunder/qfill/internal/shared"
)

func TestRule(t *testing.T) {
	t.Run("Matches", func(t *testing.T) {
		t.Run("requires every pattern to match", func(t *testing.T) {
			var rule Rule
			rule.AddPattern("artist", "metallica")
			rule.AddPattern("album", "load")

			tags := map[string]string{"Artist": "Metallica", "Album": "Reload"}
			if !rule.Matches(tags) {
				t.Error("expected rule to match when all patterns match")
			}

			tags = map[string]string{"Artist": "Metallica", "Album": "Kill 'Em All"}
			if rule.Matches(tags) {
				t.Error("expected rule not to match when one pattern misses")
			}
		})

		t.Run("matches substrings case-insensitively", func(t *testing.T) {
			var rule Rule
			rule.AddPattern("artist", "HEAD")

			if !rule.Matches(map[string]string{"Artist": "Radiohead"}) {
				t.Error("expected case-insensitive substring match")
			}
		})

		t.Run("never matches a missing tag", func(t *testing.T) {
			var rule Rule
			rule.AddPattern("genre", "jazz")

			if rule.Matches(map[string]string{"Artist": "Jazz Band"}) {
				t.Error("expected rule not to match a track without the tag")
			}
		})

		t.Run("zero patterns match every track", func(t *testing.T) {
			var rule Rule

			if !rule.Matches(map[string]string{"Artist": "anyone"}) {
				t.Error("expected empty rule to match everything")
			}
			if !rule.Matches(nil) {
				t.Error("expected empty rule to match a track with no tags")
			}
		})
	})
}

func TestRuleset(t *testing.T) {
	t.Run("empty ruleset accepts everything", func(t *testing.T) {
		var rs Ruleset

		if !rs.Accepts(map[string]string{"Artist": "anyone"}) {
			t.Error("expected empty ruleset to accept")
		}
	})

	t.Run("excludes tracks matching any rule", func(t *testing.T) {
		var byArtist, byAlbum Rule
		byArtist.AddPattern("artist", "aerosmith")
		byAlbum.AddPattern("album", "live")
		rs := Ruleset{byArtist, byAlbum}

		if rs.Accepts(map[string]string{"Artist": "Aerosmith", "Album": "Pump"}) {
			t.Error("expected track matching first rule to be excluded")
		}
		if rs.Accepts(map[string]string{"Artist": "Nirvana", "Album": "Live at Reading"}) {
			t.Error("expected track matching second rule to be excluded")
		}
	})

	t.Run("accepts tracks matching all-but-one pattern of every rule", func(t *testing.T) {
		var first, second Rule
		first.AddPattern("artist", "aerosmith")
		first.AddPattern("album", "pump")
		second.AddPattern("artist", "nirvana")
		second.AddPattern("album", "bleach")
		rs := Ruleset{first, second}

		tags := map[string]string{"Artist": "Aerosmith", "Album": "Bleach"}
		if !rs.Accepts(tags) {
			t.Error("expected track to be accepted when no rule fully matches")
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("parses tag=pattern pairs", func(t *testing.T) {
		rule, err := Parse("artist=Aerosmith, album=Live")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rule.Len() != 2 {
			t.Fatalf("expected 2 patterns, got %d", rule.Len())
		}
		if !rule.Matches(map[string]string{"Artist": "Aerosmith", "Album": "Live! Bootleg"}) {
			t.Error("expected parsed rule to match")
		}
	})

	t.Run("rejects values without a pattern", func(t *testing.T) {
		for _, spec := range []string{"artist", "=live", "artist=", ""} {
			if _, err := Parse(spec); !errors.Is(err, shared.ErrInvalidRule) {
				t.Errorf("Parse(%q): expected ErrInvalidRule, got %v", spec, err)
			}
		}
	})
}

func TestFromPairs(t *testing.T) {
	rule := FromPairs(map[string]string{"artist": "X", "album": "Y"})
	if rule.Len() != 2 {
		t.Fatalf("expected 2 patterns, got %d", rule.Len())
	}
	if !rule.Matches(map[string]string{"Artist": "X", "Album": "Y"}) {
		t.Error("expected rule from pairs to match")
	}
}
