// package rules implements tag-based exclusion matching for library tracks.
//
// A [Rule] is a conjunction of tag/pattern conditions; a [Ruleset] is a
// disjunction of rules. Tracks matching any rule in the set are excluded from
// the shuffle chain.
package rules

import (
	"fmt"
	"strings"

	"github.com/desertthunder/qfill/internal/shared"
)

type pattern struct {
	tag    string
	needle string
}

// Rule is a conjunction of tag/pattern pairs. A track matches the rule when
// every pattern is a case-insensitive substring of the track's value for that
// tag; a track missing a tag never matches that pattern.
//
// A rule with zero patterns matches every track. Callers building rulesets
// from user input must not construct one unless "exclude everything" is the
// intent.
type Rule struct {
	patterns []pattern
}

// AddPattern adds one conjunctive condition to the rule.
func (r *Rule) AddPattern(tag, value string) {
	r.patterns = append(r.patterns, pattern{
		tag:    tag,
		needle: strings.ToLower(value),
	})
}

// Len returns the number of patterns in the rule.
func (r Rule) Len() int {
	return len(r.patterns)
}

// Matches reports whether every pattern in the rule matches the given tags.
// Tag names are compared case-insensitively.
func (r Rule) Matches(tags map[string]string) bool {
	for _, p := range r.patterns {
		value, ok := lookupTag(tags, p.tag)
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(value), p.needle) {
			return false
		}
	}
	return true
}

// Ruleset is a set of exclusion rules. The zero value accepts everything.
type Ruleset []Rule

// Accepts reports whether a track with the given tags passes the ruleset,
// i.e. matches none of its rules.
func (rs Ruleset) Accepts(tags map[string]string) bool {
	for _, rule := range rs {
		if rule.Matches(tags) {
			return false
		}
	}
	return true
}

// FromPairs builds a rule from a tag→pattern map, as read from an [[exclude]]
// config table.
func FromPairs(pairs map[string]string) Rule {
	var rule Rule
	for tag, value := range pairs {
		rule.AddPattern(tag, value)
	}
	return rule
}

// Parse builds a rule from a flag value of the form
// "tag=pattern,tag=pattern". Whitespace around pairs is ignored.
func Parse(spec string) (Rule, error) {
	var rule Rule
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tag, value, ok := strings.Cut(pair, "=")
		if !ok || tag == "" || value == "" {
			return Rule{}, fmt.Errorf("%w: %q is not a tag=pattern pair", shared.ErrInvalidRule, pair)
		}
		rule.AddPattern(strings.TrimSpace(tag), strings.TrimSpace(value))
	}
	if rule.Len() == 0 {
		return Rule{}, fmt.Errorf("%w: %q contains no patterns", shared.ErrInvalidRule, spec)
	}
	return rule, nil
}

func lookupTag(tags map[string]string, name string) (string, bool) {
	for k, v := range tags {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
