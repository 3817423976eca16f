// package library populates a shuffle chain from the MPD library or a file of
// URIs, applying the user's exclusion rules along the way.
package library

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/qfill/internal/mpd"
	"github.com/desertthunder/qfill/internal/rules"
	"github.com/desertthunder/qfill/internal/shared"
	"github.com/desertthunder/qfill/internal/shuffle"
)

// Builder fills shuffle chains with rule-filtered tracks.
type Builder struct {
	session mpd.Session
	rules   rules.Ruleset
	groupBy []string
	logger  *log.Logger
}

// NewBuilder creates a Builder. groupBy names the tags whose values group
// tracks into pools (e.g. ["album"]); when empty, every track becomes its own
// pool.
func NewBuilder(session mpd.Session, ruleset rules.Ruleset, groupBy []string, logger *log.Logger) *Builder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Builder{
		session: session,
		rules:   ruleset,
		groupBy: groupBy,
		logger:  logger,
	}
}

// FromLibrary fetches every song the server knows about and adds the ones
// passing the ruleset to the chain. A failed library fetch is an error; there
// would be nothing to shuffle.
func (b *Builder) FromLibrary(ctx context.Context, chain *shuffle.Chain) error {
	songs, err := b.session.ListLibrary(ctx)
	if err != nil {
		return err
	}

	accepted := make([]mpd.Song, 0, len(songs))
	for _, song := range songs {
		if !b.rules.Accepts(song.Tags) {
			b.logger.Debug("excluded by rule", "uri", song.URI)
			continue
		}
		accepted = append(accepted, song)
	}

	b.fill(chain, accepted)
	return nil
}

// FromFile reads newline-separated URIs from r and adds them to the chain.
//
// With verify=false every URI is trusted and added as-is; the caller vouches
// that each one is playable. With verify=true each URI is resolved against the
// server's library: URIs the server doesn't know are skipped (rule matching
// needs tag data only the library can supply), and known ones pass through
// the ruleset like a library build.
func (b *Builder) FromFile(ctx context.Context, r io.Reader, chain *shuffle.Chain, verify bool) error {
	uris, err := readURIs(r)
	if err != nil {
		return err
	}

	if !verify {
		for _, uri := range uris {
			chain.Add(uri)
		}
		return nil
	}

	songs, err := b.session.ListLibrary(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]mpd.Song, len(songs))
	for _, song := range songs {
		known[song.URI] = song
	}

	accepted := make([]mpd.Song, 0, len(uris))
	for _, uri := range uris {
		song, ok := known[uri]
		if !ok {
			b.logger.Debug("skipping URI not in library", "uri", uri)
			continue
		}
		if !b.rules.Accepts(song.Tags) {
			b.logger.Debug("excluded by rule", "uri", uri)
			continue
		}
		accepted = append(accepted, song)
	}

	b.fill(chain, accepted)
	return nil
}

// fill adds the songs to the chain, pooled by the group-by tags in
// first-seen order.
func (b *Builder) fill(chain *shuffle.Chain, songs []mpd.Song) {
	if len(b.groupBy) == 0 {
		for _, song := range songs {
			chain.Add(song.URI)
		}
		return
	}

	var order []string
	groups := make(map[string][]string)
	for _, song := range songs {
		key := b.groupKey(song)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], song.URI)
	}

	for _, key := range order {
		for _, uri := range groups[key] {
			chain.AddToCurrentPool(uri)
		}
		chain.StartNewPool()
	}
}

// groupKey derives the pool key for a song from the group-by tag values.
// Songs missing a tag group under the empty value for it.
func (b *Builder) groupKey(song mpd.Song) string {
	parts := make([]string, 0, len(b.groupBy))
	for _, tag := range b.groupBy {
		value, _ := song.Tag(tag)
		parts = append(parts, value)
	}
	return strings.Join(parts, "\x00")
}

func readURIs(r io.Reader) ([]string, error) {
	var uris []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		uri := strings.TrimSpace(scanner.Text())
		if uri == "" {
			continue
		}
		uris = append(uris, uri)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track list: %w", err)
	}
	return uris, nil
}
