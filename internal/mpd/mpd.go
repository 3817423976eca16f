// package mpd defines the session abstraction for talking to an MPD server
//
// The [Session] interface covers the handful of operations the rest of the
// program needs: authentication, permission listing, library and queue reads,
// enqueueing, playback control and the blocking idle wait. [Client] implements
// it over gompd.
package mpd

import (
	"context"
	"net"
	"strconv"
	"strings"
)

// Song represents a playable item: a URI plus its tag values (artist, album, ...).
type Song struct {
	URI  string
	Tags map[string]string
}

// Tag returns the value for the given tag name, matched case-insensitively.
// The second return is false when the song carries no such tag.
func (s Song) Tag(name string) (string, bool) {
	for k, v := range s.Tags {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Address identifies an MPD server endpoint. Hosts containing a "/" or
// starting with "@" are unix socket paths; the port is ignored for those.
type Address struct {
	Host string
	Port int
}

// IsSocket reports whether the address refers to a unix socket rather than a
// TCP host.
func (a Address) IsSocket() bool {
	return strings.HasPrefix(a.Host, "@") || strings.Contains(a.Host, "/")
}

// Network returns the network name to dial with ("unix" or "tcp").
func (a Address) Network() string {
	if a.IsSocket() {
		return "unix"
	}
	return "tcp"
}

// String returns the dialable address representation.
func (a Address) String() string {
	if a.IsSocket() {
		return a.Host
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// NoPosition marks a State with no current song (stopped with nothing
// selected, or playback fell off the end of the queue).
const NoPosition = -1

// State is a snapshot of the player and queue as last reported by the server.
type State struct {
	Queue    []Song
	Position int // index into Queue, or NoPosition
	Playing  bool
}

// AtEnd reports whether the position is at or past the last queued song,
// including the no-position case.
func (s *State) AtEnd() bool {
	return s.Position == NoPosition || s.Position+1 >= len(s.Queue)
}

// Session is an open connection to an MPD server.
type Session interface {
	// Authenticate presents a password to the server.
	Authenticate(ctx context.Context, password string) error

	// Permissions returns the command names the current connection is allowed
	// to run.
	Permissions(ctx context.Context) ([]string, error)

	// ListLibrary returns every song the server knows about, with tags.
	ListLibrary(ctx context.Context) ([]Song, error)

	// QueueState returns a snapshot of the queue and player state.
	QueueState(ctx context.Context) (*State, error)

	// Enqueue appends the song with the given URI to the end of the queue.
	Enqueue(ctx context.Context, uri string) error

	// PlayAt starts playback at the given queue position.
	PlayAt(ctx context.Context, pos int) error

	// Play starts or resumes playback at the current position.
	Play(ctx context.Context) error

	// AwaitChange blocks until the server reports a queue-, player- or
	// database-relevant change, returning the changed subsystem names. It
	// returns the context's error when the context is cancelled first.
	AwaitChange(ctx context.Context) ([]string, error)

	// Close releases the connection.
	Close() error
}

// Dialer opens sessions. The indirection exists so tests can hand the
// negotiator a fake server.
type Dialer interface {
	Dial(ctx context.Context, addr Address) (Session, error)
}
