// package testing contains shared testing utilities
package testing

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/desertthunder/qfill/internal/mpd"
	"github.com/desertthunder/qfill/internal/shared"
)

// FakeSession is an in-memory stand-in for an MPD server implementing
// [mpd.Session].
type FakeSession struct {
	DB       []mpd.Song // songs the fake server knows about
	Queue    []mpd.Song
	Position int
	Playing  bool

	// Users maps passwords to the permission sets they grant. Authenticate
	// fails for passwords not present.
	Users map[string][]string
	// Granted is the permission set of the current connection.
	Granted []string

	// IdleEvents supplies the subsystems reported by the next AwaitChange
	// call. Defaults to a single "playlist" event.
	IdleEvents func() []string

	// ListErr, when set, makes ListLibrary fail.
	ListErr error

	AuthCalls int
	Closed    bool
}

// NewFakeSession creates a fake whose connection starts with every permission
// the client requires.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		Position: mpd.NoPosition,
		Granted:  []string{"add", "status", "play", "pause", "idle"},
	}
}

// AddToDB registers a song in the fake server's library.
func (f *FakeSession) AddToDB(uri string, tags map[string]string) {
	f.DB = append(f.DB, mpd.Song{URI: uri, Tags: tags})
}

func (f *FakeSession) Authenticate(ctx context.Context, password string) error {
	f.AuthCalls++
	granted, ok := f.Users[password]
	if !ok {
		return fmt.Errorf("%w: incorrect password", shared.ErrAuth)
	}
	f.Granted = granted
	return nil
}

func (f *FakeSession) Permissions(ctx context.Context) ([]string, error) {
	return append([]string{}, f.Granted...), nil
}

func (f *FakeSession) ListLibrary(ctx context.Context) ([]mpd.Song, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]mpd.Song{}, f.DB...), nil
}

func (f *FakeSession) QueueState(ctx context.Context) (*mpd.State, error) {
	return &mpd.State{
		Queue:    append([]mpd.Song{}, f.Queue...),
		Position: f.Position,
		Playing:  f.Playing,
	}, nil
}

func (f *FakeSession) Enqueue(ctx context.Context, uri string) error {
	for _, song := range f.DB {
		if song.URI == uri {
			f.Queue = append(f.Queue, song)
			return nil
		}
	}
	f.Queue = append(f.Queue, mpd.Song{URI: uri})
	return nil
}

func (f *FakeSession) PlayAt(ctx context.Context, pos int) error {
	f.Position = pos
	return nil
}

func (f *FakeSession) Play(ctx context.Context) error {
	f.Playing = true
	return nil
}

func (f *FakeSession) AwaitChange(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.IdleEvents != nil {
		return f.IdleEvents(), nil
	}
	return []string{"playlist"}, nil
}

func (f *FakeSession) Close() error {
	f.Closed = true
	return nil
}

// FakeDialer hands out a prepared session and records how it was dialed.
type FakeDialer struct {
	Session  *FakeSession
	Err      error
	LastAddr mpd.Address
	Calls    int
}

func (d *FakeDialer) Dial(ctx context.Context, addr mpd.Address) (mpd.Session, error) {
	d.Calls++
	d.LastAddr = addr
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Session, nil
}

// PromptRecorder is a password prompter that counts its invocations.
type PromptRecorder struct {
	Password string
	Calls    int
}

func (p *PromptRecorder) Prompt() (string, error) {
	p.Calls++
	return p.Password, nil
}

// FailingPrompter returns a prompter that fails the test when invoked.
func FailingPrompter(t *testing.T) func() (string, error) {
	return func() (string, error) {
		t.Fatal("password prompt invoked unexpectedly")
		return "", nil
	}
}

// MapEnv returns an environment lookup backed by the given map.
func MapEnv(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

// LoopOnce returns a done predicate that permits exactly n wake cycles.
func LoopOnce(n int) func() bool {
	count := 0
	return func() bool {
		count++
		return count > n
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
