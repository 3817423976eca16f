// gompd implementation of [Session]
package mpd

import (
	"context"
	"fmt"
	"strconv"

	gompd "github.com/fhs/gompd/v2/mpd"

	"github.com/desertthunder/qfill/internal/shared"
)

// subsystems the idle watcher subscribes to. "playlist" is MPD's name for the
// play queue subsystem.
var watchSubsystems = []string{"player", "playlist", "database"}

// Client implements [Session] over a gompd connection.
type Client struct {
	addr     Address
	conn     *gompd.Client
	password string
	watcher  *gompd.Watcher
}

// NetDialer dials real MPD servers over TCP or unix sockets.
type NetDialer struct{}

// Dial opens a command connection to the server at addr.
func (NetDialer) Dial(ctx context.Context, addr Address) (Session, error) {
	conn, err := gompd.Dial(addr.Network(), addr.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrConnect, addr.String(), err)
	}
	return &Client{addr: addr, conn: conn}, nil
}

// ensure revalidates the command connection, redialing if the server dropped
// it while we sat blocked on the idle watcher. MPD closes command connections
// that stay quiet past its connection_timeout.
func (c *Client) ensure() error {
	if c.conn != nil {
		if err := c.conn.Ping(); err == nil {
			return nil
		}
		c.conn.Close()
		c.conn = nil
	}

	conn, err := gompd.Dial(c.addr.Network(), c.addr.String())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrConnect, c.addr.String(), err)
	}
	if c.password != "" {
		if err := conn.Command("password %s", c.password).OK(); err != nil {
			conn.Close()
			return fmt.Errorf("%w: %v", shared.ErrAuth, err)
		}
	}
	c.conn = conn
	return nil
}

func (c *Client) Authenticate(ctx context.Context, password string) error {
	if err := c.ensure(); err != nil {
		return err
	}
	if err := c.conn.Command("password %s", password).OK(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuth, err)
	}
	c.password = password
	return nil
}

func (c *Client) Permissions(ctx context.Context) ([]string, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	commands, err := c.conn.Command("commands").Strings("command")
	if err != nil {
		return nil, fmt.Errorf("failed to list allowed commands: %w", err)
	}
	return commands, nil
}

func (c *Client) ListLibrary(ctx context.Context) ([]Song, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	attrs, err := c.conn.ListAllInfo("/")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLibraryFetch, err)
	}

	songs := make([]Song, 0, len(attrs))
	for _, entry := range attrs {
		// ListAllInfo interleaves directory and playlist entries; only
		// entries with a "file" key are songs.
		if _, ok := entry["file"]; !ok {
			continue
		}
		songs = append(songs, songFromAttrs(entry))
	}
	return songs, nil
}

func (c *Client) QueueState(ctx context.Context) (*State, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}

	status, err := c.conn.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read player status: %w", err)
	}

	state := &State{
		Position: NoPosition,
		Playing:  status["state"] == "play",
	}
	if raw, ok := status["song"]; ok {
		if pos, err := strconv.Atoi(raw); err == nil {
			state.Position = pos
		}
	}

	queue, err := c.conn.PlaylistInfo(-1, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	state.Queue = make([]Song, 0, len(queue))
	for _, entry := range queue {
		state.Queue = append(state.Queue, songFromAttrs(entry))
	}
	return state, nil
}

func (c *Client) Enqueue(ctx context.Context, uri string) error {
	if err := c.ensure(); err != nil {
		return err
	}
	if err := c.conn.Add(uri); err != nil {
		return fmt.Errorf("failed to enqueue %q: %w", uri, err)
	}
	return nil
}

func (c *Client) PlayAt(ctx context.Context, pos int) error {
	if err := c.ensure(); err != nil {
		return err
	}
	if err := c.conn.Play(pos); err != nil {
		return fmt.Errorf("failed to play position %d: %w", pos, err)
	}
	return nil
}

func (c *Client) Play(ctx context.Context) error {
	if err := c.ensure(); err != nil {
		return err
	}
	if err := c.conn.Play(-1); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

func (c *Client) AwaitChange(ctx context.Context) ([]string, error) {
	if c.watcher == nil {
		w, err := gompd.NewWatcher(c.addr.Network(), c.addr.String(), c.password, watchSubsystems...)
		if err != nil {
			return nil, fmt.Errorf("%w: idle watcher: %v", shared.ErrConnect, err)
		}
		c.watcher = w
	}

	select {
	case subsystem, ok := <-c.watcher.Event:
		if !ok {
			return nil, fmt.Errorf("%w: idle watcher closed", shared.ErrConnect)
		}
		return []string{subsystem}, nil
	case err := <-c.watcher.Error:
		return nil, fmt.Errorf("%w: idle watcher: %v", shared.ErrConnect, err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) Close() error {
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func songFromAttrs(attrs gompd.Attrs) Song {
	tags := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if k == "file" {
			continue
		}
		tags[k] = v
	}
	return Song{URI: attrs["file"], Tags: tags}
}
