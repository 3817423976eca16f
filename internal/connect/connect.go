// package connect resolves the MPD server address and produces an
// authenticated session holding every permission the client needs.
package connect

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/desertthunder/qfill/internal/mpd"
	"github.com/desertthunder/qfill/internal/shared"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 6600
)

// RequiredPermissions is the fixed set of MPD commands the client runs over a
// session's lifetime. Negotiation fails unless all of them are granted.
var RequiredPermissions = []string{"add", "status", "play", "pause", "idle"}

// Options are the flag-supplied connection settings. Empty values defer to the
// environment and built-in defaults.
type Options struct {
	Host string // may embed a password as "password@host"
	Port int
}

// Env looks up environment-style variables (MPD_HOST, MPD_PORT). Injected so
// tests can run hermetically; nil reads nothing.
type Env func(key string) string

// Prompter obtains a password interactively. nil disables prompting.
type Prompter func() (string, error)

// Resolve determines the target address and any embedded password.
// Precedence, highest first: flag host/port, MPD_HOST/MPD_PORT, then
// localhost:6600. The password travels with whichever host value won.
func Resolve(opts Options, env Env) (mpd.Address, string) {
	host, password := "", ""
	port := 0

	if env != nil {
		if v := env("MPD_HOST"); v != "" {
			host, password = splitHost(v)
		}
		if v := env("MPD_PORT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				port = n
			}
		}
	}

	if opts.Host != "" {
		host, password = splitHost(opts.Host)
	}
	if opts.Port > 0 {
		port = opts.Port
	}

	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		// Kept as a placeholder for socket addresses, which never use it.
		port = DefaultPort
	}

	return mpd.Address{Host: host, Port: port}, password
}

// splitHost separates an embedded password from a host value. Handled forms:
// "host", "password@host", "/path/socket", "password@/path/socket",
// "@abstract" and "password@@abstract".
func splitHost(v string) (host, password string) {
	if strings.HasPrefix(v, "@") {
		return v, ""
	}
	if strings.Contains(v, "@@") {
		parts := strings.SplitN(v, "@@", 2)
		return "@" + parts[1], parts[0]
	}
	if strings.Contains(v, "@") {
		parts := strings.SplitN(v, "@", 2)
		return parts[1], parts[0]
	}
	return v, ""
}

// Negotiate opens a session to the resolved address and verifies it holds
// every required permission.
//
// A supplied password (embedded in the host value) is presented before the
// permission check, and a failure there is final. When permissions are
// missing and no password was supplied, the prompter is invoked exactly once
// and the check repeats. Still-missing permissions fail the negotiation with
// an error naming them.
func Negotiate(ctx context.Context, dialer mpd.Dialer, opts Options, env Env, prompt Prompter, logger *log.Logger) (mpd.Session, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	addr, password := Resolve(opts, env)
	logger.Debug("connecting", "network", addr.Network(), "addr", addr.String())

	session, err := dialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	supplied := password != ""
	if supplied {
		if err := session.Authenticate(ctx, password); err != nil {
			session.Close()
			return nil, err
		}
	}

	missing, err := missingPermissions(ctx, session)
	if err != nil {
		session.Close()
		return nil, err
	}
	if len(missing) == 0 {
		return session, nil
	}

	if supplied || prompt == nil {
		session.Close()
		return nil, fmt.Errorf("%w: %s", shared.ErrPermission, strings.Join(missing, ", "))
	}

	logger.Debug("permissions missing, prompting for password", "missing", missing)
	password, err = prompt()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if err := session.Authenticate(ctx, password); err != nil {
		session.Close()
		return nil, err
	}

	missing, err = missingPermissions(ctx, session)
	if err != nil {
		session.Close()
		return nil, err
	}
	if len(missing) > 0 {
		session.Close()
		return nil, fmt.Errorf("%w: %s", shared.ErrPermission, strings.Join(missing, ", "))
	}
	return session, nil
}

// TerminalPrompter returns a Prompter reading from the controlling terminal
// with echo disabled.
func TerminalPrompter() Prompter {
	return func() (string, error) {
		fmt.Fprint(os.Stderr, "mpd password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

func missingPermissions(ctx context.Context, session mpd.Session) ([]string, error) {
	granted, err := session.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(granted))
	for _, name := range granted {
		allowed[name] = true
	}

	var missing []string
	for _, name := range RequiredPermissions {
		if !allowed[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
