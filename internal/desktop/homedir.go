// Package desktop holds the toolkit-independent parts of the graphical front
// end: locating the invoking user's files, building the partition picker and
// turning run events into what the window shows.
package desktop

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"isoburn/internal/command"
)

const fallbackHome = "/home"

// Homes finds the home directory of the person who started the program,
// which under sudo or pkexec is not $HOME.
type Homes struct {
	runner command.Runner
	getenv func(string) string
	home   func() (string, error)
}

func NewHomes(runner command.Runner) *Homes {
	return &Homes{runner: runner, getenv: os.Getenv, home: os.UserHomeDir}
}

// Directory never fails; it falls back to /home.
func (h *Homes) Directory(ctx context.Context) string {
	if dir, err := h.home(); err == nil && dir != "" && IsHomeDir(dir) {
		return dir
	}

	if user := h.getenv("SUDO_USER"); user != "" {
		if dir := h.lookup(ctx, user); dir != "" {
			return dir
		}
	}
	if uid := h.getenv("PKEXEC_UID"); uid != "" {
		if dir := h.lookup(ctx, uid); dir != "" {
			return dir
		}
	}

	// first regular user with something that looks like a home
	res, err := h.runner.Run(ctx, command.New("getent", "passwd"))
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("getent passwd failed")
		return fallbackHome
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		uid, dir, ok := ParsePasswd(line)
		if ok && uid >= 1000 && dir != "/root" && IsHomeDir(dir) {
			return dir
		}
	}
	return fallbackHome
}

func (h *Homes) lookup(ctx context.Context, key string) string {
	res, err := h.runner.Run(ctx, command.New("getent", "passwd", key))
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("user", key).Msg("getent passwd failed")
		return ""
	}
	_, dir, ok := ParsePasswd(strings.TrimSpace(res.Stdout))
	if !ok {
		return ""
	}
	return dir
}

// ParsePasswd returns the uid and home directory of one passwd(5) line.
func ParsePasswd(line string) (uid int, home string, ok bool) {
	fields := strings.Split(line, ":")
	if len(fields) < 6 {
		return 0, "", false
	}
	uid, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, "", false
	}
	return uid, fields[5], true
}

// IsHomeDir reports whether dir is a directory holding one of the usual
// desktop folders.
func IsHomeDir(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil || !stat.IsDir() {
		return false
	}
	for _, sub := range []string{"Downloads", "Documents", "Desktop"} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err == nil {
			return true
		}
	}
	return false
}
