//go:build linux

package privilege

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrNotElevated is returned when the process lacks root rights.
var ErrNotElevated = errors.New("must run as root")

// Guard checks the effective user once at the start of a run.
type Guard struct {
	euid func() int
}

func NewGuard() *Guard {
	return &Guard{euid: unix.Geteuid}
}

// NewGuardFor returns a Guard that sees the given effective uid.
func NewGuardFor(euid int) *Guard {
	return &Guard{euid: func() int { return euid }}
}

func (g *Guard) CheckElevatedPermissions() bool {
	return g.euid() == 0
}

func (g *Guard) EnsureElevated() error {
	if !g.CheckElevatedPermissions() {
		return ErrNotElevated
	}
	return nil
}
