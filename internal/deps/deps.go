// Package deps verifies that the external tools a write needs are installed.
package deps

import (
	"context"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"isoburn/internal/command"
)

// Required lists every tool a write shells out to.
var Required = []string{"lsblk", "mount", "umount", "mkfs.fat", "du"}

// TestedDosfstools is the oldest dosfstools release the format step was
// verified against.
const TestedDosfstools = ">= 4.1"

var ErrMissingDependency = errors.New("missing required dependency")

var versionRe = regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)?)\b`)

// Checker looks tools up on PATH and inspects their versions.
type Checker struct {
	runner   command.Runner
	lookPath func(string) (string, error)
}

func NewChecker(runner command.Runner) *Checker {
	return &Checker{runner: runner, lookPath: exec.LookPath}
}

// WithLookPath replaces the PATH lookup.
func (c *Checker) WithLookPath(lookPath func(string) (string, error)) *Checker {
	c.lookPath = lookPath
	return c
}

// Check fails on the first missing tool. Version mismatches are only
// returned as warnings.
func (c *Checker) Check(ctx context.Context) (warnings []string, err error) {
	for _, tool := range Required {
		if _, err := c.lookPath(tool); err != nil {
			return nil, errors.Wrap(ErrMissingDependency, tool)
		}
	}

	if w := c.checkDosfstools(ctx); w != "" {
		warnings = append(warnings, w)
	}
	return warnings, nil
}

func (c *Checker) checkDosfstools(ctx context.Context) string {
	res, err := c.runner.Run(ctx, command.New("mkfs.fat", "--version"))
	out := res.Stdout
	if out == "" {
		out = res.Stderr
	}
	v, perr := ParseVersion(out)
	if perr != nil {
		log.Ctx(ctx).Debug().Err(perr).AnErr("run_error", err).Str("output", out).Msg("unable to determine mkfs.fat version")
		return "Warning: unable to determine mkfs.fat version, this software has only been tested with dosfstools " + TestedDosfstools
	}

	constraint, cerr := semver.NewConstraint(TestedDosfstools)
	if cerr != nil {
		return ""
	}
	if !constraint.Check(v) {
		return "Warning: found dosfstools " + v.Original() + ", this software has only been tested with dosfstools " + TestedDosfstools
	}
	return ""
}

// ParseVersion extracts the first dotted version number from tool output,
// e.g. "mkfs.fat 4.2 (2021-01-31)".
func ParseVersion(out string) (*semver.Version, error) {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return nil, errors.Errorf("no version in %q", out)
	}
	return semver.NewVersion(m[1])
}
