package mount

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"isoburn/internal/command"
	"isoburn/internal/report"
)

// Orchestrator wraps the mount, format and unmount tools. Every operation
// reports a "<description>...done|fail" step on the sink.
type Orchestrator struct {
	runner command.Runner
	sink   report.Sink
	mounts MountChecker
}

func NewOrchestrator(runner command.Runner, sink report.Sink, mounts MountChecker) *Orchestrator {
	return &Orchestrator{runner: runner, sink: sink, mounts: mounts}
}

func (o *Orchestrator) step(ctx context.Context, description string, cmd command.Command) (command.Result, error) {
	o.sink.StepStarted(description)
	res, err := o.runner.Run(ctx, cmd)
	o.sink.StepFinished(description, err)
	return res, err
}

// EnsureMountPoints creates any missing mount point directory.
func (o *Orchestrator) EnsureMountPoints(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create mount point %s", p)
		}
	}
	return nil
}

// MountImage loop-mounts image read-only on mountPoint, unmounting whatever
// was there before.
func (o *Orchestrator) MountImage(ctx context.Context, image, mountPoint string) error {
	mounted, err := o.mounts.IsMountPoint(mountPoint)
	if err != nil {
		return errors.Wrapf(err, "failed to inspect mount point %s", mountPoint)
	}
	if mounted {
		if _, err := o.step(ctx, "unmounting previously mounted iso",
			command.New("umount", mountPoint)); err != nil {
			return err
		}
	}
	_, err = o.step(ctx, "mounting image", command.New("mount", "-o", "loop,ro", image, mountPoint))
	return err
}

// MeasureSize returns the apparent size in bytes of everything under dir.
func (o *Orchestrator) MeasureSize(ctx context.Context, dir string) (int64, error) {
	res, err := o.step(ctx, "getting size of mounted image", command.New("du", "-sb", dir))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) < 1 {
		return 0, errors.Errorf("unexpected du output: %q", res.Stdout)
	}
	size, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse du size")
	}
	return size, nil
}

// FormatPartition creates a FAT32 filesystem on device. -I skips the
// whole-disk safety prompt so mkfs.fat never waits for input.
func (o *Orchestrator) FormatPartition(ctx context.Context, device string) error {
	_, err := o.step(ctx, "formatting partition as fat32", command.New("mkfs.fat", "-F", "32", "-I", device))
	return err
}

func (o *Orchestrator) MountPartition(ctx context.Context, device, mountPoint string) error {
	_, err := o.step(ctx, "mounting "+device+" to "+mountPoint, command.New("mount", device, mountPoint))
	return err
}

// UnmountAs detaches a mount point or a device, reported as description.
func (o *Orchestrator) UnmountAs(ctx context.Context, description, target string) error {
	_, err := o.step(ctx, description, command.New("umount", target))
	return err
}
