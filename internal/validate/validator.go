package validate

import (
	"context"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"isoburn/internal/partition"
	"isoburn/internal/prompt"
	"isoburn/internal/report"
)

const osDiskWarning = "Warning: it looks like the given partition is on the same disk as your OS.\n" +
	"This utility is designed to create REMOVABLE install media, but will format any\n" +
	"partition if it is available. However, creating bootable install media using a\n" +
	"partition on your primary disk is not recommended.\n" +
	"Do you wish to continue?"

type Lister interface {
	ListPartitions(ctx context.Context) (partition.Table, error)
}

type Unmounter interface {
	UnmountAs(ctx context.Context, description, target string) error
}

// Validator is the safety gate in front of any destructive step.
type Validator struct {
	lister    Lister
	prober    SpaceProber
	prompter  prompt.Prompter
	unmounter Unmounter
	sink      report.Sink
}

func New(lister Lister, prober SpaceProber, prompter prompt.Prompter, unmounter Unmounter) *Validator {
	return &Validator{
		lister:    lister,
		prober:    prober,
		prompter:  prompter,
		unmounter: unmounter,
		sink:      report.Nop{},
	}
}

// WithSink reports the partition listing step on sink.
func (v *Validator) WithSink(sink report.Sink) *Validator {
	v.sink = sink
	return v
}

// Validate checks image and device in a fixed order and stops at the first
// problem. On success the device is unmounted and ready to be formatted.
func (v *Validator) Validate(ctx context.Context, image, device string) error {
	if !strings.HasSuffix(image, ".iso") {
		return newError(ErrNotAnImage, "'%s' is not an ISO image", image)
	}

	info, err := os.Stat(image)
	if err != nil || !info.Mode().IsRegular() {
		return newError(ErrImageNotFound, "image '%s' does not exist", image)
	}

	v.sink.StepStarted("getting available partitions")
	table, err := v.lister.ListPartitions(ctx)
	v.sink.StepFinished("getting available partitions", err)
	if err != nil {
		return err
	}

	mountPoint, ok := table.MountPoint(device)
	if !ok {
		return newError(ErrDeviceNotFound, "partition '%s' does not exist", device)
	}

	if partition.IsCritical(mountPoint) {
		return newError(ErrUnsafeMount, "partition '%s' currently mounted as '%s'", device, mountPoint)
	}

	if err := CheckSpace(ctx, v.prober, image, info.Size(), device, mountPoint); err != nil {
		if !IsUnknown(err) {
			return err
		}
		log.Ctx(ctx).Debug().Err(err).Str("device", device).Msg("space check deferred until target is mounted")
	}

	if partition.IsOnSameDiskAsOS(device, table) {
		ok, err := v.prompter.Confirm(ctx, osDiskWarning)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeclined
		}
	}

	if mountPoint != "" {
		if err := v.unmounter.UnmountAs(ctx, "unmounting drive to be formatted", device); err != nil {
			return err
		}
	}
	return nil
}

// CheckSpace fails with ErrInsufficientSpace when fewer than need bytes are
// available on device. Exactly enough space passes.
func CheckSpace(ctx context.Context, prober SpaceProber, image string, need int64, device, mountPoint string) error {
	available, err := prober.Available(ctx, device, mountPoint)
	if err != nil {
		return errors.Wrapf(err, "failed to determine free space on '%s'", device)
	}
	if available < uint64(need) {
		return newError(ErrInsufficientSpace, "not enough space to copy '%s' onto '%s' (need %s, have %s)",
			image, device,
			datasize.ByteSize(need).HumanReadable(),
			datasize.ByteSize(available).HumanReadable())
	}
	return nil
}
