package validate

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/ricochet2200/go-disk-usage/du"
	"github.com/rs/zerolog/log"

	"isoburn/internal/partition"
)

// SpaceProber reports the bytes available for the image on device.
type SpaceProber interface {
	Available(ctx context.Context, device, mountPoint string) (uint64, error)
}

// CapacityFunc returns the raw size of an unmounted partition.
type CapacityFunc func(device string) (uint64, error)

// FilesystemProber statfs()s the mount point when the device is mounted and
// falls back to the raw partition size otherwise. The raw size is only an
// upper bound; the writer checks again once the fresh filesystem is mounted.
type FilesystemProber struct {
	capacity CapacityFunc
}

func NewFilesystemProber(capacity CapacityFunc) *FilesystemProber {
	return &FilesystemProber{capacity: capacity}
}

func (p *FilesystemProber) Available(ctx context.Context, device, mountPoint string) (uint64, error) {
	if mountPoint == "" {
		return p.capacity(device)
	}
	// du.NewDiskUsage swallows statfs errors, so check the path first
	if _, err := os.Stat(mountPoint); err != nil {
		return 0, errors.Wrapf(err, "failed to stat %s", mountPoint)
	}
	usage := du.NewDiskUsage(mountPoint)
	log.Ctx(ctx).Debug().
		Str("mount_point", mountPoint).
		Uint64("available", usage.Available()).
		Uint64("size", usage.Size()).
		Msg("filesystem usage")
	return usage.Available(), nil
}

var _ SpaceProber = (*FilesystemProber)(nil)

// IsUnknown reports whether a probe error only means the space could not be
// determined yet.
func IsUnknown(err error) bool {
	return errors.Is(err, partition.ErrCapacityUnknown)
}
