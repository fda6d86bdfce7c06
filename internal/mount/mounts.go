package mount

import (
	"os"
	"path/filepath"

	"github.com/moby/sys/mountinfo"
	"github.com/pkg/errors"
)

// MountChecker answers whether a directory currently has something mounted
// on it.
type MountChecker interface {
	IsMountPoint(path string) (bool, error)
}

// KernelMounts asks the kernel mount table through mountinfo.
type KernelMounts struct {
	mounted func(path string) (bool, error)
}

func NewKernelMounts() *KernelMounts {
	return &KernelMounts{mounted: mountinfo.Mounted}
}

// IsMountPoint reports false for a path that does not exist yet.
func (k *KernelMounts) IsMountPoint(path string) (bool, error) {
	mounted, err := k.mounted(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to look up %s in the mount table", path)
	}
	return mounted, nil
}

var _ MountChecker = (*KernelMounts)(nil)
