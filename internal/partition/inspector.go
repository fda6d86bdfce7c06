package partition

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/block"
	"github.com/pkg/errors"

	"isoburn/internal/command"
)

// ErrCapacityUnknown is returned by Capacity when the partition does not show
// up in sysfs.
var ErrCapacityUnknown = errors.New("partition capacity unknown")

// Inspector queries the machine's block devices.
type Inspector struct {
	runner command.Runner
	// blockInfo is swapped out in tests
	blockInfo func() (*block.Info, error)
}

func NewInspector(runner command.Runner) *Inspector {
	return &Inspector{
		runner: runner,
		blockInfo: func() (*block.Info, error) {
			return block.New(ghw.WithDisableTools())
		},
	}
}

// ListPartitions runs lsblk and returns every partition with its mount point.
func (i *Inspector) ListPartitions(ctx context.Context) (Table, error) {
	res, err := i.runner.Run(ctx, command.New("lsblk",
		"--list", "--noheadings", "--pairs", "--output", "NAME,TYPE,MOUNTPOINT"))
	if err != nil {
		return nil, err
	}
	return ParseTable(res.Stdout), nil
}

// Capacity returns the raw size of a partition in bytes.
func (i *Inspector) Capacity(device string) (uint64, error) {
	info, err := i.blockInfo()
	if err != nil {
		return 0, errors.Wrap(err, "error detecting block devices")
	}
	for _, d := range info.Disks {
		for _, p := range d.Partitions {
			if filepath.Join("/dev", p.Name) == device {
				return p.SizeBytes, nil
			}
		}
	}
	return 0, errors.Wrapf(ErrCapacityUnknown, "partition '%s'", device)
}

// Disk is a removable disk suitable as install media.
type Disk struct {
	Path       string
	Model      string
	SizeBytes  uint64
	Partitions []Partition
}

type Partition struct {
	Path       string
	MountPoint string
	SizeBytes  uint64
}

func (d Disk) String() string {
	model := strings.TrimSpace(d.Model)
	if model == "" || model == "unknown" {
		return d.Path + " (" + datasize.ByteSize(d.SizeBytes).HumanReadable() + ")"
	}
	return d.Path + " " + model + " (" + datasize.ByteSize(d.SizeBytes).HumanReadable() + ")"
}

func (p Partition) String() string {
	s := p.Path + " (" + datasize.ByteSize(p.SizeBytes).HumanReadable() + ")"
	if p.MountPoint != "" {
		s += " mounted at " + p.MountPoint
	}
	return s
}

// ListUSBDisks returns disks attached over USB or flagged removable.
func (i *Inspector) ListUSBDisks() ([]Disk, error) {
	info, err := i.blockInfo()
	if err != nil {
		return nil, errors.Wrap(err, "error detecting block devices")
	}

	var disks []Disk
	for _, d := range info.Disks {
		if d.Name == "" {
			continue
		}
		if !strings.Contains(d.BusPath, "usb") && !d.IsRemovable {
			continue
		}
		disk := Disk{
			Path:      filepath.Join("/dev", d.Name),
			Model:     d.Model,
			SizeBytes: d.SizeBytes,
		}
		for _, p := range d.Partitions {
			disk.Partitions = append(disk.Partitions, Partition{
				Path:       filepath.Join("/dev", p.Name),
				MountPoint: p.MountPoint,
				SizeBytes:  p.SizeBytes,
			})
		}
		disks = append(disks, disk)
	}
	return disks, nil
}
