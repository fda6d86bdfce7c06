package mount

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isoburn/internal/command"
	"isoburn/internal/command/commandtest"
	"isoburn/internal/report"
)

type fakeMounts map[string]bool

func (f fakeMounts) IsMountPoint(path string) (bool, error) {
	return f[filepath.Clean(path)], nil
}

func stepLines(r *report.Recorder) []string {
	var lines []string
	for _, e := range r.Events() {
		if e.Kind == report.EventStepFinished {
			lines = append(lines, e.Line())
		}
	}
	return lines
}

func TestMountImage(t *testing.T) {
	runner := commandtest.NewRunner()
	rec := &report.Recorder{}
	o := NewOrchestrator(runner, rec, fakeMounts{})

	require.NoError(t, o.MountImage(context.Background(), "disk.iso", "/mnt/iso/"))
	assert.Equal(t, []string{"mount -o loop,ro disk.iso /mnt/iso/"}, runner.Calls())
	assert.Equal(t, []string{"mounting image...done"}, stepLines(rec))
}

func TestMountImageUnmountsStaleMount(t *testing.T) {
	runner := commandtest.NewRunner()
	rec := &report.Recorder{}
	o := NewOrchestrator(runner, rec, fakeMounts{"/mnt/iso": true})

	require.NoError(t, o.MountImage(context.Background(), "disk.iso", "/mnt/iso/"))
	assert.Equal(t, []string{
		"umount /mnt/iso/",
		"mount -o loop,ro disk.iso /mnt/iso/",
	}, runner.Calls())
	assert.Equal(t, []string{
		"unmounting previously mounted iso...done",
		"mounting image...done",
	}, stepLines(rec))
}

func TestFormatPartitionFailure(t *testing.T) {
	runner := commandtest.NewRunner().Fail("mkfs.fat", 1, "mkfs.fat: unable to open /dev/sdb1: Device or resource busy")
	rec := &report.Recorder{}
	o := NewOrchestrator(runner, rec, fakeMounts{})

	err := o.FormatPartition(context.Background(), "/dev/sdb1")
	var toolErr *command.ToolExecutionError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "mkfs.fat -F 32 -I /dev/sdb1", toolErr.Command)
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.Equal(t, []string{"formatting partition as fat32...fail"}, stepLines(rec))
}

func TestMountPartitionAndUnmount(t *testing.T) {
	runner := commandtest.NewRunner()
	rec := &report.Recorder{}
	o := NewOrchestrator(runner, rec, fakeMounts{})

	ctx := context.Background()
	require.NoError(t, o.MountPartition(ctx, "/dev/sdb1", "/mnt/target/"))
	require.NoError(t, o.UnmountAs(ctx, "unmounting /dev/sdb1", "/dev/sdb1"))
	assert.Equal(t, []string{
		"mount /dev/sdb1 /mnt/target/",
		"umount /dev/sdb1",
	}, runner.Calls())
	assert.Equal(t, []string{
		"mounting /dev/sdb1 to /mnt/target/...done",
		"unmounting /dev/sdb1...done",
	}, stepLines(rec))
}

func TestMeasureSize(t *testing.T) {
	runner := commandtest.NewRunner().Stdout("du", "2097152\t/mnt/iso/")
	o := NewOrchestrator(runner, report.Nop{}, fakeMounts{})

	size, err := o.MeasureSize(context.Background(), "/mnt/iso/")
	require.NoError(t, err)
	assert.Equal(t, int64(2097152), size)
}

func TestMeasureSizeGarbage(t *testing.T) {
	runner := commandtest.NewRunner().Stdout("du", "")
	o := NewOrchestrator(runner, report.Nop{}, fakeMounts{})

	_, err := o.MeasureSize(context.Background(), "/mnt/iso/")
	assert.Error(t, err)
}

func TestEnsureMountPoints(t *testing.T) {
	dir := t.TempDir()
	iso := filepath.Join(dir, "iso")
	target := filepath.Join(dir, "target")

	o := NewOrchestrator(commandtest.NewRunner(), report.Nop{}, fakeMounts{})
	require.NoError(t, o.EnsureMountPoints(iso, target))

	for _, p := range []string{iso, target} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestKernelMounts(t *testing.T) {
	m := NewKernelMounts()

	root, err := m.IsMountPoint("/")
	require.NoError(t, err)
	assert.True(t, root)

	dir := t.TempDir()
	sub := filepath.Join(dir, "iso")
	require.NoError(t, os.Mkdir(sub, 0o755))
	plain, err := m.IsMountPoint(sub + "/")
	require.NoError(t, err)
	assert.False(t, plain)

	missing, err := m.IsMountPoint(filepath.Join(dir, "missing"))
	require.NoError(t, err, "a mount point that is not created yet is simply not mounted")
	assert.False(t, missing)
}

func TestKernelMountsLookupFailure(t *testing.T) {
	m := &KernelMounts{mounted: func(string) (bool, error) {
		return false, os.ErrPermission
	}}

	_, err := m.IsMountPoint("/mnt/iso/")
	require.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "/mnt/iso/")
}
