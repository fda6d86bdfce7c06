package validate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isoburn/internal/command/commandtest"
	"isoburn/internal/mount"
	"isoburn/internal/partition"
	"isoburn/internal/prompt"
	"isoburn/internal/report"
)

const MiB = 1 << 20

type fakeProber struct {
	available uint64
	err       error
	calls     int
}

func (f *fakeProber) Available(context.Context, string, string) (uint64, error) {
	f.calls++
	return f.available, f.err
}

type noMounts struct{}

func (noMounts) IsMountPoint(string) (bool, error) { return false, nil }

type countingPrompter struct {
	answers []string
	asked   int
}

func (c *countingPrompter) Confirm(ctx context.Context, q string) (bool, error) {
	c.asked++
	return prompt.NewConsole(strings.NewReader(strings.Join(c.answers, "\n")), &strings.Builder{}).Confirm(ctx, q)
}

type validatorTest struct {
	runner   *commandtest.Runner
	prober   *fakeProber
	prompter *countingPrompter
	v        *Validator
}

func newValidatorTest(lsblk string, available uint64, answers ...string) *validatorTest {
	vt := &validatorTest{
		runner:   commandtest.NewRunner().Stdout("lsblk", lsblk),
		prober:   &fakeProber{available: available},
		prompter: &countingPrompter{answers: answers},
	}
	orchestrator := mount.NewOrchestrator(vt.runner, report.Nop{}, noMounts{})
	vt.v = New(partition.NewInspector(vt.runner), vt.prober, vt.prompter, orchestrator)
	return vt
}

func makeImage(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func requireValidationError(t *testing.T, err error, sentinel error) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
	var verr *Error
	require.True(t, errors.As(err, &verr))
}

func TestValidateRejectsNonISOBeforeAnyCommand(t *testing.T) {
	for _, name := range []string{"image.img", "image.ISO", "image.iso.bak", "iso"} {
		t.Run(name, func(t *testing.T) {
			vt := newValidatorTest("sdb1,", 4*MiB)
			image := makeImage(t, name, MiB)

			err := vt.v.Validate(context.Background(), image, "/dev/sdb1")
			requireValidationError(t, err, ErrNotAnImage)
			assert.Equal(t, "'"+image+"' is not an ISO image", err.Error())
			assert.Empty(t, vt.runner.Calls())
		})
	}
}

func TestValidateMissingImage(t *testing.T) {
	vt := newValidatorTest("sdb1,", 4*MiB)
	err := vt.v.Validate(context.Background(), "image.iso", "/dev/sdb1")
	requireValidationError(t, err, ErrImageNotFound)
	assert.Equal(t, "image 'image.iso' does not exist", err.Error())
	assert.Empty(t, vt.runner.Calls())
}

func TestValidateImageIsDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dir.iso")
	require.NoError(t, os.Mkdir(dir, 0o755))

	vt := newValidatorTest("sdb1,", 4*MiB)
	err := vt.v.Validate(context.Background(), dir, "/dev/sdb1")
	requireValidationError(t, err, ErrImageNotFound)
}

func TestValidateUnknownDevice(t *testing.T) {
	vt := newValidatorTest("sda1,/", 4*MiB)
	err := vt.v.Validate(context.Background(), makeImage(t, "image.iso", MiB), "/dev/sdb1")
	requireValidationError(t, err, ErrDeviceNotFound)
	assert.Equal(t, "partition '/dev/sdb1' does not exist", err.Error())
}

func TestValidateUnsafeMount(t *testing.T) {
	for _, mp := range []string{"/", "/boot", "/boot/efi"} {
		t.Run(mp, func(t *testing.T) {
			vt := newValidatorTest("sda1,"+mp, 1<<40, "yes")
			err := vt.v.Validate(context.Background(), makeImage(t, "image.iso", MiB), "/dev/sda1")
			requireValidationError(t, err, ErrUnsafeMount)
			assert.Equal(t, "partition '/dev/sda1' currently mounted as '"+mp+"'", err.Error())
			assert.Zero(t, vt.runner.Called("umount"))
		})
	}
}

func TestValidateSpaceBoundary(t *testing.T) {
	image := makeImage(t, "image.iso", 2*MiB)

	vt := newValidatorTest("sdb1,", 2*MiB-1)
	err := vt.v.Validate(context.Background(), image, "/dev/sdb1")
	requireValidationError(t, err, ErrInsufficientSpace)
	assert.True(t, strings.HasPrefix(err.Error(), "not enough space to copy '"+image+"' onto '/dev/sdb1'"))

	vt = newValidatorTest("sdb1,", 2*MiB)
	require.NoError(t, vt.v.Validate(context.Background(), image, "/dev/sdb1"))
}

func TestValidateUnknownCapacityIsDeferred(t *testing.T) {
	vt := newValidatorTest("sdb1,", 0)
	vt.prober.err = errors.Wrap(partition.ErrCapacityUnknown, "partition '/dev/sdb1'")

	require.NoError(t, vt.v.Validate(context.Background(), makeImage(t, "image.iso", MiB), "/dev/sdb1"))
}

func TestValidateProbeFailure(t *testing.T) {
	vt := newValidatorTest("sdb1,", 0)
	vt.prober.err = errors.New("statfs: input/output error")

	err := vt.v.Validate(context.Background(), makeImage(t, "image.iso", MiB), "/dev/sdb1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientSpace)
}

func TestValidateOSDiskConfirmation(t *testing.T) {
	image := makeImage(t, "image.iso", MiB)

	vt := newValidatorTest("sda1,/\nsda2,", 4*MiB, "asdf", "no")
	err := vt.v.Validate(context.Background(), image, "/dev/sda2")
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, 1, vt.prompter.asked)

	vt = newValidatorTest("sda1,/\nsda2,", 4*MiB, "YES")
	require.NoError(t, vt.v.Validate(context.Background(), image, "/dev/sda2"))
	assert.Equal(t, 1, vt.prompter.asked)
}

func TestValidateNoPromptOnRemovableDisk(t *testing.T) {
	vt := newValidatorTest("sda1,/\nsdb1,", 4*MiB)
	require.NoError(t, vt.v.Validate(context.Background(), makeImage(t, "disk.iso", 2*MiB), "/dev/sdb1"))
	assert.Zero(t, vt.prompter.asked)
	assert.Zero(t, vt.runner.Called("umount"))
}

func TestValidateUnmountsMountedTarget(t *testing.T) {
	vt := newValidatorTest("sda1,/\nsdb1,/media/usb", 4*MiB)
	require.NoError(t, vt.v.Validate(context.Background(), makeImage(t, "disk.iso", MiB), "/dev/sdb1"))
	assert.Equal(t, []string{
		"lsblk --list --noheadings --pairs --output NAME,TYPE,MOUNTPOINT",
		"umount /dev/sdb1",
	}, vt.runner.Calls())
}

func TestValidateUnmountFailure(t *testing.T) {
	vt := newValidatorTest("sdb1,/media/usb", 4*MiB)
	vt.runner.Fail("umount", 32, "umount: /media/usb: target is busy.")

	err := vt.v.Validate(context.Background(), makeImage(t, "disk.iso", MiB), "/dev/sdb1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is busy")
}
