package desktop

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
	"isoburn/internal/partition"
	"isoburn/internal/report"
	"isoburn/internal/validate"
)

func makeHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Downloads"), 0o755))
	return dir
}

func testHomes(runner command.Runner, env map[string]string, home string) *Homes {
	return &Homes{
		runner: runner,
		getenv: func(k string) string { return env[k] },
		home:   func() (string, error) { return home, nil },
	}
}

func TestParsePasswd(t *testing.T) {
	uid, home, ok := ParsePasswd("alice:x:1000:1000:Alice:/home/alice:/bin/bash")
	require.True(t, ok)
	assert.Equal(t, 1000, uid)
	assert.Equal(t, "/home/alice", home)

	_, _, ok = ParsePasswd("broken:x:abc:0::/x:/bin/sh")
	assert.False(t, ok)
	_, _, ok = ParsePasswd("")
	assert.False(t, ok)
}

func TestHomesPrefersOwnHome(t *testing.T) {
	own := makeHome(t)
	runner := commandtest.NewRunner()

	assert.Equal(t, own, testHomes(runner, nil, own).Directory(context.Background()))
	assert.Empty(t, runner.Calls())
}

func TestHomesUnderSudo(t *testing.T) {
	alice := makeHome(t)
	runner := commandtest.NewRunner().Stdout("getent", "alice:x:1000:1000::"+alice+":/bin/bash\n")
	h := testHomes(runner, map[string]string{"SUDO_USER": "alice"}, "/nonexistent")

	assert.Equal(t, alice, h.Directory(context.Background()))
	assert.Equal(t, []string{"getent passwd alice"}, runner.Calls())
}

func TestHomesScansRegularUsers(t *testing.T) {
	bob := makeHome(t)
	runner := commandtest.NewRunner().Stdout("getent",
		"root:x:0:0:root:/root:/bin/bash\n"+
			"daemon:x:1:1::/usr/sbin:/usr/sbin/nologin\n"+
			"empty:x:1001:1001::/nonexistent:/bin/sh\n"+
			"bob:x:1002:1002::"+bob+":/bin/bash\n")
	h := testHomes(runner, nil, "/nonexistent")

	assert.Equal(t, bob, h.Directory(context.Background()))
}

func TestHomesFallback(t *testing.T) {
	runner := commandtest.NewRunner().Fail("getent", 2, "")
	h := testHomes(runner, map[string]string{"PKEXEC_UID": "1000"}, "")

	assert.Equal(t, "/home", h.Directory(context.Background()))
	assert.Equal(t, 2, runner.Called("getent"))
}

func TestPartitionChoices(t *testing.T) {
	assert.Equal(t, []Choice{{Label: "No USB devices found"}}, PartitionChoices(nil))

	disks := []partition.Disk{{
		Path:      "/dev/sdb",
		Model:     "Cruzer",
		SizeBytes: 8 << 30,
		Partitions: []partition.Partition{
			{Path: "/dev/sdb1", SizeBytes: 4 << 30},
			{Path: "/dev/sdb2", SizeBytes: 4 << 30, MountPoint: "/media/usb"},
		},
	}}
	choices := PartitionChoices(disks)
	require.Len(t, choices, 3)
	assert.Empty(t, Device(choices, 0))
	assert.Equal(t, "/dev/sdb1", Device(choices, 1))
	assert.Equal(t, "/dev/sdb2", Device(choices, 2))
	assert.Empty(t, Device(choices, 3))
	assert.Empty(t, Device(choices, -1))

	labels := Labels(choices)
	assert.Contains(t, labels[2], "/dev/sdb2")
	assert.Contains(t, labels[2], "mounted at /media/usb")
	assert.Contains(t, labels[2], "Cruzer")
}

func TestStatusApply(t *testing.T) {
	var s Status

	s.Apply(report.Event{Kind: report.EventStepStarted, Message: "mounting image"})
	assert.Equal(t, "mounting image...", s.Text)

	s.Apply(report.Event{Kind: report.EventProgress, Written: 1, Total: 4})
	assert.InDelta(t, 0.25, s.Fraction, 1e-9)
	assert.Equal(t, "copying image... 25.00%", s.Text)

	s.Apply(report.Event{Kind: report.EventConfirm, Message: "sure?"})
	assert.Equal(t, "copying image... 25.00%", s.Text)
	assert.False(t, s.Finished)

	s.Apply(report.Event{Kind: report.EventFinished})
	assert.True(t, s.Finished)
	assert.Equal(t, 1.0, s.Fraction)
	assert.Contains(t, s.Text, "Done")
}

func TestStatusFinishedWithError(t *testing.T) {
	var s Status
	s.Apply(report.Event{Kind: report.EventFinished, Err: errors.Wrap(validate.ErrDeclined, "confirm")})
	assert.Equal(t, "Canceled, nothing was written", s.Text)

	s = Status{}
	s.Apply(report.Event{Kind: report.EventFinished, Err: errors.New("boom"), ExitCode: 1})
	assert.Equal(t, "Error: boom", s.Text)
	assert.Equal(t, 1, s.ExitCode)
	assert.Zero(t, s.Fraction)
}

func TestProgressFilter(t *testing.T) {
	const total = 4 << 30
	var f ProgressFilter
	var kept []report.Event
	for written := int64(0); written <= total; written += 16 << 10 {
		e := report.Event{Kind: report.EventProgress, Written: written, Total: total}
		if f.Keep(e) {
			kept = append(kept, e)
		}
	}
	// 0% through 100%, one update each
	assert.Len(t, kept, 101)
	assert.Equal(t, int64(total), kept[len(kept)-1].Written)

	assert.True(t, f.Keep(report.Event{Kind: report.EventComplete, Message: "copying image...done"}))
	assert.True(t, f.Keep(report.Event{Kind: report.EventFinished}))
}

func TestProgressFilterKeepsEmptyImage(t *testing.T) {
	var f ProgressFilter
	assert.True(t, f.Keep(report.Event{Kind: report.EventProgress}))
	assert.True(t, f.Keep(report.Event{Kind: report.EventProgress}), "written == total is always kept")
}
