package partition

import (
	"regexp"
	"strconv"
	"strings"
)

const devPrefix = "/dev/"

// Table maps a partition device path (/dev/sdb1) to its mount point, "" when
// unmounted.
type Table map[string]string

// MountPoint returns the mount point of device and whether device is known.
func (t Table) MountPoint(device string) (string, bool) {
	mp, ok := t[device]
	return mp, ok
}

// IsCritical reports whether a mount point belongs to the running system.
func IsCritical(mountPoint string) bool {
	return mountPoint == "/" || strings.Contains(mountPoint, "/boot")
}

// IsOnSameDiskAsOS strips the trailing partition number from device and looks
// for a sibling partition mounted as / or under /boot.
//
// Only a single trailing character is stripped, so sdb1 maps to sdb but
// nvme0n1p1 maps to nvme0n1p and sdb10 maps to sdb1. Those names give wrong
// answers; callers treat the result as a warning, not a guarantee.
func IsOnSameDiskAsOS(device string, table Table) bool {
	if len(device) < 2 {
		return false
	}
	disk := device[:len(device)-1]
	for dev, mp := range table {
		if strings.HasPrefix(dev, disk) && IsCritical(mp) {
			return true
		}
	}
	return false
}

var pairRe = regexp.MustCompile(`([A-Z:-]+)="((?:[^"\\]|\\.)*)"`)

// ParseTable parses lsblk --pairs output, keeping rows of TYPE "part". Lines
// in the older "<name>,<mountpoint>" form are accepted as well.
func ParseTable(out string) Table {
	table := make(Table)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.Contains(line, `="`) {
			name, mp, _ := strings.Cut(line, ",")
			table[devicePath(name)] = mp
			continue
		}

		fields := make(map[string]string)
		for _, m := range pairRe.FindAllStringSubmatch(line, -1) {
			fields[m[1]] = unescape(m[2])
		}
		if fields["TYPE"] != "part" || fields["NAME"] == "" {
			continue
		}
		table[devicePath(fields["NAME"])] = fields["MOUNTPOINT"]
	}
	return table
}

func devicePath(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, devPrefix) {
		return name
	}
	return devPrefix + name
}

// unescape decodes the \xHH sequences lsblk uses for unsafe characters.
func unescape(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
