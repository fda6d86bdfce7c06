package desktop

import "isoburn/internal/partition"

const (
	selectPrompt = "🖴 Select a USB partition"
	noDevices    = "No USB devices found"
)

// Choice is one entry of the partition drop-down. The placeholder entry has
// no Device.
type Choice struct {
	Label  string
	Device string
}

// PartitionChoices lists every partition of the given disks behind a
// placeholder entry, so index 0 never selects a device.
func PartitionChoices(disks []partition.Disk) []Choice {
	var choices []Choice
	for _, d := range disks {
		for _, p := range d.Partitions {
			choices = append(choices, Choice{Label: p.String() + " on " + d.String(), Device: p.Path})
		}
	}
	if len(choices) == 0 {
		return []Choice{{Label: noDevices}}
	}
	return append([]Choice{{Label: selectPrompt}}, choices...)
}

// Labels returns the drop-down strings in order.
func Labels(choices []Choice) []string {
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label
	}
	return labels
}

// Device returns the device at index i, or "" for the placeholder and out of
// range indexes.
func Device(choices []Choice, i int) string {
	if i < 0 || i >= len(choices) {
		return ""
	}
	return choices[i].Device
}
