package writer

import "isoburn/internal/config"

// Request describes one write. It is a value: nothing changes it once Run
// starts.
type Request struct {
	Image       string
	Device      string
	ImageMount  string
	TargetMount string
	Silent      bool
}

// NewRequest returns a Request with the default mount points.
func NewRequest(image, device string) Request {
	return Request{
		Image:       image,
		Device:      device,
		ImageMount:  config.DefaultImageMount,
		TargetMount: config.DefaultDeviceMount,
	}
}

func (r Request) withDefaults() Request {
	if r.ImageMount == "" {
		r.ImageMount = config.DefaultImageMount
	}
	if r.TargetMount == "" {
		r.TargetMount = config.DefaultDeviceMount
	}
	return r
}
