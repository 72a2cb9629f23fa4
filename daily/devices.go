package daily

import (
	"sync"

	"github.com/babelforce/rtvi-go"
)

// deviceCache remembers the last selected camera and microphone so input
// updates can be reported as deltas. nil means no device selected.
type deviceCache struct {
	mu  sync.Mutex
	cam *rtvi.MediaDeviceInfo
	mic *rtvi.MediaDeviceInfo
}

func sameDevice(a, b *rtvi.MediaDeviceInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// record stores cam and mic and reports which of them differ from the cached
// values.
func (c *deviceCache) record(cam, mic *rtvi.MediaDeviceInfo) (camChanged, micChanged bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	camChanged = !sameDevice(c.cam, cam)
	micChanged = !sameDevice(c.mic, mic)
	c.cam = cam
	c.mic = mic
	return camChanged, micChanged
}

func (c *deviceCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cam = nil
	c.mic = nil
}

func findDevice(devices []Device, deviceID string) *rtvi.MediaDeviceInfo {
	if deviceID == "" {
		return nil
	}
	for _, d := range devices {
		if d.DeviceID == deviceID {
			info := d.toRtvi()
			return &info
		}
	}
	return nil
}

func toRtviDevices(devices []Device) []rtvi.MediaDeviceInfo {
	out := make([]rtvi.MediaDeviceInfo, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.toRtvi())
	}
	return out
}
