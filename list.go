package serialterm

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial/enumerator"
)

// DeviceDescriptor is a snapshot of one attached serial device. Empty string
// fields mean the OS did not report a value.
type DeviceDescriptor struct {
	Name         string
	Manufacturer string
	Product      string
	VID          string
	PID          string
	SerialNumber string
	IsUSB        bool
}

// Label renders the descriptor the way the device selector shows it
func (d DeviceDescriptor) Label() string {
	return strings.Join([]string{d.Name, orUnknown(d.Manufacturer), orUnknown(d.Product)}, " | ")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// Enumerator returns the currently attached devices.
type Enumerator func() []DeviceDescriptor

// Overridable in tests
var (
	detailedPorts = enumerator.GetDetailedPortsList
	sysfsRoot     = "/sys/class/tty"
)

// ListDevices queries the OS for serial devices. An enumeration failure
// yields an empty list.
func ListDevices() []DeviceDescriptor {
	ports, err := detailedPorts()
	if err != nil {
		return []DeviceDescriptor{}
	}

	devices := make([]DeviceDescriptor, 0, len(ports))
	for _, p := range ports {
		d := DeviceDescriptor{
			Name:         p.Name,
			Product:      p.Product,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			IsUSB:        p.IsUSB,
		}
		if d.IsUSB {
			d.Manufacturer = usbManufacturer(d.Name)
		}
		devices = append(devices, d)
	}

	// Sort the ports for consistent ordering
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices
}

// FindDevice looks name up in the current enumeration
func FindDevice(name string) (DeviceDescriptor, error) {
	for _, d := range ListDevices() {
		if d.Name == name {
			return d, nil
		}
	}
	return DeviceDescriptor{}, ErrDeviceNotFound
}

// PollDevices calls fn with a fresh snapshot every interval until ctx ends.
// The first snapshot is delivered immediately.
func PollDevices(ctx context.Context, interval time.Duration, enumerate Enumerator, fn func([]DeviceDescriptor)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(enumerate())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// usbManufacturer walks up from the tty's sysfs device link to the USB device
// directory, which is the one carrying a manufacturer attribute.
func usbManufacturer(name string) string {
	devicePath, err := filepath.EvalSymlinks(filepath.Join(sysfsRoot, filepath.Base(name), "device"))
	if err != nil {
		return ""
	}

	dir := devicePath
	for i := 0; i < 4; i++ {
		if v := readSysfsFile(filepath.Join(dir, "manufacturer")); v != "" {
			return v
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// readSysfsFile returns the trimmed content of a sysfs attribute, or "".
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
