package serialterm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func stubPorts(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()
	orig := detailedPorts
	detailedPorts = func() ([]*enumerator.PortDetails, error) { return ports, err }
	t.Cleanup(func() { detailedPorts = orig })
}

// fakeSysfs builds a sysfs-like tree where name is a tty beneath a USB
// interface of a device reporting manufacturer.
func fakeSysfs(t *testing.T, name, manufacturer string) {
	t.Helper()
	root := t.TempDir()

	usbDevice := filepath.Join(root, "devices", "usb1", "1-1")
	ttyDevice := filepath.Join(usbDevice, "1-1:1.0", name)
	require.NoError(t, os.MkdirAll(ttyDevice, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(usbDevice, "manufacturer"), []byte(manufacturer+"\n"), 0o644))

	classDir := filepath.Join(root, "class", "tty", name)
	require.NoError(t, os.MkdirAll(classDir, 0o755))
	require.NoError(t, os.Symlink(ttyDevice, filepath.Join(classDir, "device")))

	orig := sysfsRoot
	sysfsRoot = filepath.Join(root, "class", "tty")
	t.Cleanup(func() { sysfsRoot = orig })
}

func TestListDevices(t *testing.T) {
	fakeSysfs(t, "ttyUSB0", "FTDI")
	stubPorts(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A50285BI", Product: "FT232R USB UART"},
		{Name: "/dev/ttyS0"},
	}, nil)

	devices := ListDevices()
	require.Len(t, devices, 2)

	// Sorted by name
	assert.Equal(t, "/dev/ttyS0", devices[0].Name)
	assert.Equal(t, DeviceDescriptor{
		Name:         "/dev/ttyUSB0",
		Manufacturer: "FTDI",
		Product:      "FT232R USB UART",
		VID:          "0403",
		PID:          "6001",
		SerialNumber: "A50285BI",
		IsUSB:        true,
	}, devices[1])
}

func TestListDevicesEnumerationError(t *testing.T) {
	stubPorts(t, nil, errors.New("enumeration failed"))

	devices := ListDevices()
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestUSBManufacturerMissing(t *testing.T) {
	orig := sysfsRoot
	sysfsRoot = t.TempDir()
	t.Cleanup(func() { sysfsRoot = orig })

	assert.Equal(t, "", usbManufacturer("/dev/ttyACM0"))
}

func TestFindDevice(t *testing.T) {
	stubPorts(t, []*enumerator.PortDetails{{Name: "/dev/ttyACM0", Product: "Pico"}}, nil)

	d, err := FindDevice("/dev/ttyACM0")
	require.NoError(t, err)
	assert.Equal(t, "Pico", d.Product)

	_, err = FindDevice("/dev/ttyACM9")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestDeviceLabel(t *testing.T) {
	tests := []struct {
		name   string
		device DeviceDescriptor
		want   string
	}{
		{"full", DeviceDescriptor{Name: "/dev/ttyUSB0", Manufacturer: "FTDI", Product: "FT232R"}, "/dev/ttyUSB0 | FTDI | FT232R"},
		{"no manufacturer", DeviceDescriptor{Name: "/dev/ttyACM0", Product: "Pico"}, "/dev/ttyACM0 | Unknown | Pico"},
		{"bare", DeviceDescriptor{Name: "COM3"}, "COM3 | Unknown | Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.device.Label())
		})
	}
}

func TestPollDevices(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var snapshots int
	PollDevices(ctx, time.Millisecond, func() []DeviceDescriptor {
		return []DeviceDescriptor{{Name: "/dev/ttyS0"}}
	}, func(devices []DeviceDescriptor) {
		require.Len(t, devices, 1)
		snapshots++
		if snapshots == 2 {
			cancel()
		}
	})

	assert.GreaterOrEqual(t, snapshots, 2)
}
