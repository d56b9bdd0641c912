// Package serialterm provides the connection core of an interactive serial
// terminal: device discovery, a non-blocking transport handle, a connection
// that survives reconnects and baud-rate changes, and a supervisor that
// drives connect and read loops at a fixed cadence.
//
// # Device Discovery
//
// List attached serial devices. Enumeration never fails; an OS error yields
// an empty list:
//
//	for _, d := range serialterm.ListDevices() {
//	    fmt.Println(d.Label()) // "/dev/ttyUSB0 | FTDI | FT232R USB UART"
//	}
//
// # Transport Handle
//
// Open spawns a read task and a write task for the device. Read and Write
// never block on the hardware:
//
//	h, err := serialterm.Open("/dev/ttyUSB0", serialterm.WithBaudRate(115200))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	h.Write("AT\r\n")
//	msg, err := h.Read() // "" when nothing has arrived yet
//
// When either task ends (device unplugged, I/O error) the handle tears
// itself down. IsConnected then reports false, Write fails with
// ErrDisconnected, and Read returns ErrDisconnected once every buffered
// message has been read.
//
// # Connection and Supervisor
//
// A Connection owns at most one handle and remembers the device and baud
// rate. A Supervisor retries opening a selected device and drains received
// text into a Buffer:
//
//	conn, _ := serialterm.NewConnection(serialterm.WithLogger(logger))
//	sup, _ := serialterm.NewSupervisor(conn,
//	    serialterm.WithEventHandler(func(ev serialterm.Event) {
//	        if ev.Type == serialterm.EventData {
//	            fmt.Print(ev.Data)
//	        }
//	    }),
//	)
//	sup.Connect("/dev/ttyUSB0")
//	defer sup.Close()
//
// # Error Handling
//
// Errors are sentinels checked with errors.Is:
//
//	if errors.Is(err, serialterm.ErrConnectFailed) {
//	    if errors.Is(err, serialterm.ErrPermissionDenied) {
//	        // add the user to the dialout group
//	    }
//	}
//
// # Default Configuration
//
//   - BaudRate: 9600
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 100ms
//   - Connect retry: every 500ms for up to 10s
//   - Read drain: every 20ms
package serialterm
