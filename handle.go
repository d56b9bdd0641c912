package serialterm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Handle owns one opened serial device and the two background tasks that
// move bytes between it and unbounded in-memory queues.
//
// A Handle is single-use: once either task ends the device is closed and the
// Handle reports disconnected for the rest of its life. Callers must call
// Close on every exit path; it is safe to call more than once.
type Handle struct {
	name   string
	config Config
	logger *zap.Logger
	dev    Device

	outbound *queue[string]
	inbound  *queue[string]
	pending  atomic.Int64 // accepted by Write, not yet written

	ctx       context.Context
	cancel    context.CancelFunc
	readDone  chan struct{}
	writeDone chan struct{}

	stopOnce sync.Once
	errMu    sync.Mutex
	err      error
}

// Open opens the named device and spawns its read and write tasks.
func Open(name string, opts ...Option) (*Handle, error) {
	config, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	logger := config.Logger.With(
		zap.String("port", name),
		zap.Int("baud_rate", config.BaudRate),
	)

	dev, err := config.Opener(name, config)
	if err != nil {
		return nil, connectError(name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		name:      name,
		config:    config,
		logger:    logger,
		dev:       dev,
		outbound:  newQueue[string](),
		inbound:   newQueue[string](),
		ctx:       ctx,
		cancel:    cancel,
		readDone:  make(chan struct{}),
		writeDone: make(chan struct{}),
	}

	go h.readTask()
	go h.writeTask()

	logger.Info("Serial port opened")
	return h, nil
}

// Name returns the device identifier the handle was opened with
func (h *Handle) Name() string {
	return h.name
}

// BaudRate returns the rate the device was opened at
func (h *Handle) BaudRate() int {
	return h.config.BaudRate
}

// IsConnected reports whether both background tasks are still running
func (h *Handle) IsConnected() bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case <-h.readDone:
		return false
	case <-h.writeDone:
		return false
	default:
		return true
	}
}

// Done is closed as soon as the handle starts shutting down, whether from
// Close or because a task ended.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err returns why the handle stopped. It is nil while running and after an
// explicit Close.
func (h *Handle) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}

// Read returns the oldest received message without blocking. It returns ""
// when nothing is queued, and ErrDisconnected only after the read task has
// ended and every message it produced has been handed out.
func (h *Handle) Read() (string, error) {
	finished := isClosed(h.readDone)

	if msg, ok := h.inbound.tryPop(); ok {
		return msg, nil
	}
	if finished {
		return "", h.disconnectedError()
	}
	return "", nil
}

// Write queues data for the write task and returns immediately.
func (h *Handle) Write(data string) error {
	h.pending.Add(1)
	if !h.outbound.push(data) {
		h.pending.Add(-1)
		return h.disconnectedError()
	}
	return nil
}

// Flush waits until every message accepted by Write has reached the device.
func (h *Handle) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if h.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.writeDone:
			if h.pending.Load() == 0 {
				return nil
			}
			return h.disconnectedError()
		case <-ticker.C:
		}
	}
}

// Close stops both tasks, closes the device and waits for the tasks to exit.
func (h *Handle) Close() error {
	h.stop(nil)

	timer := time.NewTimer(h.config.ShutdownTimeout)
	defer timer.Stop()

	for _, done := range []chan struct{}{h.readDone, h.writeDone} {
		select {
		case <-done:
		case <-timer.C:
			h.logger.Warn("Serial tasks did not stop in time",
				zap.Duration("timeout", h.config.ShutdownTimeout))
			return fmt.Errorf("serial tasks for %s did not stop within %v", h.name, h.config.ShutdownTimeout)
		}
	}
	return nil
}

// stop tears the handle down once. reason is nil for an explicit Close.
func (h *Handle) stop(reason error) {
	h.stopOnce.Do(func() {
		h.errMu.Lock()
		h.err = reason
		h.errMu.Unlock()

		h.cancel()
		h.outbound.close()
		if err := h.dev.Close(); err != nil {
			h.logger.Debug("Closing serial device failed", zap.Error(err))
		}
		h.logger.Info("Serial port closed", zap.NamedError("reason", reason))
	})
}

func (h *Handle) disconnectedError() error {
	if err := h.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return ErrDisconnected
}

func (h *Handle) readTask() {
	defer close(h.readDone)

	buf := make([]byte, h.config.ReadBufferSize)
	var carry []byte

	for {
		n, err := h.dev.Read(buf)
		if h.ctx.Err() != nil {
			h.logger.Debug("Read task ended")
			return
		}

		if n > 0 {
			carry = h.forward(h.joinCarry(carry, buf[:n]))
		}

		if err != nil {
			if isTransient(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %s", ErrDeviceNotFound, h.name)
			}
			h.logger.Warn("Read task ended", zap.Error(err))
			h.stop(err)
			return
		}

		if n == 0 && !h.config.Presence(h.name) {
			err := fmt.Errorf("%w: %s", ErrDeviceNotFound, h.name)
			h.logger.Warn("Read task ended", zap.Error(err))
			h.stop(err)
			return
		}
	}
}

// forward pushes the complete UTF-8 prefix of data and returns the trailing
// bytes of a rune that has not fully arrived yet.
func (h *Handle) forward(data []byte) []byte {
	cut := completePrefix(data)
	chunk := data[:cut]

	if len(chunk) > 0 {
		if utf8.Valid(chunk) {
			h.inbound.push(string(chunk))
		} else {
			h.logger.Warn("Dropped received chunk",
				zap.Error(ErrInvalidData),
				zap.Int("bytes", len(chunk)))
		}
	}

	if cut == len(data) {
		return nil
	}
	return append([]byte(nil), data[cut:]...)
}

// joinCarry prefixes data with the start of a rune held over from the
// previous read. A carry that does not continue into a valid rune is dropped
// on its own so data is unaffected.
func (h *Handle) joinCarry(carry, data []byte) []byte {
	if len(carry) == 0 {
		return data
	}
	joined := append(carry, data...)

	if utf8.FullRune(joined) {
		if r, size := utf8.DecodeRune(joined); r != utf8.RuneError || size > 1 {
			return joined
		}
	} else if continuation(joined[1:]) {
		// still short, keep waiting for the rest
		return joined
	}

	h.logger.Warn("Dropped received chunk",
		zap.Error(ErrInvalidData),
		zap.Int("bytes", len(carry)))
	return data
}

func continuation(p []byte) bool {
	for _, b := range p {
		if b&0xC0 != 0x80 {
			return false
		}
	}
	return true
}

func (h *Handle) writeTask() {
	defer close(h.writeDone)

	for {
		msg, ok := h.outbound.pop(h.ctx.Done())
		if !ok || h.ctx.Err() != nil {
			h.logger.Debug("Write task ended")
			return
		}

		err := writeAll(h.dev, []byte(msg))
		h.pending.Add(-1)
		if err != nil {
			if h.ctx.Err() != nil {
				return
			}
			h.logger.Warn("Write task ended", zap.Error(err))
			h.stop(err)
			return
		}
	}
}

func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

// completePrefix returns the length of the longest prefix of p that does not
// end inside an incomplete multi-byte sequence.
func completePrefix(p []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		start := len(p) - i
		if utf8.RuneStart(p[start]) {
			if utf8.FullRune(p[start:]) {
				return len(p)
			}
			return start
		}
	}
	return len(p)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
