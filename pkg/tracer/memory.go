package tracer

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"syscall"
)

var hostEndian = binary.NativeEndian

// memWindow is a tracee's view into its own address space. Word-granularity
// peek/poke always works but is one syscall per 8 bytes; for anything
// larger it opens /proc/<pid>/mem once and reuses the descriptor, falling
// back to PtracePeekData/PtracePokeData if the open or the read/write at
// offset fails (the tracee may have exited, or the mapping may be gone).
type memWindow struct {
	pid int

	mu   sync.Mutex
	file *os.File // lazily opened, nil until first bulk transfer
}

func newMemWindow(pid int) *memWindow {
	return &memWindow{pid: pid}
}

func (w *memWindow) procMem() (*os.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file, nil
	}
	f, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", w.pid), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	w.file = f
	return f, nil
}

func (w *memWindow) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
}

// PeekWord reads a single 8-byte word at addr.
func (w *memWindow) PeekWord(addr uint64) (uint64, error) {
	var buf [8]byte
	if _, err := syscall.PtracePeekData(w.pid, uintptr(addr), buf[:]); err != nil {
		return 0, newErr(KindMemoryAccess, "PeekWord", w.pid, err)
	}
	return hostEndian.Uint64(buf[:]), nil
}

// PokeWord writes a single 8-byte word at addr.
func (w *memWindow) PokeWord(addr uint64, v uint64) error {
	var buf [8]byte
	hostEndian.PutUint64(buf[:], v)
	if _, err := syscall.PtracePokeData(w.pid, uintptr(addr), buf[:]); err != nil {
		return newErr(KindMemoryAccess, "PokeWord", w.pid, err)
	}
	return nil
}

// Read fills buf from tracee memory starting at addr, preferring the bulk
// /proc/<pid>/mem path and falling back to word-at-a-time peeks.
func (w *memWindow) Read(addr uint64, buf []byte) (int, error) {
	if f, err := w.procMem(); err == nil {
		n, err := f.ReadAt(buf, int64(addr))
		if err == nil || n == len(buf) {
			return n, nil
		}
	}

	n, err := syscall.PtracePeekData(w.pid, uintptr(addr), buf)
	if err != nil {
		return n, newErr(KindMemoryAccess, "Read", w.pid, err)
	}
	return n, nil
}

// Write copies buf into tracee memory starting at addr.
func (w *memWindow) Write(addr uint64, buf []byte) (int, error) {
	if f, err := w.procMem(); err == nil {
		n, err := f.WriteAt(buf, int64(addr))
		if err == nil || n == len(buf) {
			return n, nil
		}
	}

	n, err := syscall.PtracePokeData(w.pid, uintptr(addr), buf)
	if err != nil {
		return n, newErr(KindMemoryAccess, "Write", w.pid, err)
	}
	return n, nil
}

// ReadString reads a NUL-terminated string starting at addr, giving up
// after maxLen bytes.
func (w *memWindow) ReadString(addr uint64, maxLen int) (string, error) {
	if addr == 0 {
		return "", nil
	}

	const chunk = 256
	buf := make([]byte, 0, chunk)
	tmp := make([]byte, chunk)

	for len(buf) < maxLen {
		n, err := w.Read(addr+uint64(len(buf)), tmp)
		if n == 0 && err != nil {
			return string(buf), err
		}
		if i := indexByte(tmp[:n], 0); i >= 0 {
			buf = append(buf, tmp[:i]...)
			return string(buf), nil
		}
		buf = append(buf, tmp[:n]...)
		if n < len(tmp) {
			break
		}
	}
	return string(buf), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
