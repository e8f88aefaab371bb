//go:build !linux

package affinity

import "runtime"

// Pin locks the calling goroutine to its OS thread. CPU binding is not
// available on this platform; the worker runs unpinned.
func Pin(cpu int) error {
	runtime.LockOSThread()
	return nil
}
