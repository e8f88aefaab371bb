//go:build linux

// Package affinity pins long-lived worker goroutines to CPUs. Pinning is
// best-effort: a failure leaves the worker unpinned and the pipeline
// running.
package affinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and binds that thread
// to the given CPU (modulo the core count). Call from the worker
// goroutine itself, before entering its loop.
func Pin(cpu int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu % runtime.NumCPU())
	return unix.SchedSetaffinity(0, &set)
}
