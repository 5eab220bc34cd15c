// Package driver defines a set of interfaces encompassing the GPU
// functionality that the raw-image pipeline needs: buffer and image
// allocation, descriptor binding, compute pipelines and command
// recording. It is designed to allow a platform-specific API (Vulkan,
// initially) to be implemented in a mostly straightforward manner.
package driver

import (
	"errors"
)

// Driver is the interface that provides methods for loading and
// unloading an underlying implementation.
type Driver interface {
	// Open initializes the driver.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same GPU instance.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open() (GPU, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	// Callers should assume that Close is not safe for
	// parallel execution.
	Close()
}

// ErrNotInstalled means that a platform-specific library required for
// the driver to work is not present in the system.
var ErrNotInstalled = errors.New("driver: missing required library")

// ErrNoDevice means that no suitable device could be found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the driver is in an unrecoverable state. Upon
// encountering such an error, the application must destroy everything
// that it created using the driver's GPU and then call the Close
// method. It may call Open again to reinitialize the driver for
// further use.
var ErrFatal = errors.New("driver: fatal error")

// Drivers returns the registered driver as a single-element slice, or
// nil if none has registered itself yet. Client code imports the
// driver/vk package for its registration side effect, then calls this
// function once at process startup.
//
// This pipeline links exactly one backend package, so there is never
// more than one driver to choose between: the slice return exists
// only to keep the call shape a future second backend (a software
// rasterizer for headless testing, say) could slot into without a
// signature change at the call site.
func Drivers() []Driver {
	if registered == nil {
		return nil
	}
	return []Driver{registered}
}

// Register registers a Driver. Driver implementations are expected to
// call Register exactly once, from an init function. A second call
// replaces the first.
func Register(drv Driver) {
	registered = drv
}

var registered Driver
