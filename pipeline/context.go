// Package pipeline implements the raw-to-RGBA GPU compute pipeline:
// a process-lifetime Context and a per-frame Finish driver that walks
// six compute stages over a Bayer mosaic capture.
package pipeline

import (
	"errors"
	"strings"

	"github.com/crydafan/MyCamera/driver"

	_ "github.com/crydafan/MyCamera/driver/vk"
)

// Context holds the GPU handles that persist for the life of the
// process: the opened driver, its GPU, and the implementation limits
// queried once at construction. Every frame invocation borrows these
// handles; Context itself is never mutated after NewContext returns,
// so one Context may back any number of sequential Finish calls.
type Context struct {
	drv driver.Driver
	gpu driver.GPU
	lim driver.Limits
}

var errNoDriver = errors.New("pipeline: no compute-capable driver found")

// NewContext enumerates registered drivers, opens the first one whose
// name contains "vulkan", and falls back to any registered driver if
// none matches. This mirrors the two-step driver selection the
// embedding application performs once at startup.
func NewContext() (*Context, error) {
	drv, gpu, err := loadDriver("vulkan")
	if err != nil {
		drv, gpu, err = loadDriver("")
	}
	if err != nil {
		return nil, err
	}
	return &Context{drv: drv, gpu: gpu, lim: gpu.Limits()}, nil
}

// loadDriver opens the first registered driver whose name contains
// name. An empty name matches any driver.
func loadDriver(name string) (driver.Driver, driver.GPU, error) {
	drivers := driver.Drivers()
	for i := range drivers {
		if !strings.Contains(drivers[i].Name(), name) {
			continue
		}
		gpu, err := drivers[i].Open()
		if err != nil {
			continue
		}
		return drivers[i], gpu, nil
	}
	return nil, nil, errNoDriver
}

// GPU returns the driver.GPU backing this Context.
func (c *Context) GPU() driver.GPU { return c.gpu }

// Limits returns the implementation limits reported by the Context's
// GPU. The returned value must not be modified.
func (c *Context) Limits() *driver.Limits { return &c.lim }

// Close releases the Context's driver. The Context must not be used
// for any further frame after Close returns.
func (c *Context) Close() {
	if c.drv != nil {
		c.drv.Close()
	}
	*c = Context{}
}
