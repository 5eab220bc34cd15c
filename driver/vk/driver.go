// Package vk implements the driver interfaces on top of the Vulkan
// API, using the github.com/goki/vulkan bindings. It targets a single
// compute-capable queue: there is no swapchain, no presentation and no
// graphics pipeline state here, since the pipeline this driver serves
// never rasterizes anything.
package vk

import (
	"errors"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

const driverName = "vulkan"

// Driver implements driver.Driver and driver.GPU.
type Driver struct {
	inst vk.Instance
	pdev vk.PhysicalDevice
	dev  vk.Device

	dname string

	que  vk.Queue
	qfam uint32
	qmu  sync.Mutex

	mprop vk.PhysicalDeviceMemoryProperties
	lim   driver.Limits
}

func init() {
	driver.Register(&Driver{})
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return driverName }

// Open implements driver.Driver.
func (d *Driver) Open() (driver.GPU, error) {
	if d.dev != vk.NullDevice {
		return d, nil
	}
	if err := vk.Init(); err != nil {
		return nil, driver.ErrNotInstalled
	}
	if err := d.initInstance(); err != nil {
		return nil, err
	}
	if err := d.initDevice(); err != nil {
		return nil, err
	}
	return d, nil
}

// Close implements driver.Driver.
func (d *Driver) Close() {
	if d.dev == vk.NullDevice {
		return
	}
	vk.DeviceWaitIdle(d.dev)
	vk.DestroyDevice(d.dev, nil)
	vk.DestroyInstance(d.inst, nil)
	*d = Driver{}
}

// Driver implements driver.GPU.
func (d *Driver) Driver() driver.Driver { return d }

// Limits implements driver.GPU.
func (d *Driver) Limits() driver.Limits { return d.lim }

func (d *Driver) initInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:      vk.StructureTypeApplicationInfo,
		ApiVersion: vk.ApiVersion10,
	}
	info := &vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	var inst vk.Instance
	if res := vk.CreateInstance(info, nil, &inst); res != vk.Success {
		return checkResult(res)
	}
	d.inst = inst
	vk.InitInstance(inst)
	return nil
}

func (d *Driver) initDevice() error {
	var n uint32
	if res := vk.EnumeratePhysicalDevices(d.inst, &n, nil); res != vk.Success {
		return checkResult(res)
	}
	if n == 0 {
		return driver.ErrNoDevice
	}
	pdevs := make([]vk.PhysicalDevice, n)
	if res := vk.EnumeratePhysicalDevices(d.inst, &n, pdevs); res != vk.Success {
		return checkResult(res)
	}

	// Select the first device exposing a queue family that supports
	// compute and transfer operations. A real deployment would score
	// devices (discrete over integrated, etc); this driver serves a
	// single offscreen pipeline and takes the first suitable one.
	var chosen vk.PhysicalDevice
	var qfam uint32
	found := false
	var props vk.PhysicalDeviceProperties
	for _, pdev := range pdevs {
		var qn uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &qn, nil)
		qprops := make([]vk.QueueFamilyProperties, qn)
		vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &qn, qprops)
		for i := range qprops {
			qprops[i].Deref()
			if qprops[i].QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
				chosen = pdev
				qfam = uint32(i)
				found = true
				break
			}
		}
		if found {
			vk.GetPhysicalDeviceProperties(pdev, &props)
			props.Deref()
			break
		}
	}
	if !found {
		return driver.ErrNoDevice
	}
	d.pdev = chosen
	d.qfam = qfam
	props.Limits.Deref()
	d.setLimits(&props.Limits)

	vk.GetPhysicalDeviceMemoryProperties(d.pdev, &d.mprop)
	d.mprop.Deref()

	quePrio := []float32{1.0}
	queInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: qfam,
		QueueCount:       1,
		PQueuePriorities: quePrio,
	}
	devInfo := &vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queInfo},
	}
	var dev vk.Device
	if res := vk.CreateDevice(d.pdev, devInfo, nil, &dev); res != vk.Success {
		return checkResult(res)
	}
	d.dev = dev
	vk.InitDevice(dev)

	var que vk.Queue
	vk.GetDeviceQueue(dev, qfam, 0, &que)
	d.que = que

	b := make([]byte, len(props.DeviceName))
	for i, c := range props.DeviceName {
		b[i] = byte(c)
		if c == 0 {
			b = b[:i]
			break
		}
	}
	d.dname = string(b)
	return nil
}

// setLimits populates d.lim from the device's reported limits.
func (d *Driver) setLimits(lim *vk.PhysicalDeviceLimits) {
	d.lim = driver.Limits{
		MaxImage2D:      int(lim.MaxImageDimension2D),
		MaxDescHeaps:    int(lim.MaxBoundDescriptorSets),
		MaxConstantSize: int(lim.MaxPushConstantsSize),
		MaxDispatch: [3]int{
			int(lim.MaxComputeWorkGroupCount[0]),
			int(lim.MaxComputeWorkGroupCount[1]),
			int(lim.MaxComputeWorkGroupCount[2]),
		},
	}
}

// DeviceName returns the name of the device that the driver is using.
func (d *Driver) DeviceName() string { return d.dname }

// checkResult converts a Vulkan result code into a driver error.
// Success and other non-negative codes map to nil.
func checkResult(res vk.Result) error {
	if res >= 0 {
		return nil
	}
	switch res {
	case vk.ErrorOutOfHostMemory:
		return driver.ErrNoHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return driver.ErrNoDeviceMemory
	case vk.ErrorDeviceLost:
		return driver.ErrFatal
	case vk.ErrorInitializationFailed:
		return errInitFailed
	case vk.ErrorMemoryMapFailed:
		return errMMapFailed
	case vk.ErrorExtensionNotPresent:
		return errNoExtension
	case vk.ErrorFeatureNotPresent:
		return errNoFeature
	case vk.ErrorIncompatibleDriver:
		return errDriverCompat
	case vk.ErrorTooManyObjects:
		return errTooManyObjects
	case vk.ErrorFormatNotSupported:
		return errUnsupportedFormat
	}
	return errUnknown
}

var (
	errInitFailed        = errors.New("vk: initialization failed")
	errMMapFailed        = errors.New("vk: memory map failed")
	errNoExtension       = errors.New("vk: extension not present")
	errNoFeature         = errors.New("vk: feature not present")
	errDriverCompat      = errors.New("vk: incompatible driver")
	errTooManyObjects    = errors.New("vk: too many objects")
	errUnsupportedFormat = errors.New("vk: format not supported")
	errUnknown           = errors.New("vk: unknown error")
)
