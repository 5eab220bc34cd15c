package driver

// GPU is the main interface to an underlying driver implementation.
// It is used to create other types and to execute commands. A GPU is
// obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// Commit submits a batch of command buffers to the GPU for
	// execution. This method sends wk back on ch, with Err set, when
	// all commands in wk.Work complete execution. Command buffers in
	// wk.Work cannot be used for recording until then.
	Commit(wk *WorkItem, ch chan<- *WorkItem) error

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// NewShaderCode creates a new shader code object from a SPIR-V
	// module's bytes.
	NewShaderCode(data []byte) (ShaderCode, error)

	// NewDescHeap creates a new descriptor heap.
	NewDescHeap(ds []Descriptor) (DescHeap, error)

	// NewDescTable creates a new descriptor table.
	NewDescTable(dh []DescHeap) (DescTable, error)

	// NewPipeline creates a new compute pipeline.
	// state must be a pointer to a CompState.
	NewPipeline(state any) (Pipeline, error)

	// NewBuffer creates a new buffer.
	NewBuffer(size int64, visible bool, usg Usage) (Buffer, error)

	// NewImage creates a new 2D image.
	NewImage(pf PixelFmt, size Dim3D, usg Usage) (Image, error)

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external memory
// that is not managed by GC, so Destroy must be called explicitly to
// ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// WorkItem groups a sequence of command buffers for a single Commit
// call, plus the error result of executing them. The order of command
// buffers in Work is meaningful for the caller's own bookkeeping, but
// this driver does not impose cross-buffer wait semantics beyond what
// each buffer itself records.
type WorkItem struct {
	Work []CmdBuffer
	Err  error
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later committed to
// the GPU for execution. The usage is as follows: call Begin to
// prepare the command buffer for recording, then call SetPipeline,
// SetConstants, SetDescTable, Dispatch, Copy*, Transition and
// Barrier as needed, and finally call End and, if it succeeds,
// GPU.Commit.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	// It must be called before any command is recorded, and again
	// after the command buffer is executed or reset.
	Begin() error

	// IsRecording reports whether the command buffer is between a
	// call to Begin and a call to End/Reset.
	IsRecording() bool

	// SetPipeline sets the compute pipeline to use for subsequent
	// Dispatch commands.
	SetPipeline(pl Pipeline)

	// SetConstants updates the push-constant block read by the bound
	// pipeline's shader. data's length and layout must match what the
	// pipeline's shader expects.
	SetConstants(pl Pipeline, data []byte)

	// SetDescTable sets the descriptor table bound to the compute
	// pipeline, selecting heapCopy[i] from the i-th descriptor heap in
	// the table.
	SetDescTable(table DescTable, heapCopy []int)

	// Dispatch dispatches compute work-groups.
	Dispatch(grpCountX, grpCountY, grpCountZ int)

	// CopyBufToImg copies data from a buffer to an image.
	CopyBufToImg(param *BufImgCopy)

	// CopyImgToBuf copies data from an image to a buffer.
	CopyImgToBuf(param *BufImgCopy)

	// Transition inserts image layout transitions in the command
	// buffer, along with the execution/memory barriers needed to make
	// a prior write visible to a subsequent read (or vice versa).
	Transition(t []Transition)

	// Barrier inserts global execution/memory barriers with no layout
	// change.
	Barrier(b []Barrier)

	// End ends command recording and prepares the command buffer for
	// execution. New recordings are not allowed until the command
	// buffer is executed or reset.
	End() error

	// Reset discards all recorded commands from the command buffer.
	Reset() error
}

// BufImgCopy describes the parameters of a copy command that copies
// data between a buffer and an image. RowStrd and SlcStrd specify the
// addressing of image data in the buffer, in pixels; RowStrd is the
// row length and SlcStrd is the image height.
type BufImgCopy struct {
	Buf     Buffer
	BufOff  int64
	RowStrd int
	SlcStrd int
	Img     Image
	ImgOff  Off3D
	Size    Dim3D
}

// Sync is the type of a synchronization scope.
type Sync int

// Synchronization scopes.
const (
	SHost Sync = 1 << iota
	SComputeShading
	SCopy
	SAll
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AShaderRead Access = 1 << iota
	AShaderWrite
	ACopyRead
	ACopyWrite
	AHostWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LShaderStore
	LCopySrc
	LCopyDst
)

// Barrier represents a synchronization barrier.
type Barrier struct {
	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access
}

// Transition represents a layout transition on a specific image,
// along with the barrier that orders it relative to surrounding
// commands.
type Transition struct {
	Barrier

	LayoutBefore Layout
	LayoutAfter  Layout
	Img          Image
}

// ShaderCode is the interface that defines a shader binary for
// execution in a compute pipeline.
type ShaderCode interface {
	Destroyer
}

// ShaderFunc specifies a function within a shader binary.
type ShaderFunc struct {
	Code ShaderCode
	Name string
}

// Stage is a mask of programmable stages. Only compute is relevant to
// this driver, but the mask form matches descriptor stage visibility
// in the underlying API.
type Stage int

// Stages.
const (
	SCompute Stage = 1 << iota
)

// DescType is the type of a descriptor.
type DescType int

// Descriptor types.
const (
	// Read/write image (storage image).
	DImage DescType = iota
	// Read/write buffer (storage buffer).
	DBuffer
)

// Descriptor describes a single binding of data for use in shaders.
type Descriptor struct {
	Type   DescType
	Stages Stage
	// Nr is the binding number within the descriptor set.
	Nr int
	// Len is the number of elements if Nr is an array binding.
	Len int
}

// DescHeap is the interface that defines a set of descriptors for use
// in a compute pipeline.
type DescHeap interface {
	Destroyer

	// New creates enough storage for n copies of each descriptor.
	// Calling New(0) frees all storage.
	New(n int) error

	// SetImage updates the image views referred to by the given
	// descriptor of the given heap copy. The descriptor must be of
	// type DImage.
	SetImage(cpy, nr int, iv []ImageView)

	// SetBuffer updates the buffer ranges referred to by the given
	// descriptor of the given heap copy. The descriptor must be of
	// type DBuffer.
	SetBuffer(cpy, nr int, buf []Buffer, off, size []int64)

	// Count returns the number of heap copies created by New.
	Count() int
}

// DescTable is the interface that defines the bindings between a
// number of descriptor heaps and the shader in a compute pipeline.
type DescTable interface {
	Destroyer
}

// CompState defines the state of a compute pipeline: a single compute
// shader, a descriptor table describing the resources it can access,
// and the size in bytes of its push-constant block (0 if it has none).
type CompState struct {
	Func        ShaderFunc
	Desc        DescTable
	ConstntSize int
}

// Pipeline is the interface that defines a GPU pipeline.
type Pipeline interface {
	Destroyer
}

// Usage is a mask indicating valid uses for a resource.
type Usage int

// Usage flags for Buffer and Image.
const (
	// The resource can be read in shaders (storage).
	UShaderRead Usage = 1 << iota
	// The resource can be written in shaders (storage).
	UShaderWrite
	// The resource can be used as the source of a copy.
	UCopySrc
	// The resource can be used as the destination of a copy.
	UCopyDst
)

// Buffer is the interface that defines a GPU buffer. The size of the
// buffer is fixed.
type Buffer interface {
	Destroyer

	// Visible returns whether the buffer is host visible.
	// Non-visible memory cannot be accessed by the CPU.
	Visible() bool

	// Bytes returns a slice of length Cap referring to the underlying
	// data. If the buffer is not host visible, it returns nil
	// instead. The slice is valid for the lifetime of the buffer.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes, which may be
	// greater than the size requested during buffer creation. This
	// value is immutable.
	Cap() int64
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats used by the pipeline.
const (
	R16Uint PixelFmt = iota
	R16Sfloat
	RGBA16Sfloat
	RGBA8Unorm
)

// Size returns the size in bytes of a single pixel in format f.
func (f PixelFmt) Size() int {
	switch f {
	case R16Uint, R16Sfloat:
		return 2
	case RGBA16Sfloat:
		return 8
	case RGBA8Unorm:
		return 4
	}
	panic("driver: unknown PixelFmt")
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X, Y, Z int
}

// Image is the interface that defines a GPU image. Direct access to
// image memory is not provided, so copying data from the CPU to an
// image resource requires the use of a staging buffer.
type Image interface {
	Destroyer

	// NewView creates a new 2D image view of the image.
	// All views created from a given image must be destroyed before
	// the image itself is destroyed.
	NewView() (ImageView, error)
}

// ImageView is the interface that defines a typed view of an Image
// resource.
type ImageView interface {
	Destroyer

	// Image returns the Image that the view was created from.
	Image() Image
}

// Limits describes implementation limits relevant to the pipeline.
// These may vary across drivers and devices.
type Limits struct {
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum number of descriptor heaps in a descriptor table.
	MaxDescHeaps int
	// Maximum size in bytes of a push-constant block.
	MaxConstantSize int
	// Maximum dispatch count, per dimension.
	MaxDispatch [3]int
}
