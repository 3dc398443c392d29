package proto

// AnyObjectKind enumerates every interface with a concrete implementation.
// Concrete object types report their kind so generic code (the server's
// debug tracing) can name an object without an import cycle back into
// internal/objects.
type AnyObjectKind int

const (
	KindDisplay AnyObjectKind = iota
	KindRegistry
	KindCallback
	KindCompositor
	KindSurface
	KindShm
	KindShmPool
	KindBuffer
	KindXdgWmBase
	KindXdgSurface
	KindXdgToplevel
)

func (k AnyObjectKind) String() string {
	switch k {
	case KindDisplay:
		return "wl_display"
	case KindRegistry:
		return "wl_registry"
	case KindCallback:
		return "wl_callback"
	case KindCompositor:
		return "wl_compositor"
	case KindSurface:
		return "wl_surface"
	case KindShm:
		return "wl_shm"
	case KindShmPool:
		return "wl_shm_pool"
	case KindBuffer:
		return "wl_buffer"
	case KindXdgWmBase:
		return "xdg_wm_base"
	case KindXdgSurface:
		return "xdg_surface"
	case KindXdgToplevel:
		return "xdg_toplevel"
	default:
		return "unknown"
	}
}

// AnyObject is implemented by every concrete object type; Kind lets
// callers identify a value pulled out of the object table without a type
// switch over every concrete type.
type AnyObject interface {
	Kind() AnyObjectKind
}
