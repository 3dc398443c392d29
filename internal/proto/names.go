package proto

// RequestName and EventName resolve an opcode to the message name the
// schema declared it under, for the debug trace (§6.3). Unknown
// combinations return "?" rather than panicking: the trace is a
// diagnostic aid, never a dispatch-correctness dependency.

var requestNames = map[AnyObjectKind][]string{
	KindDisplay:     {"sync", "get_registry"},
	KindRegistry:    {"bind"},
	KindCallback:    {},
	KindCompositor:  {"create_surface", "create_region"},
	KindSurface: {
		"destroy", "attach", "damage", "frame", "set_opaque_region",
		"set_input_region", "commit", "set_buffer_transform",
		"set_buffer_scale", "damage_buffer",
	},
	KindShm:     {"create_pool"},
	KindShmPool: {"create_buffer", "destroy", "resize"},
	KindBuffer:  {"destroy"},
	KindXdgWmBase: {
		"destroy", "create_positioner", "get_xdg_surface", "pong",
	},
	KindXdgSurface: {
		"destroy", "get_toplevel", "get_popup", "set_window_geometry",
		"ack_configure",
	},
	KindXdgToplevel: {
		"destroy", "set_parent", "set_title", "set_app_id",
		"show_window_menu", "move", "resize", "set_max_size",
		"set_min_size", "set_maximized", "unset_maximized",
		"set_fullscreen", "unset_fullscreen", "set_minimized",
	},
}

var eventNames = map[AnyObjectKind][]string{
	KindDisplay:     {"error", "delete_id"},
	KindRegistry:    {"global", "global_remove"},
	KindCallback:    {"done"},
	KindCompositor:  {},
	KindSurface:     {"enter", "leave"},
	KindShm:         {"format"},
	KindShmPool:     {},
	KindBuffer:      {"release"},
	KindXdgWmBase:   {"ping"},
	KindXdgSurface:  {"configure"},
	KindXdgToplevel: {"configure", "close"},
}

func lookup(table map[AnyObjectKind][]string, kind AnyObjectKind, opcode int) string {
	names, ok := table[kind]
	if !ok || opcode < 0 || opcode >= len(names) {
		return "?"
	}
	return names[opcode]
}

// RequestName resolves a request opcode on kind to its schema name.
func RequestName(kind AnyObjectKind, opcode uint16) string {
	return lookup(requestNames, kind, int(opcode))
}

// EventName resolves an event opcode on kind to its schema name.
func EventName(kind AnyObjectKind, opcode uint16) string {
	return lookup(eventNames, kind, int(opcode))
}
