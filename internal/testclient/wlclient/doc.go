//go:build linux

// Package wlclient is a pure Go Wayland client, used as the
// protocol-conformance test harness for internal/server's end-to-end
// tests. It speaks the wire protocol directly over a Unix socket,
// without libwayland-client.so.
//
// # Usage
//
// Connect to a running server and bind to required interfaces:
//
//	display, err := wlclient.ConnectTo(socketPath)
//	if err != nil {
//	    return err
//	}
//	defer display.Close()
//
//	registry, err := display.GetRegistry()
//	if err != nil {
//	    return err
//	}
//
//	// Wait for globals to be advertised
//	display.Roundtrip()
package wlclient
