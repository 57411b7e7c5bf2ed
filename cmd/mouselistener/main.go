// Command mouselistener builds the C shared library:
//
//	go build -buildmode=c-shared -o libmouse_listener.so ./cmd/mouselistener
//
// The exported functions only marshal values; behaviour lives in
// internal/bridge.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"context"
	"errors"
	"unsafe"

	"github.com/vedantwpatil/mouse-listener/internal/bridge"
	"github.com/vedantwpatil/mouse-listener/internal/config"
	"github.com/vedantwpatil/mouse-listener/internal/osinput"
	"github.com/vedantwpatil/mouse-listener/pkg/logger"
	"github.com/vedantwpatil/mouse-listener/pkg/metrics"
)

// registry is the process-wide listener slot behind every exported function.
var registry = bridge.NewRegistry(
	bridge.WithSourceFactory(osinput.SourceFor),
	bridge.WithMetrics(metrics.Global()),
)

// start_mouse_listener starts the listener with the default configuration.
// Calls after the first are ignored. The result is always NULL.
//
//export start_mouse_listener
func start_mouse_listener() unsafe.Pointer {
	start(config.New())
	return nil
}

// start_mouse_listener_with_config is start_mouse_listener with settings
// read from a YAML file. NULL or an empty path means the defaults.
//
//export start_mouse_listener_with_config
func start_mouse_listener_with_config(path *C.char) unsafe.Pointer {
	var p string
	if path != nil {
		p = C.GoString(path)
	}
	cfg, err := config.Load(context.Background(), p)
	if err != nil {
		logger.Named("cabi").Error(context.Background(), "failed to load listener config",
			logger.String("path", p), logger.Error(err))
		return nil
	}
	start(cfg)
	return nil
}

// get_mouse_position writes the last pointer position, or (-1, -1) before
// the listener has started. x and y must be valid and writable.
//
//export get_mouse_position
func get_mouse_position(x, y *C.double) {
	px, py := registry.MousePosition()
	*x = C.double(px)
	*y = C.double(py)
}

// get_last_click_position writes the last click position, or (-1, -1)
// before the listener has started. x and y must be valid and writable.
//
//export get_last_click_position
func get_last_click_position(x, y *C.double) {
	px, py := registry.LastClickPosition()
	*x = C.double(px)
	*y = C.double(py)
}

// get_listener_stats writes the click, dropped-click and failed-subscription
// counters. Every pointer must be valid and writable.
//
//export get_listener_stats
func get_listener_stats(clicks, writeFailures, subscriptionFailures *C.uint64_t) {
	stats := registry.Stats()
	*clicks = C.uint64_t(stats.ClicksLogged)
	*writeFailures = C.uint64_t(stats.LogWriteFailures)
	*subscriptionFailures = C.uint64_t(stats.SubscriptionFailures)
}

// get_listener_metrics copies the Prometheus text exposition of the listener
// metrics into buf as a NUL-terminated string, truncating like snprintf, and
// returns the full length. buf may be NULL when size is 0.
//
//export get_listener_metrics
func get_listener_metrics(buf *C.char, size C.size_t) C.size_t {
	var dst []byte
	if buf != nil && size > 0 {
		dst = unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))
	}
	return C.size_t(registry.ReadMetrics(dst))
}

func start(cfg *config.Config) {
	err := registry.Start(context.Background(), cfg)
	if err != nil && !errors.Is(err, bridge.ErrAlreadyStarted) {
		logger.Named("cabi").Error(context.Background(), "failed to start mouse listener", logger.Error(err))
	}
}

func main() {}
