/*
Copyright 2025 The Kubeflow authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package util

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// terminationSignals are signals that cause the program to exit in the
// supported platforms (linux, darwin, windows).
var terminationSignals = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// InterruptHandler cancels a context on the first termination signal and
// runs the notify functions exactly once, so an interrupted run can stop
// the in-flight managed job before the process exits.
type InterruptHandler struct {
	notify []func()
	once   sync.Once
	stop   func()
}

// NewInterruptHandler derives a cancellable context from parent that is
// cancelled on SIGHUP/SIGINT/SIGTERM/SIGQUIT. The notify functions run
// after cancellation, once, whether triggered by a signal or by Close.
func NewInterruptHandler(parent context.Context, notify ...func()) (context.Context, *InterruptHandler) {
	ctx, cancel := context.WithCancel(parent)
	h := &InterruptHandler{notify: notify}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, terminationSignals...)
	h.stop = func() {
		signal.Stop(ch)
		cancel()
	}

	go func() {
		select {
		case <-ch:
			h.fire()
		case <-ctx.Done():
		}
	}()

	return ctx, h
}

// Close cancels the derived context and runs the notifications if a signal
// has not already done so.
func (h *InterruptHandler) Close() {
	h.fire()
}

func (h *InterruptHandler) fire() {
	h.once.Do(func() {
		h.stop()
		for _, fn := range h.notify {
			fn()
		}
	})
}
