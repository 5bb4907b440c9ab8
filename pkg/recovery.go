// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"fmt"
	"runtime/debug"

	"github.com/navimedi/reporter/pkg/log"
)

// GoNamed runs fn on its own goroutine labelled name.
// A panic is logged with the label and stack instead of taking the process down,
// then each onPanic hook runs with the recovered value.
func GoNamed(logger log.Logger, name string, fn func(), onPanic ...func(recovered any)) {
	go func() {
		defer recoverNamed(logger, name, onPanic)

		fn()
	}()
}

func recoverNamed(logger log.Logger, name string, onPanic []func(any)) {
	r := recover()
	if r == nil {
		return
	}

	logger.Errorf("Goroutine %q panic recovered: %v\nStack: %s", name, r, string(debug.Stack()))

	for _, hook := range onPanic {
		if hook != nil {
			hook(r)
		}
	}
}

// WorkerName labels a report pipeline goroutine, e.g. "report-worker:reports.generate:2".
func WorkerName(role, queue string, id int) string {
	return fmt.Sprintf("%s:%s:%d", role, queue, id)
}

// PanicError converts a value recovered from a named goroutine into an error.
func PanicError(name string, recovered any) error {
	return fmt.Errorf("goroutine %s panicked: %v", name, recovered)
}
