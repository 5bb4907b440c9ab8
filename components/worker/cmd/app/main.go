// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/navimedi/reporter/components/worker/internal/bootstrap"
	"github.com/navimedi/reporter/pkg"
)

func main() {
	pkg.InitLocalEnvConfig()

	svc, err := bootstrap.InitWorker()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize worker: %v\n", err)
		os.Exit(1)
	}

	svc.Run()
}
