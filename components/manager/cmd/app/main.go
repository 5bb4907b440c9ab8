// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/navimedi/reporter/components/manager/internal/bootstrap"
	"github.com/navimedi/reporter/pkg"
)

// @title						Reporter
// @version					1.0.0
// @description				Clinical report generation API.
// @host						localhost:4005
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				The authorization token in the 'Bearer access_token' format. Only required when AUTH_ENABLED is true.
func main() {
	pkg.InitLocalEnvConfig()

	svc, err := bootstrap.InitServers()
	if err != nil {
		// The structured logger is created inside InitServers.
		fmt.Fprintf(os.Stderr, "Failed to initialize manager: %v\n", err)
		os.Exit(1)
	}

	svc.Run()
}
