// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"os"

	"github.com/nnsi/hono-practice-sub008/internal/client"
	"github.com/nnsi/hono-practice-sub008/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cli := client.NewCLI(models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))
	if err := cli.Run(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
