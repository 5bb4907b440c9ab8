// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) downloadCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <report-id>",
		Short: "Download the file of a completed report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				a.cfg.DownloadDir = dir
			}

			return a.runDownload(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory the file is saved to")

	return cmd
}

func (a *app) runDownload(ctx context.Context, id string) error {
	ctx = a.withLogger(ctx)

	c, cleanup, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := c.API.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if err := c.Downloader.Download(ctx, *report); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %s\n", report.FileName)

	return nil
}
