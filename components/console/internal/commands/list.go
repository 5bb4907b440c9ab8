// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/navimedi/reporter/pkg/client"
	"github.com/navimedi/reporter/pkg/constant"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runList(cmd.Context(), refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached list")

	return cmd
}

func (a *app) runList(ctx context.Context, refresh bool) error {
	ctx = a.withLogger(ctx)

	c, cleanup, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if refresh {
		_, err = c.Registry.Refresh(ctx)
	} else {
		_, err = c.Registry.List(ctx)
	}

	if err != nil {
		return err
	}

	view := c.Registry.View(ctx)
	if view.State == client.ListEmpty {
		fmt.Fprintln(a.out, view.Message)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTITLE\tFORMAT\tSTATUS\tCREATED\tFILE")

	for _, r := range view.Reports {
		fileName := "-"
		if r.Downloadable() {
			fileName = r.FileName
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Title, r.Format, r.Status, r.CreatedAt.Format(constant.DateLayout), fileName)
	}

	return w.Flush()
}
