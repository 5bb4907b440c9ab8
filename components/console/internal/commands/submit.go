// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg/client"
	"github.com/navimedi/reporter/pkg/constant"

	"github.com/spf13/cobra"
)

// defaultWaitTimeout bounds --wait when no --wait-timeout is given.
const defaultWaitTimeout = 10 * time.Minute

type submitOptions struct {
	reportType     string
	format         string
	from           string
	to             string
	testResults    bool
	charts         bool
	patientDetails bool
	financials     bool
	wait           bool
	waitTimeout    time.Duration
	download       bool
}

func (a *app) submitCmd() *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Request a new report",
		Long: "Request a new report. Without dates the trailing 30 days are used.\n" +
			"With --wait the command polls until the report is completed or failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSubmit(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.reportType, "type", constant.ReportTypeLaboratorySummary, "Report type")
	cmd.Flags().StringVar(&opts.format, "format", constant.FormatPDF, "Output format: pdf, xlsx or csv")
	cmd.Flags().StringVar(&opts.from, "from", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.testResults, "test-results", false, "Include individual test results")
	cmd.Flags().BoolVar(&opts.charts, "charts", false, "Include charts (pdf only)")
	cmd.Flags().BoolVar(&opts.patientDetails, "patient-details", false, "Include patient details")
	cmd.Flags().BoolVar(&opts.financials, "financials", false, "Include billed amounts")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "Wait until the report is completed or failed")
	cmd.Flags().DurationVar(&opts.waitTimeout, "wait-timeout", defaultWaitTimeout, "Maximum time to wait")
	cmd.Flags().BoolVar(&opts.download, "download", false, "Download the file once completed (implies --wait)")

	return cmd
}

// request builds the report request, filling unset dates from the default window.
func (opts *submitOptions) request(now time.Time) (client.ReportRequest, error) {
	req := client.DefaultRequest(now)
	req.ReportType = opts.reportType
	req.Format = opts.format
	req.IncludeTestResults = opts.testResults
	req.IncludeCharts = opts.charts
	req.IncludePatientDetails = opts.patientDetails
	req.IncludeFinancials = opts.financials

	if opts.from != "" {
		from, err := time.Parse(constant.DateLayout, opts.from)
		if err != nil {
			return req, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", opts.from)
		}

		req.DateFrom = from
	}

	if opts.to != "" {
		to, err := time.Parse(constant.DateLayout, opts.to)
		if err != nil {
			return req, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", opts.to)
		}

		req.DateTo = to
	}

	return req, nil
}

func (a *app) runSubmit(ctx context.Context, opts *submitOptions) error {
	req, err := opts.request(a.now())
	if err != nil {
		return err
	}

	ctx = a.withLogger(ctx)

	c, cleanup, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := c.Submitter.Submit(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Report %s created (%s)\n", report.ID, report.Status)

	if !opts.wait && !opts.download {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.waitTimeout)
	defer cancel()

	report, err = c.Poller.Await(waitCtx, report.ID)
	if err != nil {
		return err
	}

	if report.Status == constant.FailedStatus {
		return fmt.Errorf("report %s failed: %s", report.ID, failureReason(report))
	}

	fmt.Fprintf(a.out, "Report %s completed: %s\n", report.ID, report.FileName)

	if !opts.download {
		return nil
	}

	return c.Downloader.Download(ctx, *report)
}

// failureReason extracts the error recorded by the worker, if any.
func failureReason(report *client.GeneratedReport) string {
	if reason, ok := report.Metadata["error"].(string); ok && reason != "" {
		return reason
	}

	return "no reason recorded"
}
