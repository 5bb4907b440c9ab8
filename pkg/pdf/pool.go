// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package pdf converts rendered report HTML to PDF with a pool of headless Chrome workers.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	cn "github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

//go:generate mockgen --destination=pool.mock.go --package=pdf . PDFGenerator

// ErrPoolClosed is returned by Render after Close.
var ErrPoolClosed = errors.New("pdf worker pool is closed")

// Compile-time interface satisfaction check.
var _ PDFGenerator = (*WorkerPool)(nil)

// PDFGenerator converts an HTML document to PDF bytes.
type PDFGenerator interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

type taskResult struct {
	pdf []byte
	err error
}

// Task represents a task to generate a PDF.
type Task struct {
	ctx    context.Context
	HTML   string
	Result chan taskResult
}

// WorkerPool manages multiple Chrome workers to generate PDFs.
type WorkerPool struct {
	tasks   chan Task
	done    chan struct{}
	once    sync.Once
	wg      *sync.WaitGroup
	workers int
	timeout time.Duration
	logger  log.Logger
	print   func(ctx context.Context, htmlFilePath string) ([]byte, error)
}

// NewWorkerPool creates a new worker pool, each worker owning one browser process.
func NewWorkerPool(num int, timeout time.Duration, logger log.Logger) *WorkerPool {
	if num <= 0 {
		num = cn.PDFDefaultWorkers
	}

	if timeout <= 0 {
		timeout = cn.PDFDefaultTimeout
	}

	wp := newPool(num, timeout, logger)
	wp.print = wp.generatePDFFromFile

	for i := 0; i < num; i++ {
		wp.wg.Add(1)

		go wp.runWorker(i, wp.startChromeWorker)
	}

	return wp
}

func newPool(num int, timeout time.Duration, logger log.Logger) *WorkerPool {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	return &WorkerPool{
		tasks:   make(chan Task),
		done:    make(chan struct{}),
		wg:      &sync.WaitGroup{},
		workers: num,
		timeout: timeout,
		logger:  logger,
	}
}

func (wp *WorkerPool) runWorker(workerID int, loop func()) {
	defer wp.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Errorf("Panic recovered in PDF worker %d: %v\nStack: %s", workerID, r, string(debug.Stack()))
		}
	}()

	loop()
}

// startChromeWorker reuses a single browser allocator for all tasks of the worker.
func (wp *WorkerPool) startChromeWorker() {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), wp.getChromeOptions()...)
	defer allocCancel()

	wp.consume(func(task Task) {
		wp.processTask(allocCtx, task)
	})
}

// consume feeds tasks to process until the pool closes.
func (wp *WorkerPool) consume(process func(Task)) {
	for {
		select {
		case <-wp.done:
			return
		case task := <-wp.tasks:
			process(task)
		}
	}
}

// getChromeOptions returns Chrome flags for PDF generation in containers with memory limits.
func (wp *WorkerPool) getChromeOptions() []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-plugins", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-features", "TranslateUI,site-per-process"),
		chromedp.Flag("js-flags", "--max-old-space-size="+cn.PDFChromeMaxOldSpaceSize),
		chromedp.Flag("disable-software-rasterizer", true),
	}
}

// processTask handles a single PDF generation task.
func (wp *WorkerPool) processTask(allocCtx context.Context, task Task) {
	htmlSizeKB := float64(len(task.HTML)) / cn.PDFBytesPerKB

	wp.logger.Debugf("Starting PDF generation (HTML size: %.2f KB, timeout: %v)", htmlSizeKB, wp.timeout)

	if len(task.HTML) > cn.PDFLargeHTMLThreshold {
		wp.logger.Warnf("Large HTML detected (%.2f KB). Consider increasing PDF_TIMEOUT_SECONDS if timeouts occur", htmlSizeKB)
	}

	if err := task.ctx.Err(); err != nil {
		task.Result <- taskResult{err: err}
		return
	}

	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	defer ctxCancel()

	ctxTimeout, cancelTimeout := context.WithTimeout(ctx, wp.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(task.ctx, cancelTimeout)
	defer stop()

	task.Result <- wp.renderTask(ctxTimeout, task.HTML)
}

func (wp *WorkerPool) renderTask(ctx context.Context, html string) taskResult {
	tmpFileName, err := wp.createTempHTMLFile(html)
	if err != nil {
		return taskResult{err: err}
	}

	pdfBuf, err := wp.print(ctx, tmpFileName)
	if err == nil {
		err = wp.validatePDF(pdfBuf)
	}

	err = wp.cleanupTempFile(tmpFileName, err)
	if err != nil {
		return taskResult{err: err}
	}

	return taskResult{pdf: pdfBuf}
}

// createTempHTMLFile creates a temporary HTML file with the provided content.
func (wp *WorkerPool) createTempHTMLFile(html string) (string, error) {
	tmpFile, err := os.CreateTemp("", "report-*.html")
	if err != nil {
		wp.logger.Errorf("Failed to create temp HTML file: %v", err)
		return "", fmt.Errorf("failed to create temp HTML file: %w", err)
	}

	tmpFileName := tmpFile.Name()

	if err := tmpFile.Close(); err != nil {
		wp.logger.Warnf("Failed to close temp file %s: %v", tmpFileName, err)
	}

	if err := os.WriteFile(tmpFileName, []byte(html), cn.PDFFilePermissions); err != nil {
		wp.logger.Errorf("Failed to write HTML to temp file: %v", err)

		_ = os.Remove(tmpFileName)

		return "", fmt.Errorf("failed to write HTML to temp file: %w", err)
	}

	return tmpFileName, nil
}

// generatePDFFromFile prints an HTML file to PDF using Chrome.
func (wp *WorkerPool) generatePDFFromFile(ctx context.Context, htmlFilePath string) ([]byte, error) {
	fileURL := "file://" + filepath.ToSlash(htmlFilePath)

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate(fileURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(cn.PDFRenderSettleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error

			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(cn.PDFPaperWidthInches).
				WithPaperHeight(cn.PDFPaperHeightInches).
				WithMarginTop(cn.PDFMarginInches).
				WithMarginBottom(cn.PDFMarginInches).
				WithMarginLeft(cn.PDFMarginInches).
				WithMarginRight(cn.PDFMarginInches).
				WithDisplayHeaderFooter(false).
				Do(ctx)

			return err
		}),
	)
	if err != nil {
		wp.logPDFGenerationError(ctx, err)
		return nil, err
	}

	return pdfBuf, nil
}

// validatePDF rejects output too small to be a real document.
func (wp *WorkerPool) validatePDF(pdfBuf []byte) error {
	if len(pdfBuf) < cn.PDFMinValidSizeBytes {
		wp.logger.Errorf("Final PDF too small: %d bytes", len(pdfBuf))
		return fmt.Errorf("generated PDF is too small (%d bytes), likely empty", len(pdfBuf))
	}

	return nil
}

// cleanupTempFile removes the temporary HTML file and wraps cleanup errors with the original error.
func (wp *WorkerPool) cleanupTempFile(tmpFileName string, originalErr error) error {
	if err := os.Remove(tmpFileName); err != nil {
		wp.logger.Errorf("Failed to remove temp file %s: %v", tmpFileName, err)

		if originalErr == nil {
			return fmt.Errorf("generated PDF successfully but failed to remove temp file %s: %w", tmpFileName, err)
		}

		return fmt.Errorf("%w; additionally failed to remove temp file %s: %v", originalErr, tmpFileName, err)
	}

	return originalErr
}

// logPDFGenerationError logs PDF generation errors with appropriate context.
func (wp *WorkerPool) logPDFGenerationError(ctx context.Context, err error) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		wp.logger.Errorf("PDF generation timeout (configured timeout: %v): %v", wp.timeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		wp.logger.Errorf("PDF generation context canceled: %v", err)
	default:
		wp.logger.Errorf("PDF generation failed: %v", err)
	}
}

// Render sends the HTML to the pool and blocks until the PDF is ready, ctx is done or the pool closes.
func (wp *WorkerPool) Render(ctx context.Context, html string) ([]byte, error) {
	res := make(chan taskResult, 1)

	select {
	case <-wp.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case wp.tasks <- Task{ctx: ctx, HTML: html, Result: res}:
	}

	r := <-res

	return r.pdf, r.err
}

// Close stops accepting tasks and waits for all workers to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		close(wp.done)
	})

	wp.wg.Wait()
}

// GetStats returns pool statistics
func (wp *WorkerPool) GetStats() map[string]any {
	return map[string]any{
		"workers": wp.workers,
		"timeout": wp.timeout,
	}
}

// IsHealthy returns true if the pool is healthy
func (wp *WorkerPool) IsHealthy() bool {
	return wp.workers > 0 && wp.timeout > 0
}
