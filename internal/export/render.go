package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// Renderer turns a complete HTML document into a validated PDF.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// A4 paper size in inches for PrintToPDF.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// ChromiumRenderer renders through a headless Chromium instance. The browser
// is launched lazily on first use and reused across renders.
type ChromiumRenderer struct {
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *zap.Logger
}

// NewChromiumRenderer creates a renderer. No browser is started until the
// first render.
func NewChromiumRenderer(logger *zap.Logger) *ChromiumRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromiumRenderer{logger: logger}
}

func (r *ChromiumRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("render: launch chromium: %w", err)
	}
	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("render: connect: %w", err)
	}
	r.lnch = l
	r.browser = b
	r.logger.Info("chromium renderer started", zap.String("url", wsURL))
	return b, nil
}

// RenderPDF loads the HTML into a fresh page, prints it to PDF, and
// validates the result before returning it.
func (r *ChromiumRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	b, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("render: open page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("render: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("render: wait load: %w", err)
	}

	w := paperWidthIn
	h := paperHeightIn
	printBackground := true
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &w,
		PaperHeight:     &h,
		PrintBackground: printBackground,
	})
	if err != nil {
		return nil, fmt.Errorf("render: print: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("render: read stream: %w", err)
	}

	if err := validatePDF(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Close shuts down the browser if one was started.
func (r *ChromiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.lnch != nil {
		r.lnch.Cleanup()
	}
	r.browser = nil
	r.lnch = nil
	return err
}

// validatePDF checks the rendered bytes parse as a PDF with at least one
// page. A render that produces an unreadable artifact counts as a failure so
// the ladder can degrade instead of shipping a broken file.
func validatePDF(data []byte) error {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("render: artifact validation: %w", err)
	}
	if pdfCtx.PageCount < 1 {
		return fmt.Errorf("render: artifact has no pages")
	}
	return nil
}
