package pdf

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/cvpratico/cv-builder/internal"
	"github.com/cvpratico/cv-builder/internal/cv"
)

//go:embed template/cv.html
var cvTemplateHTML string

var cvTemplate = template.Must(template.New("cv").Parse(cvTemplateHTML))

// Renderer turns a CV into an A4 PDF by rendering the HTML template in a
// headless Chrome instance.
type Renderer struct {
	chromePath    string
	renderTimeout time.Duration
}

func NewRenderer(cfg internal.PdfConfig) *Renderer {
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Renderer{
		chromePath:    cfg.ChromePath,
		renderTimeout: timeout,
	}
}

// RenderCv executes the template and prints it to PDF.
func (r *Renderer) RenderCv(ctx context.Context, data *cv.CreateCvDTO) ([]byte, error) {
	var buf bytes.Buffer
	if err := cvTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute cv template: %w", err)
	}
	return r.renderHTML(ctx, buf.String())
}

func (r *Renderer) renderHTML(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, r.renderTimeout)
	defer cancelRun()

	// Chrome needs a file URL; data URLs truncate on large documents
	tmpDir, err := os.MkdirTemp("", "cv-render-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, err
	}

	var pdfBuf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm -> inches: 8.27 x 11.69
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
