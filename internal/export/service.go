package export

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("htmleditor.export")

// Service provides document export functionality
type Service struct {
	chromeTimeout time.Duration
	pandocPath    string
}

// NewService creates an export service. Zero values take defaults.
func NewService(chromeTimeout time.Duration, pandocPath string) *Service {
	if chromeTimeout <= 0 {
		chromeTimeout = 30 * time.Second
	}
	if pandocPath == "" {
		pandocPath = "pandoc"
	}
	return &Service{chromeTimeout: chromeTimeout, pandocPath: pandocPath}
}

// Export generates an export in the requested format. HTML is the source
// unchanged; the other formats print a standalone page built around it.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	if req.Format == FormatHTML || req.Format == "" {
		return &Result{
			Data:     []byte(req.Source),
			Filename: sanitizeFilename(req.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	}

	page, err := RenderDocumentHTML(TemplateData{Title: req.Title, Body: template.HTML(req.Source)})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	started := time.Now()
	var res *Result
	switch req.Format {
	case FormatPDF:
		res, err = exportPDF(ctx, page, req.Title, s.chromeTimeout)
	case FormatDOCX:
		res, err = exportDOCX(ctx, page, req.Title, s.pandocPath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
	if err != nil {
		return nil, err
	}
	log.Infof("exported %s (%d bytes) in %s", res.Filename, len(res.Data), time.Since(started))
	return res, nil
}
