package printing

import (
	"bytes"
	"context"
	"time"
)

// PDFRenderer turns an HTML document into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderRequest describes one document. Margins are in millimeters; header
// and footer are Chrome print templates and may use the pageNumber and
// totalPages classes.
type RenderRequest struct {
	HTML        string
	Title       string
	PaperSize   PaperSize
	Orientation Orientation
	Margins     Margins
	HeaderHTML  string
	FooterHTML  string
	Timeout     time.Duration // zero uses the renderer default
}

// RenderResult is a rendered PDF
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// Render error codes. The HTTP layer maps ErrCodeRendererDisabled to 503.
const (
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRendererDisabled = "PDF_DISABLED"
)

// RenderError carries one of the ErrCode values
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

// NewRenderError builds a RenderError; cause may be nil
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }

// DisabledRenderer stands in when pdf.enabled is false
type DisabledRenderer struct{}

var _ PDFRenderer = DisabledRenderer{}

// Render always fails with ErrCodeRendererDisabled
func (DisabledRenderer) Render(context.Context, *RenderRequest) (*RenderResult, error) {
	return nil, NewRenderError(ErrCodeRendererDisabled, "PDF export is disabled", nil)
}

// Close is a no-op
func (DisabledRenderer) Close() error { return nil }

var (
	pageObject  = []byte("/Type /Page")
	pagesObject = []byte("/Type /Pages")
)

// estimatePageCount counts leaf page objects. "/Type /Pages" tree nodes share
// the prefix and are subtracted.
func estimatePageCount(pdf []byte) int {
	return max(bytes.Count(pdf, pageObject)-bytes.Count(pdf, pagesObject), 1)
}
