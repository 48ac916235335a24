package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewChromedpRenderer(t *testing.T) {
	t.Run("remote websocket endpoint", func(t *testing.T) {
		r, err := NewChromedpRenderer(config.PDFConfig{RemoteURL: "ws://chrome:9222", Timeout: 20 * time.Second}, nil)
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, 20*time.Second, r.timeout)
		assert.NotNil(t, r.allocCtx)
	})

	t.Run("default timeout", func(t *testing.T) {
		r, err := NewChromedpRenderer(config.PDFConfig{RemoteURL: "http://chrome:9222"}, zap.NewNop())
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, defaultRenderTimeout, r.timeout)
	})

	t.Run("rejects non devtools url", func(t *testing.T) {
		_, err := NewChromedpRenderer(config.PDFConfig{RemoteURL: "ftp://chrome"}, nil)
		assert.ErrorContains(t, err, "remote_url")
	})
}

func TestPrintParams(t *testing.T) {
	tests := []struct {
		name          string
		req           *RenderRequest
		width, height int
		landscape     bool
	}{
		{"a4 portrait", &RenderRequest{PaperSize: PaperSizeA4, Margins: DefaultMargins()}, 210, 297, false},
		{"a4 landscape", &RenderRequest{PaperSize: PaperSizeA4, Orientation: OrientationLandscape}, 210, 297, true},
		{"letter", &RenderRequest{PaperSize: PaperSizeLetter}, 216, 279, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := printParams(tt.req)
			assert.InDelta(t, mmToInches(tt.width), params.PaperWidth, 0.001)
			assert.InDelta(t, mmToInches(tt.height), params.PaperHeight, 0.001)
			assert.Equal(t, tt.landscape, params.Landscape)
			assert.True(t, params.PrintBackground)
			assert.False(t, params.DisplayHeaderFooter)
		})
	}
}

func TestPrintParams_Margins(t *testing.T) {
	params := printParams(&RenderRequest{
		PaperSize: PaperSizeA4,
		Margins:   Margins{Top: 10, Right: 15, Bottom: 20, Left: 25},
	})

	assert.InDelta(t, mmToInches(10), params.MarginTop, 0.001)
	assert.InDelta(t, mmToInches(15), params.MarginRight, 0.001)
	assert.InDelta(t, mmToInches(20), params.MarginBottom, 0.001)
	assert.InDelta(t, mmToInches(25), params.MarginLeft, 0.001)
}

func TestPrintParams_FooterOnly(t *testing.T) {
	params := printParams(&RenderRequest{
		PaperSize:  PaperSizeA4,
		Margins:    DefaultMargins(),
		FooterHTML: `<div><span class="pageNumber"></span></div>`,
	})

	assert.True(t, params.DisplayHeaderFooter)
	assert.Equal(t, blankTemplate, params.HeaderTemplate)
	assert.Contains(t, params.FooterTemplate, "pageNumber")
	assert.InDelta(t, mmToInches(10), params.MarginTop, 0.001)
	assert.InDelta(t, mmToInches(headerFooterMargin), params.MarginBottom, 0.001)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, wrapDocument(&RenderRequest{HTML: full}))

	wrapped := wrapDocument(&RenderRequest{HTML: "<p>Hola</p>", Title: "A & B"})
	assert.Contains(t, wrapped, `<html lang="es">`)
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>Hola</p></body>")
}

func TestChromedpRenderer_RejectsBadRequests(t *testing.T) {
	r := &ChromedpRenderer{timeout: time.Second, logger: zap.NewNop()}
	ctx := context.Background()

	_, err := r.Render(ctx, nil)
	assertRenderCode(t, err, ErrCodeInvalidHTML)

	_, err = r.Render(ctx, &RenderRequest{HTML: "   ", PaperSize: PaperSizeA4})
	assertRenderCode(t, err, ErrCodeInvalidHTML)

	_, err = r.Render(ctx, &RenderRequest{HTML: "<p>x</p>", PaperSize: "A0"})
	assertRenderCode(t, err, ErrCodeInvalidPaperSize)
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF-1.4")))
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
}

func TestDisabledRenderer(t *testing.T) {
	_, err := DisabledRenderer{}.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>"})
	assertRenderCode(t, err, ErrCodeRendererDisabled)
	assert.NoError(t, DisabledRenderer{}.Close())
}

func TestChromedpRenderer_Close(t *testing.T) {
	called := false
	r := &ChromedpRenderer{allocCancel: func() { called = true }}
	require.NoError(t, r.Close())
	assert.True(t, called)
}

func assertRenderCode(t *testing.T, err error, code string) {
	t.Helper()
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr), "expected RenderError, got %v", err)
	assert.Equal(t, code, renderErr.Code)
}
