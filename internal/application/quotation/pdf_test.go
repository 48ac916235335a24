package quotation

import (
	"context"
	"errors"
	"testing"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/printing"
	"github.com/cotiza/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrinter struct {
	err     error
	printed []string
}

func (p *fakePrinter) Print(_ context.Context, q *quotation.Quotation) (*printing.Document, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.printed = append(p.printed, q.Number)
	return &printing.Document{
		Filename:  "cotizacion_" + q.Number + ".pdf",
		Content:   []byte("%PDF-1.7 " + q.Number),
		PageCount: 1,
	}, nil
}

type failingStorage struct {
	storage.ObjectStorage
}

func (failingStorage) Upload(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

func TestService_PDF(t *testing.T) {
	printer := &fakePrinter{}
	archive := storage.NewMemoryObjectStorage()
	svc, _ := newSQLiteService(t, WithPrinter(printer), WithArchive(archive))
	ctx := context.Background()

	created, err := svc.Create(ctx, newActor("Laura"), createRequest("Acme", serviceTestNow))
	require.NoError(t, err)

	doc, err := svc.PDF(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cotizacion_COT-2025-001.pdf", doc.Filename)
	assert.Equal(t, []string{"COT-2025-001"}, printer.printed)

	stored, contentType, ok := archive.Object("quotations/2025/COT-2025-001.pdf")
	require.True(t, ok, "the rendered file is archived")
	assert.Equal(t, storage.ContentTypePDF, contentType)
	assert.Equal(t, doc.Content, stored)

	_, err = svc.PDF(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_PDFArchiveFailureIsNotFatal(t *testing.T) {
	svc, _ := newSQLiteService(t, WithPrinter(&fakePrinter{}), WithArchive(failingStorage{}))
	ctx := context.Background()

	created, err := svc.Create(ctx, newActor("Laura"), createRequest("Acme", serviceTestNow))
	require.NoError(t, err)

	doc, err := svc.PDF(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Content)
}

func TestService_PDFUnavailable(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no printer", nil},
		{"renderer disabled", []Option{WithPrinter(&fakePrinter{
			err: &printing.RenderError{Code: printing.ErrCodeRendererDisabled, Message: "pdf rendering is disabled"},
		})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSQLiteService(t, tt.opts...)
			ctx := context.Background()
			created, err := svc.Create(ctx, newActor("Laura"), createRequest("Acme", serviceTestNow))
			require.NoError(t, err)

			_, err = svc.PDF(ctx, created.ID)
			requireDomainCode(t, err, CodePDFUnavailable)
		})
	}
}

func TestService_PDFRenderFailure(t *testing.T) {
	boom := &printing.RenderError{Code: printing.ErrCodeRenderFailed, Message: "chrome crashed"}
	svc, _ := newSQLiteService(t, WithPrinter(&fakePrinter{err: boom}))
	ctx := context.Background()

	created, err := svc.Create(ctx, newActor("Laura"), createRequest("Acme", serviceTestNow))
	require.NoError(t, err)

	_, err = svc.PDF(ctx, created.ID)
	assert.ErrorIs(t, err, boom)
}
