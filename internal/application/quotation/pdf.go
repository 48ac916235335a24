package quotation

import (
	"context"
	"errors"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/infrastructure/printing"
	"github.com/cotiza/backend/internal/infrastructure/storage"
	"github.com/cotiza/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CodePDFUnavailable is returned when PDF export is not configured
const CodePDFUnavailable = "PDF_UNAVAILABLE"

// PDF renders a quotation. When an archive is configured the file is also stored
// under quotations/<year>/<number>.pdf; archive failures are logged, not returned.
func (s *Service) PDF(ctx context.Context, id uuid.UUID) (*printing.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", "pdf", telemetry.SpanAttrQuotationID, id)
	defer span.End()

	if s.printer == nil {
		return nil, shared.NewDomainError(CodePDFUnavailable, "PDF export is not enabled")
	}

	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := s.printer.Print(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		var renderErr *printing.RenderError
		if errors.As(err, &renderErr) && renderErr.Code == printing.ErrCodeRendererDisabled {
			return nil, shared.NewDomainError(CodePDFUnavailable, "PDF export is not enabled")
		}
		return nil, err
	}

	if s.archive != nil {
		key := storage.QuotationPDFKey(q.Number, q.CreatedAt)
		if err := s.archive.Upload(ctx, key, doc.Content, storage.ContentTypePDF); err != nil {
			logger.L(ctx).Warn("failed to archive quotation pdf", zap.String("key", key), zap.Error(err))
		}
	}
	return doc, nil
}
