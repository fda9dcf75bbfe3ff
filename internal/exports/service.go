package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/adapters/storage"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"id", "location", "provider", "name", "phone", "email", "zip_code",
	"project_type", "timing", "status", "assigned_at", "created_at",
}

// Result carries the CSV payload and, when storage is configured, the
// archive link.
type Result struct {
	CSV      string
	RowCount int
	Archive  *storage.PresignedURL
}

type Service struct {
	repo    *Repository
	storage *storage.Service
	logger  *logger.Logger
}

func NewService(repo *Repository, store *storage.Service, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: store, logger: log}
}

// ExportLeads builds the CSV and archives it best effort. An archive failure
// never loses the export; the inline payload is still returned.
func (s *Service) ExportLeads(ctx context.Context, filter Filter) (Result, error) {
	rows, err := s.repo.ListForExport(ctx, filter)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to query leads for export", err).WithOp("exports.ExportLeads")
	}

	payload, err := renderCSV(rows)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to render export", err).WithOp("exports.ExportLeads")
	}

	result := Result{CSV: string(payload), RowCount: len(rows)}
	if s.storage.Enabled() {
		result.Archive = s.archive(ctx, payload)
	}
	return result, nil
}

func (s *Service) archive(ctx context.Context, payload []byte) *storage.PresignedURL {
	fileKey := fmt.Sprintf("leads/%s/export-%d.csv", time.Now().UTC().Format(dateLayout), time.Now().UnixMilli())

	if _, err := s.storage.Upload(ctx, fileKey, "text/csv", bytes.NewReader(payload), int64(len(payload))); err != nil {
		s.logger.Warn("failed to archive lead export", "fileKey", fileKey, "error", err)
		return nil
	}
	link, err := s.storage.PresignedDownloadURL(ctx, fileKey)
	if err != nil {
		s.logger.Warn("failed to presign lead export", "fileKey", fileKey, "error", err)
		return nil
	}
	return link
}

func renderCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		provider := ""
		if row.ProviderName != nil {
			provider = *row.ProviderName
		}
		assignedAt := ""
		if row.AssignedAt != nil {
			assignedAt = row.AssignedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			row.ID.String(), row.LocationName, provider, row.Name, row.Phone,
			row.Email, row.ZipCode, row.ProjectType, row.Timing, row.Status,
			assignedAt, row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
