package ports

import (
	"context"

	"goassay/models"
)

// RunArchivePort persists completed search results for audit and reporting.
type RunArchivePort interface {
	SaveRun(ctx context.Context, record *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	ListRuns(ctx context.Context, sessionID string, limit int) ([]*models.RunRecord, error)
}
