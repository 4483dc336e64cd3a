package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/auditctx"
	"github.com/charlesng35/teamflow/internal/models"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	Action   string
	Resource string
	TeamID   string
	Result   string
	Metadata map[string]any
}

// AuditFilters narrows an audit query. Action accepts an exact name
// ("task.create") or a family ending in ".*" ("task.*").
type AuditFilters struct {
	Action    string
	Result    string
	Resource  string
	TeamID    string
	RequestID string
	Since     *time.Time
	Until     *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// normalised clamps paging to sane bounds.
func (o AuditListOptions) normalised() AuditListOptions {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultAuditPageSize
	}
	o.PageSize = min(o.PageSize, maxAuditPageSize)
	return o
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log stores an audit entry stamped with the request origin carried by ctx.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	record := models.AuditLog{
		Action:   strings.TrimSpace(entry.Action),
		Resource: strings.TrimSpace(entry.Resource),
		TeamID:   strings.TrimSpace(entry.TeamID),
		Result:   strings.TrimSpace(entry.Result),
	}
	switch {
	case record.Action == "":
		return errors.New("audit service: action is required")
	case record.Result == "":
		return errors.New("audit service: result is required")
	}

	if origin, ok := auditctx.FromContext(ctx); ok {
		record.RequestID = origin.RequestID
		record.IPAddress = origin.IPAddress
		record.UserAgent = origin.UserAgent
	}
	if len(entry.Metadata) > 0 {
		record.Metadata = datatypes.JSONMap(entry.Metadata)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("audit service: write %s: %w", record.Action, err)
	}
	return nil
}

// List returns one page of matching entries, newest first, and the total
// number of matches.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)
	opts = opts.normalised()

	query := applyAuditFilters(s.db.WithContext(ctx).Model(&models.AuditLog{}), opts.Filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	results := []models.AuditLog{}
	if total == 0 {
		return results, 0, nil
	}
	err := query.
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&results).Error
	if err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return results, total, nil
}

// CleanupOlderThan removes entries older than retentionDays and returns how
// many were deleted.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func applyAuditFilters(query *gorm.DB, f AuditFilters) *gorm.DB {
	if family, ok := strings.CutSuffix(f.Action, ".*"); ok {
		query = query.Where("action LIKE ?", family+".%")
	} else if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}

	for column, value := range map[string]string{
		"result":     f.Result,
		"resource":   f.Resource,
		"team_id":    f.TeamID,
		"request_id": f.RequestID,
	} {
		if value != "" {
			query = query.Where(column+" = ?", value)
		}
	}

	if f.Since != nil {
		query = query.Where("created_at >= ?", *f.Since)
	}
	if f.Until != nil {
		query = query.Where("created_at <= ?", *f.Until)
	}
	return query
}
