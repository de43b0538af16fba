package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// Entry describes one auditable action taken by a user.
type Entry struct {
	JobCardID   *uuid.UUID
	UserID      uuid.UUID
	Action      string
	Description string
	Data        map[string]any
}

// Recorder appends audit rows inside the caller's transaction so the trail
// commits or rolls back together with the change it describes.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

type recorder struct {
	logg *logger.Logger
}

// NewRecorder builds the transactional audit recorder.
func NewRecorder(logg *logger.Logger) (Recorder, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recorder{logg: logg}, nil
}

func (r *recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if entry.UserID == uuid.Nil {
		return fmt.Errorf("audit actor required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("audit action required")
	}

	row := models.AuditLog{
		JobCardID:   entry.JobCardID,
		UserID:      entry.UserID,
		Action:      entry.Action,
		Description: entry.Description,
	}
	if len(entry.Data) > 0 {
		data := types.JSONMap(entry.Data)
		row.Data = &data
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	fields := map[string]any{"action": entry.Action, "user_id": entry.UserID.String()}
	if entry.JobCardID != nil {
		fields["job_card_id"] = entry.JobCardID.String()
	}
	r.logg.Debug(r.logg.WithFields(ctx, fields), "audit entry recorded")
	return nil
}
