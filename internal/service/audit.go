package service

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"orgdirectory/internal/models"
	"orgdirectory/internal/rbac"
)

func recordAudit(tx *gorm.DB, actor *models.User, action string, target *models.User, extra map[string]interface{}, meta RequestMeta) error {
	metadata := map[string]interface{}{
		"username":  target.Username,
		"is_active": target.IsActive,
	}
	for k, v := range extra {
		metadata[k] = v
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	entry := models.AuditLog{
		Action:     action,
		TargetType: "user",
		TargetID:   target.ID,
		Metadata:   datatypes.JSON(metaJSON),
		IP:         meta.IP,
		UserAgent:  truncate(meta.UserAgent, 255),
	}
	if actor != nil {
		id := actor.ID
		entry.ActorID = &id
		entry.InitiatorName = actor.Username
	} else {
		entry.InitiatorName = target.Username
	}
	return tx.Create(&entry).Error
}

type AuditQuery struct {
	Limit   int
	AfterID int64
	Search  string
}

const (
	defaultAuditLimit = 20
	maxAuditLimit     = 100
)

type Audit struct {
	DB *gorm.DB
}

// List pages through the audit trail newest first. The returned cursor is
// the id to pass as AfterID for the next page, or nil on the last page.
func (s *Audit) List(ctx context.Context, actor *models.User, q AuditQuery) ([]models.AuditLog, *int64, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, nil, err
	}

	limit := q.Limit
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	query := s.DB.WithContext(ctx).Model(&models.AuditLog{}).Order("id DESC")
	if q.AfterID > 0 {
		query = query.Where("id < ?", q.AfterID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := likePattern(search)
		query = query.Where(
			"(LOWER(initiator_name) LIKE ? ESCAPE '!' OR LOWER(action) LIKE ? ESCAPE '!' OR LOWER(ip) LIKE ? ESCAPE '!')",
			like, like, like)
	}

	var logs []models.AuditLog
	if err := query.Limit(limit + 1).Find(&logs).Error; err != nil {
		return nil, nil, err
	}

	var next *int64
	if len(logs) > limit {
		logs = logs[:limit]
		cursor := logs[limit-1].ID
		next = &cursor
	}
	return logs, next, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
