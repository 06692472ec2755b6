package social

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type ReportRepo interface {
	Create(dbc dbctx.Context, r *types.Report) error
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{db: db, log: baseLog.With("repo", "ReportRepo")}
}

func (r *reportRepo) Create(dbc dbctx.Context, rep *types.Report) error {
	if rep == nil {
		return nil
	}
	return dbc.Of(r.db).Create(rep).Error
}

func (r *reportRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Of(r.db).
		Where("reporter_id = ? OR target_user_id = ?", userID, userID).
		Delete(&types.Report{}).Error
}
