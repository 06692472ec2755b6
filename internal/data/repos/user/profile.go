package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Create(dbc dbctx.Context, p *types.Profile) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Profile, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Profile, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.Profile, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
	// LockByID reads the row FOR UPDATE on drivers that support it.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Profile, error)
	// UpdateStatsCAS writes stats and bumps version only if the row is still
	// at expectedVersion. extra columns are written in the same statement.
	UpdateStatsCAS(dbc dbctx.Context, id uuid.UUID, expectedVersion int64, stats progression.Stats, extra map[string]interface{}) (bool, error)
	// UpdateFieldsCAS is UpdateStatsCAS for non-stat columns. A nil
	// expectedVersion skips the version guard but still bumps it.
	UpdateFieldsCAS(dbc dbctx.Context, id uuid.UUID, expectedVersion *int64, updates map[string]interface{}) (bool, error)
	ListActive(dbc dbctx.Context) ([]*types.Profile, error)
	// Search matches active profiles whose username or display name starts
	// with prefix, case-insensitively, ordered by username.
	Search(dbc dbctx.Context, prefix string, limit int) ([]*types.Profile, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

// NormalizeUsername lower-cases and trims.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *profileRepo) Create(dbc dbctx.Context, p *types.Profile) error {
	if p == nil {
		return nil
	}
	p.Username = NormalizeUsername(p.Username)
	return dbc.Of(r.db).Create(p).Error
}

func (r *profileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Profile, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Profile
	if err := dbc.Of(r.db).Where("id = ?", id).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *profileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Profile, error) {
	var out []*types.Profile
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Of(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) GetByUsername(dbc dbctx.Context, username string) (*types.Profile, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, nil
	}
	var p types.Profile
	if err := dbc.Of(r.db).Where("username = ?", username).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *profileRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	var count int64
	if err := dbc.Of(r.db).
		Model(&types.Profile{}).
		Where("username = ?", NormalizeUsername(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *profileRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Profile, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	q := dbc.Of(r.db)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p types.Profile
	if err := q.Where("id = ?", id).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *profileRepo) UpdateStatsCAS(dbc dbctx.Context, id uuid.UUID, expectedVersion int64, stats progression.Stats, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{}
	for k, v := range extra {
		updates[k] = v
	}
	updates["stats"] = datatypes.NewJSONType(stats)
	return r.UpdateFieldsCAS(dbc, id, &expectedVersion, updates)
}

func (r *profileRepo) UpdateFieldsCAS(dbc dbctx.Context, id uuid.UUID, expectedVersion *int64, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version"] = gorm.Expr("version + 1")
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	q := dbc.Of(r.db).Model(&types.Profile{}).Where("id = ?", id)
	if expectedVersion != nil {
		q = q.Where("version = ?", *expectedVersion)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *profileRepo) ListActive(dbc dbctx.Context) ([]*types.Profile, error) {
	var out []*types.Profile
	if err := dbc.Of(r.db).
		Where("is_deactivated = ?", false).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *profileRepo) Search(dbc dbctx.Context, prefix string, limit int) ([]*types.Profile, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return []*types.Profile{}, nil
	}
	pattern := likeEscaper.Replace(prefix) + "%"
	var out []*types.Profile
	if err := dbc.Of(r.db).
		Where("is_deactivated = ?", false).
		Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Of(r.db).Where("id = ?", id).Delete(&types.Profile{}).Error
}
