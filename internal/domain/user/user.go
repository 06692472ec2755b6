package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/domain/progression"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityLegendary Rarity = "LEGENDARY"
	RarityMythic    Rarity = "MYTHIC"
)

// ParseRarity falls back to COMMON.
func ParseRarity(s string) Rarity {
	switch r := Rarity(s); r {
	case RarityCommon, RarityRare, RarityLegendary, RarityMythic:
		return r
	default:
		return RarityCommon
	}
}

type Artifact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Rarity       Rarity `json:"rarity"`
	Effect       string `json:"effect"`
	Icon         string `json:"icon"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Color        string `json:"color,omitempty"`
	DateAcquired int64  `json:"dateAcquired"`
	CreatorID    string `json:"creatorId,omitempty"`
}

type Profile struct {
	ID            uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	Username      string                                `gorm:"uniqueIndex;not null;column:username" json:"username"`
	PasswordHash  string                                `gorm:"not null;column:password_hash" json:"-"`
	DisplayName   string                                `gorm:"column:display_name" json:"display_name"`
	AvatarURL     string                                `gorm:"column:avatar_url" json:"avatar_url"`
	CoverURL      string                                `gorm:"column:cover_url" json:"cover_url"`
	Manifesto     string                                `gorm:"column:manifesto;type:text" json:"manifesto"`
	OriginStory   string                                `gorm:"column:origin_story;type:text" json:"origin_story"`
	Stats         datatypes.JSONType[progression.Stats] `gorm:"column:stats;not null" json:"stats"`
	Tasks         datatypes.JSON                        `gorm:"column:tasks" json:"tasks"`
	Inventory     datatypes.JSONType[[]Artifact]        `gorm:"column:inventory" json:"inventory"`
	Goals         datatypes.JSONType[[]string]          `gorm:"column:goals" json:"goals"`
	Entropy       int                                   `gorm:"column:entropy;not null;default:0" json:"entropy"`
	IsVerified    bool                                  `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	IsDeactivated bool                                  `gorm:"column:is_deactivated;not null;default:false" json:"is_deactivated"`
	Version       int64                                 `gorm:"column:version;not null;default:1" json:"version"`
	LastMirrorAt  *time.Time                            `gorm:"column:last_mirror_at" json:"last_mirror_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if len(p.Tasks) == 0 {
		p.Tasks = datatypes.JSON("[]")
	}
	return nil
}

// CurrentStats returns the stored stats, repaired.
func (p *Profile) CurrentStats() progression.Stats {
	return p.Stats.Data().Normalized()
}

// Follow is one directed edge: Follower follows Followee.
type Follow struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey;column:follower_id" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey;index;column:followee_id" json:"followee_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Follow) TableName() string { return "follows" }
