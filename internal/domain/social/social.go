package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID     uuid.UUID `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Content      string    `gorm:"not null;type:text;column:content" json:"content"`
	IsSystemPost bool      `gorm:"column:is_system_post;not null;default:false" json:"is_system_post"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type PostLike struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey;column:post_id" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID  `gorm:"type:uuid;not null;index;column:post_id" json:"post_id"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Content   string     `gorm:"not null;type:text;column:content" json:"content"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type NotificationType string

const (
	NotifyResonance   NotificationType = "RESONANCE"
	NotifyFollow      NotificationType = "FOLLOW"
	NotifySystemWarn  NotificationType = "SYSTEM_WARN"
	NotifySystemBan   NotificationType = "SYSTEM_BAN"
	NotifyAchievement NotificationType = "ACHIEVEMENT"
)

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Type      NotificationType `gorm:"not null;size:32;column:type" json:"type"`
	SenderID  *uuid.UUID       `gorm:"type:uuid;column:sender_id" json:"sender_id,omitempty"`
	PostID    *uuid.UUID       `gorm:"type:uuid;column:post_id" json:"post_id,omitempty"`
	Content   string           `gorm:"column:content" json:"content"`
	IsRead    bool             `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type Verdict string

const (
	VerdictDismiss       Verdict = "dismiss"
	VerdictWarn          Verdict = "warn"
	VerdictEscalate      Verdict = "escalate"
	VerdictPendingReview Verdict = "pending_review"
)

type Report struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID   uuid.UUID  `gorm:"type:uuid;not null;index;column:reporter_id" json:"reporter_id"`
	TargetUserID *uuid.UUID `gorm:"type:uuid;index;column:target_user_id" json:"target_user_id,omitempty"`
	TargetPostID *uuid.UUID `gorm:"type:uuid;column:target_post_id" json:"target_post_id,omitempty"`
	Reason       string     `gorm:"column:reason;type:text" json:"reason"`
	AIVerdict    Verdict    `gorm:"column:ai_verdict;size:32" json:"ai_verdict"`
	ActionTaken  string     `gorm:"column:action_taken;size:64" json:"action_taken"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}

func (Report) TableName() string { return "reports" }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
