package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/prompts"
)

const (
	maxReportReason = 500
	defaultWarning  = "Your conduct has been flagged. Walk the path with honor."
)

type ReportInput struct {
	ReporterID   uuid.UUID
	TargetUserID *uuid.UUID
	TargetPostID *uuid.UUID
	Reason       string
}

type ReportService interface {
	// Submit stores the report with a model verdict. A warn verdict
	// notifies the reported profile.
	Submit(ctx context.Context, in ReportInput) (*types.Report, error)
}

type reportService struct {
	db       *gorm.DB
	log      *logger.Logger
	reports  repos.ReportRepo
	posts    repos.PostRepo
	profiles repos.ProfileRepo
	notes    repos.NotificationRepo
	oracle   *Oracle
	push     Pusher
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	reports repos.ReportRepo,
	posts repos.PostRepo,
	profiles repos.ProfileRepo,
	notes repos.NotificationRepo,
	oracle *Oracle,
	push Pusher,
) ReportService {
	return &reportService{
		db:       db,
		log:      baseLog.With("service", "ReportService"),
		reports:  reports,
		posts:    posts,
		profiles: profiles,
		notes:    notes,
		oracle:   oracle,
		push:     push,
	}
}

type moderationReply struct {
	Verdict social.Verdict `json:"verdict"`
	Note    string         `json:"note"`
}

func actionFor(v social.Verdict) string {
	switch v {
	case social.VerdictWarn:
		return "warned"
	case social.VerdictEscalate:
		return "escalated"
	case social.VerdictDismiss:
		return "none"
	default:
		return "queued"
	}
}

func (s *reportService) Submit(ctx context.Context, in ReportInput) (*types.Report, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > maxReportReason {
		return nil, apierr.BadRequest("invalid_request", fmt.Sprintf("reason must be 1..%d characters", maxReportReason))
	}
	if in.TargetUserID == nil && in.TargetPostID == nil {
		return nil, apierr.BadRequest("invalid_request", "a target user or post is required")
	}
	dbc := dbctx.Context{Ctx: ctx}

	var content string
	target := in.TargetUserID
	if in.TargetPostID != nil {
		post, err := s.posts.GetByID(dbc, *in.TargetPostID)
		if err != nil {
			return nil, fmt.Errorf("load post: %w", err)
		}
		if post == nil {
			return nil, apierr.NotFound("post_not_found", "post not found")
		}
		content = post.Content
		if target == nil {
			author := post.AuthorID
			target = &author
		}
	}
	if target != nil {
		p, err := s.profiles.GetByID(dbc, *target)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		if p == nil {
			return nil, apierr.NotFound("profile_not_found", "profile not found")
		}
		if content == "" {
			content = strings.TrimSpace(p.DisplayName + "\n" + p.Manifesto)
		}
	}
	if target != nil && *target == in.ReporterID {
		return nil, apierr.BadRequest("invalid_request", "cannot report yourself")
	}

	verdict, _ := askJSON(ctx, s.oracle, prompts.Moderation, map[string]any{
		"Reason":  reason,
		"Content": trimTo(content, maxPostContent),
	}, moderationReply{Verdict: social.VerdictPendingReview}, func(r *moderationReply) error {
		r.Verdict = social.Verdict(strings.ToLower(strings.TrimSpace(string(r.Verdict))))
		switch r.Verdict {
		case social.VerdictDismiss, social.VerdictWarn, social.VerdictEscalate:
		default:
			return errors.New("unknown verdict")
		}
		r.Note = trimTo(strings.TrimSpace(r.Note), maxReportReason)
		return nil
	})

	rep := &types.Report{
		ReporterID:   in.ReporterID,
		TargetUserID: target,
		TargetPostID: in.TargetPostID,
		Reason:       reason,
		AIVerdict:    verdict.Verdict,
		ActionTaken:  actionFor(verdict.Verdict),
	}
	var note *types.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.reports.Create(txc, rep); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if verdict.Verdict != social.VerdictWarn || target == nil {
			return nil
		}
		msg := verdict.Note
		if msg == "" {
			msg = defaultWarning
		}
		note = &types.Notification{
			UserID:  *target,
			Type:    social.NotifySystemWarn,
			PostID:  in.TargetPostID,
			Content: msg,
		}
		if err := s.notes.Create(txc, note); err != nil {
			return fmt.Errorf("notify warning: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	pushNotes(ctx, s.push, note)
	s.log.Info("report filed", "verdict", rep.AIVerdict, "action", rep.ActionTaken)
	return rep, nil
}
