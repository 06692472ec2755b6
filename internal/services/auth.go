package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/aletheia-backend/internal/data/db"
	"github.com/yungbote/aletheia-backend/internal/data/repos"
	userrepo "github.com/yungbote/aletheia-backend/internal/data/repos/user"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/ctxutil"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit
	maxOriginStory = 5000
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,32}$`)

type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Manifesto   string
	OriginStory string
	Stats       *progression.RawStats
}

type AuthResult struct {
	Profile   *types.Profile
	Token     string
	ExpiresIn int
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	// SetContextFromToken verifies a bearer token and stores the profile id
	// on the returned context.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	profiles     repos.ProfileRepo
	board        LeaderboardService
	jwtSecretKey []byte
	accessTTL    time.Duration
	cost         int
	now          func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	profiles repos.ProfileRepo,
	board LeaderboardService,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		profiles:     profiles,
		board:        board,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
		cost:         bcrypt.DefaultCost,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func validateUsername(raw string) (string, error) {
	username := userrepo.NormalizeUsername(raw)
	if !usernamePattern.MatchString(username) {
		return "", apierr.BadRequest("invalid_username", "username must be 3-32 characters of a-z, 0-9, _ or .")
	}
	return username, nil
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return nil, apierr.BadRequest("invalid_password", fmt.Sprintf("password must be %d-%d characters", minPasswordLen, maxPasswordLen))
	}
	manifesto := strings.TrimSpace(in.Manifesto)
	if utf8.RuneCountInString(manifesto) > maxManifestoRunes {
		return nil, apierr.BadRequest("invalid_request", "manifesto is too long")
	}
	origin := trimTo(strings.TrimSpace(in.OriginStory), maxOriginStory)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	stats := progression.DefaultStats()
	if in.Stats != nil {
		stats = progression.SanitizeInitialStats(*in.Stats)
	}
	display := trimTo(strings.TrimSpace(in.DisplayName), maxDisplayName)
	if display == "" {
		display = username
	}

	p := &types.Profile{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  display,
		Manifesto:    manifesto,
		OriginStory:  origin,
		Stats:        datatypes.NewJSONType(stats),
		Inventory:    datatypes.NewJSONType([]types.Artifact{}),
		Goals:        datatypes.NewJSONType([]string{}),
	}
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return as.profiles.Create(dbctx.Context{Ctx: ctx, Tx: tx}, p)
	}); err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, apierr.Conflict("username_taken", "username is taken")
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	as.log.Info("profile registered", "user_id", p.ID)
	as.board.Sync(ctx, p)
	return as.issue(p)
}

func (as *authService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	invalid := apierr.Unauthorized("invalid_credentials", "invalid username or password")
	p, err := as.profiles.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil || p.IsDeactivated {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	return as.issue(p)
}

func (as *authService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	normalized, err := validateUsername(username)
	if err != nil {
		return false, err
	}
	exists, err := as.profiles.UsernameExists(dbctx.Context{Ctx: ctx}, normalized)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !exists, nil
}

func (as *authService) issue(p *types.Profile) (*AuthResult, error) {
	now := as.now()
	claims := jwt.RegisteredClaims{
		Subject:   p.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Profile: p, Token: tok, ExpiresIn: int(as.accessTTL.Seconds())}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !tok.Valid {
		return ctx, apierr.Unauthorized("unauthorized", "invalid or expired token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("unauthorized", "invalid token subject")
	}
	p, err := as.profiles.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return ctx, fmt.Errorf("load token profile: %w", err)
	}
	if p == nil || p.IsDeactivated {
		return ctx, apierr.Unauthorized("unauthorized", "account no longer exists")
	}
	return ctxutil.WithUserID(ctx, id), nil
}

// ActingUser returns the authenticated profile id or a 401.
func ActingUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctxutil.UserID(ctx)
	if !ok {
		return uuid.Nil, apierr.Unauthorized("unauthorized", "authentication required")
	}
	return id, nil
}

// RequireSelf rejects acting on another profile's resources.
func RequireSelf(actor, owner uuid.UUID) error {
	if actor != owner {
		return apierr.Forbidden("cannot act on another profile")
	}
	return nil
}
