package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func authPayload(res *services.AuthResult) gin.H {
	return gin.H{
		"success":    true,
		"id":         res.Profile.ID,
		"username":   res.Profile.Username,
		"token":      res.Token,
		"expires_in": res.ExpiresIn,
		"profile":    res.Profile,
	}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username    string                `json:"username"`
		Password    string                `json:"password"`
		DisplayName string                `json:"display_name"`
		Manifesto   string                `json:"manifesto"`
		OriginStory string                `json:"originStory"`
		Stats       *progression.RawStats `json:"stats"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Manifesto:   req.Manifesto,
		OriginStory: req.OriginStory,
		Stats:       req.Stats,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, authPayload(res))
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, authPayload(res))
}

// GET /api/check-username?username=
func (ah *AuthHandler) CheckUsername(c *gin.Context) {
	ok, err := ah.authService.UsernameAvailable(c.Request.Context(), c.Query("username"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"available": ok})
}
