package members

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/middleware"
	"github.com/codezero/photomap/pkg/response"
)

// RegisterRequest is the body for POST /members.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the body for POST /members/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body for POST /members/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest is the optional body for POST /members/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateNameRequest is the body for PATCH /members/name.
type UpdateNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdatePasswordRequest is the body for PATCH /members/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// CheckEmailResponse answers GET /members/check-email.
type CheckEmailResponse struct {
	IsDuplicate bool   `json:"isDuplicate"`
	Message     string `json:"message"`
}

// Handler handles member HTTP endpoints.
type Handler struct {
	svc         *Service
	frontendURL string
}

// NewHandler creates a member handler. frontendURL receives the Kakao redirect.
func NewHandler(svc *Service, frontendURL string) *Handler {
	return &Handler{svc: svc, frontendURL: frontendURL}
}

// Register handles POST /members.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m.ToResponse())
}

// CheckEmail handles GET /members/check-email?email=.
func (h *Handler) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}
	dup, err := h.svc.CheckEmail(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "email is available"
	if dup {
		msg = "email is already in use"
	}
	response.OK(c, CheckEmailResponse{IsDuplicate: dup, Message: msg})
}

// Login handles POST /members/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Authorization", "Bearer "+pair.AccessToken)
	response.OK(c, pair)
}

const kakaoStateCookie = "kakao_state"

// KakaoAuthorize handles GET /members/login/kakao/authorize and redirects to the Kakao consent page.
func (h *Handler) KakaoAuthorize(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(kakaoStateCookie, state, 600, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.svc.KakaoAuthURL(state))
}

// KakaoLogin handles GET /members/login/kakao?code= and redirects to the map page.
// A login started by KakaoAuthorize must echo the state it was given.
func (h *Handler) KakaoLogin(c *gin.Context) {
	if want, err := c.Cookie(kakaoStateCookie); err == nil {
		if c.Query("state") != want {
			response.BadRequest(c, "oauth state mismatch")
			return
		}
		c.SetCookie(kakaoStateCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	}
	pair, err := h.svc.KakaoLogin(c.Request.Context(), c.Query("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	q := url.Values{}
	q.Set("accessToken", pair.AccessToken)
	q.Set("refreshToken", pair.RefreshToken)
	c.Redirect(http.StatusFound, h.frontendURL+"/map?"+q.Encode())
}

// Refresh handles POST /members/refresh-token.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Authorization", "Bearer "+pair.AccessToken)
	response.OK(c, pair)
}

// Logout handles POST /members/logout.
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	if err := h.svc.Logout(c.Request.Context(), middleware.MemberID(c), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "logged out"})
}

// Info handles GET /members/info.
func (h *Handler) Info(c *gin.Context) {
	m, err := h.svc.Info(c.Request.Context(), middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m.ToResponse())
}

// UpdateName handles PATCH /members/name.
func (h *Handler) UpdateName(c *gin.Context) {
	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := h.svc.UpdateName(c.Request.Context(), middleware.MemberID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m.ToResponse())
}

// UpdatePassword handles PATCH /members/password.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.UpdatePassword(c.Request.Context(), middleware.MemberID(c), req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// Delete handles PATCH /members/delete.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.MemberID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "member deleted"})
}
