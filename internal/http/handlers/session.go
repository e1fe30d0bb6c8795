package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TokenIssuer interface {
	Issue(email string) (string, error)
}

type SessionRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type SessionHandler struct {
	tokens       TokenIssuer
	cookieMaxAge time.Duration
	secure       bool
}

func NewSessionHandler(tokens TokenIssuer, cookieMaxAge time.Duration, secure bool) *SessionHandler {
	return &SessionHandler{tokens: tokens, cookieMaxAge: cookieMaxAge, secure: secure}
}

// Issue trades an email vouched for by the identity provider for a signed
// session cookie.
func (h *SessionHandler) Issue(ctx *gin.Context) {
	var req SessionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	token, err := h.tokens.Issue(strings.TrimSpace(req.Email))
	if err != nil {
		fail(ctx, apperr.Internal("Could not issue session", err))
		return
	}

	h.setCookie(ctx, token, int(h.cookieMaxAge.Seconds()))
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout only clears the cookie; an already-issued token stays valid until it expires.
func (h *SessionHandler) Logout(ctx *gin.Context) {
	h.setCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SessionHandler) setCookie(ctx *gin.Context, value string, maxAge int) {
	// browsers drop SameSite=None cookies that are not Secure
	sameSite := http.SameSiteNoneMode
	if !h.secure {
		sameSite = http.SameSiteLaxMode
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: sameSite,
	})
}
