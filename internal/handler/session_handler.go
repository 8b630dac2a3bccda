/*
Package handler provides HTTP handler functions for session management.

The OAuth dance itself happens at an external identity provider; this file only
exchanges a verified profile for a signed session cookie, enforcing the
configured email domain allow-list, and gates the authenticated surface.
*/
package handler

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/req"
	"dmchat/internal/pkg/resp"
)

type SessionInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// HandleCreateSession exchanges a verified identity profile for a session token.
// The token is returned in the body and also set as an HTTP-only cookie for
// browser clients.
func HandleCreateSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SessionInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, err := mail.ParseAddress(input.Email); err != nil || input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !deps.Config.EmailDomainAllowed(input.Email) {
			logx.Warn("Sign-in rejected: email domain not allowed", "email", input.Email)
			resp.RespondError(w, r, errs.NewError(errs.ErrEmailDomainNotAllowed))
			return
		}

		payload := &jwt.Payload{
			Email:  input.Email,
			Name:   input.Name,
			Avatar: input.Photo,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "Failed to generate session token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     jwt.SessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(jwt.SessionExpiration),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   deps.Config.Environment != "development",
		})

		data := map[string]any{
			"token": token,
			"email": input.Email,
			"name":  input.Name,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleGetSession returns the profile behind the caller's session.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		data := map[string]any{
			"email":  payload.Email,
			"name":   payload.Name,
			"avatar": payload.Avatar,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleDeleteSession clears the session cookie.
func HandleDeleteSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     jwt.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		resp.RespondSuccess(w, r, nil)
	}
}

// RequireSession guards routes that need a signed-in caller. Browser
// navigations are redirected to the login page; API callers get a 401 envelope.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		next.ServeHTTP(w, r)
	})
}
