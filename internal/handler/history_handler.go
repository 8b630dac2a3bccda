/*
Package handler provides the HTTP handler function for conversation history queries.
*/
package handler

import (
	"net/http"

	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/resp"
)

// HandleChatHistory returns every persisted message between the caller and the
// partner given in the query string, ordered by timestamp ascending.
func HandleChatHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		partner := r.URL.Query().Get("partner")
		if partner == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrPartnerRequired))
			return
		}

		history, err := deps.Messages.Conversation(r.Context(), payload.Email, partner)
		if err != nil {
			logx.Error(err, "Failed to load conversation history",
				"caller", payload.Email,
				"partner", partner,
			)
			resp.RespondError(w, r, errs.NewError(errs.ErrHistoryQueryFailed))
			return
		}

		data := map[string]any{
			"partner": partner,
			"history": history,
		}
		resp.RespondSuccess(w, r, data)
	}
}
