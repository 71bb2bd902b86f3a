package controllers

import (
	"net/http"

	"github.com/Digigit24/kumsserpbackend-sub001/api/middleware"
	"github.com/Digigit24/kumsserpbackend-sub001/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// PrivatePing echoes the authenticated identity.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{
			"scope":   "private",
			"status":  "ok",
			"user_id": middleware.UserIDFromContext(r.Context()),
			"role":    middleware.RoleFromContext(r.Context()),
		}
		if site := middleware.SiteIDFromContext(r.Context()); site != "" {
			payload["site_id"] = site
		}
		responses.WriteSuccess(w, payload)
	}
}
