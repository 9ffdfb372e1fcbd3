package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RequireSuperuser restricts a route to superusers.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsSuperuser(r.Context()) {
			jsonForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuserOrSelf allows access if the caller is a superuser or is
// accessing their own resource. Expects {id} URL parameter.
func RequireSuperuserOrSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsSuperuser(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		resourceID := chi.URLParam(r, "id")
		if resourceID != "" && resourceID == GetUserID(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		jsonForbidden(w)
	})
}
