package middleware

import (
	"net/http"
)

// OnlyAdmin пропускает только запросы с админским токеном.
func OnlyAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isAdmin, ok := r.Context().Value(ContextIsAdmin).(bool)
		if !ok || !isAdmin {
			http.Error(w, "Доступ запрещён", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
