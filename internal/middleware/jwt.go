package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"palsanalytix/internal/config"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/utils"
)

func JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		cfg, _ := config.LoadConfig()
		authHeader := r.Header.Get("Authorization")

		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			logger.Log.Warn("JWTAuth: отсутствует access token")
			http.Error(w, "Отсутствует access token", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, isAdmin, err := utils.ParseToken(cfg.JWTSecret, tokenString)
		if err != nil {
			logger.Log.Warn("JWTAuth: неверный или просроченный токен", zap.Error(err))
			http.Error(w, "Неверный или просроченный токен", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserID, userID)
		ctx = context.WithValue(ctx, ContextIsAdmin, isAdmin)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
