package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator"
	"go.uber.org/zap"

	"palsanalytix/internal/config"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/middleware"
	"palsanalytix/internal/models"
	"palsanalytix/internal/services"
	helpers "palsanalytix/internal/utils/helpres"
)

type AuthHandler struct {
	authService   *services.AuthService
	signupService *services.SignupService
	validate      *validator.Validate
}

func NewAuthHandler(authService *services.AuthService, signupService *services.SignupService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		signupService: signupService,
		validate:      validator.New(),
	}
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
}

type verifyRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Code       string `json:"code" validate:"required,len=6"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Signup godoc
// @Summary Начать регистрацию: отправить код подтверждения
// @Tags auth
// @Accept json
// @Produce json
// @Param input body signupRequest true "Данные регистрации (email или телефон обязателен)"
// @Success 200 {string} string "Код отправлен"
// @Failure 400 {string} string "Ошибка валидации"
// @Failure 409 {string} string "Пользователь уже зарегистрирован"
// @Router /signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Signup", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Log.Info("Начало регистрации", zap.String("username", req.Username))

	err := h.signupService.Initiate(context.Background(), req.Username, req.Email, req.Phone, req.Password)
	if err != nil {
		logger.Log.Warn("Ошибка начала регистрации", zap.Error(err))
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "Код подтверждения отправлен")
}

// VerifySignup godoc
// @Summary Подтвердить регистрацию кодом из SMS или письма
// @Tags auth
// @Accept json
// @Produce json
// @Param input body verifyRequest true "Идентификатор (телефон или email) и код"
// @Success 201 {object} loginResponse
// @Failure 400 {string} string "Неверный или просроченный код"
// @Router /signup/verify [post]
func (h *AuthHandler) VerifySignup(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в VerifySignup", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.signupService.Verify(context.Background(), req.Identifier, req.Code)
	if err != nil {
		logger.Log.Warn("Ошибка подтверждения регистрации",
			zap.String("identifier", req.Identifier), zap.Error(err))
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, loginResponse{AccessToken: token, User: user})
}

// Login godoc
// @Summary Авторизация по email или телефону
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "Неверный логин или пароль"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, _ := config.LoadConfig()
	tokenTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		tokenTTL = 24 * time.Hour
	}

	token, user, err := h.authService.LoginUser(context.Background(), req.Identifier, req.Password, cfg.JWTSecret, tokenTTL)
	if err != nil {
		logger.Log.Warn("Ошибка входа", zap.String("identifier", req.Identifier), zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{AccessToken: token, User: user})
}

// Profile godoc
// @Summary Получить профиль текущего пользователя
// @Tags profile
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {string} string "Нет доступа"
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	user, err := h.authService.GetUserByID(context.Background(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, user)
}

// UpdatePreferences godoc
// @Summary Сменить курс, главу или настройку уведомлений
// @Tags profile
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.UpdatePreferencesRequest true "Новые предпочтения"
// @Success 200 {string} string "Предпочтения обновлены"
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/profile/preferences [patch]
func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	var req models.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в UpdatePreferences", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.authService.UpdatePreferences(context.Background(), userID, &req); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, "Предпочтения обновлены")
}

// ListUsers godoc
// @Summary Список всех пользователей (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {string} string "Доступ запрещён"
// @Router /api/admin/users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.GetAllUsers(context.Background())
	if err != nil {
		logger.Log.Error("Ошибка получения списка пользователей", zap.Error(err))
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, users)
}
