package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
	"palsanalytix/internal/services"
	helpers "palsanalytix/internal/utils/helpres"
)

type TestHandler struct {
	testService *services.TestService
}

func NewTestHandler(testService *services.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// CreateTest godoc
// @Summary Создать пробный тест (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.Test true "Тест со списком ID вопросов"
// @Success 201 {object} models.Test
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/admin/tests [post]
func (h *TestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var t models.Test
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в CreateTest", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.testService.CreateTest(context.Background(), &t); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusCreated, t)
}

// GetTest godoc
// @Summary Получить тест по ID
// @Tags tests
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID теста"
// @Success 200 {object} models.Test
// @Failure 404 {string} string "Тест не найден"
// @Router /api/tests/{id} [get]
func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	t, err := h.testService.GetTest(context.Background(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, t)
}

// ListTests godoc
// @Summary Список всех тестов
// @Tags tests
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.Test
// @Router /api/tests [get]
func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.testService.GetAllTests(context.Background())
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, tests)
}

// UpdateTest godoc
// @Summary Частично обновить тест (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID теста"
// @Param input body models.UpdateTestRequest true "Изменяемые поля"
// @Success 200 {string} string "Тест обновлён"
// @Failure 404 {string} string "Тест не найден"
// @Router /api/admin/tests/{id} [patch]
func (h *TestHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	var req models.UpdateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.testService.UpdateTest(context.Background(), id, &req); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, "Тест обновлён")
}

// DeleteTest godoc
// @Summary Удалить тест (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID теста"
// @Success 200 {string} string "Тест удалён"
// @Failure 404 {string} string "Тест не найден"
// @Router /api/admin/tests/{id} [delete]
func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.testService.DeleteTest(context.Background(), id); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, "Тест удалён")
}
