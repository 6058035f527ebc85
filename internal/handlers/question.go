package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"palsanalytix/internal/logger"
	"palsanalytix/internal/middleware"
	"palsanalytix/internal/models"
	"palsanalytix/internal/services"
	helpers "palsanalytix/internal/utils/helpres"
)

const maxImageSize = 10 << 20 // 10 МБ

type QuestionHandler struct {
	questionService *services.QuestionService
}

func NewQuestionHandler(questionService *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

type questionIDsRequest struct {
	IDs []int `json:"ids"`
}

type attemptResponse struct {
	IsCorrect bool `json:"is_correct"`
}

// CreateQuestion godoc
// @Summary Добавить вопрос в банк (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.Question true "Вопрос"
// @Success 201 {object} models.Question
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/admin/questions [post]
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в CreateQuestion", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.questionService.CreateQuestion(context.Background(), &q); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusCreated, q)
}

// UploadImage godoc
// @Summary Загрузить картинку для вопроса (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Файл картинки"
// @Param field formData string false "Назначение картинки (question, optionA...)"
// @Success 200 {object} map[string]string
// @Failure 400 {string} string "Файл не передан"
// @Router /api/admin/questions/images [post]
func (h *QuestionHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидная multipart-форма")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Файл image не передан")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		logger.Log.Error("Ошибка чтения загружаемого файла", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}

	field := r.FormValue("field")
	if field == "" {
		field = "question"
	}

	url, err := h.questionService.UploadImage(context.Background(), field, data, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Log.Error("Ошибка загрузки картинки", zap.String("field", field), zap.Error(err))
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetQuestion godoc
// @Summary Получить вопрос по ID
// @Tags questions
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID вопроса"
// @Success 200 {object} models.Question
// @Failure 404 {string} string "Вопрос не найден"
// @Router /api/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	q, err := h.questionService.GetQuestion(context.Background(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, q)
}

// ListQuestions godoc
// @Summary Список вопросов с фильтром по курсу и главе
// @Tags questions
// @Security ApiKeyAuth
// @Produce json
// @Param course query string false "Курс (CFA, FRM, SCR)"
// @Param chapter query string false "Глава"
// @Success 200 {array} models.Question
// @Router /api/questions [get]
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	chapter := r.URL.Query().Get("chapter")

	questions, err := h.questionService.ListQuestions(context.Background(), course, chapter)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, questions)
}

// GetQuestionsByIDs godoc
// @Summary Получить пачку вопросов по списку ID (для прохождения теста)
// @Tags questions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body questionIDsRequest true "Список ID"
// @Success 200 {array} models.Question
// @Failure 400 {string} string "Пустой список"
// @Router /api/questions/by-ids [post]
func (h *QuestionHandler) GetQuestionsByIDs(w http.ResponseWriter, r *http.Request) {
	var req questionIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	questions, err := h.questionService.GetQuestionsByIDs(context.Background(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, questions)
}

// UpdateQuestion godoc
// @Summary Обновить вопрос (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID вопроса"
// @Param input body models.Question true "Новое содержимое вопроса"
// @Success 200 {string} string "Вопрос обновлён"
// @Failure 404 {string} string "Вопрос не найден"
// @Router /api/admin/questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	q.ID = id

	if err := h.questionService.UpdateQuestion(context.Background(), &q); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, "Вопрос обновлён")
}

// DeleteQuestion godoc
// @Summary Удалить вопрос из банка (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID вопроса"
// @Success 200 {string} string "Вопрос удалён"
// @Failure 404 {string} string "Вопрос не найден"
// @Router /api/admin/questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.questionService.DeleteQuestion(context.Background(), id); err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, "Вопрос удалён")
}

// AssignedQuestions godoc
// @Summary Вопросы, выданные текущему пользователю
// @Tags questions
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.AssignedQuestion
// @Failure 401 {string} string "Нет доступа"
// @Router /api/questions/assigned [get]
func (h *QuestionHandler) AssignedQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	assignments, err := h.questionService.Assigned(context.Background(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, assignments)
}

// Attempt godoc
// @Summary Ответить на выданный вопрос
// @Tags questions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.AttemptRequest true "Вариант ответа и время"
// @Success 200 {object} attemptResponse
// @Failure 404 {string} string "Выдача не найдена"
// @Router /api/questions/attempt [post]
func (h *QuestionHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	var req models.AttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	isCorrect, err := h.questionService.Attempt(context.Background(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, attemptResponse{IsCorrect: isCorrect})
}
