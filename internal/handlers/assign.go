package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"palsanalytix/internal/logger"
	"palsanalytix/internal/services"
	helpers "palsanalytix/internal/utils/helpres"
)

type AssignHandler struct {
	assigner *services.AssignerService
}

func NewAssignHandler(assigner *services.AssignerService) *AssignHandler {
	return &AssignHandler{assigner: assigner}
}

// RunAssign godoc
// @Summary Запустить раздачу вопросов вручную (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} services.AssignReport
// @Failure 500 {string} string "Раздача завершилась ошибкой"
// @Router /api/admin/assign [post]
func (h *AssignHandler) RunAssign(w http.ResponseWriter, r *http.Request) {
	logger.Log.Info("Ручной запуск раздачи вопросов")

	report, err := h.assigner.Run(context.Background())
	if err != nil {
		logger.Log.Error("Ручная раздача завершилась ошибкой", zap.Error(err))
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, report)
}
