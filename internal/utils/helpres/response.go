package helpers

import (
	"encoding/json"
	"net/http"
)

// Response — единый формат ответа API: флаг успеха, данные либо сообщение
// об ошибке и необязательная машинная подсказка (например RETRY_OTP).
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Action  string      `json:"action,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{Success: true, Data: data})
	if err != nil {
		return
	}
}

func Error(w http.ResponseWriter, status int, errMsg string) {
	ErrorWithAction(w, status, errMsg, "")
}

func ErrorWithAction(w http.ResponseWriter, status int, errMsg, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{Success: false, Message: errMsg, Action: action})
	if err != nil {
		return
	}
}
