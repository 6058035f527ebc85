package models

import "time"

type Test struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	QuestionsCount int       `json:"questions"`
	Marks          int       `json:"marks"`
	TimeMinutes    int       `json:"time"`
	Free           bool      `json:"free"`
	UsersAttempted int       `json:"usersAttempted"`
	AverageScore   float64   `json:"averageScore"`
	QuestionIDs    []int     `json:"questionsList"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UpdateTestRequest struct {
	Name        *string  `json:"name,omitempty"`
	Marks       *int     `json:"marks,omitempty"`
	TimeMinutes *int     `json:"time,omitempty"`
	Free        *bool    `json:"free,omitempty"`
	QuestionIDs []int    `json:"questionsList,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
