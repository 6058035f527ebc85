package models

import "time"

// TagSample помечает вопросы, которые показываются бесплатным и новым пользователям.
const TagSample = "sample"

type Options struct {
	OptionA      string `json:"optionA"`
	OptionAImage string `json:"optionAImage,omitempty"`
	OptionB      string `json:"optionB"`
	OptionBImage string `json:"optionBImage,omitempty"`
	OptionC      string `json:"optionC"`
	OptionCImage string `json:"optionCImage,omitempty"`
	OptionD      string `json:"optionD"`
	OptionDImage string `json:"optionDImage,omitempty"`
}

type Question struct {
	ID               int      `json:"id"`
	Courses          []string `json:"courses"` // CFA, FRM, SCR
	ChapterName      string   `json:"chapterName"`
	Statement        string   `json:"questionStatement"`
	StatementImage   string   `json:"questionImage,omitempty"`
	Options          Options  `json:"options"`
	RightAnswer      string   `json:"rightAnswer"`
	Explanation      string   `json:"explanation"`
	ExplanationImage string   `json:"explanationImage,omitempty"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags"`
}

// HasTag проверяет наличие тега у вопроса.
func (q *Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AssignedQuestion — выданный пользователю вопрос. Содержимое вопроса хранится
// снапшотом: правка мастер-записи не меняет уже выданные копии.
type AssignedQuestion struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	QuestionID int       `json:"question_id"`
	Snapshot   Question  `json:"question"`
	AssignedAt time.Time `json:"assigned_at"`
	IsSample   bool      `json:"is_sample"`

	Attempted       bool       `json:"attempted"`
	AttemptedOption string     `json:"attempted_option,omitempty"`
	IsCorrect       bool       `json:"is_correct"`
	AttemptedAt     *time.Time `json:"date_of_attempt,omitempty"`
	TimeSpentSec    int        `json:"time_spent"`
}

type AttemptRequest struct {
	AssignmentID int    `json:"assignment_id"`
	Option       string `json:"attempted_option"`
	TimeSpentSec int    `json:"time_spent"`
}
