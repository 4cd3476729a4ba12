package dto

import "time"

// CourseRequest payload for creating or replacing a course.
type CourseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Level       string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	UnitCount   int    `json:"unitCount" validate:"required,min=1,max=200"`
	Published   bool   `json:"published"`
}

// ProgressRequest payload for completing a unit.
type ProgressRequest struct {
	Unit      int  `json:"unit" validate:"required,min=1"`
	QuizScore *int `json:"quizScore" validate:"omitempty,min=0,max=100"`
}

// CourseResponse is the public shape of a course.
type CourseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	TeacherID   string    `json:"teacherId"`
	UnitCount   int       `json:"unitCount"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProgressResponse summarizes unit completion.
type ProgressResponse struct {
	CourseID       string `json:"courseId"`
	CompletedUnits []int  `json:"completedUnits"`
	TotalUnits     int    `json:"totalUnits"`
	Percent        int    `json:"percent"`
	NewlyCompleted bool   `json:"newlyCompleted"`
}

// LeaderboardEntryResponse is one ranked row.
type LeaderboardEntryResponse struct {
	UserID string `json:"userId"`
	XP     int64  `json:"xp"`
	Rank   int64  `json:"rank"`
}

// QuoteResponse is a dashboard quote.
type QuoteResponse struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}
