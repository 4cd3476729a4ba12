package domain

import "time"

// CourseLevel describes the target audience of a course.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
)

// Course is a unit-based course taught by a teacher.
type Course struct {
	ID          string
	Title       string
	Description string
	Level       CourseLevel
	TeacherID   string
	UnitCount   int
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasUnit reports whether unit is a valid 1-based unit index for the course.
func (c *Course) HasUnit(unit int) bool {
	return unit >= 1 && unit <= c.UnitCount
}

// UnitProgress records a completed unit for a student.
type UnitProgress struct {
	UserID      string
	CourseID    string
	Unit        int
	QuizScore   *int
	CompletedAt time.Time
}
