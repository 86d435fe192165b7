package models

import "time"

// Change request states.
const (
	ChangeRequestPending  = "pending"
	ChangeRequestReviewed = "reviewed"
	ChangeRequestActioned = "actioned"
)

// AlumniSurvey is one graduate's self-reported post-graduation outcome.
type AlumniSurvey struct {
	ID                       int64              `db:"id" json:"id"`
	AlumniID                 *int64             `db:"alumni_id" json:"alumni"`
	LastName                 string             `db:"last_name" json:"last_name"`
	FirstName                string             `db:"first_name" json:"first_name"`
	MiddleName               string             `db:"middle_name" json:"middle_name"`
	YearGraduated            string             `db:"year_graduated" json:"year_graduated"`
	CourseProgram            string             `db:"course_program" json:"course_program"`
	StudentNumber            string             `db:"student_number" json:"student_number"`
	BirthYear                string             `db:"birth_year" json:"birth_year"`
	BirthMonth               string             `db:"birth_month" json:"birth_month"`
	BirthDay                 string             `db:"birth_day" json:"birth_day"`
	Age                      *int               `db:"age" json:"age"`
	Gender                   string             `db:"gender" json:"gender"`
	HomeAddress              string             `db:"home_address" json:"home_address"`
	TelephoneNumber          string             `db:"telephone_number" json:"telephone_number"`
	MobileNumber             string             `db:"mobile_number" json:"mobile_number"`
	Email                    string             `db:"email" json:"email"`
	CurrentJobPosition       string             `db:"current_job_position" json:"current_job_position"`
	CompanyAffiliation       string             `db:"company_affiliation" json:"company_affiliation"`
	CompanyAddress           string             `db:"company_address" json:"company_address"`
	ApproximateMonthlySalary string             `db:"approximate_monthly_salary" json:"approximate_monthly_salary"`
	EmployedAfterGraduation  string             `db:"employed_after_graduation" json:"employed_after_graduation"`
	JobDifficulties          StringList         `db:"job_difficulties" json:"job_difficulties"`
	EmploymentSource         string             `db:"employment_source" json:"employment_source"`
	JobsRelatedToExperience  string             `db:"jobs_related_to_experience" json:"jobs_related_to_experience"`
	ImprovementSuggestions   string             `db:"improvement_suggestions" json:"improvement_suggestions"`
	HasBeenPromoted          string             `db:"has_been_promoted" json:"has_been_promoted"`
	WorkPerformanceRating    string             `db:"work_performance_rating" json:"work_performance_rating"`
	HasOwnBusiness           *string            `db:"has_own_business" json:"has_own_business"`
	CreatedAt                time.Time          `db:"created_at" json:"created_at"`
	EmploymentRecords        []EmploymentRecord `db:"-" json:"employment_records"`
	AlumniInfo               *AlumniInfo        `db:"-" json:"alumni_info"`
}

// AlumniInfo is the read-only snapshot of the linked alumni shown with a survey.
type AlumniInfo struct {
	ID            int64  `db:"id" json:"id"`
	Username      string `db:"username" json:"username"`
	Email         string `db:"email" json:"email"`
	FullName      string `db:"full_name" json:"full_name"`
	ProgramCourse string `db:"program_course" json:"program_course"`
}

// EmploymentRecord belongs exclusively to one survey.
type EmploymentRecord struct {
	ID                 int64  `db:"id" json:"id"`
	SurveyID           int64  `db:"survey_id" json:"-"`
	CompanyName        string `db:"company_name" json:"company_name"`
	DateEmployed       string `db:"date_employed" json:"date_employed"`
	PositionAndStatus  string `db:"position_and_status" json:"position_and_status"`
	MonthlySalaryRange string `db:"monthly_salary_range" json:"monthly_salary_range"`
}

// SurveyFilter captures list filters for surveys.
type SurveyFilter struct {
	AlumniID *int64
	Year     *int
	Program  string
	Limit    int
}

// SurveyChangeRequest is a free-text request to amend a survey.
type SurveyChangeRequest struct {
	ID        int64     `db:"id" json:"id"`
	AlumniID  *int64    `db:"alumni_id" json:"alumni"`
	Message   string    `db:"message" json:"message"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidChangeRequestStatus reports whether status is a known change request state.
func ValidChangeRequestStatus(status string) bool {
	switch status {
	case ChangeRequestPending, ChangeRequestReviewed, ChangeRequestActioned:
		return true
	}
	return false
}

// Notification is a global admin notification.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Payload   RawJSON   `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
