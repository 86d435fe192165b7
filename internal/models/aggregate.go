package models

// Sentinel labels used for empty histogram values.
const (
	LabelUnknown = "Unknown"
	LabelUnrated = "Unrated"
	LabelYes     = "Yes"
	LabelNo      = "No"
)

// AggregateFilter narrows the surveys fed into the aggregator.
type AggregateFilter struct {
	// Year is matched exactly against the graduation year when set.
	Year *int
	// Program is a case-insensitive substring of the course/program name.
	Program string
}

// SurveyAggregateRow holds the columns the aggregator counts over.
type SurveyAggregateRow struct {
	EmployedAfterGraduation string     `db:"employed_after_graduation"`
	EmploymentSource        string     `db:"employment_source"`
	WorkPerformanceRating   string     `db:"work_performance_rating"`
	CourseProgram           string     `db:"course_program"`
	HasBeenPromoted         string     `db:"has_been_promoted"`
	JobsRelatedToExperience string     `db:"jobs_related_to_experience"`
	CompanyAffiliation      string     `db:"company_affiliation"`
	JobDifficulties         StringList `db:"job_difficulties"`
	HasOwnBusiness          *string    `db:"has_own_business"`
}

// Histogram maps a label to its frequency.
type Histogram map[string]int

// SurveyAggregates is the dashboard summary over the filtered survey set.
type SurveyAggregates struct {
	Employed         Histogram `json:"employed"`
	Sources          Histogram `json:"sources"`
	Performance      Histogram `json:"performance"`
	Programs         Histogram `json:"programs"`
	Promoted         Histogram `json:"promoted"`
	JobsRelated      Histogram `json:"jobs_related"`
	SelfEmployment   Histogram `json:"self_employment"`
	HasOwnBusiness   Histogram `json:"has_own_business"`
	JobDifficulties  Histogram `json:"job_difficulties"`
	Count            int       `json:"count"`
	TotalCount       int       `json:"total_count"`
	SurveysThisMonth int       `json:"surveys_this_month"`
}
