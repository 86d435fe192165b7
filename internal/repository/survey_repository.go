package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const surveyColumns = `s.id, s.alumni_id, s.last_name, s.first_name, s.middle_name, s.year_graduated, s.course_program,
        s.student_number, s.birth_year, s.birth_month, s.birth_day, s.age, s.gender, s.home_address, s.telephone_number,
        s.mobile_number, s.email, s.current_job_position, s.company_affiliation, s.company_address,
        s.approximate_monthly_salary, s.employed_after_graduation, s.job_difficulties, s.employment_source,
        s.jobs_related_to_experience, s.improvement_suggestions, s.has_been_promoted, s.work_performance_rating,
        s.has_own_business, s.created_at`

const surveyWriteColumns = `alumni_id, last_name, first_name, middle_name, year_graduated, course_program, student_number,
        birth_year, birth_month, birth_day, age, gender, home_address, telephone_number, mobile_number, email,
        current_job_position, company_affiliation, company_address, approximate_monthly_salary, employed_after_graduation,
        job_difficulties, employment_source, jobs_related_to_experience, improvement_suggestions, has_been_promoted,
        work_performance_rating, has_own_business`

// SurveyRepository provides database access for alumni surveys and their employment records.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository creates a new SurveyRepository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

type surveyRow struct {
	models.AlumniSurvey
	InfoID            sql.NullInt64  `db:"info_id"`
	InfoUsername      sql.NullString `db:"info_username"`
	InfoEmail         sql.NullString `db:"info_email"`
	InfoFullName      sql.NullString `db:"info_full_name"`
	InfoProgramCourse sql.NullString `db:"info_program_course"`
}

func (row surveyRow) toModel() models.AlumniSurvey {
	survey := row.AlumniSurvey
	if row.InfoID.Valid {
		survey.AlumniInfo = &models.AlumniInfo{
			ID:            row.InfoID.Int64,
			Username:      row.InfoUsername.String,
			Email:         row.InfoEmail.String,
			FullName:      row.InfoFullName.String,
			ProgramCourse: row.InfoProgramCourse.String,
		}
	}
	survey.EmploymentRecords = []models.EmploymentRecord{}
	return survey
}

const surveySelect = `SELECT ` + surveyColumns + `,
        a.id AS info_id, a.username AS info_username, a.email AS info_email, a.full_name AS info_full_name,
        a.program_course AS info_program_course
        FROM alumni_surveys s LEFT JOIN alumni a ON a.id = s.alumni_id`

// surveyConditions renders the shared survey filters. The year is compared as
// text because the column stores what the form submitted.
func surveyConditions(alias string, alumniID *int64, year *int, program string) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if alumniID != nil {
		args = append(args, *alumniID)
		conditions = append(conditions, fmt.Sprintf("%salumni_id = $%d", alias, len(args)))
	}
	if year != nil {
		args = append(args, fmt.Sprint(*year))
		conditions = append(conditions, fmt.Sprintf("%syear_graduated = $%d", alias, len(args)))
	}
	if program != "" {
		args = append(args, "%"+escapeLike(program)+"%")
		conditions = append(conditions, fmt.Sprintf("%scourse_program ILIKE $%d", alias, len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// List returns surveys newest first with their employment records.
func (r *SurveyRepository) List(ctx context.Context, filter models.SurveyFilter) ([]models.AlumniSurvey, error) {
	where, args := surveyConditions("s.", filter.AlumniID, filter.Year, filter.Program)
	query := surveySelect + where + ` ORDER BY s.created_at DESC, s.id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	var rows []surveyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	surveys := make([]models.AlumniSurvey, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		surveys = append(surveys, row.toModel())
		ids = append(ids, row.ID)
	}
	if err := r.attachRecords(ctx, surveys, ids); err != nil {
		return nil, err
	}
	return surveys, nil
}

// FindByID returns a survey with its employment records.
func (r *SurveyRepository) FindByID(ctx context.Context, id int64) (*models.AlumniSurvey, error) {
	var row surveyRow
	if err := r.db.GetContext(ctx, &row, surveySelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	surveys := []models.AlumniSurvey{row.toModel()}
	if err := r.attachRecords(ctx, surveys, []int64{id}); err != nil {
		return nil, err
	}
	return &surveys[0], nil
}

func (r *SurveyRepository) attachRecords(ctx context.Context, surveys []models.AlumniSurvey, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`SELECT id, survey_id, company_name, date_employed, position_and_status, monthly_salary_range
        FROM employment_records WHERE survey_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("build employment records query: %w", err)
	}
	var records []models.EmploymentRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("list employment records: %w", err)
	}

	index := make(map[int64]int, len(surveys))
	for i := range surveys {
		index[surveys[i].ID] = i
	}
	for _, record := range records {
		if i, ok := index[record.SurveyID]; ok {
			surveys[i].EmploymentRecords = append(surveys[i].EmploymentRecords, record)
		}
	}
	return nil
}

func surveyValues(s *models.AlumniSurvey) []interface{} {
	return []interface{}{
		s.AlumniID, s.LastName, s.FirstName, s.MiddleName, s.YearGraduated, s.CourseProgram, s.StudentNumber,
		s.BirthYear, s.BirthMonth, s.BirthDay, s.Age, s.Gender, s.HomeAddress, s.TelephoneNumber, s.MobileNumber, s.Email,
		s.CurrentJobPosition, s.CompanyAffiliation, s.CompanyAddress, s.ApproximateMonthlySalary, s.EmployedAfterGraduation,
		s.JobDifficulties, s.EmploymentSource, s.JobsRelatedToExperience, s.ImprovementSuggestions, s.HasBeenPromoted,
		s.WorkPerformanceRating, s.HasOwnBusiness,
	}
}

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

// Create inserts a survey together with its employment records.
func (r *SurveyRepository) Create(ctx context.Context, survey *models.AlumniSurvey) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	values := surveyValues(survey)
	query := `INSERT INTO alumni_surveys (` + surveyWriteColumns + `) VALUES (` + placeholders(1, len(values)) + `) RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, query, values...).Scan(&survey.ID, &survey.CreatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create survey: %w", err)
	}
	if err := r.insertRecordsTx(ctx, tx, survey.ID, survey.EmploymentRecords); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit survey: %w", err)
	}
	return nil
}

// Update persists every survey column. When replaceRecords is set the
// employment records are deleted and recreated from survey.EmploymentRecords.
func (r *SurveyRepository) Update(ctx context.Context, survey *models.AlumniSurvey, replaceRecords bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	values := surveyValues(survey)
	columns := strings.Split(surveyWriteColumns, ",")
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", strings.TrimSpace(column), i+1)
	}
	query := fmt.Sprintf(`UPDATE alumni_surveys SET %s WHERE id = $%d`, strings.Join(assignments, ", "), len(values)+1)
	res, err := tx.ExecContext(ctx, query, append(values, survey.ID)...)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update survey: %w", err)
	}
	if err := requireAffected(res); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	if replaceRecords {
		if _, err := tx.ExecContext(ctx, `DELETE FROM employment_records WHERE survey_id = $1`, survey.ID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("clear employment records: %w", err)
		}
		if err := r.insertRecordsTx(ctx, tx, survey.ID, survey.EmploymentRecords); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit survey update: %w", err)
	}
	return nil
}

func (r *SurveyRepository) insertRecordsTx(ctx context.Context, tx *sqlx.Tx, surveyID int64, records []models.EmploymentRecord) error {
	const query = `INSERT INTO employment_records (survey_id, company_name, date_employed, position_and_status, monthly_salary_range)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range records {
		records[i].SurveyID = surveyID
		rec := &records[i]
		if err := tx.QueryRowxContext(ctx, query, surveyID, rec.CompanyName, rec.DateEmployed, rec.PositionAndStatus, rec.MonthlySalaryRange).Scan(&rec.ID); err != nil {
			return fmt.Errorf("insert employment record: %w", err)
		}
	}
	return nil
}

// Delete removes a survey; employment records cascade.
func (r *SurveyRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alumni_surveys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return requireAffected(res)
}

// AggregateRows loads the columns counted by the aggregator. With
// includeBusiness unset the has_own_business column is not read, for schemas
// that predate it.
func (r *SurveyRepository) AggregateRows(ctx context.Context, filter models.AggregateFilter, includeBusiness bool) ([]models.SurveyAggregateRow, error) {
	business := "NULL::text AS has_own_business"
	if includeBusiness {
		business = "has_own_business"
	}
	where, args := surveyConditions("", nil, filter.Year, filter.Program)
	query := `SELECT employed_after_graduation, employment_source, work_performance_rating, course_program,
        has_been_promoted, jobs_related_to_experience, company_affiliation, job_difficulties, ` + business + `
        FROM alumni_surveys` + where

	rows := []models.SurveyAggregateRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load survey aggregate rows: %w", err)
	}
	return rows, nil
}

// Count returns the number of surveys.
func (r *SurveyRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alumni_surveys`); err != nil {
		return 0, fmt.Errorf("count surveys: %w", err)
	}
	return total, nil
}

// CountCreatedBetween counts surveys created in [from, to).
func (r *SurveyRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alumni_surveys WHERE created_at >= $1 AND created_at < $2`, from, to); err != nil {
		return 0, fmt.Errorf("count surveys created between: %w", err)
	}
	return total, nil
}
