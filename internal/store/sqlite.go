// Package store persists discovered jobs and their processing state in an
// embedded SQLite database. It is the only resource shared across pipeline
// components; every mutating operation runs inside a single transaction.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"jobscout/internal/model"
)

// SQLiteStore tracks jobs, processing state, match results, and generated
// cover letters.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id          TEXT PRIMARY KEY,
	url             TEXT NOT NULL,
	title           TEXT NOT NULL,
	organization    TEXT NOT NULL,
	location        TEXT,
	description     TEXT,
	posted_date     TEXT,
	deadline        TEXT,
	requirements    TEXT,
	application_url TEXT,
	source          TEXT NOT NULL,
	raw_data        TEXT,
	scraped_at      DATETIME NOT NULL,
	UNIQUE(url, title, organization)
);

CREATE TABLE IF NOT EXISTS processed_jobs (
	job_id             TEXT PRIMARY KEY,
	url                TEXT NOT NULL,
	title              TEXT NOT NULL,
	organization       TEXT NOT NULL,
	source             TEXT NOT NULL,
	match_score        REAL NOT NULL,
	processed_at       DATETIME NOT NULL,
	cover_letter_path  TEXT,
	application_status TEXT DEFAULT 'pending',
	notes              TEXT,
	FOREIGN KEY (job_id) REFERENCES jobs(job_id)
);

CREATE TABLE IF NOT EXISTS match_results (
	job_id              TEXT PRIMARY KEY,
	match_score         REAL NOT NULL,
	skills_match        REAL,
	experience_match    REAL,
	research_match      REAL,
	qualification_match REAL,
	reasoning           TEXT,
	highlights          TEXT,
	concerns            TEXT,
	matched_at          DATETIME NOT NULL,
	FOREIGN KEY (job_id) REFERENCES jobs(job_id)
);

CREATE TABLE IF NOT EXISTS cover_letters (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id       TEXT NOT NULL,
	content      TEXT NOT NULL,
	file_path    TEXT,
	generated_at DATETIME NOT NULL,
	FOREIGN KEY (job_id) REFERENCES jobs(job_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source);
CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs(scraped_at);
CREATE INDEX IF NOT EXISTS idx_processed_jobs_at ON processed_jobs(processed_at);
CREATE INDEX IF NOT EXISTS idx_processed_jobs_score ON processed_jobs(match_score);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creating
// parent directories if absent, and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// withTx runs fn inside a transaction, rolling back all partial writes on
// error.
func (s *SQLiteStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// InsertJob stores a job if its content-addressed ID is new. Returns false
// when the job (by natural key) already exists; a duplicate is not an error.
func (s *SQLiteStore) InsertJob(job model.Job) (bool, error) {
	var inserted bool
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT OR IGNORE INTO jobs (
			job_id, url, title, organization, location, description,
			posted_date, deadline, requirements, application_url,
			source, raw_data, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.JobID, job.URL, job.Title, job.Organization, job.Location,
			job.Description, job.PostedDate, job.Deadline, job.Requirements,
			job.ApplicationURL, job.Source, job.RawData, job.ScrapedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting job %s: %w", job.JobID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("inserting job %s: %w", job.JobID, err)
		}
		inserted = n > 0
		return nil
	})
	return inserted, err
}

// InsertJobs stores a batch of jobs and returns how many were new.
func (s *SQLiteStore) InsertJobs(jobs []model.Job) (int, error) {
	added := 0
	for _, job := range jobs {
		inserted, err := s.InsertJob(job)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// HasJob reports whether a job with the given ID exists.
func (s *SQLiteStore) HasJob(jobID string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM jobs WHERE job_id = ?", jobID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking job %s: %w", jobID, err)
	}
	return true, nil
}

const jobColumns = `j.job_id, j.url, j.title, j.organization, j.location,
	j.description, j.posted_date, j.deadline, j.requirements,
	j.application_url, j.source, j.raw_data, j.scraped_at`

func scanJob(row interface{ Scan(...any) error }) (model.Job, error) {
	var j model.Job
	var location, description, postedDate, deadline, requirements, applicationURL, rawData sql.NullString
	err := row.Scan(
		&j.JobID, &j.URL, &j.Title, &j.Organization, &location,
		&description, &postedDate, &deadline, &requirements,
		&applicationURL, &j.Source, &rawData, &j.ScrapedAt,
	)
	if err != nil {
		return model.Job{}, err
	}
	j.Location = location.String
	j.Description = description.String
	j.PostedDate = postedDate.String
	j.Deadline = deadline.String
	j.Requirements = requirements.String
	j.ApplicationURL = applicationURL.String
	j.RawData = rawData.String
	return j, nil
}

// ListUnprocessed returns jobs that have no processed_jobs row, newest
// scraped first, capped at limit. An empty source matches all sources.
func (s *SQLiteStore) ListUnprocessed(source string, limit int) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j
		LEFT JOIN processed_jobs p ON j.job_id = p.job_id
		WHERE p.job_id IS NULL`
	args := []any{}
	if source != "" {
		query += " AND j.source = ?"
		args = append(args, source)
	}
	query += " ORDER BY j.scraped_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning unprocessed job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetJob fetches a job by its content-addressed ID. Returns nil when absent.
func (s *SQLiteStore) GetJob(jobID string) (*model.Job, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs j WHERE j.job_id = ?`, jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", jobID, err)
	}
	return &job, nil
}

// ProcessOptions carries the optional fields of MarkProcessed.
type ProcessOptions struct {
	CoverLetterPath string
	Status          string // defaults to pending
	Notes           string
}

// MarkProcessed upserts the job's processing record. A prior row for the
// same job is overwritten: the latest processing wins.
func (s *SQLiteStore) MarkProcessed(job model.Job, score float64, opts ProcessOptions) error {
	status := opts.Status
	if status == "" {
		status = model.StatusPending
	}
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR REPLACE INTO processed_jobs (
			job_id, url, title, organization, source,
			match_score, processed_at, cover_letter_path,
			application_status, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.JobID, job.URL, job.Title, job.Organization, job.Source,
			score, time.Now(), opts.CoverLetterPath, status, opts.Notes,
		)
		if err != nil {
			return fmt.Errorf("marking job %s processed: %w", job.JobID, err)
		}
		return nil
	})
}

// SaveMatchResult upserts the detailed scoring record for a job. Re-scoring
// overwrites the previous result.
func (s *SQLiteStore) SaveMatchResult(res model.MatchResult) error {
	highlights, err := json.Marshal(res.Highlights)
	if err != nil {
		return fmt.Errorf("encoding highlights for %s: %w", res.JobID, err)
	}
	concerns, err := json.Marshal(res.Concerns)
	if err != nil {
		return fmt.Errorf("encoding concerns for %s: %w", res.JobID, err)
	}
	matchedAt := res.MatchedAt
	if matchedAt.IsZero() {
		matchedAt = time.Now()
	}
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR REPLACE INTO match_results (
			job_id, match_score, skills_match, experience_match,
			research_match, qualification_match, reasoning,
			highlights, concerns, matched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.JobID, res.MatchScore, res.Skills, res.Experience,
			res.Research, res.Qualification, res.Reasoning,
			string(highlights), string(concerns), matchedAt,
		)
		if err != nil {
			return fmt.Errorf("saving match result for %s: %w", res.JobID, err)
		}
		return nil
	})
}

// GetMatchResult fetches the scoring record for a job. Returns nil when
// absent.
func (s *SQLiteStore) GetMatchResult(jobID string) (*model.MatchResult, error) {
	var res model.MatchResult
	var reasoning, highlights, concerns sql.NullString
	err := s.db.QueryRow(`SELECT job_id, match_score, skills_match,
		experience_match, research_match, qualification_match,
		reasoning, highlights, concerns, matched_at
		FROM match_results WHERE job_id = ?`, jobID).Scan(
		&res.JobID, &res.MatchScore, &res.Skills, &res.Experience,
		&res.Research, &res.Qualification, &reasoning,
		&highlights, &concerns, &res.MatchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match result for %s: %w", jobID, err)
	}
	res.Reasoning = reasoning.String
	if highlights.String != "" {
		json.Unmarshal([]byte(highlights.String), &res.Highlights)
	}
	if concerns.String != "" {
		json.Unmarshal([]byte(concerns.String), &res.Concerns)
	}
	return &res, nil
}

// SaveCoverLetter appends a generated cover letter record and returns its ID.
// The log is append-only: a job can be attempted multiple times.
func (s *SQLiteStore) SaveCoverLetter(jobID, content, filePath string) (int64, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO cover_letters (job_id, content, file_path, generated_at)
			VALUES (?, ?, ?, ?)`, jobID, content, filePath, time.Now())
		if err != nil {
			return fmt.Errorf("saving cover letter for %s: %w", jobID, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("saving cover letter for %s: %w", jobID, err)
		}
		return nil
	})
	return id, err
}

// AttachCoverLetter records the letter path on the processing row without
// touching score or status.
func (s *SQLiteStore) AttachCoverLetter(jobID, filePath string) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE processed_jobs SET cover_letter_path = ? WHERE job_id = ?`,
			filePath, jobID)
		if err != nil {
			return fmt.Errorf("attaching cover letter for %s: %w", jobID, err)
		}
		return nil
	})
}

// UpdateApplicationStatus mutates the processing row's status in place.
// Notes are only overwritten when non-empty.
func (s *SQLiteStore) UpdateApplicationStatus(jobID, status, notes string) error {
	return s.withTx(func(tx *sql.Tx) error {
		var err error
		if notes != "" {
			_, err = tx.Exec(`UPDATE processed_jobs SET application_status = ?, notes = ? WHERE job_id = ?`,
				status, notes, jobID)
		} else {
			_, err = tx.Exec(`UPDATE processed_jobs SET application_status = ? WHERE job_id = ?`,
				status, jobID)
		}
		if err != nil {
			return fmt.Errorf("updating status for %s: %w", jobID, err)
		}
		return nil
	})
}

// ListMatched returns processed jobs with scores at or above minScore,
// optionally restricted to rows processed since the given time, best score
// first.
func (s *SQLiteStore) ListMatched(minScore float64, since time.Time, limit int) ([]model.ProcessedJob, error) {
	query := `SELECT job_id, url, title, organization, source, match_score,
		processed_at, cover_letter_path, application_status, notes
		FROM processed_jobs WHERE match_score >= ?`
	args := []any{minScore}
	if !since.IsZero() {
		query += " AND processed_at >= ?"
		args = append(args, since)
	}
	query += " ORDER BY match_score DESC, processed_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing matched jobs: %w", err)
	}
	defer rows.Close()

	var matched []model.ProcessedJob
	for rows.Next() {
		var p model.ProcessedJob
		var coverLetterPath, status, notes sql.NullString
		if err := rows.Scan(&p.JobID, &p.URL, &p.Title, &p.Organization,
			&p.Source, &p.MatchScore, &p.ProcessedAt,
			&coverLetterPath, &status, &notes); err != nil {
			return nil, fmt.Errorf("scanning matched job: %w", err)
		}
		p.CoverLetterPath = coverLetterPath.String
		p.ApplicationStatus = status.String
		p.Notes = notes.String
		matched = append(matched, p)
	}
	return matched, rows.Err()
}

// Statistics is the on-demand aggregate view over the store.
type Statistics struct {
	TotalJobs             int
	JobsBySource          map[string]int
	ProcessedJobs         int
	AvgMatchScore         float64
	MatchedAboveThreshold int
	StatusBreakdown       map[string]int
}

// Statistics computes the aggregate view. Nothing is cached; every call
// reflects the current rows.
func (s *SQLiteStore) Statistics(matchThreshold float64) (*Statistics, error) {
	stats := &Statistics{
		JobsBySource:    make(map[string]int),
		StatusBreakdown: make(map[string]int),
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&stats.TotalJobs); err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}

	rows, err := s.db.Query("SELECT source, COUNT(*) FROM jobs GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("counting jobs by source: %w", err)
	}
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		stats.JobsBySource[source] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM processed_jobs").Scan(&stats.ProcessedJobs); err != nil {
		return nil, fmt.Errorf("counting processed jobs: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRow("SELECT AVG(match_score) FROM processed_jobs").Scan(&avg); err != nil {
		return nil, fmt.Errorf("averaging match scores: %w", err)
	}
	stats.AvgMatchScore = avg.Float64

	if err := s.db.QueryRow("SELECT COUNT(*) FROM processed_jobs WHERE match_score >= ?",
		matchThreshold).Scan(&stats.MatchedAboveThreshold); err != nil {
		return nil, fmt.Errorf("counting matched jobs: %w", err)
	}

	rows, err = s.db.Query("SELECT application_status, COUNT(*) FROM processed_jobs GROUP BY application_status")
	if err != nil {
		return nil, fmt.Errorf("counting statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.StatusBreakdown[status] = count
	}
	return stats, rows.Err()
}

// Cleanup deletes rows in all four tables whose timestamp predates the
// retention horizon, children before parents so no dangling references are
// left behind. Returns the total number of rows deleted.
func (s *SQLiteStore) Cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var deleted int64
	err := s.withTx(func(tx *sql.Tx) error {
		for _, query := range []string{
			"DELETE FROM cover_letters WHERE generated_at < ?",
			"DELETE FROM match_results WHERE matched_at < ?",
			"DELETE FROM processed_jobs WHERE processed_at < ?",
			"DELETE FROM jobs WHERE scraped_at < ?",
		} {
			res, err := tx.Exec(query, cutoff)
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			deleted += n
		}
		return nil
	})
	return deleted, err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
