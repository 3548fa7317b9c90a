package export

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

func ParseJobStatus(s string) (JobStatus, bool) {
	switch st := JobStatus(s); st {
	case JobPending, JobRunning, JobDone, JobFailed:
		return st, true
	}
	return "", false
}

// Job is an export request. The file itself is produced out of band; the
// collaborator that does so reports progress through UpdateJobStatus.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	JobType     string     `json:"job_type"`
	Status      JobStatus  `json:"status"`
	FilePath    *string    `json:"file_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type MonthlyReport struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	ReportPath *string   `json:"report_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type JobInput struct {
	JobType string `json:"job_type"`
}

type JobStatusInput struct {
	Status   string  `json:"status"`
	FilePath *string `json:"file_path"`
}

type ReportInput struct {
	DoctorID   uuid.UUID `json:"doctor_id"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	ReportPath *string   `json:"report_path"`
}
