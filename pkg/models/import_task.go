package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportStatus tracks the lifecycle of an import task.
type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportTask records one batch import run.
type ImportTask struct {
	ID          uuid.UUID    `json:"id"`
	FileName    string       `json:"file_name"`
	Status      ImportStatus `json:"status"`
	TotalRows   int          `json:"total_rows"`
	SuccessRows int          `json:"success_rows"`
	FailedRows  int          `json:"failed_rows"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ErrorKind categorizes why a row failed.
type ErrorKind string

const (
	// ErrorKindValidation covers missing or malformed required input.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindQuality covers critical data-quality findings.
	ErrorKindQuality ErrorKind = "quality"
	// ErrorKindService covers AI endpoint failures. The AI path degrades to
	// rules instead of aborting, so rows rarely carry this kind.
	ErrorKindService ErrorKind = "service"
	// ErrorKindReference covers broken entity references (e.g. a value that
	// does not belong to its attribute).
	ErrorKindReference ErrorKind = "reference"
	// ErrorKindSystem covers anything else.
	ErrorKindSystem ErrorKind = "system"
)

// ImportError records one failed row of an import task, with enough of the
// raw input captured to reproduce the failure.
type ImportError struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	RowNumber int       `json:"row_number"`
	Stage     string    `json:"stage"`
	Kind      ErrorKind `json:"kind"`
	Field     string    `json:"field,omitempty"`
	Message   string    `json:"message"`
	RawData   JSONBMap  `json:"raw_data"`
	CreatedAt time.Time `json:"created_at"`
}

// JSONBMap is a map type that handles PostgreSQL JSONB serialization.
type JSONBMap map[string]interface{}

// Value implements driver.Valuer for database serialization.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database deserialization.
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}

	return json.Unmarshal(bytes, j)
}
