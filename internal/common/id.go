package common

import (
	"github.com/google/uuid"
)

// NewRecordID generates a unique analysis record ID with the "rec_" prefix
// Format: rec_<uuid>
func NewRecordID() string {
	return "rec_" + uuid.New().String()
}

// NewRunID generates a unique analysis run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
