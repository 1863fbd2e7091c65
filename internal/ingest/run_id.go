package ingest

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID creates a random run id suitable for logs + API responses.
// Format: "run_" + 32 hex chars.
func NewRunID() string {
	return "run_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
