package domain

import "fmt"

// PersistencePolicy decides what a failed append to the durable log does to ingestion.
type PersistencePolicy string

const (
	// PersistenceBestEffort keeps the reading in memory and continues ingesting.
	PersistenceBestEffort PersistencePolicy = "best-effort"
	// PersistenceStrict stops ingestion on the first failed append.
	PersistenceStrict PersistencePolicy = "strict"
)

// NewPersistencePolicy parses a policy name; an empty value selects PersistenceBestEffort.
func NewPersistencePolicy(value string) (PersistencePolicy, error) {
	switch PersistencePolicy(value) {
	case "", PersistenceBestEffort:
		return PersistenceBestEffort, nil
	case PersistenceStrict:
		return PersistenceStrict, nil
	default:
		return "", fmt.Errorf("unknown persistence policy %q (want %q or %q)",
			value, PersistenceBestEffort, PersistenceStrict)
	}
}
