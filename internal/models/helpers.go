// Package models defines the records carewatch persists and exchanges.
package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
// Returns an error if the ID is not a string type.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

// MustRecordIDString extracts the string ID, panicking if not a string.
// Use only when the record was created with a string ID.
func MustRecordIDString(id surrealmodels.RecordID) string {
	s, err := RecordIDString(id)
	if err != nil {
		panic(err)
	}
	return s
}

// YesNo renders a flag the way reminder sheets record it.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ParseYesNo reads "Yes"/"No" (any case, surrounding space ignored).
func ParseYesNo(s string) (bool, error) {
	switch normalize(s) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false", "":
		return false, nil
	}
	return false, fmt.Errorf("not a yes/no value: %q", s)
}
