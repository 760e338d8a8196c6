// Package util holds small standalone helpers shared across the module
// that don't belong to any one DICOM package.
package util

import (
	"crypto/md5"
	"encoding/json"

	"github.com/google/uuid"
)

// HashUUID deterministically derives a UUID string from value: the same
// input always hashes to the same UUID, so repeated anonymization runs
// over the same data set produce stable replacement identifiers.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	hash := md5.Sum(raw)
	id, err := uuid.FromBytes(hash[:16])
	if err != nil {
		return ""
	}
	return id.String()
}
