package records

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// ValidatePrincipal rejects an event whose principal officiant is its own
// subject. Lineage edges may never point a clergy member at themselves.
func ValidatePrincipal(subjectID int64, principalID *int64, field string) error {
	if principalID != nil && *principalID == subjectID {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "%s may not equal clergy_id", field)
	}
	return nil
}

// ValidateCoConsecrators checks a proposed co-officiant set against a
// consecration event's subject and principal consecrator. The set may not
// contain the subject, the principal, or the same id twice.
func ValidateCoConsecrators(subjectID int64, principalID *int64, clergyIDs []int64) error {
	seen := make(map[int64]bool, len(clergyIDs))
	for _, id := range clergyIDs {
		if id == subjectID {
			return httperror.NewHTTPError(http.StatusBadRequest, "a clergy member cannot be their own co-consecrator")
		}
		if principalID != nil && id == *principalID {
			return httperror.NewHTTPError(http.StatusBadRequest, "the principal consecrator cannot also be a co-consecrator")
		}
		if seen[id] {
			return httperror.NewHTTPError(http.StatusBadRequest, "duplicate co-consecrator id")
		}
		seen[id] = true
	}
	return nil
}

// FilterCoConsecrators returns the ids that pass the co-officiant guards,
// deduplicated in first-seen order. Offending ids are dropped rather than
// rejected; the legacy migration uses this to tolerate bad old data.
func FilterCoConsecrators(subjectID int64, principalID *int64, clergyIDs []int64) []int64 {
	var filtered []int64
	seen := make(map[int64]bool, len(clergyIDs))
	for _, id := range clergyIDs {
		if id == subjectID {
			continue
		}
		if principalID != nil && id == *principalID {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		filtered = append(filtered, id)
	}
	return filtered
}
