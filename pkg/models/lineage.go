package models

// Lineage edge types
const (
	EdgeTypeOrdination     = "ordination"
	EdgeTypeConsecration   = "consecration"
	EdgeTypeCoConsecration = "co-consecration"
)

// LineageGraph is the derived, read-only projection of who-ordained/
// consecrated-whom. It is recomputed on every read and never persisted.
type LineageGraph struct {
	Nodes []LineageNode `json:"nodes"`
	Edges []LineageEdge `json:"edges"`
}

// LineageNode is one non-deleted clergy record
type LineageNode struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Rank         string `json:"rank"`
	Organization string `json:"organization,omitempty"`
}

// LineageEdge is a typed, directed edge from officiant to subject. Date is the
// event's date, year, or "unknown". Validity flags are copied verbatim from
// the originating event.
type LineageEdge struct {
	Source            int64  `json:"source"`
	Target            int64  `json:"target"`
	Type              string `json:"type"`
	Date              string `json:"date"`
	IsDoubtfullyValid bool   `json:"is_doubtfully_valid"`
	IsDoubtful        bool   `json:"is_doubtful"`
	IsInvalid         bool   `json:"is_invalid"`
}
