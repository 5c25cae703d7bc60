package strategy

import (
	"github.com/yourusername/smart-lay/internal/models"
)

// Qualification is the verdict of the filter for one race.
// Score starts at 100 and loses a penalty per failed criterion; Notes list
// the stake boosts that apply to a qualifying race.
type Qualification struct {
	Qualified bool            `json:"qualified"`
	Score     float64         `json:"score"`
	Reasons   []models.Reason `json:"reasons"`
	Notes     []models.Reason `json:"notes,omitempty"`
}

// Has reports whether any reason is of the given kind
func (q Qualification) Has(kind models.ReasonKind) bool {
	for _, r := range q.Reasons {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// Strings projects the reasons to display strings
func (q Qualification) Strings() []string {
	out := make([]string, len(q.Reasons))
	for i, r := range q.Reasons {
		out[i] = r.String()
	}
	return out
}
