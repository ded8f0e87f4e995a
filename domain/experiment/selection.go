package experiment

import (
	"fmt"

	"labmerge/domain/core"
)

// Selection is the set of experiments a batch processes: the explicit
// extras first, then <Prefix><Start>..<Prefix><End> inclusive, minus
// anything excluded.
type Selection struct {
	Prefix  string
	Start   int
	End     int
	Exclude []string
	Extra   []string
}

// DefaultSelection is C1R2 followed by C2..C30 without the broken C4
func DefaultSelection() Selection {
	return Selection{
		Prefix:  "C",
		Start:   2,
		End:     30,
		Exclude: []string{"C4"},
		Extra:   []string{"C1R2"},
	}
}

// IDs expands the selection in processing order without duplicates
func (s Selection) IDs() ([]core.ExperimentID, error) {
	excluded := make(map[core.ExperimentID]bool, len(s.Exclude))
	for _, raw := range s.Exclude {
		id, err := core.ParseExperimentID(raw)
		if err != nil {
			return nil, fmt.Errorf("exclusion %q: %w", raw, err)
		}
		excluded[id] = true
	}

	seen := make(map[core.ExperimentID]bool)
	var ids []core.ExperimentID
	add := func(raw string) error {
		id, err := core.ParseExperimentID(raw)
		if err != nil {
			return err
		}
		if excluded[id] || seen[id] {
			return nil
		}
		seen[id] = true
		ids = append(ids, id)
		return nil
	}

	for _, raw := range s.Extra {
		if err := add(raw); err != nil {
			return nil, fmt.Errorf("extra %q: %w", raw, err)
		}
	}
	for n := s.Start; n <= s.End; n++ {
		if err := add(fmt.Sprintf("%s%d", s.Prefix, n)); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
