package library

// Diff describes how one filtered result set evolved into another.
// Removed assets carry the metadata they had in the previous set, which
// is the only place their ids can still be resolved from.
type Diff struct {
	Added   []Asset
	Removed []Asset
	Changed []Asset
}

// Total returns the number of assets touched by the diff.
func (d Diff) Total() int {
	return len(d.Added) + len(d.Removed) + len(d.Changed)
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return d.Total() == 0
}

// Compute diffs two result sets by asset id. An asset present in both
// sets counts as changed when its fingerprint differs.
func Compute(prev, curr []Asset) Diff {
	prevByID := make(map[string]Asset, len(prev))
	for _, a := range prev {
		prevByID[a.ID] = a
	}

	var d Diff
	seen := make(map[string]struct{}, len(curr))
	for _, a := range curr {
		seen[a.ID] = struct{}{}
		old, ok := prevByID[a.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, a)
		case old.Fingerprint != a.Fingerprint:
			d.Changed = append(d.Changed, a)
		}
	}

	for _, a := range prev {
		if _, ok := seen[a.ID]; !ok {
			d.Removed = append(d.Removed, a)
		}
	}

	return d
}
