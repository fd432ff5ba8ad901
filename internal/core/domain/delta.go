package domain

// Delta is the set of claim additions and deletions committed to one
// remote item. A claim superseded with history appears in both lists:
// the old claim plus a point-in-time qualifier in ToAdd, and the literal
// old claim in ToDelete.
type Delta struct {
	ToAdd    []Claim `json:"toAdd,omitempty"`
	ToDelete []Claim `json:"toDelete,omitempty"`
}

// Empty reports whether the delta carries no changes.
func (d *Delta) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToDelete) == 0
}

// Add appends claims to be added.
func (d *Delta) Add(claims ...Claim) {
	d.ToAdd = append(d.ToAdd, claims...)
}

// Delete appends claims to be deleted.
func (d *Delta) Delete(claims ...Claim) {
	d.ToDelete = append(d.ToDelete, claims...)
}

// Replace deletes old and adds replacement.
func (d *Delta) Replace(old, replacement Claim) {
	d.Delete(old)
	d.Add(replacement)
}
