package domain

import "time"

// Property is a remote property identifier such as "P31".
type Property string

// Rank is the rank of a claim.
type Rank string

const (
	RankPreferred  Rank = "preferred"
	RankNormal     Rank = "normal"
	RankDeprecated Rank = "deprecated"
)

// Snak is a single property-value pair, used for qualifiers and
// reference assertions.
type Snak struct {
	Property Property `json:"property"`
	Value    Value    `json:"value"`
}

// Reference is an ordered provenance block.
type Reference struct {
	Snaks []Snak `json:"snaks"`
}

// Find returns the first value for a property in the reference.
func (r Reference) Find(p Property) (Value, bool) {
	for _, s := range r.Snaks {
		if s.Property == p {
			return s.Value, true
		}
	}
	return Value{}, false
}

// Claim is one property-value assertion on a remote item.
// Claims are never edited in place; a change is expressed as a delete of
// the old claim paired with an add of a new one.
type Claim struct {
	// ID is the remote statement identifier. Empty for claims not yet issued.
	ID         string      `json:"id,omitempty"`
	Property   Property    `json:"property"`
	Value      Value       `json:"value"`
	Qualifiers []Snak      `json:"qualifiers,omitempty"`
	References []Reference `json:"references,omitempty"`
	Rank       Rank        `json:"rank,omitempty"`

	// Incomplete marks a remote claim that lost qualifier or reference
	// snaks of unsupported datatypes when decoded. It cannot be re-issued
	// as a faithful copy.
	Incomplete bool `json:"incomplete,omitempty"`
}

// Qualifier returns the value of the first qualifier for p.
func (c Claim) Qualifier(p Property) (Value, bool) {
	for _, q := range c.Qualifiers {
		if q.Property == p {
			return q.Value, true
		}
	}
	return Value{}, false
}

// HasQualifier reports whether the claim carries any qualifier for p.
func (c Claim) HasQualifier(p Property) bool {
	_, ok := c.Qualifier(p)
	return ok
}

// WithQualifier returns a copy of the claim with an additional qualifier.
// The copy shares no slices with the receiver.
func (c Claim) WithQualifier(p Property, v Value) Claim {
	out := c.Clone()
	out.Qualifiers = append(out.Qualifiers, Snak{Property: p, Value: v})
	return out
}

// Clone returns a deep copy of the claim's slices.
func (c Claim) Clone() Claim {
	out := c
	out.Qualifiers = append([]Snak(nil), c.Qualifiers...)
	out.References = make([]Reference, len(c.References))
	for i, r := range c.References {
		out.References[i] = Reference{Snaks: append([]Snak(nil), r.Snaks...)}
	}
	return out
}

// PublishedDate recovers the publication date recorded in the claim's
// references. The first reference carrying one wins.
func (c Claim) PublishedDate() (time.Time, bool) {
	for _, r := range c.References {
		if v, ok := r.Find(PropPublicationDate); ok && v.Type == ValueTime {
			return v.Time, true
		}
	}
	return time.Time{}, false
}

// RemoteItem is the remote representation of one real-world object.
type RemoteItem struct {
	ID           string            `json:"id"`
	Labels       map[string]string `json:"labels,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
	Claims       []Claim           `json:"claims,omitempty"`
}

// ClaimsFor returns the item's claims for a property in item order.
func (i *RemoteItem) ClaimsFor(p Property) []Claim {
	if i == nil {
		return nil
	}
	var out []Claim
	for _, c := range i.Claims {
		if c.Property == p {
			out = append(out, c)
		}
	}
	return out
}

// ItemDraft is the initial content of an item about to be created.
type ItemDraft struct {
	Labels       map[string]string
	Descriptions map[string]string
	Claims       []Claim
}
