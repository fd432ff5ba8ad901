package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
)

// Dataset attribute names consumed from the protected-area registry.
const (
	AttrNVRID        = "NVRID"
	AttrName         = "NAMN"
	AttrStatus       = "BESLSTATUS"
	AttrOperator     = "FORVALTARE"
	AttrIUCN         = "IUCNKAT"
	AttrInForce      = "IKRAFTDAT"
	AttrOrigValidity = "URSGALLDAT"
	AttrOrigDecision = "URSBESLDAT"
	AttrCounty       = "LAN"
)

// StatusActive is the decision status of records that are in force.
const StatusActive = "Gällande"

// AttributeDateLayout is the layout of date attributes in the dataset.
const AttributeDateLayout = "2006/01/02"

// LocalObject is one authoritative record for the current run.
// It is immutable for the duration of processing.
type LocalObject struct {
	NVRID         string
	Name          string
	PublishedDate time.Time
	RetrievedDate time.Time
	Feature       *geojson.Feature
}

// NewLocalObject builds a LocalObject from a dataset feature. Properties
// with null values are dropped from the feature.
func NewLocalObject(f *geojson.Feature, published, retrieved time.Time) (*LocalObject, error) {
	for k, v := range f.Properties {
		if v == nil {
			delete(f.Properties, k)
		}
	}
	o := &LocalObject{
		PublishedDate: Midnight(published),
		RetrievedDate: Midnight(retrieved),
		Feature:       f,
	}
	o.NVRID = strings.TrimSpace(o.String(AttrNVRID))
	if o.NVRID == "" {
		return nil, fmt.Errorf("%w: feature has no %s", ErrInvalidInput, AttrNVRID)
	}
	o.Name = strings.TrimSpace(o.String(AttrName))
	return o, nil
}

// Active reports whether the object's decision status is in force.
func (o *LocalObject) Active() bool {
	return IsActiveStatus(o.String(AttrStatus))
}

// IsActiveStatus reports whether a decision status is in force.
func IsActiveStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusActive)
}

// String returns a string attribute, or "" when absent.
func (o *LocalObject) String(name string) string {
	v, ok := o.Feature.Properties[name]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns a numeric attribute. Numeric strings are accepted.
func (o *LocalObject) Float(name string) (float64, bool) {
	v, ok := o.Feature.Properties[name]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Date parses a "yyyy/MM/dd" attribute.
func (o *LocalObject) Date(name string) (time.Time, bool, error) {
	s := strings.TrimSpace(o.String(name))
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(AttributeDateLayout, s)
	if err != nil {
		return time.Time{}, true, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	return t, true, nil
}

// County returns the county name with "Län" lowercased, as used in
// descriptions.
func (o *LocalObject) County() string {
	return strings.Replace(o.String(AttrCounty), "Län", "län", 1)
}
