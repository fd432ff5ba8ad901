package wikibase

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// EntityURIPrefix prefixes entity ids in concept URIs.
const EntityURIPrefix = "http://www.wikidata.org/entity/"

// Day precision in the time datatype.
const precisionDay = 11

var errUnsupportedValue = errors.New("unsupported datavalue")

// Wire format of entities as returned by wbgetentities and accepted by
// wbeditentity.

type term struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type entity struct {
	ID           string                 `json:"id,omitempty"`
	Missing      json.RawMessage        `json:"missing,omitempty"`
	Labels       map[string]term        `json:"labels,omitempty"`
	Descriptions map[string]term        `json:"descriptions,omitempty"`
	Claims       map[string][]statement `json:"claims,omitempty"`
}

type statement struct {
	ID              string            `json:"id,omitempty"`
	Type            string            `json:"type"`
	Rank            string            `json:"rank,omitempty"`
	MainSnak        snak              `json:"mainsnak"`
	Qualifiers      map[string][]snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
	References      []reference       `json:"references,omitempty"`
}

type snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataValue *dataValue `json:"datavalue,omitempty"`
}

type dataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type reference struct {
	Hash       string            `json:"hash,omitempty"`
	Snaks      map[string][]snak `json:"snaks"`
	SnaksOrder []string          `json:"snaks-order,omitempty"`
}

// removal deletes a statement in a wbeditentity claims list.
type removal struct {
	ID     string `json:"id"`
	Remove string `json:"remove"`
}

// editData is the data parameter of wbeditentity.
type editData struct {
	Labels       map[string]term `json:"labels,omitempty"`
	Descriptions map[string]term `json:"descriptions,omitempty"`
	Claims       []any           `json:"claims,omitempty"`
}

type entityIDValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int    `json:"numeric-id"`
	ID         string `json:"id"`
}

type quantityValue struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

type timeValue struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

type coordinateValue struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Precision float64  `json:"precision"`
	Globe     string   `json:"globe"`
}

// toItem converts a wire entity to a RemoteItem. Properties are emitted in
// ascending numeric order; statements keep their order within a property.
func toItem(e entity) (*domain.RemoteItem, error) {
	item := &domain.RemoteItem{
		ID:           e.ID,
		Labels:       fromTerms(e.Labels),
		Descriptions: fromTerms(e.Descriptions),
	}
	for _, p := range sortedProperties(e.Claims) {
		for _, st := range e.Claims[p] {
			c, err := toClaim(st)
			if err != nil {
				return nil, fmt.Errorf("statement %s: %w", st.ID, err)
			}
			item.Claims = append(item.Claims, c)
		}
	}
	return item, nil
}

func toClaim(st statement) (domain.Claim, error) {
	v, err := fromSnak(st.MainSnak)
	if errors.Is(err, errUnsupportedValue) {
		// Kept so the statement can still be deleted by id; never equal
		// to any local value.
		v = domain.Value{Type: domain.ValueType(unsupportedType(st.MainSnak))}
	} else if err != nil {
		return domain.Claim{}, err
	}
	c := domain.Claim{
		ID:       st.ID,
		Property: domain.Property(st.MainSnak.Property),
		Value:    v,
		Rank:     domain.Rank(st.Rank),
	}
	var dropped bool
	c.Qualifiers, dropped, err = fromSnakMap(st.Qualifiers, st.QualifiersOrder)
	if err != nil {
		return domain.Claim{}, fmt.Errorf("qualifiers: %w", err)
	}
	c.Incomplete = dropped
	for _, r := range st.References {
		snaks, dropped, err := fromSnakMap(r.Snaks, r.SnaksOrder)
		if err != nil {
			return domain.Claim{}, fmt.Errorf("reference %s: %w", r.Hash, err)
		}
		c.Incomplete = c.Incomplete || dropped
		c.References = append(c.References, domain.Reference{Snaks: snaks})
	}
	return c, nil
}

// fromSnakMap flattens a property-keyed snak map in the given order.
// Snaks of unsupported datatypes are dropped and reported.
func fromSnakMap(m map[string][]snak, order []string) ([]domain.Snak, bool, error) {
	if len(m) == 0 {
		return nil, false, nil
	}
	if len(order) == 0 {
		order = sortedProperties(m)
	}
	var out []domain.Snak
	var dropped bool
	for _, p := range order {
		for _, s := range m[p] {
			v, err := fromSnak(s)
			if errors.Is(err, errUnsupportedValue) {
				logger.Debug("wikibase: dropping %s snak on %s", unsupportedType(s), p)
				dropped = true
				continue
			}
			if err != nil {
				return nil, false, err
			}
			out = append(out, domain.Snak{Property: domain.Property(p), Value: v})
		}
	}
	return out, dropped, nil
}

func unsupportedType(s snak) string {
	if s.DataValue != nil {
		return s.DataValue.Type
	}
	return s.SnakType
}

func fromSnak(s snak) (domain.Value, error) {
	switch s.SnakType {
	case "novalue":
		return domain.NoValue(), nil
	case "value":
		if s.DataValue == nil {
			return domain.Value{}, fmt.Errorf("%s: value snak without datavalue", s.Property)
		}
		return fromDataValue(*s.DataValue)
	default:
		return domain.Value{}, errUnsupportedValue
	}
}

func fromDataValue(dv dataValue) (domain.Value, error) {
	switch dv.Type {
	case "string":
		var s string
		if err := json.Unmarshal(dv.Value, &s); err != nil {
			return domain.Value{}, fmt.Errorf("decode string: %w", err)
		}
		return domain.StringValue(s), nil

	case "wikibase-entityid":
		var v entityIDValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return domain.Value{}, fmt.Errorf("decode entity id: %w", err)
		}
		id := v.ID
		if id == "" {
			id = "Q" + strconv.Itoa(v.NumericID)
		}
		return domain.EntityValue(id), nil

	case "quantity":
		var v quantityValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return domain.Value{}, fmt.Errorf("decode quantity: %w", err)
		}
		amount, err := strconv.ParseFloat(v.Amount, 64)
		if err != nil {
			return domain.Value{}, fmt.Errorf("parse amount %q: %w", v.Amount, err)
		}
		unit := ""
		if v.Unit != "1" {
			unit = strings.TrimPrefix(v.Unit, EntityURIPrefix)
		}
		return domain.QuantityValue(amount, unit), nil

	case "time":
		var v timeValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return domain.Value{}, fmt.Errorf("decode time: %w", err)
		}
		t, err := parseTime(v.Time)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.DateValue(t), nil

	case "globecoordinate":
		var v coordinateValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return domain.Value{}, fmt.Errorf("decode coordinate: %w", err)
		}
		return domain.CoordinateValue(v.Latitude, v.Longitude, v.Precision), nil

	default:
		return domain.Value{}, errUnsupportedValue
	}
}

// parseTime parses the "+yyyy-mm-ddT00:00:00Z" form. Unknown month and
// day, written as 00, are read as the first.
func parseTime(s string) (time.Time, error) {
	if !strings.HasPrefix(s, "+") {
		return time.Time{}, fmt.Errorf("parse time %q: only CE dates are supported", s)
	}
	date, _, ok := strings.Cut(s[1:], "T")
	if !ok {
		return time.Time{}, fmt.Errorf("parse time %q: missing time part", s)
	}
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("parse time %q: malformed date", s)
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
		}
		ymd[i] = n
	}
	month, day := max(ymd[1], 1), max(ymd[2], 1)
	return time.Date(ymd[0], time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func formatTime(t time.Time) string {
	t = domain.Midnight(t)
	return fmt.Sprintf("+%04d-%02d-%02dT00:00:00Z", t.Year(), int(t.Month()), t.Day())
}

func formatAmount(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if f >= 0 {
		return "+" + s
	}
	return s
}

// fromClaim builds the wire form of a claim to be added. The claim
// id is never sent: every add creates a new statement.
func fromClaim(c domain.Claim) (statement, error) {
	main, err := toSnak(c.Property, c.Value)
	if err != nil {
		return statement{}, err
	}
	rank := string(c.Rank)
	if rank == "" {
		rank = string(domain.RankNormal)
	}
	st := statement{Type: "statement", Rank: rank, MainSnak: main}

	st.Qualifiers, st.QualifiersOrder, err = toSnakMap(c.Qualifiers)
	if err != nil {
		return statement{}, fmt.Errorf("qualifiers: %w", err)
	}
	for _, r := range c.References {
		snaks, order, err := toSnakMap(r.Snaks)
		if err != nil {
			return statement{}, fmt.Errorf("reference: %w", err)
		}
		st.References = append(st.References, reference{Snaks: snaks, SnaksOrder: order})
	}
	return st, nil
}

func toSnakMap(snaks []domain.Snak) (map[string][]snak, []string, error) {
	if len(snaks) == 0 {
		return nil, nil, nil
	}
	m := make(map[string][]snak)
	var order []string
	for _, s := range snaks {
		ws, err := toSnak(s.Property, s.Value)
		if err != nil {
			return nil, nil, err
		}
		p := string(s.Property)
		if _, seen := m[p]; !seen {
			order = append(order, p)
		}
		m[p] = append(m[p], ws)
	}
	return m, order, nil
}

func toSnak(p domain.Property, v domain.Value) (snak, error) {
	if v.IsNone() {
		return snak{SnakType: "novalue", Property: string(p)}, nil
	}
	dv, err := toDataValue(v)
	if err != nil {
		return snak{}, fmt.Errorf("%s: %w", p, err)
	}
	return snak{SnakType: "value", Property: string(p), DataValue: &dv}, nil
}

func toDataValue(v domain.Value) (dataValue, error) {
	var typ string
	var payload any
	switch v.Type {
	case domain.ValueString:
		typ, payload = "string", v.String

	case domain.ValueEntity:
		if len(v.Entity) < 2 {
			return dataValue{}, fmt.Errorf("%w: entity id %q", domain.ErrInvalidInput, v.Entity)
		}
		n, err := strconv.Atoi(v.Entity[1:])
		if err != nil {
			return dataValue{}, fmt.Errorf("%w: entity id %q", domain.ErrInvalidInput, v.Entity)
		}
		entityType := "item"
		if v.Entity[0] == 'P' {
			entityType = "property"
		}
		typ, payload = "wikibase-entityid", entityIDValue{EntityType: entityType, NumericID: n, ID: v.Entity}

	case domain.ValueQuantity:
		if v.Quantity == nil {
			return dataValue{}, fmt.Errorf("%w: quantity without amount", domain.ErrInvalidInput)
		}
		unit := "1"
		if v.Quantity.Unit != "" {
			unit = EntityURIPrefix + v.Quantity.Unit
		}
		typ, payload = "quantity", quantityValue{Amount: formatAmount(v.Quantity.Amount), Unit: unit}

	case domain.ValueTime:
		typ, payload = "time", timeValue{
			Time:          formatTime(v.Time),
			Precision:     precisionDay,
			CalendarModel: EntityURIPrefix + domain.EntityGregorianCalendar,
		}

	case domain.ValueCoordinate:
		if v.Coordinate == nil {
			return dataValue{}, fmt.Errorf("%w: coordinate without position", domain.ErrInvalidInput)
		}
		typ, payload = "globecoordinate", coordinateValue{
			Latitude:  v.Coordinate.Latitude,
			Longitude: v.Coordinate.Longitude,
			Precision: v.Coordinate.Precision,
			Globe:     EntityURIPrefix + domain.EntityEarth,
		}

	default:
		return dataValue{}, fmt.Errorf("%w: cannot encode value of type %q", domain.ErrInvalidInput, v.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return dataValue{}, fmt.Errorf("encode %s: %w", typ, err)
	}
	return dataValue{Type: typ, Value: raw}, nil
}

func fromTerms(m map[string]term) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for lang, t := range m {
		out[lang] = t.Value
	}
	return out
}

func toTerms(m map[string]string) map[string]term {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]term, len(m))
	for lang, v := range m {
		out[lang] = term{Language: lang, Value: v}
	}
	return out
}

// sortedProperties returns map keys ordered by numeric property id.
func sortedProperties[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(keys[i], "P"))
		b, _ := strconv.Atoi(strings.TrimPrefix(keys[j], "P"))
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
