package domain

import (
	"time"
)

// ValueType identifies the datatype carried by a Value.
type ValueType string

const (
	// ValueString is a plain string or external identifier.
	ValueString ValueType = "string"

	// ValueEntity is a reference to another item, e.g. "Q34".
	ValueEntity ValueType = "entity"

	// ValueQuantity is a decimal amount with a unit.
	ValueQuantity ValueType = "quantity"

	// ValueTime is a calendar date.
	ValueTime ValueType = "time"

	// ValueCoordinate is a point on the globe.
	ValueCoordinate ValueType = "coordinate"

	// ValueNone is the explicit "no value" assertion.
	ValueNone ValueType = "none"
)

// Quantity is an amount in a unit entity.
type Quantity struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Coordinate is a globe coordinate in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Precision float64 `json:"precision"`
}

// Value is a typed claim value. Exactly one of the payload fields is
// meaningful, as selected by Type.
type Value struct {
	Type       ValueType   `json:"type"`
	String     string      `json:"string,omitempty"`
	Entity     string      `json:"entity,omitempty"`
	Quantity   *Quantity   `json:"quantity,omitempty"`
	Time       time.Time   `json:"time,omitempty"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// StringValue creates a string value.
func StringValue(s string) Value {
	return Value{Type: ValueString, String: s}
}

// EntityValue creates an entity reference value.
func EntityValue(id string) Value {
	return Value{Type: ValueEntity, Entity: id}
}

// QuantityValue creates a quantity value.
func QuantityValue(amount float64, unit string) Value {
	return Value{Type: ValueQuantity, Quantity: &Quantity{Amount: amount, Unit: unit}}
}

// DateValue creates a day-precision time value. The time of day is dropped.
func DateValue(t time.Time) Value {
	return Value{Type: ValueTime, Time: Midnight(t)}
}

// CoordinateValue creates a coordinate value.
func CoordinateValue(lat, lon, precision float64) Value {
	return Value{Type: ValueCoordinate, Coordinate: &Coordinate{Latitude: lat, Longitude: lon, Precision: precision}}
}

// NoValue creates the explicit "no value" sentinel.
func NoValue() Value {
	return Value{Type: ValueNone}
}

// IsNone reports whether v is the "no value" sentinel.
func (v Value) IsNone() bool {
	return v.Type == ValueNone
}

// Equal reports whether two values are identical. Quantities compare by
// exact amount and unit, coordinates by exact position.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case ValueString:
		return v.String == o.String
	case ValueEntity:
		return v.Entity == o.Entity
	case ValueQuantity:
		if v.Quantity == nil || o.Quantity == nil {
			return v.Quantity == o.Quantity
		}
		return *v.Quantity == *o.Quantity
	case ValueTime:
		return v.Time.Equal(o.Time)
	case ValueCoordinate:
		if v.Coordinate == nil || o.Coordinate == nil {
			return v.Coordinate == o.Coordinate
		}
		return v.Coordinate.Latitude == o.Coordinate.Latitude &&
			v.Coordinate.Longitude == o.Coordinate.Longitude
	case ValueNone:
		return true
	default:
		return false
	}
}

// Midnight truncates t to the start of its day in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
