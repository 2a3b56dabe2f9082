package results

import (
	"errors"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnsupportedValue is returned when a record leaf is not a scalar, an
// array, or a nested group. Such values must be pre-flattened by the caller.
var ErrUnsupportedValue = errors.New("unsupported leaf value, must be pre-flattened")

// Kind tags the closed set of serializable leaf shapes.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindGroup
)

// Value is the closed tagged variant for everything the store serializes:
// a scalar, an array of scalars, or a nested group of named values.
type Value struct {
	kind   Kind
	scalar float64
	array  []float64
	group  map[string]Value
}

func Scalar(v float64) Value { return Value{kind: KindScalar, scalar: v} }

func Array(v []float64) Value { return Value{kind: KindArray, array: v} }

func Group(v map[string]Value) Value { return Value{kind: KindGroup, group: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Scalar() float64 { return v.scalar }

func (v Value) Array() []float64 { return v.array }

func (v Value) Group() map[string]Value { return v.group }

// FromAny classifies an arbitrary decoded value into the closed variant.
// Anything outside the closed set fails with ErrUnsupportedValue instead of
// passing through silently.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case Value:
		return t, nil
	case float64:
		return Scalar(t), nil
	case float32:
		return Scalar(float64(t)), nil
	case int:
		return Scalar(float64(t)), nil
	case int64:
		return Scalar(float64(t)), nil
	case []float64:
		return Array(t), nil
	case []any:
		arr := make([]float64, len(t))
		for i, el := range t {
			num, ok := el.(float64)
			if !ok {
				return Value{}, fmt.Errorf("%w: array element %T", ErrUnsupportedValue, el)
			}
			arr[i] = num
		}
		return Array(arr), nil
	case map[string]any:
		group := make(map[string]Value, len(t))
		for k, el := range t {
			v, err := FromAny(el)
			if err != nil {
				return Value{}, fmt.Errorf("group key %q: %w", k, err)
			}
			group[k] = v
		}
		return Group(group), nil
	case map[string]float64:
		group := make(map[string]Value, len(t))
		for k, el := range t {
			group[k] = Scalar(el)
		}
		return Group(group), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

// ScalarMap wraps a plain float map as a record of scalar values.
func ScalarMap(m map[string]float64) map[string]Value {
	rec := make(map[string]Value, len(m))
	for k, v := range m {
		rec[k] = Scalar(v)
	}
	return rec
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindArray:
		return json.Marshal(v.array)
	case KindGroup:
		return json.Marshal(v.group)
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedValue, v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Keys returns the sorted key set of a record.
func Keys(rec map[string]Value) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
