package player

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/godbus/dbus/v5"
)

// Kind tags the shape of a Value.
type Kind int

const (
	KindNone Kind = iota
	KindScalar
	KindSequence
	KindEntries
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindEntries:
		return "entries"
	}
	return "none"
}

// Value is a property value read from the bus whose shape is only known at
// runtime. It is either a text scalar, a sequence of values, or a sequence of
// keyed entries. The zero Value is KindNone and stands for "absent".
type Value struct {
	kind    Kind
	text    string
	items   []Value
	entries []Entry
}

// Entry is one key/value pair of an entries Value.
type Entry struct {
	Key   string
	Value Value
}

func Scalar(text string) Value {
	return Value{kind: KindScalar, text: text}
}

func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: items}
}

func Entries(entries ...Entry) Value {
	return Value{kind: KindEntries, entries: entries}
}

// Strings builds a sequence of scalars.
func Strings(texts ...string) Value {
	items := make([]Value, len(texts))
	for i, t := range texts {
		items[i] = Scalar(t)
	}
	return Sequence(items...)
}

func (v Value) Kind() Kind { return v.kind }

// AsText returns the scalar text, or false when v is not a scalar.
func (v Value) AsText() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	return v.text, true
}

// AsItems returns the items of a sequence, or false when v is not a sequence.
func (v Value) AsItems() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.items, true
}

// AsEntries returns the entries of a keyed value, or false otherwise.
func (v Value) AsEntries() ([]Entry, bool) {
	if v.kind != KindEntries {
		return nil, false
	}
	return v.entries, true
}

// Lookup returns the value of the last entry with the given key.
func (v Value) Lookup(key string) (Value, bool) {
	var found Value
	ok := false
	for _, e := range v.entries {
		if e.Key == key {
			found, ok = e.Value, true
		}
	}
	return found, ok
}

// FromDBus converts a value decoded by godbus into a Value. Variants are
// unwrapped, string-keyed maps become entries sorted by key, slices and arrays
// become sequences, and numbers and booleans become their decimal text.
// Anything else is KindNone.
func FromDBus(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case dbus.Variant:
		return FromDBus(x.Value())
	case string:
		return Scalar(x)
	case dbus.ObjectPath:
		return Scalar(string(x))
	case dbus.Signature:
		return Scalar(x.String())
	case bool:
		return Scalar(strconv.FormatBool(x))
	case []string:
		return Strings(x...)
	case []dbus.Variant:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromDBus(item)
		}
		return Sequence(items...)
	case []interface{}:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromDBus(item)
		}
		return Sequence(items...)
	case map[string]dbus.Variant:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			entries[i] = Entry{Key: k, Value: FromDBus(x[k])}
		}
		return Entries(entries...)
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Scalar(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Scalar(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return Scalar(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.String:
		return Scalar(rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromDBus(rv.Index(i).Interface())
		}
		return Sequence(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			entries[i] = Entry{Key: k.String(), Value: FromDBus(rv.MapIndex(k).Interface())}
		}
		return Entries(entries...)
	}
	return Value{}
}
