// Package chainpack implements the dynamic value model used by SHV
// devices: a self-describing value that can hold null, bool, int, uint,
// double, string, date-time, list, string-keyed map and int-keyed map,
// plus an optional metadata map attached to a value.
package chainpack

// Kind enumerates the variants an RpcValue can hold.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindUInt
	KindDouble
	KindString
	KindDateTime
	KindList
	KindMap
	KindIMap
)

type (
	// List is an ordered sequence of values.
	List []RpcValue
	// Map is a string-keyed value map.
	Map map[string]RpcValue
	// IMap is an int-keyed value map.
	IMap map[int]RpcValue
)

// Value returns the value stored under key or an invalid value.
func (m Map) Value(key string) RpcValue {
	if m == nil {
		return RpcValue{}
	}
	return m[key]
}

// Value returns the value stored under key or an invalid value.
func (m IMap) Value(key int) RpcValue {
	if m == nil {
		return RpcValue{}
	}
	return m[key]
}

// RpcValue is one dynamic value. The zero value is invalid, which is
// distinct from null.
type RpcValue struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	dt   DateTime
	list List
	m    Map
	im   IMap
	meta *MetaData
}

func NewNull() RpcValue                { return RpcValue{kind: KindNull} }
func NewBool(b bool) RpcValue          { return RpcValue{kind: KindBool, b: b} }
func NewInt(i int64) RpcValue          { return RpcValue{kind: KindInt, i: i} }
func NewUInt(u uint64) RpcValue        { return RpcValue{kind: KindUInt, u: u} }
func NewDouble(f float64) RpcValue     { return RpcValue{kind: KindDouble, f: f} }
func NewString(s string) RpcValue      { return RpcValue{kind: KindString, s: s} }
func NewDateTime(dt DateTime) RpcValue { return RpcValue{kind: KindDateTime, dt: dt} }
func NewList(l List) RpcValue          { return RpcValue{kind: KindList, list: l} }
func NewMap(m Map) RpcValue            { return RpcValue{kind: KindMap, m: m} }
func NewIMap(im IMap) RpcValue         { return RpcValue{kind: KindIMap, im: im} }

func (v RpcValue) Kind() Kind       { return v.kind }
func (v RpcValue) IsValid() bool    { return v.kind != KindInvalid }
func (v RpcValue) IsNull() bool     { return v.kind == KindNull }
func (v RpcValue) IsBool() bool     { return v.kind == KindBool }
func (v RpcValue) IsInt() bool      { return v.kind == KindInt || v.kind == KindUInt }
func (v RpcValue) IsDouble() bool   { return v.kind == KindDouble }
func (v RpcValue) IsString() bool   { return v.kind == KindString }
func (v RpcValue) IsDateTime() bool { return v.kind == KindDateTime }
func (v RpcValue) IsList() bool     { return v.kind == KindList }
func (v RpcValue) IsMap() bool      { return v.kind == KindMap }
func (v RpcValue) IsIMap() bool     { return v.kind == KindIMap }

// ToBool converts to bool, false when the value is not a bool.
func (v RpcValue) ToBool() bool {
	if v.kind == KindBool {
		return v.b
	}
	return false
}

// ToInt converts to int64; uints and doubles are coerced, anything else
// yields zero.
func (v RpcValue) ToInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUInt:
		return int64(v.u)
	case KindDouble:
		return int64(v.f)
	}
	return 0
}

// ToUInt converts to uint64, zero when the value is not an int or uint
// (doubles also yield zero).
func (v RpcValue) ToUInt() uint64 {
	switch v.kind {
	case KindUInt:
		return v.u
	case KindInt:
		return uint64(v.i)
	}
	return 0
}

// ToDouble converts to float64, coercing ints.
func (v RpcValue) ToDouble() float64 {
	switch v.kind {
	case KindDouble:
		return v.f
	case KindInt:
		return float64(v.i)
	case KindUInt:
		return float64(v.u)
	}
	return 0
}

// ToString returns the string content, empty for non-strings.
func (v RpcValue) ToString() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// ToDateTime returns the date-time content, the zero DateTime otherwise.
func (v RpcValue) ToDateTime() DateTime {
	if v.kind == KindDateTime {
		return v.dt
	}
	return DateTime{}
}

// ToList returns the list content, nil otherwise.
func (v RpcValue) ToList() List {
	if v.kind == KindList {
		return v.list
	}
	return nil
}

// ToMap returns the map content, nil otherwise.
func (v RpcValue) ToMap() Map {
	if v.kind == KindMap {
		return v.m
	}
	return nil
}

// ToIMap returns the int-keyed map content, nil otherwise.
func (v RpcValue) ToIMap() IMap {
	if v.kind == KindIMap {
		return v.im
	}
	return nil
}

// Meta returns the metadata attached to the value, nil when there is none.
func (v RpcValue) Meta() *MetaData { return v.meta }

// WithMeta returns a copy of the value with md attached.
func (v RpcValue) WithMeta(md *MetaData) RpcValue {
	v.meta = md
	return v
}

// MetaData is the key-value header attachable to an RpcValue.
type MetaData struct {
	values Map
}

func NewMetaData() *MetaData {
	return &MetaData{values: Map{}}
}

func (md *MetaData) IsEmpty() bool { return md == nil || len(md.values) == 0 }

func (md *MetaData) Value(key string) RpcValue {
	if md == nil {
		return RpcValue{}
	}
	return md.values.Value(key)
}

func (md *MetaData) SetValue(key string, v RpcValue) {
	if md.values == nil {
		md.values = Map{}
	}
	md.values[key] = v
}

// Values exposes the underlying map, never nil.
func (md *MetaData) Values() Map {
	if md == nil || md.values == nil {
		return Map{}
	}
	return md.values
}
