package chainpack

import "time"

// Interface converts a value to plain Go types, for handing off to
// generic serializers (msgpack, CSV). Date-times become time.Time,
// int-keyed maps become map[int]interface{}. Invalid converts to nil.
func (v RpcValue) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindUInt:
		return v.u
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindDateTime:
		return v.dt.ToTime()
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	case KindIMap:
		out := make(map[int]interface{}, len(v.im))
		for k, e := range v.im {
			out[k] = e.Interface()
		}
		return out
	}
	return nil
}

// FromInterface converts plain Go data to an RpcValue. Unknown types
// convert to null.
func FromInterface(x interface{}) RpcValue {
	switch t := x.(type) {
	case nil:
		return NewNull()
	case bool:
		return NewBool(t)
	case int:
		return NewInt(int64(t))
	case int8:
		return NewInt(int64(t))
	case int16:
		return NewInt(int64(t))
	case int32:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case uint:
		return NewUInt(uint64(t))
	case uint8:
		return NewUInt(uint64(t))
	case uint16:
		return NewUInt(uint64(t))
	case uint32:
		return NewUInt(uint64(t))
	case uint64:
		return NewUInt(t)
	case float32:
		return NewDouble(float64(t))
	case float64:
		return NewDouble(t)
	case string:
		return NewString(t)
	case time.Time:
		return NewDateTime(DateTime{Msec: t.UnixMilli()})
	case DateTime:
		return NewDateTime(t)
	case []interface{}:
		list := make(List, len(t))
		for i, e := range t {
			list[i] = FromInterface(e)
		}
		return NewList(list)
	case map[string]interface{}:
		m := make(Map, len(t))
		for k, e := range t {
			m[k] = FromInterface(e)
		}
		return NewMap(m)
	case map[int]interface{}:
		im := make(IMap, len(t))
		for k, e := range t {
			im[k] = FromInterface(e)
		}
		return NewIMap(im)
	case RpcValue:
		return t
	}
	return NewNull()
}
