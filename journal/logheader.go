package journal

import (
	"strings"

	"github.com/shvtools/shvjournal/chainpack"
)

// LogVersion is the journal result format version.
const LogVersion = 2

// Result column names, positional in each emitted record.
const (
	ColumnTimestamp = "timestamp"
	ColumnUpTime    = "upTime"
	ColumnPath      = "path"
	ColumnValue     = "value"
	ColumnShortTime = "shortTime"
	ColumnDomain    = "domain"
)

const keyName = "name"

// LogHeader is the metadata attached to a getLog result. It round-trips
// through a chainpack meta-map; missing keys decode to zero values.
type LogHeader struct {
	DeviceID         string
	DeviceType       string
	LogVersion       int
	LogParams        GetLogParams
	RecordCount      int
	RecordCountLimit int
	WithUptime       bool
	WithSnapshot     bool
	Fields           chainpack.List
	PathDict         chainpack.IMap
	TypeInfos        chainpack.Map
	DateTime         chainpack.RpcValue
	Since            chainpack.RpcValue
	Until            chainpack.RpcValue
}

// SetTypeInfo stores type info under a path prefix; the empty prefix is
// the whole-device prefix ".".
func (h *LogHeader) SetTypeInfo(prefix string, ti chainpack.RpcValue) {
	if h.TypeInfos == nil {
		h.TypeInfos = chainpack.Map{}
	}
	if prefix == "" {
		prefix = "."
	}
	h.TypeInfos[prefix] = ti
}

// ToMetaData serializes the header. Empty device, fields and path dict
// are omitted; a single "." prefix emits typeInfo, multiple prefixes
// emit typeInfos.
func (h *LogHeader) ToMetaData() *chainpack.MetaData {
	md := chainpack.NewMetaData()
	device := chainpack.Map{}
	if h.DeviceID != "" {
		device["id"] = chainpack.NewString(h.DeviceID)
	}
	if h.DeviceType != "" {
		device["type"] = chainpack.NewString(h.DeviceType)
	}
	if len(device) > 0 {
		md.SetValue("device", chainpack.NewMap(device))
	}
	md.SetValue("logVersion", chainpack.NewInt(int64(h.LogVersion)))
	md.SetValue("logParams", h.LogParams.ToRpcValue())
	md.SetValue("recordCount", chainpack.NewInt(int64(h.RecordCount)))
	md.SetValue("recordCountLimit", chainpack.NewInt(int64(h.RecordCountLimit)))
	md.SetValue("withUptime", chainpack.NewBool(h.WithUptime))
	md.SetValue("withSnapShot", chainpack.NewBool(h.WithSnapshot))
	if len(h.Fields) > 0 {
		md.SetValue("fields", chainpack.NewList(h.Fields))
	}
	if len(h.PathDict) > 0 {
		md.SetValue("pathDict", chainpack.NewIMap(h.PathDict))
	}
	if len(h.TypeInfos) > 0 {
		if ti, ok := h.TypeInfos["."]; ok && len(h.TypeInfos) == 1 {
			md.SetValue("typeInfo", ti)
		} else {
			md.SetValue("typeInfos", chainpack.NewMap(h.TypeInfos))
		}
	}
	md.SetValue("dateTime", h.DateTime)
	md.SetValue("since", h.Since)
	md.SetValue("until", h.Until)
	return md
}

// LogHeaderFromMetaData decodes a header; missing keys yield defaults.
func LogHeaderFromMetaData(md *chainpack.MetaData) LogHeader {
	h := LogHeader{}
	device := md.Value("device").ToMap()
	h.DeviceID = device.Value("id").ToString()
	h.DeviceType = device.Value("type").ToString()
	h.LogVersion = int(md.Value("logVersion").ToInt())
	h.LogParams = GetLogParamsFromRpcValue(md.Value("logParams"))
	h.RecordCount = int(md.Value("recordCount").ToInt())
	h.RecordCountLimit = int(md.Value("recordCountLimit").ToInt())
	h.WithUptime = md.Value("withUptime").ToBool()
	h.WithSnapshot = md.Value("withSnapShot").ToBool()
	h.Fields = md.Value("fields").ToList()
	h.PathDict = md.Value("pathDict").ToIMap()
	if tis := md.Value("typeInfos").ToMap(); len(tis) > 0 {
		h.TypeInfos = chainpack.Map{}
		for k, v := range tis {
			h.TypeInfos[k] = v
		}
	}
	if ti := md.Value("typeInfo"); ti.IsMap() {
		if h.TypeInfos == nil {
			h.TypeInfos = chainpack.Map{}
		}
		h.TypeInfos["."] = ti
	}
	h.DateTime = md.Value("dateTime")
	h.Since = md.Value("since")
	h.Until = md.Value("until")
	return h
}

// PathsSampleTypes flattens the type info into a path -> sample type
// index. Each prefix's "types" map names type descriptors, its "paths"
// map binds paths to type names.
func (h *LogHeader) PathsSampleTypes() map[string]SampleType {
	ret := map[string]SampleType{}
	for prefix, ti := range h.TypeInfos {
		tim := ti.ToMap()
		typeToSample := map[string]SampleType{}
		for name, descr := range tim.Value("types").ToMap() {
			typeToSample[name] = sampleTypeFromRpcValue(descr.ToMap().Value("sampleType"))
		}
		for path, pd := range tim.Value("paths").ToMap() {
			typeName := pd.ToMap().Value("type").ToString()
			st, ok := typeToSample[typeName]
			if !ok {
				continue
			}
			if prefix != "." {
				path = prefix + "/" + path
			}
			ret[path] = st
		}
	}
	return ret
}

func sampleTypeFromRpcValue(v chainpack.RpcValue) SampleType {
	s := v.ToString()
	if strings.EqualFold(s, "Discrete") || strings.EqualFold(s, "D") {
		return SampleDiscrete
	}
	return SampleContinuous
}

func fieldsDescriptor() chainpack.List {
	names := []string{ColumnTimestamp, ColumnPath, ColumnValue, ColumnShortTime, ColumnDomain}
	fields := make(chainpack.List, 0, len(names))
	for _, n := range names {
		fields = append(fields, chainpack.NewMap(chainpack.Map{keyName: chainpack.NewString(n)}))
	}
	return fields
}
