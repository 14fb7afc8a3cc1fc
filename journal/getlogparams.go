package journal

import (
	"github.com/shvtools/shvjournal/chainpack"
)

// GetLogParams are the range-query options. Since is inclusive-adjusted
// (pre-window continuous samples feed the snapshot), Until is exclusive
// to keep log merges simple.
type GetLogParams struct {
	Since          chainpack.RpcValue
	Until          chainpack.RpcValue
	PathPattern    string
	DomainPattern  string
	MaxRecordCount int
	WithSnapshot   bool
	WithPathsDict  bool
	IsPatternRegex bool
}

// SinceMsec returns the start instant, zero when unset.
func (p *GetLogParams) SinceMsec() int64 {
	if p.Since.IsDateTime() {
		return p.Since.ToDateTime().Msec
	}
	return 0
}

// UntilMsec returns the end instant, zero when unset.
func (p *GetLogParams) UntilMsec() int64 {
	if p.Until.IsDateTime() {
		return p.Until.ToDateTime().Msec
	}
	return 0
}

// ToRpcValue serializes the params for the log header echo.
func (p *GetLogParams) ToRpcValue() chainpack.RpcValue {
	m := chainpack.Map{}
	if p.Since.IsDateTime() {
		m["since"] = p.Since
	}
	if p.Until.IsDateTime() {
		m["until"] = p.Until
	}
	if p.PathPattern != "" {
		m["pathPattern"] = chainpack.NewString(p.PathPattern)
		if p.IsPatternRegex {
			m["pathPatternType"] = chainpack.NewString("regex")
		}
	}
	if p.DomainPattern != "" {
		m["domainPattern"] = chainpack.NewString(p.DomainPattern)
	}
	if p.MaxRecordCount > 0 {
		m["maxRecordCount"] = chainpack.NewInt(int64(p.MaxRecordCount))
	}
	m["withSnapshot"] = chainpack.NewBool(p.WithSnapshot)
	m["withPathsDict"] = chainpack.NewBool(p.WithPathsDict)
	return chainpack.NewMap(m)
}

// GetLogParamsFromRpcValue decodes params, missing keys keep defaults.
func GetLogParamsFromRpcValue(v chainpack.RpcValue) GetLogParams {
	m := v.ToMap()
	p := GetLogParams{
		Since:          m.Value("since"),
		Until:          m.Value("until"),
		PathPattern:    m.Value("pathPattern").ToString(),
		DomainPattern:  m.Value("domainPattern").ToString(),
		MaxRecordCount: int(m.Value("maxRecordCount").ToInt()),
		WithSnapshot:   m.Value("withSnapshot").ToBool(),
		WithPathsDict:  m.Value("withPathsDict").ToBool(),
		IsPatternRegex: m.Value("pathPatternType").ToString() == "regex",
	}
	return p
}
