package journal

import (
	"sort"

	"github.com/shvtools/shvjournal/chainpack"
	"github.com/shvtools/shvjournal/utils/log"
)

// GetLog executes a range query against the journal. The context is
// first brought to a consistent state and cloned, so the query reads
// files without touching the engine's state.
func (j *FileJournal) GetLog(params *GetLogParams) (chainpack.RpcValue, error) {
	ctx, err := j.CheckContext()
	if err != nil {
		return chainpack.RpcValue{}, err
	}
	return GetLog(&ctx, params), nil
}

// GetLog runs the query against a context snapshot. The result is the
// record list with the log header attached as metadata.
func GetLog(ctx *Context, params *GetLogParams) chainpack.RpcValue {
	result := chainpack.List{}
	header := LogHeader{}
	if ctx.TypeInfo.IsValid() {
		header.SetTypeInfo("", ctx.TypeInfo)
	}

	sinceMsec := params.SinceMsec()
	untilMsec := params.UntilMsec()
	maxRecCnt := params.MaxRecordCount
	if maxRecCnt <= 0 || maxRecCnt > DefaultGetLogRecordCountLimit {
		maxRecCnt = DefaultGetLogRecordCountLimit
	}

	matcher, err := NewPatternMatcher(params)
	if err != nil {
		log.Warn("getLog: %v, pattern filter disabled", err)
		matcher = &PatternMatcher{}
	}

	// each query owns its path cache and snapshot maps
	pathCache := map[string]chainpack.RpcValue{}
	maxPathID := 0
	pathToken := func(path string) chainpack.RpcValue {
		if tok, ok := pathCache[path]; ok {
			return tok
		}
		var tok chainpack.RpcValue
		if params.WithPathsDict {
			maxPathID++
			tok = chainpack.NewInt(int64(maxPathID))
		} else {
			tok = chainpack.NewString(path)
		}
		pathCache[path] = tok
		return tok
	}
	makeRecord := func(e Entry) chainpack.RpcValue {
		rec := make(chainpack.List, 0, 5)
		rec = append(rec, chainpack.NewDateTime(e.DateTime()))
		rec = append(rec, pathToken(e.Path))
		if e.Value.IsValid() {
			rec = append(rec, e.Value)
		} else {
			rec = append(rec, chainpack.NewNull())
		}
		if e.ShortTime == NoShortTime {
			rec = append(rec, chainpack.NewNull())
		} else {
			rec = append(rec, chainpack.NewInt(int64(e.ShortTime)))
		}
		if e.Domain == "" {
			rec = append(rec, chainpack.NewNull())
		} else {
			rec = append(rec, chainpack.NewString(e.Domain))
		}
		return chainpack.NewList(rec)
	}

	recCnt := 0
	var firstRecordMsec, lastRecordMsec int64
	snapshot := map[string]Entry{}

	emit := func(e Entry) bool {
		result = append(result, makeRecord(e))
		recCnt++
		if firstRecordMsec == 0 {
			firstRecordMsec = e.EpochMsec
		}
		lastRecordMsec = e.EpochMsec
		return recCnt < maxRecCnt
	}

	if len(ctx.Files) > 0 {
		fileIdx := 0
		if sinceMsec > 0 {
			i := sort.Search(len(ctx.Files), func(k int) bool { return ctx.Files[k] >= sinceMsec })
			switch {
			case i == len(ctx.Files):
				// past the end, take the last file
				fileIdx = i - 1
			case ctx.Files[i] == sinceMsec:
				fileIdx = i
			case i == 0:
				// no earlier file exists
				fileIdx = 0
			default:
				// take the previous file so its pre-window entries can
				// feed the snapshot
				fileIdx = i - 1
			}
		}
	fileLoop:
		for ; fileIdx < len(ctx.Files); fileIdx++ {
			fn := ctx.FileMsecToFilePath(ctx.Files[fileIdx])
			log.Debug("getLog: opening file %s", fn)
			rd, err := NewReader(fn)
			if err != nil {
				// a rotated-away file reads as end-of-file
				log.Warn("getLog: %v", err)
				continue
			}
			for rd.Next() {
				e := rd.Entry()
				if !matcher.Match(e.Path, e.Domain) {
					continue
				}
				if sinceMsec > 0 && e.EpochMsec < sinceMsec {
					if params.WithSnapshot && e.SampleType == SampleContinuous {
						e.EpochMsec = sinceMsec
						snapshot[e.Path] = e
					}
					continue
				}
				if params.WithSnapshot && len(snapshot) > 0 {
					paths := make([]string, 0, len(snapshot))
					for p := range snapshot {
						paths = append(paths, p)
					}
					sort.Strings(paths)
					for _, p := range paths {
						if !emit(snapshot[p]) {
							rd.Close()
							break fileLoop
						}
					}
					snapshot = map[string]Entry{}
				}
				if untilMsec == 0 || e.EpochMsec < untilMsec {
					if !emit(e) {
						rd.Close()
						break fileLoop
					}
				} else {
					rd.Close()
					break fileLoop
				}
			}
			for _, w := range rd.Warnings() {
				log.Warn("getLog: %s: %s", fn, w)
			}
			rd.Close()
		}
	}

	if sinceMsec == 0 {
		sinceMsec = firstRecordMsec
	}
	if recCnt < maxRecCnt {
		if untilMsec == 0 {
			untilMsec = lastRecordMsec
		}
	} else {
		untilMsec = lastRecordMsec
	}

	header.DeviceID = ctx.DeviceID
	header.DeviceType = ctx.DeviceType
	header.LogVersion = LogVersion
	header.LogParams = *params
	header.RecordCount = recCnt
	header.RecordCountLimit = maxRecCnt
	header.WithSnapshot = params.WithSnapshot
	header.DateTime = chainpack.NewDateTime(chainpack.Now())
	if sinceMsec > 0 {
		header.Since = chainpack.NewDateTime(chainpack.FromMSecs(sinceMsec))
	} else {
		header.Since = chainpack.NewNull()
	}
	if untilMsec > 0 {
		header.Until = chainpack.NewDateTime(chainpack.FromMSecs(untilMsec))
	} else {
		header.Until = chainpack.NewNull()
	}
	header.Fields = fieldsDescriptor()
	if params.WithPathsDict {
		pathDict := chainpack.IMap{}
		for path, tok := range pathCache {
			pathDict[int(tok.ToInt())] = chainpack.NewString(path)
		}
		header.PathDict = pathDict
	}
	return chainpack.NewList(result).WithMeta(header.ToMetaData())
}
