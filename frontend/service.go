// Package frontend exposes the journal over HTTP: msgpack-encoded query
// and write endpoints plus a websocket entry stream.
package frontend

import (
	"io"
	"net/http"
	"strings"
	"sync"

	msgpack "github.com/vmihailenco/msgpack"

	"github.com/shvtools/shvjournal/chainpack"
	"github.com/shvtools/shvjournal/frontend/stream"
	"github.com/shvtools/shvjournal/journal"
	"github.com/shvtools/shvjournal/utils/log"
)

// QueryRequest is the wire form of getLog parameters.
type QueryRequest struct {
	// Lower time predicate in unix epoch milliseconds, 0 = from start
	Since int64 `msgpack:"since,omitempty"`
	// Upper (exclusive) time predicate in unix epoch milliseconds
	Until          int64  `msgpack:"until,omitempty"`
	PathPattern    string `msgpack:"path_pattern,omitempty"`
	DomainPattern  string `msgpack:"domain_pattern,omitempty"`
	MaxRecordCount int    `msgpack:"max_record_count,omitempty"`
	WithSnapshot   bool   `msgpack:"with_snapshot,omitempty"`
	WithPathsDict  bool   `msgpack:"with_paths_dict,omitempty"`
	IsRegex        bool   `msgpack:"is_regex,omitempty"`
}

// QueryResponse carries the log header and the positional records.
type QueryResponse struct {
	Header  map[string]interface{} `msgpack:"header"`
	Records []interface{}          `msgpack:"records"`
}

// WriteRequest is a batch of entries to append.
type WriteRequest struct {
	Entries []EntryMessage `msgpack:"entries"`
}

// EntryMessage is the wire form of one journal entry.
type EntryMessage struct {
	Timestamp  int64       `msgpack:"timestamp,omitempty"`
	Path       string      `msgpack:"path"`
	Value      interface{} `msgpack:"value"`
	ShortTime  *int        `msgpack:"shortTime,omitempty"`
	Domain     string      `msgpack:"domain,omitempty"`
	SampleType string      `msgpack:"sampleType,omitempty"`
}

// WriteResponse reports how many entries of the batch were handed to the
// journal; entries without a path are skipped and not counted.
type WriteResponse struct {
	AppendedCount int `msgpack:"appended_count"`
}

// Service serializes journal access behind the single-writer model and
// feeds appended entries to the snapshot cache and the stream hub.
type Service struct {
	mu    sync.Mutex
	jnl   *journal.FileJournal
	cache *journal.SnapshotCache
	hub   *stream.Hub
}

func NewService(jnl *journal.FileJournal, cache *journal.SnapshotCache, hub *stream.Hub) *Service {
	return &Service{jnl: jnl, cache: cache, hub: hub}
}

// Handler builds the HTTP routing table.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/write", s.handleWrite)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.Handler)
	}
	return mux
}

func (s *Service) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := QueryRequest{}
	if err := msgpack.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	params := journal.GetLogParams{
		PathPattern:    req.PathPattern,
		DomainPattern:  req.DomainPattern,
		MaxRecordCount: req.MaxRecordCount,
		WithSnapshot:   req.WithSnapshot,
		WithPathsDict:  req.WithPathsDict,
		IsPatternRegex: req.IsRegex,
	}
	if req.Since > 0 {
		params.Since = chainpack.NewDateTime(chainpack.FromMSecs(req.Since))
	}
	if req.Until > 0 {
		params.Until = chainpack.NewDateTime(chainpack.FromMSecs(req.Until))
	}

	s.mu.Lock()
	result, err := s.jnl.GetLog(&params)
	s.mu.Unlock()
	if err != nil {
		log.Error("query failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := QueryResponse{
		Header:  map[string]interface{}{},
		Records: []interface{}{},
	}
	for k, v := range result.Meta().Values() {
		resp.Header[k] = v.Interface()
	}
	for _, rec := range result.ToList() {
		resp.Records = append(resp.Records, rec.Interface())
	}
	buf, err := msgpack.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.Write(buf)
}

func (s *Service) handleWrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := WriteRequest{}
	if err := msgpack.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	appended := 0
	for _, msg := range req.Entries {
		e, ok := msg.toEntry()
		if !ok {
			continue
		}
		s.mu.Lock()
		s.jnl.Append(e)
		if s.cache != nil {
			// the snapshot of a later file includes this entry, the
			// file just written already carries it as a record
			s.cache.Update(e)
		}
		s.mu.Unlock()
		appended++
		if s.hub != nil {
			s.hub.Push(stream.EntryMessage{
				Timestamp:  e.EpochMsec,
				Path:       e.Path,
				Value:      e.Value.Interface(),
				ShortTime:  msg.ShortTime,
				Domain:     e.Domain,
				SampleType: e.SampleType.String(),
			})
		}
	}
	buf, err := msgpack.Marshal(WriteResponse{AppendedCount: appended})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.Write(buf)
}

func (msg EntryMessage) toEntry() (journal.Entry, bool) {
	if msg.Path == "" {
		return journal.Entry{}, false
	}
	e := journal.NewEntry(msg.Timestamp, msg.Path, chainpack.FromInterface(msg.Value))
	if msg.ShortTime != nil {
		e.ShortTime = *msg.ShortTime
	}
	e.Domain = msg.Domain
	if msg.SampleType == "D" || strings.EqualFold(msg.SampleType, "Discrete") {
		e.SampleType = journal.SampleDiscrete
	}
	return e, true
}
