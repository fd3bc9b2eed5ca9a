package log

import "sync"

// Entry is a single message captured by a Recorder.
type Entry struct {
	Level  string
	Msg    string
	Fields []Field
}

// Code returns the message id attached to the entry, if any.
func (e Entry) Code() MessageID {
	for _, f := range e.Fields {
		if f.Key == "code" {
			if s, ok := f.Value.(string); ok {
				return MessageID(s)
			}
		}
	}
	return ""
}

// Recorder is a Logger that keeps every entry in memory.
// Hosts can use it to surface internal diagnostics; tests use it to assert on them.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record("debug", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record("info", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record("warn", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record("error", msg, fields) }

func (r *Recorder) record(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: fields})
}

// Entries returns a copy of the captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries carry the given message id.
func (r *Recorder) Count(id MessageID) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Code() == id {
			n++
		}
	}
	return n
}

// Reset drops all captured entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
