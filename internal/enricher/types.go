package enricher

import (
	"time"
)

// Fields is an insertion-ordered set of named record attributes. Setting an
// existing name overwrites the value in place and keeps its position.
type Fields struct {
	names  []string
	values map[string]any
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Set stores value under name.
func (f *Fields) Set(name string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the value stored under name.
func (f *Fields) Get(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[name]
	return v, ok
}

// Delete removes name if present.
func (f *Fields) Delete(name string) {
	if f == nil {
		return
	}
	if _, ok := f.values[name]; !ok {
		return
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
}

// Names returns the field names in insertion order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.names...)
}

// Len reports the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Clone returns a shallow copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	if f == nil {
		return out
	}
	for _, n := range f.names {
		out.Set(n, f.values[n])
	}
	return out
}

// Rider is a caller-owned person record. The pipeline reads the name fields
// and appends enrichment to Fields; it never removes caller fields.
type Rider struct {
	FirstName string
	LastName  string
	Fields    *Fields
}

// FullName joins first and last name with a single space.
func (r Rider) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Flags toggles the enrichment categories.
type Flags struct {
	Participations bool `json:"participations"`
	Specialties    bool `json:"specialties"`
	Results        bool `json:"results"`
}

// Any reports whether at least one category is enabled.
func (f Flags) Any() bool {
	return f.Participations || f.Specialties || f.Results
}

// Covers reports whether every category enabled in want is enabled in f.
func (f Flags) Covers(want Flags) bool {
	return (!want.Participations || f.Participations) &&
		(!want.Specialties || f.Specialties) &&
		(!want.Results || f.Results)
}

// Union enables every category enabled in either set.
func (f Flags) Union(other Flags) Flags {
	return Flags{
		Participations: f.Participations || other.Participations,
		Specialties:    f.Specialties || other.Specialties,
		Results:        f.Results || other.Results,
	}
}

// ResultCounters counts top placings split by race type.
type ResultCounters struct {
	ITTTop20  int `json:"itt_top_20"`
	ITTTop5   int `json:"itt_top_5"`
	RaceTop20 int `json:"race_top_20"`
	RaceTop5  int `json:"race_top_5"`
}

// Payload is the cached dataset triple. Fetched records which categories
// were actually extracted; the others hold zero values.
type Payload struct {
	Participations []string           `json:"participations"`
	Specialties    map[string]float64 `json:"specialties"`
	Results        ResultCounters     `json:"results"`
	Fetched        Flags              `json:"fetched"`
}

// Merge fills the categories p did not fetch from prev, when prev has them.
func (p Payload) Merge(prev Payload) Payload {
	out := p
	if !p.Fetched.Participations && prev.Fetched.Participations {
		out.Participations = prev.Participations
	}
	if !p.Fetched.Specialties && prev.Fetched.Specialties {
		out.Specialties = prev.Specialties
	}
	if !p.Fetched.Results && prev.Fetched.Results {
		out.Results = prev.Results
	}
	out.Fetched = p.Fetched.Union(prev.Fetched)
	return out
}

// CacheEntry is a stored payload with its expiry.
type CacheEntry struct {
	Key       string    `json:"key"`
	Payload   Payload   `json:"payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Options parameterizes one pipeline run.
type Options struct {
	Flags Flags
	// Races is the allow-list of race names counted as participations and
	// emitted as per-race booleans. It is applied at assembly, not cached.
	Races []string
}

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// FetchTask is one cache miss scheduled within a window.
type FetchTask struct {
	Index int
	Key   string
	URL   string
	// Previous holds an unexpired entry that lacks a requested category.
	Previous *CacheEntry
}

// Completion carries a fetched page back to its task.
type Completion struct {
	Task FetchTask
	Page Page
	Err  error
}

// Extraction is the extractor result. NotFound marks a missing profile, in
// which case Payload is empty.
type Extraction struct {
	Payload  Payload
	NotFound bool
}

// Window is an ordered slice of input indices processed together.
type Window struct {
	Number  int
	Indices []int
}
