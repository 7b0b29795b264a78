package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Status is a document's lifecycle state.
type Status string

// Document lifecycle states.
const (
	// StatusPending is the state of a freshly uploaded document.
	StatusPending Status = "pending"

	// StatusParsing means the raw bytes are being converted to text.
	StatusParsing Status = "parsing"

	// StatusIndexing means chunks are being embedded and stored.
	StatusIndexing Status = "indexing"

	// StatusReady means the document is searchable.
	StatusReady Status = "ready"

	// StatusFailed means ingestion stopped; Document.Error holds the detail.
	StatusFailed Status = "failed"
)

// transitions lists the legal next states for each state.
// ready -> indexing is only used for explicit re-index requests.
var transitions = map[Status][]Status{
	StatusPending:  {StatusParsing, StatusFailed},
	StatusParsing:  {StatusIndexing, StatusFailed},
	StatusIndexing: {StatusReady, StatusFailed},
	StatusReady:    {StatusIndexing},
	StatusFailed:   nil,
}

// IsValid returns true if the status is recognised.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal returns true for ready and failed.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// InFlight returns true while an ingestion task owns the document.
func (s Status) InFlight() bool {
	return s == StatusParsing || s == StatusIndexing
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SummarySource records who produced a summary version.
type SummarySource string

// Summary version sources.
const (
	SummaryGenerated  SummarySource = "generated"
	SummaryUserEdited SummarySource = "user_edited"
)

// SummaryVersion is one entry in a document's append-only summary history.
type SummaryVersion struct {
	// Index is the 0-based position in the history.
	Index int

	// Text is the summary content.
	Text string

	// CreatedAt is when the version was appended.
	CreatedAt time.Time

	// Source is generated or user_edited.
	Source SummarySource

	// Note is a free-form tag such as "ingest_summary" or "manual_save".
	Note string

	// Validation is the heuristic check result, if one was run.
	Validation *Validation
}

// Entities is a structured entity set keyed by kind (names, dates, organizations).
type Entities map[string][]string

// Kinds returns the entity kinds in sorted order.
func (e Entities) Kinds() []string {
	kinds := make([]string, 0, len(e))
	for k := range e {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Clone returns a deep copy.
func (e Entities) Clone() Entities {
	if e == nil {
		return nil
	}
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Document is an uploaded file and everything the registry knows about it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original upload name.
	Filename string

	// Format is the lower-case file extension without the dot (pdf, docx, txt...).
	Format string

	// Status is the lifecycle state.
	Status Status

	// Content is the normalised text produced by the parser.
	// Kept so re-indexing does not require a re-upload.
	Content string

	// Error holds the failure detail. Empty unless Status is failed.
	Error string

	// ChunkCount is the number of chunks produced by the last indexing run.
	ChunkCount int

	// Versions is the ordered summary history.
	Versions []SummaryVersion

	// Current is the index of the current summary version, -1 when there is none.
	Current int

	// Entities is the owned entity set; replaced wholesale.
	Entities Entities

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// NewDocument creates a pending document.
func NewDocument(id, filename string, now time.Time) *Document {
	return &Document{
		ID:        id,
		Filename:  filename,
		Format:    FormatFromFilename(filename),
		Status:    StatusPending,
		Current:   -1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FormatFromFilename returns the lower-case extension without its dot.
func FormatFromFilename(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Advance moves the document to next. Illegal moves leave it unchanged.
func (d *Document) Advance(next Status, detail string, now time.Time) error {
	if !CanTransition(d.Status, next) {
		return &TransitionError{From: d.Status, To: next}
	}
	d.Status = next
	d.Error = ""
	if next == StatusFailed {
		d.Error = detail
	}
	d.UpdatedAt = now
	return nil
}

// AppendVersion adds a summary version and makes it current.
func (d *Document) AppendVersion(
	text string,
	source SummarySource,
	note string,
	validation *Validation,
	now time.Time,
) SummaryVersion {
	v := SummaryVersion{
		Index:      len(d.Versions),
		Text:       text,
		CreatedAt:  now,
		Source:     source,
		Note:       note,
		Validation: validation,
	}
	d.Versions = append(d.Versions, v)
	d.Current = v.Index
	d.UpdatedAt = now
	return v
}

// SetCurrent moves the current pointer. History is never truncated.
func (d *Document) SetCurrent(index int, now time.Time) error {
	if index < 0 || index >= len(d.Versions) {
		return ErrVersionOutOfRange
	}
	d.Current = index
	d.UpdatedAt = now
	return nil
}

// CurrentSummary returns the current version, if any.
func (d *Document) CurrentSummary() (SummaryVersion, bool) {
	if d.Current < 0 || d.Current >= len(d.Versions) {
		return SummaryVersion{}, false
	}
	return d.Versions[d.Current], true
}

// SummaryText returns the current summary text or "".
func (d *Document) SummaryText() string {
	v, ok := d.CurrentSummary()
	if !ok {
		return ""
	}
	return v.Text
}

// ReplaceEntities swaps the entity set.
func (d *Document) ReplaceEntities(entities Entities, now time.Time) {
	d.Entities = entities.Clone()
	d.UpdatedAt = now
}

// Clone returns a deep copy safe to hand out of a store.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.Versions != nil {
		c.Versions = make([]SummaryVersion, len(d.Versions))
		for i, v := range d.Versions {
			if v.Validation != nil {
				val := v.Validation.Clone()
				v.Validation = &val
			}
			c.Versions[i] = v
		}
	}
	c.Entities = d.Entities.Clone()
	return &c
}
