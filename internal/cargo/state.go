package cargo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StateMarker precedes the serialized state blob in an export document.
const StateMarker = "window.__PRELOADED_STATE__="

// RootID is the pseudo-parent listing every top-level set.
const RootID = "root"

// Aggregate keys of the state document.
const (
	KeySite          = "site"
	KeyFrontendState = "frontendState"
	KeyCSS           = "css"
	KeyPages         = "pages"
	KeySets          = "sets"
	KeyMedia         = "media"
	KeyStructure     = "structure"
	KeyByID          = "byId"
	KeyByParent      = "byParent"
	KeyStylesheet    = "stylesheet"
)

// ErrNotObject indicates the decoded document root is not a JSON object.
var ErrNotObject = errors.New("state root is not a JSON object")

// State is the canonical CMS snapshot. Only the aggregates the pipeline
// interprets have accessors; every other key round-trips untouched.
type State struct {
	root Object
}

// NewState wraps a decoded document root.
func NewState(root Object) *State {
	if root == nil {
		root = Object{}
	}
	return &State{root: root}
}

// DecodeState parses a JSON state document. Numbers keep their literal text.
func DecodeState(data []byte) (*State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after state document")
	}
	root, ok := AsObject(v)
	if !ok {
		return nil, ErrNotObject
	}
	return &State{root: root}, nil
}

// MarshalJSON implements json.Marshaler. Markup inside the document is
// not HTML-escaped.
func (s *State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(s.root)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *State) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeState(data)
	if err != nil {
		return err
	}
	s.root = decoded.root
	return nil
}

// Root returns the underlying document.
func (s *State) Root() Object {
	return s.root
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	data, err := s.MarshalJSON()
	if err != nil {
		// Decoded documents only hold JSON-encodable values.
		panic(fmt.Sprintf("cargo: clone state: %v", err))
	}
	clone, err := DecodeState(data)
	if err != nil {
		panic(fmt.Sprintf("cargo: clone state: %v", err))
	}
	return clone
}

// Site returns the site record.
func (s *State) Site() Object {
	return s.root.Object(KeySite)
}

// Pages returns pages.byId.
func (s *State) Pages() Object {
	return s.root.Object(KeyPages).Object(KeyByID)
}

// Sets returns sets.byId.
func (s *State) Sets() Object {
	return s.root.Object(KeySets).Object(KeyByID)
}

// ByParent returns structure.byParent.
func (s *State) ByParent() Object {
	return s.root.Object(KeyStructure).Object(KeyByParent)
}

// Stylesheet returns css.stylesheet.
func (s *State) Stylesheet() string {
	return s.root.Object(KeyCSS).String(KeyStylesheet)
}

// Children returns structure.byParent[parentID].
func (s *State) Children(parentID string) []string {
	return StringList(s.ByParent()[parentID])
}

// SetChildren replaces structure.byParent[parentID].
func (s *State) SetChildren(parentID string, ids []string) {
	s.ensure(KeyStructure, KeyByParent)[parentID] = ToAnyList(ids)
}

// PageRecord returns the raw page record.
func (s *State) PageRecord(id string) (Object, bool) {
	rec, ok := AsObject(s.Pages()[id])
	return rec, ok
}

// PutPageRecord stores a raw page record.
func (s *State) PutPageRecord(id string, rec Object) {
	s.ensure(KeyPages, KeyByID)[id] = map[string]any(rec)
}

// Page returns the typed view of a page.
func (s *State) Page(id string) (Page, bool) {
	rec, ok := s.PageRecord(id)
	if !ok {
		return Page{}, false
	}
	return PageFromObject(id, rec), true
}

// Set returns the typed view of a set.
func (s *State) Set(id string) (Set, bool) {
	rec, ok := AsObject(s.Sets()[id])
	if !ok {
		return Set{}, false
	}
	return SetFromObject(id, rec), true
}

// PageIDs returns every page id in sorted order.
func (s *State) PageIDs() []string {
	return s.Pages().Keys()
}

// PageCount returns the number of pages.
func (s *State) PageCount() int {
	return len(s.Pages())
}

// SetCount returns the number of sets.
func (s *State) SetCount() int {
	return len(s.Sets())
}

// SetIDByPurl returns the id of the first set (by sorted id) with the given slug.
func (s *State) SetIDByPurl(purl string) (string, bool) {
	if purl == "" {
		return "", false
	}
	sets := s.Sets()
	for _, id := range sets.Keys() {
		rec, ok := AsObject(sets[id])
		if !ok || rec.String("purl") != purl {
			continue
		}
		if recID := rec.String("id"); recID != "" {
			return recID, true
		}
		return id, true
	}
	return "", false
}

// ParentsOf returns every parent listing childID, in sorted parent order.
func (s *State) ParentsOf(childID string) []string {
	byParent := s.ByParent()
	var parents []string
	for _, parentID := range byParent.Keys() {
		for _, id := range StringList(byParent[parentID]) {
			if id == childID {
				parents = append(parents, parentID)
				break
			}
		}
	}
	return parents
}

// HomepageSetID resolves the homepage set from site.homepage_id or
// site.homepage_purl. It returns "" when neither resolves.
func (s *State) HomepageSetID() string {
	site := s.Site()
	if id := site.String("homepage_id"); id != "" {
		return id
	}
	if id, ok := s.SetIDByPurl(site.String("homepage_purl")); ok {
		return id
	}
	return ""
}

// HasPageNamed reports whether any page's slug or title equals name, ignoring case.
func (s *State) HasPageNamed(name string) bool {
	name = strings.ToLower(name)
	for _, v := range s.Pages() {
		rec, ok := AsObject(v)
		if !ok {
			continue
		}
		if strings.ToLower(rec.String("purl")) == name || strings.ToLower(rec.String("title")) == name {
			return true
		}
	}
	return false
}

// ensure returns the object at path, creating empty objects along the way.
func (s *State) ensure(path ...string) Object {
	current := s.root
	for _, key := range path {
		next, ok := AsObject(current[key])
		if !ok {
			next = Object{}
			current[key] = map[string]any(next)
		}
		current = next
	}
	return current
}
