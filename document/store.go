package document

import (
	"time"

	"github.com/contentgraph/docengine/docerr"
)

// ComponentMeta records provenance for one component instance (spec §4.1).
type ComponentMeta struct {
	AddedBy string
	AddedAt time.Time
	Reason  string
}

// componentStore is the typed-heterogeneous bag described in spec §4.1: it
// maps a component's TypeName to exactly one instance of that type, plus a
// parallel metadata record. Adding a type that is already present fails;
// this is what lets Get be infallible once Has is true.
type componentStore struct {
	components map[TypeName]Component
	meta       map[TypeName]ComponentMeta
}

func newComponentStore() componentStore {
	return componentStore{
		components: make(map[TypeName]Component),
		meta:       make(map[TypeName]ComponentMeta),
	}
}

// add inserts c, failing ComponentDuplicate if its type is already present.
func (s *componentStore) add(c Component, addedBy, reason string, now time.Time) error {
	t := c.TypeName()
	if _, ok := s.components[t]; ok {
		return docerr.ComponentDuplicate(string(t))
	}
	s.components[t] = c
	s.meta[t] = ComponentMeta{AddedBy: addedBy, AddedAt: now, Reason: reason}
	return nil
}

// put inserts or replaces c's component regardless of prior presence. Used
// internally by aggregate operations that reseat components (upload,
// update_metadata), which are spec'd to replace rather than fail.
func (s *componentStore) put(c Component, addedBy, reason string, now time.Time) {
	t := c.TypeName()
	s.components[t] = c
	s.meta[t] = ComponentMeta{AddedBy: addedBy, AddedAt: now, Reason: reason}
}

// remove deletes the component of type t, failing ComponentNotFound if
// absent.
func (s *componentStore) remove(t TypeName) error {
	if _, ok := s.components[t]; !ok {
		return docerr.ComponentNotFound(string(t))
	}
	delete(s.components, t)
	delete(s.meta, t)
	return nil
}

// get returns the component of type t and whether it was present.
func (s *componentStore) get(t TypeName) (Component, bool) {
	c, ok := s.components[t]
	return c, ok
}

func (s *componentStore) has(t TypeName) bool {
	_, ok := s.components[t]
	return ok
}

// types lists every component type currently present.
func (s *componentStore) types() []TypeName {
	out := make([]TypeName, 0, len(s.components))
	for t := range s.components {
		out = append(out, t)
	}
	return out
}

func (s *componentStore) documentInfo() (DocumentInfo, bool) {
	c, ok := s.get(TypeDocumentInfo)
	if !ok {
		return DocumentInfo{}, false
	}
	return c.(DocumentInfo), true
}

func (s *componentStore) contentAddress() (ContentAddress, bool) {
	c, ok := s.get(TypeContentAddress)
	if !ok {
		return ContentAddress{}, false
	}
	return c.(ContentAddress), true
}

func (s *componentStore) lifecycle() (Lifecycle, bool) {
	c, ok := s.get(TypeLifecycle)
	if !ok {
		return Lifecycle{}, false
	}
	return c.(Lifecycle), true
}

func (s *componentStore) accessControl() (AccessControl, bool) {
	c, ok := s.get(TypeAccessControl)
	if !ok {
		return AccessControl{}, false
	}
	return c.(AccessControl), true
}
