package editor

import (
	"fmt"

	"sitecms/internal/domain"
)

// Clone deep-copies an element list so history snapshots never alias.
func Clone(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = e
		out[i].Props.Style = cloneMap(e.Props.Style)
		out[i].Props.Attrs = cloneMap(e.Props.Attrs)
		out[i].Children = Clone(e.Children)
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Find returns the element with the given id anywhere in the tree.
func Find(elements []Element, id string) *Element {
	for i := range elements {
		if elements[i].ID == id {
			return &elements[i]
		}
		if found := Find(elements[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Update returns a copy of elements with the patch applied to element id.
func Update(elements []Element, id string, p Patch) ([]Element, error) {
	out := Clone(elements)
	target := Find(out, id)
	if target == nil {
		return nil, fmt.Errorf("element %q: %w", id, domain.ErrNotFound)
	}
	if p.Content != nil {
		target.Props.Content = *p.Content
	}
	if p.ClassName != nil {
		target.Props.ClassName = *p.ClassName
	}
	target.Props.Style = mergeMap(target.Props.Style, p.Style)
	target.Props.Attrs = mergeMap(target.Props.Attrs, p.Attrs)
	return out, nil
}

func mergeMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		if v == "" {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
	if len(dst) == 0 {
		return nil
	}
	return dst
}

// Delete returns a copy of elements without element id and its subtree.
func Delete(elements []Element, id string) ([]Element, error) {
	out, removed := deleteRecursive(Clone(elements), id)
	if !removed {
		return nil, fmt.Errorf("element %q: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func deleteRecursive(elements []Element, id string) ([]Element, bool) {
	out := elements[:0]
	removed := false
	for _, e := range elements {
		if e.ID == id {
			removed = true
			continue
		}
		if len(e.Children) > 0 {
			var childRemoved bool
			e.Children, childRemoved = deleteRecursive(e.Children, id)
			removed = removed || childRemoved
		}
		out = append(out, e)
	}
	return out, removed
}

// Move returns a copy of elements with top-level element id placed at index
// to. Indexes past the end clamp to the last position.
func Move(elements []Element, id string, to int) ([]Element, error) {
	from := -1
	for i, e := range elements {
		if e.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("top-level element %q: %w", id, domain.ErrNotFound)
	}
	if to < 0 {
		return nil, domain.Invalid("to", "invalid target index %d", to)
	}
	out := Clone(elements)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	if to > len(out) {
		to = len(out)
	}
	out = append(out, Element{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out, nil
}
