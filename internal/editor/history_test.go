package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elems(ids ...string) []Element {
	out := make([]Element, len(ids))
	for i, id := range ids {
		out[i] = Element{ID: id, Type: TypeParagraph}
	}
	return out
}

func ids(elements []Element) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.ID
	}
	return out
}

func TestHistory_UndoRedo(t *testing.T) {
	h := NewHistory(elems("a"), 0)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	h.Push("add", elems("a", "b"))
	h.Push("add", elems("a", "b", "c"))
	require.Equal(t, 3, h.Len())
	require.Equal(t, 2, h.Index())

	got, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ids(got))

	got, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, ids(got))

	_, ok = h.Undo()
	assert.False(t, ok, "undo at the oldest entry is a no-op")
	assert.Equal(t, 0, h.Index())

	got, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestHistory_PushDiscardsRedoBranch(t *testing.T) {
	h := NewHistory(elems("a"), 0)
	h.Push("add", elems("a", "b"))
	h.Push("add", elems("a", "b", "c"))
	h.Undo()
	h.Undo()

	h.Push("add", elems("a", "z"))
	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())
	assert.Equal(t, []string{"a", "z"}, ids(h.Current()))
}

func TestHistory_LimitDropsOldest(t *testing.T) {
	h := NewHistory(elems("0"), 3)
	h.Push("1", elems("1"))
	h.Push("2", elems("2"))
	h.Push("3", elems("3"))

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Index())
	entries := h.Entries()
	assert.Equal(t, "1", entries[0].Label)
	assert.Equal(t, []string{"3"}, ids(h.Current()))
}

func TestHistory_SnapshotsDoNotAlias(t *testing.T) {
	start := []Element{{ID: "a", Type: TypeHeading, Props: Props{Content: "x", Style: map[string]string{"color": "red"}}}}
	h := NewHistory(start, 0)
	start[0].Props.Content = "mutated"
	start[0].Props.Style["color"] = "blue"

	cur := h.Current()
	assert.Equal(t, "x", cur[0].Props.Content)
	assert.Equal(t, "red", cur[0].Props.Style["color"])
}

func TestRestore_ClampsIndex(t *testing.T) {
	entries := []Snapshot{{Label: "open", Elements: elems("a")}, {Label: "add", Elements: elems("a", "b")}}
	h := Restore(entries, 9, 0)
	assert.Equal(t, 1, h.Index())
	assert.True(t, h.CanUndo())

	empty := Restore(nil, 0, 0)
	assert.Equal(t, 1, empty.Len())
}
