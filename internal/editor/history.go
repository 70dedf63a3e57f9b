package editor

// DefaultHistoryLimit bounds the number of snapshots kept per page.
const DefaultHistoryLimit = 40

// Snapshot is one history entry.
type Snapshot struct {
	Label    string    `json:"label"`
	Elements []Element `json:"elements"`
}

// History is a linear undo/redo stack of element snapshots. The index always
// points at the snapshot currently shown; pushing discards everything after it.
type History struct {
	entries []Snapshot
	index   int
	limit   int
}

// NewHistory starts a history whose only entry is initial.
func NewHistory(initial []Element, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		entries: []Snapshot{{Label: "open", Elements: Clone(initial)}},
		limit:   limit,
	}
}

// Restore rebuilds a history from persisted entries. An out-of-range index
// is clamped to the last entry.
func Restore(entries []Snapshot, index, limit int) *History {
	if len(entries) == 0 {
		return NewHistory(nil, limit)
	}
	h := &History{entries: entries, index: index, limit: limit}
	if h.limit <= 0 {
		h.limit = DefaultHistoryLimit
	}
	if h.index < 0 || h.index >= len(entries) {
		h.index = len(entries) - 1
	}
	h.trim()
	return h
}

// Current returns a copy of the snapshot at the index.
func (h *History) Current() []Element {
	return Clone(h.entries[h.index].Elements)
}

// Push records a new state after the current one.
func (h *History) Push(label string, elements []Element) {
	h.entries = append(h.entries[:h.index+1], Snapshot{Label: label, Elements: Clone(elements)})
	h.index = len(h.entries) - 1
	h.trim()
}

func (h *History) trim() {
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]Snapshot(nil), h.entries[over:]...)
		h.index -= over
		if h.index < 0 {
			h.index = 0
		}
	}
}

func (h *History) CanUndo() bool { return h.index > 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Undo steps back one entry. It reports false at the oldest entry.
func (h *History) Undo() ([]Element, bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.index--
	return h.Current(), true
}

// Redo steps forward one entry. It reports false at the newest entry.
func (h *History) Redo() ([]Element, bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.index++
	return h.Current(), true
}

func (h *History) Index() int { return h.index }

func (h *History) Len() int { return len(h.entries) }

// Entries returns the snapshots for persistence.
func (h *History) Entries() []Snapshot {
	out := make([]Snapshot, len(h.entries))
	for i, e := range h.entries {
		out[i] = Snapshot{Label: e.Label, Elements: Clone(e.Elements)}
	}
	return out
}
