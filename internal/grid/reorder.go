// Column drag reorder. The transient interaction is a small state machine:
// idle, dragging a source column, hovering a prospective target. Dropping on
// a valid, distinct target removes the source from the array and reinserts
// it immediately before the target, then persists through the usual schema
// protocol, which reverts on failure.

package grid

import (
	"context"

	"github.com/gridbase/gridbase/internal/collection"
)

type dragPhase int

const (
	dragIdle dragPhase = iota
	dragDragging
	dragHovering
)

type dragState struct {
	phase    dragPhase
	sourceID string
	targetID string
}

// BeginColumnDrag starts dragging a column. A drag already in progress is
// replaced.
func (t *Table) BeginColumnDrag(columnID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := collection.FindColumn(t.coll.Columns, columnID); !ok {
		return
	}
	t.drag = dragState{phase: dragDragging, sourceID: columnID}
}

// HoverColumn marks the column the pointer is currently over. Hovering the
// source itself drops back to plain dragging.
func (t *Table) HoverColumn(columnID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drag.phase == dragIdle {
		return
	}
	if columnID == "" || columnID == t.drag.sourceID {
		t.drag.phase = dragDragging
		t.drag.targetID = ""
		return
	}
	t.drag.phase = dragHovering
	t.drag.targetID = columnID
}

// CancelColumnDrag abandons the interaction without changing anything.
func (t *Table) CancelColumnDrag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drag = dragState{}
}

// DropColumn commits the drag. Without a hovered target distinct from the
// source it is a cancel. The new order takes effect immediately and is what
// subsequent renders use, even before the persistence call resolves.
func (t *Table) DropColumn(ctx context.Context) {
	t.mu.Lock()
	drag := t.drag
	t.drag = dragState{}
	t.mu.Unlock()

	if drag.phase != dragHovering || drag.targetID == "" || drag.targetID == drag.sourceID {
		return
	}
	t.MoveColumnBefore(ctx, drag.sourceID, drag.targetID)
}

// Dragging reports the source column id of an in-progress drag, or "".
func (t *Table) Dragging() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drag.phase == dragIdle {
		return ""
	}
	return t.drag.sourceID
}
