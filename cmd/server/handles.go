package main

import (
	"github.com/Ko-stant/estate-visibility-engine/internal/protocol"
	"github.com/Ko-stant/estate-visibility-engine/internal/scene"
)

// PartBatch collects visibility changes of client-side renderables until
// the next flush. Every handle starts hidden, matching a fresh snapshot.
type PartBatch struct {
	handles map[string]*RemoteHandle
	order   []string
}

// RemoteHandle is a renderable living in the browser, addressed by id.
type RemoteHandle struct {
	id    string
	batch *PartBatch
	sent  bool
	want  bool
	dirty bool
}

func NewPartBatch() *PartBatch {
	return &PartBatch{handles: make(map[string]*RemoteHandle)}
}

// Handle returns the handle for id, creating it hidden.
func (b *PartBatch) Handle(id string) *RemoteHandle {
	if h, ok := b.handles[id]; ok {
		return h
	}
	h := &RemoteHandle{id: id, batch: b}
	b.handles[id] = h
	return h
}

func (h *RemoteHandle) SetVisible(visible bool) {
	h.want = visible
	if h.dirty || visible == h.sent {
		return
	}
	h.dirty = true
	h.batch.order = append(h.batch.order, h.id)
}

// Flush returns the handles whose visibility differs from what the client
// was last told, in first-change order.
func (b *PartBatch) Flush() []protocol.PartState {
	var out []protocol.PartState
	for _, id := range b.order {
		h := b.handles[id]
		h.dirty = false
		if h.want == h.sent {
			continue
		}
		h.sent = h.want
		out = append(out, protocol.PartState{ID: id, Visible: h.want})
	}
	b.order = b.order[:0]
	return out
}

// Visible reports the last flushed state of id.
func (b *PartBatch) Visible(id string) bool {
	h, ok := b.handles[id]
	return ok && h.sent
}

func (b *PartBatch) Len() int { return len(b.handles) }

func (b *PartBatch) Reset() {
	b.handles = make(map[string]*RemoteHandle)
	b.order = nil
}

// gatedHandle keeps its target hidden while open reports false.
type gatedHandle struct {
	target scene.Renderable
	open   func() bool
}

func (g gatedHandle) SetVisible(visible bool) {
	g.target.SetVisible(visible && g.open())
}
