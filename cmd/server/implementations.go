package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Ko-stant/estate-visibility-engine/internal/protocol"
	"github.com/Ko-stant/estate-visibility-engine/internal/ws"
)

// SessionSink implements EventSink for one websocket session of the hub.
// Envelopes reach the connection in sequence order.
type SessionSink struct {
	mu       sync.Mutex
	hub      *ws.Hub
	session  uuid.UUID
	sequence SequenceGenerator
}

func NewSessionSink(hub *ws.Hub, session uuid.UUID, sequence SequenceGenerator) *SessionSink {
	return &SessionSink{
		hub:      hub,
		session:  session,
		sequence: sequence,
	}
}

func (s *SessionSink) SendEvent(eventType string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	envelope := protocol.PatchEnvelope{
		Sequence: s.sequence.Next(),
		Type:     eventType,
		Payload:  payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", eventType, err)
	}
	return s.hub.Send(s.session, data)
}

// LoggerImpl implements Logger using standard log package
type LoggerImpl struct{}

func NewLogger() *LoggerImpl {
	return &LoggerImpl{}
}

func (l *LoggerImpl) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// SequenceGeneratorImpl implements SequenceGenerator using atomic counter
type SequenceGeneratorImpl struct {
	counter uint64
}

func NewSequenceGenerator() *SequenceGeneratorImpl {
	return &SequenceGeneratorImpl{}
}

func (sg *SequenceGeneratorImpl) Next() uint64 {
	return atomic.AddUint64(&sg.counter, 1)
}

func (sg *SequenceGeneratorImpl) Current() uint64 {
	return atomic.LoadUint64(&sg.counter)
}
