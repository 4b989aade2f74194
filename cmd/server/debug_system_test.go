package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ko-stant/estate-visibility-engine/internal/config"
	"github.com/Ko-stant/estate-visibility-engine/internal/geometry"
	"github.com/Ko-stant/estate-visibility-engine/internal/project"
	"github.com/Ko-stant/estate-visibility-engine/internal/protocol"
	"github.com/Ko-stant/estate-visibility-engine/internal/ws"
)

type recordingConn struct {
	mu      sync.Mutex
	written [][]byte
}

func (c *recordingConn) Write(ctx context.Context, typ websocket.MessageType, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, p)
	return nil
}

func (c *recordingConn) Close(code websocket.StatusCode, reason string) error { return nil }

func newDebugFixture(t *testing.T, cfg config.DebugConfig) (*http.ServeMux, *controllerFixture, uuid.UUID) {
	t.Helper()
	f := newFixture(t, "newhouse")
	require.NoError(t, f.ctrl.Load("bay-garden", testProject(), true))

	sessions := NewSessionManager()
	id := uuid.New()
	sessions.Add(&Session{ID: id, Controller: f.ctrl})

	mux := http.NewServeMux()
	catalog := testCatalog()
	NewDebugSystem(cfg, sessions, func() *project.Catalog { return catalog }, f.ctrl.policy, f.logger).RegisterDebugRoutes(mux)
	return mux, f, id
}

func TestDebugSystem_ForceZoom(t *testing.T) {
	// Arrange
	mux, f, id := newDebugFixture(t, config.DebugConfig{Enabled: true, AllowZoomForce: true, LogActions: true})
	body := `{"session":"` + id.String() + `","zoom":19.2}`

	// Act
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/zoom", strings.NewReader(body)))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 19.2, f.ctrl.Zoom())
	assert.Equal(t, []string{"A"}, f.ctrl.VisibleSet())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["layers"].(map[string]any)["buildingVolumes"])
}

func TestDebugSystem_ForceZoomDisallowed(t *testing.T) {
	// Arrange
	mux, f, id := newDebugFixture(t, config.DebugConfig{Enabled: true})
	body := `{"session":"` + id.String() + `","zoom":19.2}`

	// Act
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/zoom", strings.NewReader(body)))

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.ctrl.VisibleSet())
}

func TestDebugSystem_RoutesOnlyWhenEnabled(t *testing.T) {
	// Arrange
	mux, _, _ := newDebugFixture(t, config.DebugConfig{})

	// Act
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/info/sessions", nil))

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugSystem_SessionsAndSchools(t *testing.T) {
	// Arrange
	mux, _, id := newDebugFixture(t, config.DebugConfig{Enabled: true})

	// Act
	sessionsRec := httptest.NewRecorder()
	mux.ServeHTTP(sessionsRec, httptest.NewRequest(http.MethodGet, "/debug/info/sessions", nil))
	schoolsRec := httptest.NewRecorder()
	mux.ServeHTTP(schoolsRec, httptest.NewRequest(http.MethodGet, "/debug/schools?lng=114.051&lat=22.541", nil))
	badRec := httptest.NewRecorder()
	mux.ServeHTTP(badRec, httptest.NewRequest(http.MethodGet, "/debug/schools?lng=east", nil))

	// Assert
	require.Equal(t, http.StatusOK, sessionsRec.Code)
	var sessions struct {
		Sessions []map[string]any `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(sessionsRec.Body.Bytes(), &sessions))
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, id.String(), sessions.Sessions[0]["id"])
	assert.Equal(t, "bay-garden", sessions.Sessions[0]["project"])

	require.Equal(t, http.StatusOK, schoolsRec.Code)
	assert.Contains(t, schoolsRec.Body.String(), "North Primary")
	assert.Equal(t, http.StatusBadRequest, badRec.Code)
}

func TestSessionSink_SequencesEnvelopes(t *testing.T) {
	// Arrange
	hub := ws.NewHub()
	conn := &recordingConn{}
	id := hub.Add(conn)
	sink := NewSessionSink(hub, id, NewSequenceGenerator())

	// Act
	require.NoError(t, sink.SendEvent(protocol.PatchRenderRequested, protocol.RenderRequested{Frame: 0}))
	require.NoError(t, sink.SendEvent(protocol.PatchRenderRequested, protocol.RenderRequested{Frame: 1}))

	// Assert
	require.Len(t, conn.written, 2)
	var env struct {
		Seq     uint64                   `json:"seq"`
		Type    string                   `json:"type"`
		Payload protocol.RenderRequested `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(conn.written[1], &env))
	assert.Equal(t, uint64(2), env.Seq)
	assert.Equal(t, protocol.PatchRenderRequested, env.Type)
	assert.Equal(t, 1, env.Payload.Frame)
}

func TestSessionSink_ConcurrentSendersKeepSequenceOrder(t *testing.T) {
	// Arrange
	hub := ws.NewHub()
	conn := &recordingConn{}
	sink := NewSessionSink(hub, hub.Add(conn), NewSequenceGenerator())
	var wg sync.WaitGroup

	// Act
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = sink.SendEvent(kind, protocol.RenderRequested{Frame: i})
			}
		}([]string{protocol.PatchError, protocol.PatchRenderRequested}[g%2])
	}
	wg.Wait()

	// Assert
	require.Len(t, conn.written, 400)
	var last uint64
	for i, data := range conn.written {
		var env struct {
			Seq uint64 `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(data, &env))
		require.Greater(t, env.Seq, last, "write %d", i)
		last = env.Seq
	}
}

func TestSessionManager_RemoveDisposesController(t *testing.T) {
	// Arrange
	f := newFixture(t, "newhouse")
	sessions := NewSessionManager()
	id := uuid.New()
	sessions.Add(&Session{ID: id, Controller: f.ctrl})

	// Act
	sessions.Remove(id)

	// Assert
	assert.Equal(t, 0, sessions.Count())
	assert.ErrorIs(t, f.ctrl.OnZoomEnd(15), ErrDisposed)
}

func TestSessionManager_ReloadProjectTargetsMatchingSessions(t *testing.T) {
	// Arrange
	a := newFixture(t, "newhouse")
	b := newFixture(t, "newhouse")
	display := func(name string) *geometry.Project {
		p := testProject()
		p.Name = name
		return p
	}
	require.NoError(t, a.ctrl.Load("bay-garden", display("Bay Garden"), true))
	require.NoError(t, b.ctrl.Load("harbour", display("bay-garden"), true))
	sessions := NewSessionManager()
	sessions.Add(&Session{ID: uuid.New(), Controller: a.ctrl})
	sessions.Add(&Session{ID: uuid.New(), Controller: b.ctrl})
	var requested []string

	// Act
	n := sessions.ReloadProject(context.Background(), "bay-garden", func(ctx context.Context, name string) (*geometry.Project, bool) {
		requested = append(requested, name)
		return display("Bay Garden II"), true
	}, a.logger)

	// Assert
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"bay-garden"}, requested)
	assert.Len(t, a.sink.OfType(protocol.PatchSceneSnapshot), 2)
	assert.Len(t, b.sink.OfType(protocol.PatchSceneSnapshot), 1)
	assert.Equal(t, "bay-garden", a.ctrl.Document())
	assert.Equal(t, "Bay Garden II", a.ctrl.ProjectName())
	assert.Equal(t, "harbour", b.ctrl.Document())
}

func TestSessionManager_WatchedDocumentReloadsSessionWithDisplayName(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	doc := `{"name":"Bay Garden","center":[114.05,22.54],"facilities":[{"name":"Gym","location":[114.0501,22.5401]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bay-garden.json"), []byte(doc), 0o644))
	src := &project.FileSource{Dir: dir}
	load := func(ctx context.Context, name string) (*geometry.Project, bool) {
		return project.LoadOrDefault(ctx, src, name, &MockLogger{})
	}

	f := newFixture(t, "newhouse")
	handlers := NewIntentHandlers(f.ctrl, load, f.sink, f.logger)
	sessions := NewSessionManager()
	sessions.Add(&Session{ID: uuid.New(), Controller: f.ctrl, Handlers: handlers})
	require.NoError(t, handlers.HandleWebSocketMessage(context.Background(),
		[]byte(`{"type":"MapReady","payload":{"project":"bay-garden","zoom":16}}`)))
	require.Equal(t, "Bay Garden", f.ctrl.ProjectName())

	// Act
	n := sessions.ReloadProject(context.Background(), "bay-garden", load, f.logger)

	// Assert
	assert.Equal(t, 1, n)
	assert.Len(t, f.sink.OfType(protocol.PatchSceneSnapshot), 2)
	assert.Equal(t, "bay-garden", f.ctrl.Document())
}
