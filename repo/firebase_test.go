package repo

import (
	"QuizBot/model"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRealtimeDB serves the subset of the Realtime Database REST API the connector uses.
type fakeRealtimeDB struct {
	mu    sync.Mutex
	nodes map[string]map[string]json.RawMessage
	paths []string
}

func (f *fakeRealtimeDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Query().Get("ns") != "quizbot" {
		http.Error(w, `{"error":"missing namespace"}`, http.StatusBadRequest)
		return
	}
	path := strings.TrimSuffix(r.URL.Path, ".json")
	f.paths = append(f.paths, r.Method+" "+path)

	switch r.Method {
	case http.MethodPost:
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
			return
		}
		if f.nodes[path] == nil {
			f.nodes[path] = make(map[string]json.RawMessage)
		}
		name := fmt.Sprintf("-N%03d", len(f.nodes[path]))
		f.nodes[path][name] = body
		json.NewEncoder(w).Encode(map[string]string{"name": name})
	case http.MethodGet:
		node, ok := f.nodes[path]
		if !ok {
			w.Write([]byte("null"))
			return
		}
		json.NewEncoder(w).Encode(node)
	default:
		http.Error(w, `{"error":"unsupported"}`, http.StatusMethodNotAllowed)
	}
}

func newTestFirebaseConnector(t *testing.T) (*FirebaseConnector, *fakeRealtimeDB) {
	t.Helper()
	fake := &fakeRealtimeDB{nodes: make(map[string]map[string]json.RawMessage)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	port := srv.Listener.Addr().(*net.TCPAddr).Port
	fc, err := newFirebaseConnector(context.Background(), &firebase.Config{
		ProjectID:   "quizbot-test",
		DatabaseURL: fmt.Sprintf("localhost:%d?ns=quizbot", port),
	})
	require.NoError(t, err)
	return fc, fake
}

func TestFirebaseConnectorSaveAndList(t *testing.T) {
	fc, fake := newTestFirebaseConnector(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, fc.Save(ctx, sampleRecord(7, first.Add(time.Minute))))
	require.NoError(t, fc.Save(ctx, sampleRecord(7, first)))
	require.NoError(t, fc.Save(ctx, sampleRecord(8, first)))

	records, err := fc.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].FinishedAt.Equal(first))
	assert.True(t, records[1].FinishedAt.Equal(first.Add(time.Minute)))
	a := "A"
	assert.Equal(t, map[string]*string{"var1": &a, "var2": nil}, records[0].Answers.Map())

	assert.Equal(t, []string{
		"POST /answers/7",
		"POST /answers/7",
		"POST /answers/8",
		"GET /answers/7",
	}, fake.paths)
	assert.NoError(t, fc.Close())
}

func TestFirebaseConnectorListUnknownUser(t *testing.T) {
	fc, _ := newTestFirebaseConnector(t)

	records, err := fc.ListByUser(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFirebaseConnectorStoresRecordJSON(t *testing.T) {
	fc, fake := newTestFirebaseConnector(t)
	rec := sampleRecord(7, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, fc.Save(context.Background(), rec))

	var stored model.Record
	require.NoError(t, json.Unmarshal(fake.nodes["/answers/7"]["-N000"], &stored))
	assert.Equal(t, rec.SessionID, stored.SessionID)
	assert.Equal(t, rec.Questionnaire, stored.Questionnaire)
	assert.True(t, stored.Completed)
}
