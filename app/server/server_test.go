package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todo-tasks/app/config"
	"todo-tasks/app/database"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.SQLite.Path = database.MemoryPath
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestOpenStore_SQLiteFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "nested", "todo.db")
	log, _ := test.NewNullLogger()

	st, err := OpenStore(context.Background(), cfg.Store, log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	exists, err := st.TitleExists(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := OpenStore(context.Background(), &config.Store{Driver: "csv"}, log)
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	log, hook := test.NewNullLogger()
	st, err := OpenStore(context.Background(), cfg.Store, log)
	require.NoError(t, err)

	srv := New(cfg, log, st)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPost, base+"/api/v1/task/store",
		strings.NewReader(`{"title":"Ship it","due_date":"2024-03-01"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Version-Code", "1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var body struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.True(t, body.Status, body.Message)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	var exited bool
	for _, e := range hook.AllEntries() {
		if e.Message == "server exited" {
			exited = true
		}
	}
	assert.True(t, exited)
}
