package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vitrine-next/internal/config"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/provider"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeService struct {
	name     string
	startErr error
	mu       sync.Mutex
	stopped  bool
	order    *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.order != nil {
		*f.order = append(*f.order, f.name)
	}
	return nil
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	var order []string
	healthy := &fakeService{name: "http", order: &order}
	broken := &fakeService{name: "worker", startErr: errors.New("boom"), order: &order}

	err := NewRunner(healthy, broken).Run(context.Background(), time.Second, nil)
	require.EqualError(t, err, "boom")
	assert.True(t, healthy.stopped)
	assert.Equal(t, []string{"worker", "http"}, order)
}

func TestRunnerCancelledContextReturnsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{name: "http"}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, NewRunner(svc).Run(ctx, time.Second, nil))
	assert.True(t, svc.stopped)
}

func TestRunnerRejectsEmpty(t *testing.T) {
	assert.Error(t, NewRunner().Run(context.Background(), time.Second, nil))
	assert.Error(t, NewRunner(nil).Run(context.Background(), time.Second, nil))
}

func TestHTTPServiceServeAndStop(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	svc := NewHTTPService(listener.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	done := make(chan error, 1)
	go func() { done <- svc.Serve(listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, <-done)
}

func newTestContainer(t *testing.T, cfg *config.Config) *provider.Container {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	container, err := provider.New(cfg, db)
	require.NoError(t, err)
	return container
}

func TestBuildRunnerModes(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"}}
	container := newTestContainer(t, cfg)

	runner, err := BuildRunner(cfg, ModeAll, container)
	require.NoError(t, err)
	require.Len(t, runner.services, 1)
	assert.Equal(t, "http", runner.services[0].Name())

	_, err = BuildRunner(cfg, ModeWorker, container)
	assert.Error(t, err)

	_, err = BuildRunner(nil, ModeAPI, container)
	assert.Error(t, err)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	err := Run(Options{Config: &config.Config{}, Mode: "batch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
