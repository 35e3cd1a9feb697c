package monitor

import (
	"bytes"
	"context"
	"github.com/clambin/tank-monitor/internal/store"
	"github.com/clambin/tank-monitor/internal/tank"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const tanksYAML = `
unassociated:
  slack: ["#irrigation"]
tanks:
  - id: a
    label: cistern
    type: rectangular
    width: 1
    length: 1
    height: 2
    sensor_id: s1
    sensor_topic: sensors/a
`

func Test_makeTasks(t *testing.T) {
	v := newConfig(t, "")
	st := &store.FileStore{Path: v.GetString("store.path")}
	require.NoError(t, st.Save(store.Document{}))

	tasks, err := makeTasks(v, st, newFakeTransport(), prometheus.NewRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Len(t, tasks, 7)
}

func Test_makeNotifiers(t *testing.T) {
	v := newConfig(t, "slack:\n  token: xoxb-1234\nemail:\n  host: smtp.example.com\n")
	n := makeNotifiers(v, slog.New(slog.DiscardHandler))
	assert.Len(t, n, 3)
	assert.Contains(t, n, "slack")
	assert.Contains(t, n, "email")

	n = makeNotifiers(newConfig(t, ""), slog.New(slog.DiscardHandler))
	assert.Len(t, n, 1)
	assert.Contains(t, n, "log")
}

func Test_openStore(t *testing.T) {
	v := newConfig(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(v.ConfigFileUsed()), "tanks.yaml"), []byte(tanksYAML), 0644))

	st, err := openStore(v, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	doc, err := st.Load()
	require.NoError(t, err)
	require.Contains(t, doc.Tanks, "a")
	assert.Equal(t, tank.Rectangular, doc.Tanks["a"].Shape)
	assert.Equal(t, []string{"#irrigation"}, doc.Settings.Unassociated.Slack)

	// an existing database is not overwritten
	doc.Tanks["a"] = tank.Tank{ID: "a", Label: "renamed", Shape: tank.Rectangular}
	require.NoError(t, st.Save(doc))
	st, err = openStore(v, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	doc, err = st.Load()
	require.NoError(t, err)
	assert.Equal(t, "renamed", doc.Tanks["a"].Label)
}

func Test_maybeLoadTanks(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr assert.ErrorAssertionFunc
		want    int
	}{
		{name: "valid", content: tanksYAML, wantErr: assert.NoError, want: 1},
		{name: "invalid", content: `tanks: [{id: a, type: cube}]`, wantErr: assert.Error},
		{name: "missing", wantErr: assert.NoError},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "tanks.yaml")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			}
			c, err := maybeLoadTanks(path, slog.New(slog.DiscardHandler))
			tt.wantErr(t, err)
			assert.Len(t, c.Tanks, tt.want)
		})
	}
}

func Test_runTasks(t *testing.T) {
	v := newConfig(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(v.ConfigFileUsed()), "tanks.yaml"), []byte(tanksYAML), 0644))
	st, err := openStore(v, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	transport := newFakeTransport()
	tasks, err := makeTasks(v, st, transport, prometheus.NewRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error)
	go func() { errCh <- runTasks(ctx, tasks) }()

	require.Eventually(t, func() bool { return transport.subscribed("sensors/a") }, time.Second, 10*time.Millisecond)
	transport.deliver("sensors/a", `{"sensor_id":"s1","measurement":0.6}`)

	require.Eventually(t, func() bool {
		_, ok := transport.lastPublished("tanks/data")
		return ok
	}, time.Second, 10*time.Millisecond)
	payload, _ := transport.lastPublished("tanks/data")
	assert.Contains(t, string(payload), `"percentage":70`)

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 70, *doc.Tanks["a"].Percentage)

	cancel()
	assert.NoError(t, <-errCh)
	assert.False(t, transport.subscribed("sensors/a"))
}

func newConfig(t *testing.T, extra string) *viper.Viper {
	t.Helper()
	dir := t.TempDir()
	content := `
store:
  path: ` + filepath.Join(dir, "tanks.json") + `
mqtt:
  requestTopic: tanks/request
  publishTopic: tanks/data
scheduler:
  commandTopic: scheduler/command
  programsTopic: scheduler/programs
  statusTopic: scheduler/status
exporter:
  addr: 127.0.0.1:0
health:
  addr: 127.0.0.1:0
email:
  port: 25
` + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return v
}

var _ Transport = &fakeTransport{}

type fakeTransport struct {
	lock      sync.Mutex
	handlers  map[string]func(string, []byte)
	published map[string][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers:  make(map[string]func(string, []byte)),
		published: make(map[string][]byte),
	}
}

func (f *fakeTransport) Subscribe(topic string, handler func(string, []byte)) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeTransport) Unsubscribe(topics ...string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, topic := range topics {
		delete(f.handlers, topic)
	}
	return nil
}

func (f *fakeTransport) Publish(_ context.Context, topic string, _ bool, payload []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.published[topic] = bytes.Clone(payload)
	return nil
}

func (f *fakeTransport) subscribed(topic string) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

func (f *fakeTransport) deliver(topic, payload string) {
	f.lock.Lock()
	h := f.handlers[topic]
	f.lock.Unlock()
	h(topic, []byte(payload))
}

func (f *fakeTransport) lastPublished(topic string) ([]byte, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	payload, ok := f.published[topic]
	return payload, ok
}
