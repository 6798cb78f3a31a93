package lifecycle

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"

	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
)

// Manager tracks every HTTP client and every outstanding pipeline task so
// shutdown can drain them. It is the only owner of this shared state; other
// components go through Track and HTTPClient.
type Manager struct {
	log logger.Logger

	mu      sync.Mutex
	clients map[string]*http.Client
	cancels map[uint64]context.CancelFunc
	nextID  uint64

	wg           sync.WaitGroup
	shuttingDown atomic.Bool
}

func New(log logger.Logger) *Manager {
	return &Manager{
		log:     log,
		clients: make(map[string]*http.Client),
		cancels: make(map[uint64]context.CancelFunc),
	}
}

// ShuttingDown is checked at the top of every public pipeline entry point so
// new probes and fetches short-circuit with no-op results during teardown.
func (m *Manager) ShuttingDown() bool {
	return m.shuttingDown.Load()
}

// HTTPClient returns a tracked client, one per proxy URL. An empty proxyURL
// yields the shared direct client. A malformed proxy URL falls back to the
// direct client rather than failing the request.
func (m *Manager) HTTPClient(proxyURL string) *http.Client {
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			m.log.Warn("Invalid proxy URL, using direct connection", "proxy", proxyURL, "error", err)
			proxyURL = ""
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[proxyURL]; ok {
		return c
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		proxy, _ := url.Parse(proxyURL)
		transport.Proxy = http.ProxyURL(proxy)
	}

	c := &http.Client{Transport: transport}
	m.clients[proxyURL] = c
	return c
}

// Track derives a cancellable context registered with the manager. The
// returned done func must be called when the task completes; Shutdown cancels
// all tracked contexts and waits for their done calls.
func (m *Manager) Track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.cancels[id] = cancel
	m.mu.Unlock()

	m.wg.Add(1)

	var once sync.Once
	done := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.cancels, id)
			m.mu.Unlock()
			cancel()
			m.wg.Done()
		})
	}
	return ctx, done
}

// Shutdown flips the shutting-down flag, cancels every tracked task, waits
// for them to observe cancellation, and closes idle connections on every
// tracked client. Returns early if ctx expires while waiting.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shuttingDown.Store(true)

	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	clients := make([]*http.Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		m.log.Warn("Shutdown wait interrupted", "error", ctx.Err())
		return ctx.Err()
	}

	for _, c := range clients {
		c.CloseIdleConnections()
	}

	m.log.Info("Pipeline lifecycle drained")
	return nil
}

// CleanupFiles removes any of the given paths that exist. Best effort:
// per-file errors are logged and swallowed, empty paths skipped.
func (m *Manager) CleanupFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.log.Warn("Failed to remove cache file", "path", p, "error", err)
		}
	}
}
