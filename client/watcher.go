package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	v1 "olimpiad/pkg/api/v1"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"

	"go.uber.org/zap"
)

const heartbeatTimeout = 75 * time.Second

// SchemaWatcher mirrors the feature registry from the schema event stream.
// It loads a snapshot, then follows /api/features/stream from the snapshot
// revision, reconnecting with backoff and resyncing on reset.
type SchemaWatcher struct {
	client   *Client
	stream   *http.Client
	onChange func(v1.SchemaEvent)

	mu       sync.RWMutex
	features map[string]v1.Feature
	lastRev  int64

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

// NewSchemaWatcher builds a watcher. onChange, if set, runs for every applied
// event on the watcher goroutine.
func NewSchemaWatcher(c *Client, onChange func(v1.SchemaEvent)) *SchemaWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &SchemaWatcher{
		client:   c,
		stream:   &http.Client{Timeout: 0, Transport: c.httpClient.Transport},
		onChange: onChange,
		features: make(map[string]v1.Feature),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (w *SchemaWatcher) Start(ctx context.Context) error {
	if err := w.fetchAll(ctx); err != nil {
		return err
	}
	w.started.Store(true)
	go w.runWatchLoop()
	return nil
}

func (w *SchemaWatcher) Stop() {
	w.cancel()
	if w.started.Load() {
		<-w.done
	}
}

// Features returns the mirrored registry.
func (w *SchemaWatcher) Features() map[string]v1.Feature {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]v1.Feature, len(w.features))
	for k, v := range w.features {
		out[k] = v
	}
	return out
}

func (w *SchemaWatcher) Revision() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRev
}

func (w *SchemaWatcher) fetchAll(ctx context.Context) error {
	snap, err := w.client.SchemaSnapshot(ctx)
	if err != nil {
		logger.Error("failed to fetch schema snapshot", zap.Error(err))
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.features = make(map[string]v1.Feature, len(snap.Features))
	for _, f := range snap.Features {
		w.features[f.ID] = f
	}
	w.lastRev = snap.Revision
	return nil
}

func (w *SchemaWatcher) runWatchLoop() {
	defer close(w.done)
	backoff := time.Second
	maxBackoff := 30 * time.Second
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		err := w.watchOnce()
		if w.ctx.Err() != nil {
			return
		}
		if err == nil {
			backoff = time.Second
			continue
		}

		jitter := time.Duration(rand.Int63n(int64(backoff / 2)))
		logger.Warn("schema stream disconnected", zap.Error(err))
		select {
		case <-time.After(backoff + jitter):
		case <-w.ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// watchOnce follows one stream connection until it ends. A nil error means
// the stream ended cleanly and can be reopened right away.
func (w *SchemaWatcher) watchOnce() error {
	reqCtx, reqCancel := context.WithCancel(w.ctx)
	defer reqCancel()

	path := fmt.Sprintf("/api/features/stream?last_rev=%d", w.Revision())
	req, err := w.client.newRequest(reqCtx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	res, err := w.stream.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return &APIError{StatusCode: res.StatusCode, Detail: "stream refused"}
	}

	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-reqCtx.Done():
				return
			case <-ticker.C:
				if time.Since(time.Unix(0, lastActivity.Load())) > heartbeatTimeout {
					logger.Warn("schema stream heartbeat timeout, reconnecting")
					reqCancel()
					return
				}
			}
		}
	}()

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var eventType string
	var data bytes.Buffer

	for scanner.Scan() {
		lastActivity.Store(time.Now().UnixNano())
		line := scanner.Text()
		if line != "" {
			if v, ok := strings.CutPrefix(line, "event:"); ok {
				eventType = strings.TrimSpace(v)
			} else if v, ok := strings.CutPrefix(line, "data:"); ok {
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimSpace(v))
			}
			continue
		}

		switch eventType {
		case "reset":
			logger.Warn("schema stream reset, re-fetching registry")
			if err := w.fetchAll(w.ctx); err != nil {
				return err
			}
			return nil
		case "message":
			var evt v1.SchemaEvent
			if err := json.Unmarshal(data.Bytes(), &evt); err != nil {
				logger.Error("failed to decode schema event", zap.Error(err))
			} else {
				w.apply(evt)
			}
		}
		eventType = ""
		data.Reset()
	}
	return scanner.Err()
}

func (w *SchemaWatcher) apply(evt v1.SchemaEvent) {
	w.mu.Lock()
	if evt.Revision <= w.lastRev {
		w.mu.Unlock()
		return
	}
	switch evt.Action {
	case constraints.CREATE:
		w.features[evt.Feature.ID] = evt.Feature
	case constraints.DELETE:
		delete(w.features, evt.Feature.ID)
	default:
		logger.Warn("unknown schema event action", zap.String("action", string(evt.Action)))
	}
	w.lastRev = evt.Revision
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(evt)
	}
}
