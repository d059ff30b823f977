package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "olimpiad/pkg/api/v1"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"
)

func init() {
	logger.InitLogger("test")
}

type MockObserver struct {
	online  atomic.Int64
	pushed  atomic.Int64
	dropped atomic.Int64
}

func (m *MockObserver) IncOnline()  { m.online.Add(1) }
func (m *MockObserver) DecOnline()  { m.online.Add(-1) }
func (m *MockObserver) RecordPush() { m.pushed.Add(1) }
func (m *MockObserver) RecordDrop() { m.dropped.Add(1) }

func TestHub_Concurrency(t *testing.T) {
	obs := &MockObserver{}
	hub := NewHub(obs, 100*time.Millisecond, 512)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	var wg sync.WaitGroup
	clientCount := 50
	msgCount := 200

	clients := make([]*Client, clientCount)

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c := &Client{Send: make(chan v1.SchemaEvent, 50)}
			clients[idx] = c
			hub.Join(c)
		}(i)
	}
	wg.Wait()

	broadcastDone := make(chan struct{})

	go func() {
		for i := 0; i < msgCount; i++ {
			hub.Broadcast <- v1.SchemaEvent{Revision: int64(i + 1), Action: constraints.CREATE}
			if i%10 == 0 {
				time.Sleep(time.Millisecond)
			}
		}
		close(broadcastDone)
	}()

	// Churn half of the clients while events flow.
	go func() {
		for i := 0; i < clientCount/2; i++ {
			time.Sleep(2 * time.Millisecond)
			hub.Leave(clients[i])
		}
	}()

	var readWg sync.WaitGroup
	for i := 0; i < clientCount; i++ {
		readWg.Add(1)
		go func(c *Client) {
			defer readWg.Done()
			timeout := time.After(3 * time.Second)
			for {
				select {
				case _, ok := <-c.Send:
					if !ok {
						return
					}
				case <-broadcastDone:
					for {
						select {
						case _, ok := <-c.Send:
							if !ok {
								return
							}
						default:
							return
						}
					}
				case <-timeout:
					return
				}
			}
		}(clients[i])
	}

	readWg.Wait()
}

func TestHub_DeliversInOrder(t *testing.T) {
	hub := NewHub(nil, 0, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := &Client{Send: make(chan v1.SchemaEvent, 8)}
	if !hub.Join(c) {
		t.Fatal("join refused by running hub")
	}

	for rev := int64(1); rev <= 3; rev++ {
		hub.Publish(v1.SchemaEvent{Revision: rev, Action: constraints.CREATE})
	}

	for want := int64(1); want <= 3; want++ {
		select {
		case evt := <-c.Send:
			if evt.Revision != want {
				t.Fatalf("expected revision %d, got %d", want, evt.Revision)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for revision %d", want)
		}
	}
}

func TestHub_SlowClientDisconnected(t *testing.T) {
	obs := &MockObserver{}
	hub := NewHub(obs, 0, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{Send: make(chan v1.SchemaEvent, 1)}
	slow.Send <- v1.SchemaEvent{Revision: 0}
	hub.Join(slow)
	hub.Publish(v1.SchemaEvent{Revision: 1, Action: constraints.CREATE})

	deadline := time.Now().Add(time.Second)
	for obs.dropped.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not disconnected")
		}
		time.Sleep(5 * time.Millisecond)
	}

	<-slow.Send
	if _, ok := <-slow.Send; ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestHub_JoinAfterStop(t *testing.T) {
	hub := NewHub(nil, 0, 1)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &Client{Send: make(chan v1.SchemaEvent, 1)}
	hub.Join(c)
	cancel()
	<-stopped

	if _, ok := <-c.Send; ok {
		t.Fatal("expected client channel closed on shutdown")
	}
	if hub.Join(&Client{Send: make(chan v1.SchemaEvent, 1)}) {
		t.Fatal("expected join to fail after the hub stopped")
	}
	// Must not block.
	hub.Leave(c)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	obs := &MockObserver{}
	hub := NewHub(obs, 0, 1)

	hub.Publish(v1.SchemaEvent{Revision: 1})
	hub.Publish(v1.SchemaEvent{Revision: 2})

	if got := obs.dropped.Load(); got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}
}
