package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"olimpiad/internal/service"
	v1 "olimpiad/pkg/api/v1"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamClientBuffer = 128

type StreamProvider interface {
	GetCompensation(lastRev int64) ([]v1.SchemaEvent, bool)
	LatestRevision() int64
	ListFeatures(ctx context.Context) ([]v1.Feature, error)
}

type StreamHandler struct {
	service StreamProvider
	hub     *service.Hub
}

func NewStreamHandler(service StreamProvider, hub *service.Hub) *StreamHandler {
	return &StreamHandler{
		service: service,
		hub:     hub,
	}
}

// WatchSchema streams registry changes as server-sent events. A client that
// passes last_rev first receives the events it missed, or a reset event
// when they are no longer buffered. Without last_rev only new events are
// sent.
func (h *StreamHandler) WatchSchema(c *gin.Context) {
	var lastRev int64
	s, resume := c.GetQuery("last_rev")
	if resume {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			abortDetail(c, http.StatusBadRequest, "last_rev must be a non-negative integer")
			return
		}
		lastRev = v
	}

	client := &service.Client{Send: make(chan v1.SchemaEvent, streamClientBuffer)}
	if !h.hub.Join(client) {
		abortDetail(c, http.StatusServiceUnavailable, "stream closed")
		return
	}
	defer h.hub.Leave(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	logger.Info("schema stream client connected",
		zap.String("operator", service.GetOperator(c.Request.Context())),
		zap.Int64("last_rev", lastRev),
		zap.String("ip", c.ClientIP()))

	// Registered before replay, so nothing between the two is lost; the
	// revision check drops what replay already sent.
	maxSentRev := lastRev
	if resume {
		events, ok := h.service.GetCompensation(lastRev)
		if ok {
			for _, evt := range events {
				c.SSEvent("message", evt)
				maxSentRev = evt.Revision
			}
		} else {
			c.SSEvent("reset", "revision_too_old")
			maxSentRev = h.service.LatestRevision()
		}
	} else {
		maxSentRev = h.service.LatestRevision()
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-client.Send:
			if !ok {
				return false
			}
			if evt.Action == constraints.PING {
				c.SSEvent("ping", "pong")
				return true
			}
			if evt.Revision <= maxSentRev {
				return true
			}
			c.SSEvent("message", evt)
			maxSentRev = evt.Revision
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Snapshot returns the registry with the revision it reflects at least.
// Resuming the stream from that revision may replay events already applied,
// which is harmless because each event carries the full definition.
func (h *StreamHandler) Snapshot(c *gin.Context) {
	rev := h.service.LatestRevision()
	features, err := h.service.ListFeatures(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.SchemaSnapshot{Features: features, Revision: rev})
}
