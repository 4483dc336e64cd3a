package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/response"
)

// RealtimeHandler serves /ws and /ws/:stream.
type RealtimeHandler struct {
	hub     *realtime.Hub
	streams map[string]struct{}
}

// NewRealtimeHandler restricts clients to the given streams; with none, any
// stream name is accepted.
func NewRealtimeHandler(hub *realtime.Hub, streams ...string) *RealtimeHandler {
	allowed := make(map[string]struct{}, len(streams))
	for _, stream := range realtime.NormalizeStreams(streams...) {
		allowed[stream] = struct{}{}
	}
	return &RealtimeHandler{hub: hub, streams: allowed}
}

// Stream upgrades the connection. A request naming no stream receives both
// scope and task events; naming an unknown stream is a 404.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	requested := gatherStreams(c)
	if len(requested) == 0 {
		requested = []string{realtime.StreamScope, realtime.StreamTasks}
	}

	var allowed map[string]struct{}
	if len(h.streams) > 0 {
		allowed = h.streams
		for _, stream := range requested {
			if _, ok := allowed[stream]; !ok {
				response.Error(c, errors.ErrNotFound)
				return
			}
		}
	}

	h.hub.Serve(requested, allowed, c.Writer, c.Request)
}

// gatherStreams merges the :stream path segment, repeated ?stream= values
// and a comma separated ?streams= list.
func gatherStreams(c *gin.Context) []string {
	names := append([]string{c.Param("stream")}, c.QueryArray("stream")...)
	if list := c.Query("streams"); list != "" {
		names = append(names, strings.Split(list, ",")...)
	}
	return realtime.NormalizeStreams(names...)
}
