package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/tfpre/CourseNavigator-sub000/pkg/eventchannel"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/orchestrator"
)

// chatHandler handles POST /api/chat: it validates the request, runs the
// chat turn as an eventchannel producer, and streams SSE frames until the
// terminal frame. Client disconnects cancel the producer. Callers that send
// Accept: application/json (and don't ask for an event stream) get the full
// pipeline run internally with the terminal frame returned as a single JSON
// body instead.
func (s *Server) chatHandler(c *echo.Context) error {
	var req ChatHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	studentID := ""
	if req.StudentProfile != nil {
		studentID = req.StudentProfile.ID
	}

	chatReq := orchestrator.ChatRequest{
		ConversationID:     req.ConversationID,
		StudentID:          studentID,
		Message:            req.Message,
		ProfileUpdate:      req.StudentProfile,
		ContextPreferences: req.contextPreferences(),
		MaxRecommendations: req.MaxRecommendations,
	}

	if wantsJSON(c.Request()) {
		return s.chatBuffered(c, chatReq)
	}

	w := c.Response()
	flusher, ok := any(w).(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if s.deps.Metrics != nil {
		s.deps.Metrics.SSEClientConnected()
		defer s.deps.Metrics.SSEClientDisconnected()
	}

	reqCtx := c.Request().Context()
	disconnected := func() bool {
		select {
		case <-reqCtx.Done():
			return true
		default:
			return false
		}
	}

	channel := eventchannel.New(disconnected)
	if s.cfg != nil && s.cfg.Defaults != nil {
		if s.cfg.Defaults.HeartbeatInterval > 0 {
			channel = channel.WithHeartbeatInterval(s.cfg.Defaults.HeartbeatInterval)
		}
		if s.cfg.Defaults.DisconnectPollTick > 0 {
			channel = channel.WithPollInterval(s.cfg.Defaults.DisconnectPollTick)
		}
	}

	emit := func(frame eventchannel.Frame) error {
		if _, err := w.Write([]byte(frame.Render())); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Stream owns the terminal-frame guarantee; a producer failure becomes
	// an error frame, not an HTTP error (headers are already written).
	_ = channel.Stream(reqCtx, s.deps.Chat.Chat(chatReq), emit)
	return nil
}

// wantsJSON reports whether the caller asked for a buffered JSON response
// rather than an event stream. An explicit text/event-stream wins.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") &&
		!strings.Contains(accept, "text/event-stream")
}

// chatBuffered runs the same streaming pipeline but collects frames in
// memory and answers with the terminal frame as one JSON body: the done
// payload on success, the error payload with a 502 on producer failure.
func (s *Server) chatBuffered(c *echo.Context, chatReq orchestrator.ChatRequest) error {
	var frames []eventchannel.Frame
	channel := eventchannel.New(nil)
	_ = channel.Stream(c.Request().Context(), s.deps.Chat.Chat(chatReq), func(frame eventchannel.Frame) error {
		frames = append(frames, frame)
		return nil
	})

	if len(frames) == 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, "chat produced no frames")
	}

	terminal := frames[len(frames)-1]
	switch terminal.Event {
	case "done":
		if strings.HasPrefix(terminal.Data, "{") {
			return c.Blob(http.StatusOK, "application/json", []byte(terminal.Data))
		}
		return c.JSON(http.StatusOK, map[string]string{"status": terminal.Data})
	case "error":
		return c.Blob(http.StatusBadGateway, "application/json", []byte(terminal.Data))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "chat stream ended without a terminal frame")
	}
}

// explainHandler handles POST /api/chat/explain.
func (s *Server) explainHandler(c *echo.Context) error {
	var req ExplainHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ConversationID == "" {
		return validationFailed(c, []FieldError{{Field: "conversation_id", Reason: "required"}})
	}

	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := s.deps.Chat.Explain(reqCtx, orchestrator.ExplainRequest{
		ConversationID:    req.ConversationID,
		RecommendationIdx: req.RecommendationIndex,
		ExplanationType:   orchestrator.ExplanationType(req.ExplanationType),
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// getConversationHandler handles GET /api/chat/conversation/:id.
func (s *Server) getConversationHandler(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	state, err := s.deps.Conversations.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if state == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	summary := ConversationSummaryResponse{
		ConversationID:        state.ID,
		StudentID:             state.Profile.ID,
		MessageCount:          len(state.Messages),
		ActiveRecommendations: state.ActiveRecommendations,
		CreatedAt:             state.CreatedAt,
		UpdatedAt:             state.UpdatedAt,
	}
	if summary.ActiveRecommendations == nil {
		summary.ActiveRecommendations = []models.Recommendation{}
	}
	if len(state.Messages) > 0 {
		summary.LastMessage = state.Messages[len(state.Messages)-1].Content
	}
	return c.JSON(http.StatusOK, summary)
}
