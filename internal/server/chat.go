package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"nutricoach/internal/geminiservice"
	"nutricoach/internal/utility"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// chatRequest is the body of one AI chat call. Domain data is loaded by the
// caller and passed through opaquely; this service never touches storage.
type chatRequest struct {
	Message     string                 `json:"message"`
	Language    string                 `json:"language"`
	History     []geminiservice.Turn   `json:"history"`
	WantsReport bool                   `json:"wants_report"`
	Data        map[string]interface{} `json:"data"`
}

func (r chatRequest) toContext(userID string) geminiservice.ConversationContext {
	return geminiservice.ConversationContext{
		UserID:      userID,
		UserText:    r.Message,
		DomainData:  r.Data,
		Language:    r.Language,
		History:     r.History,
		WantsReport: r.WantsReport,
	}
}

// ChatHandler runs the AI pipeline for one request. Report mode answers with
// a single JSON object; the QA modes answer as an SSE stream with one frame
// per delta event.
func (s *Server) ChatHandler(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing X-User-ID header")
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.ai.Run(c.Request().Context(), req.toContext(userID))
	if err != nil {
		if errors.Is(err, geminiservice.ErrEmptyReport) {
			// Distinct from a transport failure so clients can tell the
			// user "the model produced nothing usable", not "network error".
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "the model did not produce a usable report")
		}
		log.Error().Err(err).Msg("AI pipeline failed")
		return echo.NewHTTPError(http.StatusBadGateway, "upstream AI service unavailable")
	}

	if result.Mode == geminiservice.ReportGeneration {
		return c.JSON(http.StatusOK, result.Report)
	}

	return writeEventStream(c, result.Stream)
}

// writeEventStream serializes delta events as SSE frames, flushing after
// each one so the client sees text as soon as the model produces it.
func writeEventStream(c echo.Context, events <-chan geminiservice.DeltaEvent) error {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	for ev := range events {
		if err := writeSSEFrame(c.Response(), ev); err != nil {
			// Client is gone; the request context cancels the relay.
			return nil
		}
		c.Response().Flush()
	}
	return nil
}

func writeSSEFrame(w http.ResponseWriter, ev geminiservice.DeltaEvent) error {
	var err error
	switch ev.Kind {
	case geminiservice.EventText:
		data, mErr := json.Marshal(map[string]string{"content": ev.Content})
		if mErr != nil {
			return mErr
		}
		_, err = fmt.Fprintf(w, "event: delta\ndata: %s\n\n", data)
	case geminiservice.EventDone:
		_, err = fmt.Fprint(w, "event: done\ndata: {}\n\n")
	case geminiservice.EventError:
		data, mErr := json.Marshal(map[string]string{"message": ev.Message})
		if mErr != nil {
			return mErr
		}
		_, err = fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	}
	return err
}

// ChatSocketHandler is the websocket variant of the chat stream. The client
// sends one chatRequest as its first message and receives the same frames as
// the SSE endpoint, as JSON messages.
func (s *Server) ChatSocketHandler(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing X-User-ID header")
	}

	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var req chatRequest
	if err := conn.ReadJSON(&req); err != nil {
		return utility.WriteErrorFrame(conn, "invalid chat request")
	}

	// The relay runs under this context: cancelling it on client disconnect
	// releases the upstream connection instead of streaming into the void.
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	result, err := s.ai.Run(ctx, req.toContext(userID))
	if err != nil {
		if errors.Is(err, geminiservice.ErrEmptyReport) {
			return utility.WriteErrorFrame(conn, "the model did not produce a usable report")
		}
		log.Error().Err(err).Msg("AI pipeline failed")
		return utility.WriteErrorFrame(conn, "upstream AI service unavailable")
	}

	if result.Mode == geminiservice.ReportGeneration {
		return utility.WriteReportFrame(conn, result.Report)
	}

	// Two pumps under one group: the read pump notices the client closing
	// the socket and cancels the relay so the upstream connection is freed.
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return nil // client disconnected
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		// Closing the socket when the stream ends also unblocks the read
		// pump, which would otherwise wait on a client that never hangs up.
		defer conn.Close()
		for {
			select {
			case ev, ok := <-result.Stream:
				if !ok {
					return nil
				}
				if err := utility.WriteDeltaFrame(conn, ev); err != nil {
					return nil
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}
