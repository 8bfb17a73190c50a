package utility

import (
	"net/http"

	"nutricoach/internal/geminiservice"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Upgrader is shared by every websocket route.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow CORS for development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamFrame is the wire form of one chat stream message. Type is one of
// "delta", "done", "error" or "report".
type streamFrame struct {
	Type    string                        `json:"type"`
	Content string                        `json:"content,omitempty"`
	Message string                        `json:"message,omitempty"`
	Report  geminiservice.StructuredReport `json:"report,omitempty"`
}

// WriteDeltaFrame sends one relay event over the socket.
func WriteDeltaFrame(conn *websocket.Conn, ev geminiservice.DeltaEvent) error {
	frame := streamFrame{}
	switch ev.Kind {
	case geminiservice.EventText:
		frame.Type = "delta"
		frame.Content = ev.Content
	case geminiservice.EventDone:
		frame.Type = "done"
	case geminiservice.EventError:
		frame.Type = "error"
		frame.Message = ev.Message
	}
	if err := conn.WriteJSON(frame); err != nil {
		log.Debug().Err(err).Msg("failed to write stream frame, client gone")
		return err
	}
	return nil
}

// WriteReportFrame sends a completed report as a single frame.
func WriteReportFrame(conn *websocket.Conn, report geminiservice.StructuredReport) error {
	return conn.WriteJSON(streamFrame{Type: "report", Report: report})
}

// WriteErrorFrame sends a terminal error frame.
func WriteErrorFrame(conn *websocket.Conn, msg string) error {
	return conn.WriteJSON(streamFrame{Type: "error", Message: msg})
}
