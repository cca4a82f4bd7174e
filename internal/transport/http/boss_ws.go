package http

import (
	"encoding/json"
	"log"
	"net/http"

	"studyquest-backend/internal/domain"
	"github.com/gorilla/websocket"
)

var bossUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsAnswerPayload struct {
	ChoiceIdx *int `json:"choice_idx"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsErrorPayload struct {
	Message string `json:"message"`
}

// handleBossWS multiplexes the battle operations over one connection. The
// read loop is the only writer, so replies go out inline; the connection
// closes after the terminal payload.
func (s *Server) handleBossWS(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	conn, err := bossUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		var result *domain.BattleResult
		switch inbound.Type {
		case "question":
			view, res, err := s.Battles.CurrentQuestion(r.Context(), user)
			if err != nil {
				writeWSError(conn, err)
				continue
			}
			result = res
			if result == nil {
				_ = conn.WriteJSON(outboundMessage[any]{Type: "question", Payload: view})
			}
		case "answer":
			var payload wsAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ChoiceIdx == nil {
				_ = conn.WriteJSON(outboundMessage[wsErrorPayload]{Type: "error", Payload: wsErrorPayload{Message: "invalid answer payload"}})
				continue
			}
			feedback, res, err := s.Battles.SubmitAnswer(r.Context(), user, *payload.ChoiceIdx)
			if err != nil {
				writeWSError(conn, err)
				continue
			}
			result = res
			if result == nil {
				_ = conn.WriteJSON(outboundMessage[any]{Type: "feedback", Payload: feedback})
			}
		case "status":
			status, res, err := s.Battles.Status(r.Context(), user)
			if err != nil {
				writeWSError(conn, err)
				continue
			}
			result = res
			if result == nil {
				_ = conn.WriteJSON(outboundMessage[any]{Type: "status", Payload: status})
			}
		case "forfeit":
			res, err := s.Battles.Forfeit(r.Context(), user)
			if err != nil {
				writeWSError(conn, err)
				continue
			}
			result = &res
		default:
			_ = conn.WriteJSON(outboundMessage[wsErrorPayload]{Type: "error", Payload: wsErrorPayload{Message: "unsupported message type"}})
		}

		if result != nil {
			if result.Closed {
				_ = conn.WriteJSON(outboundMessage[wsErrorPayload]{Type: "ended", Payload: wsErrorPayload{Message: "Session closed."}})
			} else {
				_ = conn.WriteJSON(outboundMessage[any]{Type: "ended", Payload: result})
			}
			return
		}
	}
}

func writeWSError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(outboundMessage[wsErrorPayload]{Type: "error", Payload: wsErrorPayload{Message: err.Error()}})
}
