package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// wsMessage is the reply to one websocket resample request.
type wsMessage struct {
	Type   string         `json:"type"` // "bars" or "error"
	Result *BarsResponse  `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// handleWS accepts a stream of ResampleRequest messages on one connection
// and answers each in order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.maxBodyBytes)

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var reply wsMessage
		var req ResampleRequest
		if err := json.Unmarshal(data, &req); err != nil {
			reply = wsError(fmt.Errorf("%w: %v", errInvalidRequest, err))
		} else if resp, err := s.resample(ctx, &req); err != nil {
			reply = wsError(err)
		} else {
			reply = wsMessage{Type: "bars", Result: resp}
		}

		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func wsError(err error) wsMessage {
	_, code := statusFor(err)
	return wsMessage{Type: "error", Error: &ErrorResponse{Error: err.Error(), Code: code}}
}
