package handlers

import (
	"encoding/json"
	"time"

	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

const wsSessionKey = "session_id"

// stateMessage はWebSocketで送る状態通知です。
type stateMessage struct {
	Type  string           `json:"type"`
	State services.UIState `json:"state"`
}

// WSHandler はセッションの状態遷移をWebSocketで配信します。
type WSHandler struct {
	M        *melody.Melody
	sessions *services.SessionService
}

// NewWSHandler は新しいWSHandlerを生成します。
func NewWSHandler(sessions *services.SessionService) *WSHandler {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &WSHandler{M: m, sessions: sessions}

	// 接続時に現在の状態を送る
	m.HandleConnect(func(s *melody.Session) {
		id, _ := s.Get(wsSessionKey)
		sessionID, _ := id.(string)
		session, err := sessions.Get(sessionID)
		if err != nil {
			return
		}
		msg, err := encodeState(session.State().Snapshot())
		if err != nil {
			logger.Log.WithError(err).Error("failed to encode state")
			return
		}
		if err := s.Write(msg); err != nil {
			logger.Log.WithError(err).WithField("session", sessionID).Debug("failed to send initial state")
		}
	})

	m.HandleDisconnect(func(s *melody.Session) {
		id, _ := s.Get(wsSessionKey)
		logger.Log.WithField("session", id).Debug("websocket disconnected")
	})

	m.HandleError(func(s *melody.Session, err error) {
		logger.Log.WithError(err).Debug("websocket error")
	})

	return h
}

// HandleWS はWebSocket接続をセッションに結び付けます。
func (h *WSHandler) HandleWS(c *gin.Context) {
	session := currentSession(c, h.sessions)

	keys := map[string]interface{}{wsSessionKey: session.ID}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		logger.Log.WithError(err).Warn("failed to upgrade websocket")
	}
}

// TrackSession はセッションの状態遷移を購読し、同じセッションの接続へ配信します。
func (h *WSHandler) TrackSession(session *services.Session) {
	id := session.ID
	session.State().Subscribe(func(state services.UIState) {
		h.BroadcastState(id, state)
	})
}

// BroadcastState は指定セッションに接続しているクライアントへ状態を送ります。
func (h *WSHandler) BroadcastState(sessionID string, state services.UIState) {
	msg, err := encodeState(state)
	if err != nil {
		logger.Log.WithError(err).Error("failed to encode state")
		return
	}

	err = h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get(wsSessionKey)
		return exists && id == sessionID
	})
	if err != nil {
		logger.Log.WithError(err).WithField("session", sessionID).Warn("failed to broadcast state")
	}
}

func encodeState(state services.UIState) ([]byte, error) {
	return json.Marshal(stateMessage{Type: "state", State: state})
}
