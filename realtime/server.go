package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"codewhisperer/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// socket adapts a websocket connection to Client; gorilla allows one concurrent writer
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *socket) Close() error {
	return s.conn.Close()
}

type emitRequest struct {
	QuestionID string `json:"questionId"`
}

// Server exposes the hub over HTTP
type Server struct {
	hub *Hub
}

func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// Routes builds the relay engine
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/socket", s.Socket)
	r.POST("/emit-leaderboard-update", s.EmitLeaderboardUpdate)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not found")
	})
	return r
}

// EmitLeaderboardUpdate is called by the API server after a leaderboard-affecting write
func (s *Server) EmitLeaderboardUpdate(c *gin.Context) {
	var req emitRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	s.hub.NotifyLeaderboard(req.QuestionID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Socket upgrades the connection and serves joinRoom / leaveRoom until the client leaves
func (s *Server) Socket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade error")
		return
	}
	client := &socket{conn: conn}
	metrics.RelayConnections.Inc()
	defer func() {
		s.hub.Remove(client)
		metrics.RelayConnections.Dec()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("WebSocket read error")
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Room == "" {
			continue
		}
		switch msg.Event {
		case EventJoinRoom:
			s.hub.Join(msg.Room, client)
		case EventLeaveRoom:
			s.hub.Leave(msg.Room, client)
		}
	}
}
