package e2e

import (
	"bytes"
	chathttp "chat-relay/infrastructure/http"
	"chat-relay/infrastructure/ws"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

// BaseStackSuite boots the whole server in-process: badger on a temp dir,
// real repositories, services, registry, dispatcher, websocket handler and
// the chi router behind an httptest server.
type BaseStackSuite struct {
	suite.Suite
	db     *badger.DB
	msgs   *repositories.MessageRepository
	Server *httptest.Server
}

func (s *BaseStackSuite) SetupTest() {
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	userRepository := repositories.NewUserRepository(db)
	conversationRepository := repositories.NewConversationRepository(db)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	s.Require().NoError(err)
	s.msgs = messageRepository
	readStateRepository := repositories.NewReadStateRepository(db)

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(log, registry, time.Second, metrics)

	moderator, err := moderation.NewModerator('*')
	s.Require().NoError(err)

	authService := services.NewAuthService(userRepository, time.Hour)
	chatService := services.NewChatService(
		log, userRepository, conversationRepository, messageRepository,
		readStateRepository, dispatcher, moderator, metrics,
	)

	wsHandler := ws.NewHandler(log, registry, dispatcher, chatService, 16, time.Second)
	api := chathttp.NewAPI(log, authService, chatService)
	s.Server = httptest.NewServer(chathttp.NewRouter(api, wsHandler, promRegistry))
}

func (s *BaseStackSuite) TearDownTest() {
	s.Server.Close()
	_ = s.msgs.Close()
	_ = s.db.Close()
}

func (s *BaseStackSuite) PostJSON(path string, body any, out any) *http.Response {
	s.T().Helper()
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.Server.URL+path, "application/json", bytes.NewReader(raw))
	s.Require().NoError(err)
	defer func() {
		_ = resp.Body.Close()
	}()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *BaseStackSuite) GetJSON(path string, out any) *http.Response {
	s.T().Helper()
	resp, err := http.Get(s.Server.URL + path)
	s.Require().NoError(err)
	defer func() {
		_ = resp.Body.Close()
	}()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// DialWS opens a websocket session and consumes the handshake status frame.
func (s *BaseStackSuite) DialWS(query string) *websocket.Conn {
	s.T().Helper()
	url := "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() {
		_ = conn.Close()
	})

	frame := s.ReadFrame(conn)
	s.Require().Equal("status", frame.Type)
	return conn
}

// Frame is the decoded wire envelope, flattened typing fields included.
type Frame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId"`
	UserID         string          `json:"userId"`
	IsTyping       bool            `json:"isTyping"`
	Status         string          `json:"status"`
	DisplayName    string          `json:"displayName"`
	Payload        json.RawMessage `json:"payload"`
}

func (s *BaseStackSuite) ReadFrame(conn *websocket.Conn) Frame {
	s.T().Helper()
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)

	var frame Frame
	s.Require().NoError(json.Unmarshal(data, &frame))
	return frame
}
