package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type testConversationSuite struct {
	BaseStackSuite
}

func TestConversationSuite(t *testing.T) {
	suite.Run(t, &testConversationSuite{})
}

type accountResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

type conversationResponse struct {
	ID          string `json:"id"`
	UnreadCount int64  `json:"unreadCount"`
	LastMessage *struct {
		ID      int64  `json:"id"`
		Content string `json:"content"`
	} `json:"lastMessage"`
}

type messageResponse struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

func (s *testConversationSuite) register(username string) accountResponse {
	var account accountResponse
	resp := s.PostJSON("/api/chat/register", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "ComplexPass123!",
	}, &account)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return account
}

func (s *testConversationSuite) TestFullConversationFlow() {
	var (
		alice, bob accountResponse
		convID     string
		messageID  int64
	)

	s.Run("Step 1: Register both accounts", func() {
		alice = s.register("alice")
		bob = s.register("bob")
		s.Require().NotEmpty(alice.Token)
		s.Require().NotEmpty(bob.Token)
	})

	// Alice authenticates the socket with her token, bob with his raw id
	aliceWS := s.DialWS("token=" + alice.Token)
	bobWS := s.DialWS("userId=" + bob.User.ID)

	s.Run("Step 2: Create the conversation and observe the fan-out", func() {
		var conv conversationResponse
		resp := s.PostJSON("/api/chat/conversations", map[string]string{
			"initiatorId": alice.User.ID,
			"targetEmail": bob.User.Email,
		}, &conv)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		convID = conv.ID

		// Both participants receive the conversation event live
		s.Require().Equal("conversation", s.ReadFrame(aliceWS).Type)
		s.Require().Equal("conversation", s.ReadFrame(bobWS).Type)
	})

	s.Run("Step 3: Creating again reuses the same conversation", func() {
		var conv conversationResponse
		resp := s.PostJSON("/api/chat/conversations", map[string]string{
			"initiatorId":  bob.User.ID,
			"targetUserId": alice.User.ID,
		}, &conv)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		s.Require().Equal(convID, conv.ID)

		s.Require().Equal("conversation", s.ReadFrame(aliceWS).Type)
		s.Require().Equal("conversation", s.ReadFrame(bobWS).Type)
	})

	s.Run("Step 4: Send a message, both devices converge on stored truth", func() {
		var msg messageResponse
		resp := s.PostJSON("/api/chat/conversations/"+convID+"/messages", map[string]string{
			"senderId": alice.User.ID,
			"content":  "hello bob",
		}, &msg)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		s.Require().Positive(msg.ID)
		messageID = msg.ID

		for _, conn := range []struct {
			name string
			read func() Frame
		}{
			{"alice", func() Frame { return s.ReadFrame(aliceWS) }},
			{"bob", func() Frame { return s.ReadFrame(bobWS) }},
		} {
			frame := conn.read()
			s.Require().Equal("message", frame.Type, "recipient=%s", conn.name)

			var payload messageResponse
			s.Require().NoError(json.Unmarshal(frame.Payload, &payload))
			s.Require().Equal(messageID, payload.ID)
			s.Require().Equal("hello bob", payload.Content)
		}
	})

	s.Run("Step 5: Unread count reflects the read bookmark", func() {
		var conversations []conversationResponse
		resp := s.GetJSON("/api/chat/users/"+bob.User.ID+"/conversations", &conversations)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Require().Len(conversations, 1)
		s.Require().Equal(int64(1), conversations[0].UnreadCount)
		s.Require().NotNil(conversations[0].LastMessage)

		// The sender's own bookmark already points at the message
		resp = s.GetJSON("/api/chat/users/"+alice.User.ID+"/conversations", &conversations)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Require().Zero(conversations[0].UnreadCount)
	})

	s.Run("Step 6: Mark read clears the unread count", func() {
		var conv conversationResponse
		resp := s.PostJSON("/api/chat/conversations/"+convID+"/read", map[string]any{
			"userId":    bob.User.ID,
			"messageId": messageID,
		}, &conv)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Require().Zero(conv.UnreadCount)
	})

	s.Run("Step 7: Typing reaches the peer but never echoes back", func() {
		s.Require().NoError(aliceWS.WriteJSON(map[string]any{
			"type":           "typing",
			"conversationId": convID,
			"isTyping":       true,
		}))

		frame := s.ReadFrame(bobWS)
		s.Require().Equal("typing", frame.Type)
		s.Require().Equal(alice.User.ID, frame.UserID)
		s.Require().True(frame.IsTyping)
		s.Require().Equal("typing", frame.Status)
		s.Require().Equal("alice", frame.DisplayName)

		// Alice must not receive her own signal. Send a follow-up message:
		// her next frame is that message, proving no typing frame queued up.
		var msg messageResponse
		s.PostJSON("/api/chat/conversations/"+convID+"/messages", map[string]string{
			"senderId": bob.User.ID,
			"content":  "got it",
		}, &msg)

		next := s.ReadFrame(aliceWS)
		s.Require().Equal("message", next.Type)

		// Bob receives his own message too (sender included in fan-out)
		s.Require().Equal("message", s.ReadFrame(bobWS).Type)
	})

	s.Run("Step 8: Moderation masks censored words before fan-out", func() {
		var msg messageResponse
		s.PostJSON("/api/chat/conversations/"+convID+"/messages", map[string]string{
			"senderId": alice.User.ID,
			"content":  "what the hell",
		}, &msg)
		s.Require().Equal("what the ****", msg.Content)

		frame := s.ReadFrame(bobWS)
		var payload messageResponse
		s.Require().NoError(json.Unmarshal(frame.Payload, &payload))
		s.Require().Equal("what the ****", payload.Content)

		s.Require().Equal("message", s.ReadFrame(aliceWS).Type)
	})
}
