package ws

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/imorozov/wordquiz/internal/auth"
	"github.com/imorozov/wordquiz/internal/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 65536
)

// client is one websocket connection and its connection-scoped state.
// The state fields are touched only from the read pump, which processes
// the connection's events strictly in order.
type client struct {
	id      string
	gateway *Gateway
	conn    *websocket.Conn
	send    chan *response

	// Connection-scoped identity: empty email means anonymous. admin is
	// resolved once at login from store policy and pinned for the
	// connection's lifetime.
	email     string
	admin     bool
	createdAt time.Time
}

func newClient(g *Gateway, conn *websocket.Conn) *client {
	return &client{
		id:        uuid.NewString(),
		gateway:   g,
		conn:      conn,
		send:      make(chan *response, 256),
		createdAt: time.Now(),
	}
}

// readPump reads frames off the connection and dispatches them one at a
// time. It owns the connection state and the teardown path.
func (c *client) readPump() {
	defer func() {
		c.logout()
		c.gateway.connectionClosed(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.gateway.log.Error("websocket read error", zap.String("connection", c.id), zap.Error(err))
			}
			return
		}

		var req request
		if err := json.Unmarshal(message, &req); err != nil {
			c.gateway.log.Warn("dropping malformed frame", zap.String("connection", c.id), zap.Error(err))
			continue
		}

		if done := c.dispatch(&req); done {
			return
		}
	}
}

// writePump writes queued responses and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case resp, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(resp); err != nil {
				c.gateway.log.Error("websocket write error", zap.String("connection", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// respond queues one frame for the originating connection.
func (c *client) respond(resp *response) {
	select {
	case c.send <- resp:
	default:
		c.gateway.log.Warn("send queue full, dropping frame",
			zap.String("connection", c.id),
			zap.String("event", resp.Event),
		)
	}
}

// logout discards the connection identity. Idempotent.
func (c *client) logout() {
	c.email = ""
	c.admin = false
}

// dispatch routes one inbound frame. The returned bool asks the read pump
// to terminate the connection.
func (c *client) dispatch(req *request) bool {
	ctx := context.Background()

	switch req.Event {
	case EventLogin:
		c.handleLogin(ctx, req)
	case EventSignup:
		c.handleSignup(ctx, req)
	case EventVerification:
		c.handleVerification(ctx, req)
	case EventAddNewWord:
		c.handleAddNewWord(ctx, req)
	case EventAddWordsFromFile:
		c.handleAddWordsFromFile(ctx, req)
	case EventLatestVersionQuery:
		c.respond(&response{Event: EventLatestQuizSetVersion, Version: c.gateway.quiz.Version()})
	case EventQuizSetQuery:
		snap := c.gateway.quiz.Snapshot()
		c.respond(&response{Event: EventLatestQuizSet, Version: snap.Version, QuizSet: snap.Collections})
	case EventDisconnect:
		return true
	default:
		c.gateway.log.Warn("unknown event", zap.String("connection", c.id), zap.String("event", req.Event))
	}
	return false
}

func (c *client) handleLogin(ctx context.Context, req *request) {
	if req.UserMail == "" || (req.SessionID == "" && req.Password == "") {
		return
	}

	var (
		res *service.LoginResult
		err error
	)
	if req.SessionID != "" {
		res, err = c.gateway.sessions.LoginWithSession(ctx, req.UserMail, req.SessionID)
	} else {
		res, err = c.gateway.sessions.LoginWithPassword(ctx, req.UserMail, req.Password, req.RememberMe)
	}
	if err != nil {
		c.respond(&response{Event: EventLoginUnsuccessful, Reason: loginFailureReason(err)})
		if !isClientFault(err) {
			c.gateway.log.Error("login failed", zap.String("connection", c.id), zap.Error(err))
		}
		return
	}

	c.email = res.Email
	c.admin = res.Admin

	c.respond(&response{Event: EventLoginSuccess, UserMail: res.Email, SessionID: res.SessionID})
	if res.Admin {
		c.respond(&response{Event: EventAdminPrivilegeGranted})
	}
}

func (c *client) handleSignup(ctx context.Context, req *request) {
	if req.UserMail == "" || req.Password == "" || req.WebsiteURL == "" {
		return
	}

	if err := c.gateway.sessions.Signup(ctx, req.UserMail, req.Password, req.WebsiteURL); err != nil {
		c.respond(&response{Event: EventSignupUnsuccessful, Reason: signupFailureReason(err)})
		if !isClientFault(err) {
			c.gateway.log.Error("signup failed", zap.String("connection", c.id), zap.Error(err))
		}
		return
	}
	c.respond(&response{Event: EventSignupSuccess})
}

func (c *client) handleVerification(ctx context.Context, req *request) {
	if req.JWTToken == "" {
		return
	}

	email, err := c.gateway.sessions.Verify(ctx, req.JWTToken)
	if err != nil {
		reason := "unsuccessful"
		if errors.Is(err, auth.ErrInvalidToken) {
			reason = "invalid or expired token"
		} else {
			c.gateway.log.Error("verification failed", zap.String("connection", c.id), zap.Error(err))
		}
		c.respond(&response{Event: EventVerificationUnsuccessful, Reason: reason})
		return
	}
	c.respond(&response{Event: EventVerificationSuccess, UserMail: email})
}

func (c *client) handleAddNewWord(ctx context.Context, req *request) {
	// Unprivileged clients get no response at all.
	if !c.admin {
		return
	}
	if req.CollectionName == "" || req.Word == "" || req.Meaning == "" {
		return
	}

	entry, err := c.gateway.quiz.InsertWord(ctx, req.CollectionName, req.Word, req.Meaning)
	if err != nil {
		c.gateway.log.Error("word insert failed",
			zap.String("connection", c.id),
			zap.String("collection", req.CollectionName),
			zap.Error(err),
		)
		c.respond(&response{Event: EventAddWordUnsuccessful})
		return
	}

	c.respond(&response{
		Event:          EventAddWordSuccess,
		CollectionName: entry.Collection,
		Word:           entry.Word,
		Meaning:        entry.Meaning,
	})
}

func (c *client) handleAddWordsFromFile(ctx context.Context, req *request) {
	if !c.admin {
		return
	}
	if req.CollectionName == "" {
		return
	}

	name := req.FileName
	if name == "" {
		name = req.CollectionName + ".txt"
	}
	path := filepath.Join(c.gateway.importDir, filepath.Base(name))

	data, err := os.ReadFile(path)
	if err != nil {
		c.gateway.log.Error("word file unreadable", zap.String("path", path), zap.Error(err))
		c.respond(&response{Event: EventAddWordsFromFileUnsuccessful})
		return
	}

	// Strictly sequential: each insert completes before the next starts,
	// so repeated words merge in file order.
	count := 0
	for _, pair := range parseWordFile(data) {
		if _, err := c.gateway.quiz.InsertWord(ctx, req.CollectionName, pair.word, pair.meaning); err != nil {
			c.gateway.log.Error("bulk insert failed",
				zap.String("collection", req.CollectionName),
				zap.String("word", pair.word),
				zap.Error(err),
			)
			c.respond(&response{Event: EventAddWordsFromFileUnsuccessful})
			return
		}
		count++
	}

	c.respond(&response{Event: EventAddWordsFromFileSuccess, Count: count})
}

// isClientFault reports whether the error is the client's own doing and
// already carries a client-safe reason.
func isClientFault(err error) bool {
	return errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrBadCredentials) ||
		errors.Is(err, service.ErrSessionExpired) ||
		errors.Is(err, service.ErrEmailInUse) ||
		errors.Is(err, auth.ErrInvalidToken)
}

func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return "invalid email address"
	case errors.Is(err, service.ErrSessionExpired):
		return "session expired"
	case errors.Is(err, service.ErrBadCredentials):
		return "invalid email or password"
	default:
		// Store and other internal failures stay opaque.
		return "unsuccessful"
	}
}

func signupFailureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return "invalid email address"
	case errors.Is(err, service.ErrEmailInUse):
		return "email already registered"
	default:
		return "unsuccessful"
	}
}
