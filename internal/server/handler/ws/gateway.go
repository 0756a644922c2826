// Package ws implements the realtime gateway: the per-connection event
// protocol binding browser clients to the session manager and the quiz
// cache over a websocket.
package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/imorozov/wordquiz/internal/models"
	"github.com/imorozov/wordquiz/internal/service"
)

// SessionManager is the identity dependency of the gateway.
type SessionManager interface {
	LoginWithPassword(ctx context.Context, email, password string, rememberMe bool) (*service.LoginResult, error)
	LoginWithSession(ctx context.Context, email, token string) (*service.LoginResult, error)
	Signup(ctx context.Context, email, password, siteOrigin string) error
	Verify(ctx context.Context, signedToken string) (string, error)
}

// QuizContent is the quiz-cache dependency of the gateway.
type QuizContent interface {
	InsertWord(ctx context.Context, collection, word, meaning string) (models.WordEntry, error)
	Version() string
	Snapshot() models.Snapshot
}

// Gateway upgrades connections and hands each one to a client loop.
type Gateway struct {
	sessions  SessionManager
	quiz      QuizContent
	importDir string
	log       *zap.Logger
	upgrader  websocket.Upgrader
	live      atomic.Int64
}

// NewGateway constructs a Gateway. importDir is where addWordsFromFile
// looks for bulk word files.
func NewGateway(sessions SessionManager, quiz QuizContent, importDir string, log *zap.Logger) *Gateway {
	return &Gateway{
		sessions:  sessions,
		quiz:      quiz,
		importDir: importDir,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The quiz client is served from arbitrary origins.
				return true
			},
		},
	}
}

// LiveConnections reports the number of currently open connections.
func (g *Gateway) LiveConnections() int64 {
	return g.live.Load()
}

// HandleConnection upgrades the request and starts the read and write
// pumps for the new connection.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(g, conn)
	g.live.Add(1)
	g.log.Info("connection opened",
		zap.String("connection", client.id),
		zap.Int64("live", g.live.Load()),
	)

	go client.writePump()
	go client.readPump()
}

// connectionClosed is invoked once per connection from the read pump's
// teardown path.
func (g *Gateway) connectionClosed(c *client) {
	g.live.Add(-1)
	g.log.Info("connection closed",
		zap.String("connection", c.id),
		zap.Duration("age", time.Since(c.createdAt)),
		zap.Int64("live", g.live.Load()),
	)
}
