package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/app"
	"quiz-insights-service/internal/domain"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsMaxInboundSize = 512
)

// WSHandler streams the analytics report of a quiz: once on connect and again
// after every recorded submission.
type WSHandler struct {
	reports  app.ReportLoader
	feed     *app.Feed
	logger   logrus.FieldLogger
	upgrader websocket.Upgrader
	// pongWait bounds how long a client may stay silent; pings go out at 9/10 of it.
	pongWait time.Duration
}

func NewWSHandler(reports app.ReportLoader, feed *app.Feed, logger logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		reports:  reports,
		feed:     feed,
		logger:   logger,
		pongWait: wsPongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pushes analytics until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")
	log := h.logger.WithField("quiz_id", quizID)

	// Resolve before upgrading so unknown quizzes get a plain HTTP error.
	// A poll without responses still opens; its first report arrives with the first submission.
	report, loadErr := h.reports.LoadReport(r.Context(), quizID)
	if loadErr != nil && !errors.Is(loadErr, domain.ErrNoData) {
		writeError(w, r, h.logger, loadErr)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe(quizID)
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	conn.SetReadLimit(wsMaxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(h.pongWait * 9 / 10)
		defer ticker.Stop()
		for {
			var err error
			select {
			case msg, ok := <-send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				err = conn.WriteJSON(msg)
			case <-ticker.C:
				err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			}
			if err != nil {
				log.WithError(err).Debug("ws write error")
				stop()
				// Unblocks the read loop.
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case _, ok := <-updates:
				if !ok {
					return
				}
				msg := h.snapshot(ctx, quizID)
				select {
				case send <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if loadErr != nil {
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: loadErr.Error()}}
	} else {
		send <- outboundMessage{Type: "analytics", Payload: report}
	}

	// Clients only listen; reading handles pongs and detects the close frame or a silent peer.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	stop()
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) snapshot(ctx context.Context, quizID string) outboundMessage {
	report, err := h.reports.LoadReport(ctx, quizID)
	if err != nil {
		return outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
	return outboundMessage{Type: "analytics", Payload: report}
}
