// Package stream pushes history, selection and advisory events to connected
// clients over Server-Sent Events.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"places_backend/internal/events"
	"places_backend/platform/httpkit"
	"places_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const clientBuffer = 32

// Message is the payload written for every forwarded event.
type Message struct {
	Type string       `json:"type"`
	Data events.Event `json:"data"`
}

type client struct {
	id      uuid.UUID
	subject string
	events  chan Message
}

// Service fans bus events out to every connected stream.
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	done    chan struct{}
	once    sync.Once
	log     *logger.Logger
}

func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID]*client),
		done:    make(chan struct{}),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c.id)
}

// ClientCount reports the number of open streams.
func (s *Service) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handle implements events.Handler. Slow clients lose events rather than
// stalling the bus.
func (s *Service) Handle(_ context.Context, event events.Event) error {
	msg := Message{Type: event.EventName(), Data: event}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.events <- msg:
		default:
			s.log.Warn("stream buffer full, dropping event", "client", c.id, "event", msg.Type)
		}
	}
	return nil
}

// Handler streams events until the client disconnects or the service closes.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			id:      uuid.New(),
			subject: c.GetString(httpkit.ContextSubjectKey),
			events:  make(chan Message, clientBuffer),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.Status(http.StatusOK)
		c.SSEvent("connected", gin.H{"clientId": cl.id})
		c.Writer.Flush()

		s.log.Info("stream client connected", "client", cl.id, "subject", cl.subject)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Info("stream client disconnected", "client", cl.id)
				return
			case <-s.done:
				return
			case msg := <-cl.events:
				data, err := json.Marshal(msg)
				if err != nil {
					s.log.Error("failed to encode stream event", "event", msg.Type, "error", err)
					continue
				}
				c.SSEvent(msg.Type, string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close ends every open stream.
func (s *Service) Close() {
	s.once.Do(func() { close(s.done) })
}
