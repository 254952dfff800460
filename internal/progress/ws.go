package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// joinMessage is the first client frame on a progress socket.
type joinMessage struct {
	Type     string `json:"type"`
	FileName string `json:"fileName"`
}

// wsTransport adapts a websocket connection to the Transport contract.
// Writes go through a buffered channel drained by a single write pump, so
// Send never blocks on the socket and is safe from concurrent publishers.
type wsTransport struct {
	conn      *websocket.Conn
	send      chan models.ProgressEvent
	closeOnce sync.Once
	done      chan struct{}
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	t := &wsTransport{
		conn: conn,
		send: make(chan models.ProgressEvent, sendBuffer),
		done: make(chan struct{}),
	}
	go t.writePump()
	return t
}

func (t *wsTransport) Send(event models.ProgressEvent) error {
	select {
	case t.send <- event:
		return nil
	case <-t.done:
		return websocket.ErrCloseSent
	default:
		return errSendBufferFull
	}
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	return t.conn.Close()
}

var errSendBufferFull = errors.New("progress send buffer full")

func (t *wsTransport) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = t.conn.Close()
	}()

	for {
		select {
		case <-t.done:
			_ = t.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the connection, waits for the upload join message and
// binds the socket to the job key. The read loop only exists to detect pongs
// and disconnects; clients never send anything after joining.
func ServeWS(channel *Channel, log logger.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return err
		}

		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		_, raw, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return nil
		}
		var join joinMessage
		if err := json.Unmarshal(raw, &join); err != nil || join.Type != "upload" || join.FileName == "" {
			log.Warnf("invalid progress join message from %s", c.RealIP())
			_ = conn.Close()
			return nil
		}

		transport := newWSTransport(conn)
		channel.Subscribe(join.FileName, transport)
		log.Infof("progress subscriber attached for %s", join.FileName)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		}
		channel.Unsubscribe(join.FileName, transport)
		return nil
	}
}
