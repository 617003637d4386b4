package display

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultURL is the emulator's websockify endpoint.
const DefaultURL = "ws://localhost:6080/websockify"

const rfbKeyEvent = 4

// WSDialer connects to a websockify endpoint in front of the emulator's VNC
// server.
type WSDialer struct {
	URL string

	// HandshakeTimeout bounds a single dial.
	HandshakeTimeout time.Duration

	client *http.Client
}

// NewWSDialer returns a dialer for url (DefaultURL when empty).
func NewWSDialer(url string) *WSDialer {
	if url == "" {
		url = DefaultURL
	}

	return &WSDialer{
		URL:              url,
		HandshakeTimeout: 5 * time.Second,
		client:           &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Dial implements Dialer.
func (d *WSDialer) Dial(ctx context.Context) (Conn, error) {
	if d.HandshakeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.HandshakeTimeout)
		defer cancel()
	}

	c, _, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{
		HTTPClient:   d.client,
		Subprotocols: []string{"binary"},
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}

	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

// Wait drains frames until the peer goes away.
func (w *wsConn) Wait(ctx context.Context) error {
	for {
		if _, _, err := w.c.Read(ctx); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				return fmt.Errorf("display closed: %s", status)
			}

			return fmt.Errorf("display read: %w", err)
		}
	}
}

// SendKey writes an RFB KeyEvent message.
func (w *wsConn) SendKey(ctx context.Context, keysym uint32, down bool) error {
	if err := w.c.Write(ctx, websocket.MessageBinary, keyEventFrame(keysym, down)); err != nil {
		return fmt.Errorf("send key: %w", err)
	}

	return nil
}

func (w *wsConn) Close() error {
	if err := w.c.Close(websocket.StatusNormalClosure, ""); err != nil {
		return fmt.Errorf("close display: %w", err)
	}

	return nil
}

func keyEventFrame(keysym uint32, down bool) []byte {
	frame := make([]byte, 8)
	frame[0] = rfbKeyEvent

	if down {
		frame[1] = 1
	}

	binary.BigEndian.PutUint32(frame[4:], keysym)

	return frame
}
