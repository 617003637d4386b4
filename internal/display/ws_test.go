package display

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestWSDialer_SendKeyAndDisconnect(t *testing.T) {
	frames := make(chan []byte, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"binary"}})
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for range 2 {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}

			frames <- data
		}

		_ = c.Close(websocket.StatusGoingAway, "emulator shutting down")
	}))
	t.Cleanup(server.Close)

	dialer := NewWSDialer("ws" + strings.TrimPrefix(server.URL, "http"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := dialer.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	waitErr := make(chan error, 1)

	go func() { waitErr <- conn.Wait(ctx) }()

	if err := Press(ctx, conn, ButtonUp); err != nil {
		t.Fatalf("Press: %v", err)
	}

	down := <-frames
	up := <-frames

	if want := []byte{4, 1, 0, 0, 0, 0, 0xff, 0x52}; string(down) != string(want) {
		t.Errorf("key down frame = %v, want %v", down, want)
	}

	if up[1] != 0 {
		t.Errorf("key up frame = %v", up)
	}

	if err := <-waitErr; err == nil || !strings.Contains(err.Error(), "GoingAway") {
		t.Fatalf("Wait() = %v, want going-away close", err)
	}
}

func TestWSDialer_Refused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	if _, err := NewWSDialer(url).Dial(context.Background()); err == nil {
		t.Fatal("Dial to closed server succeeded")
	}
}
