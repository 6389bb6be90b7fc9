package testutil

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// ContextWithTimeout returns a context cancelled when the test ends.
func ContextWithTimeout(t testing.TB, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

// ListenTCP creates a listener on a random loopback port.
// The listener is closed when the test ends.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}
	t.Cleanup(func() {
		_ = listener.Close()
	})
	return listener, listener.Addr().String()
}

// DialWebsocket polls url until the websocket handshake succeeds.
// Used instead of time.Sleep while a server goroutine starts.
//
// Example:
//
//	go srv.Serve(ctx, ln)
//	conn, err := testutil.DialWebsocket(ctx, "ws://"+addr+"/quests")
func DialWebsocket(ctx context.Context, url string) (*websocket.Conn, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for server at %s: %w", url, err)
		case <-ticker.C:
		}
	}
}
