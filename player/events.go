package player

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/reelix-cli/reelix/log"
)

// observed lists the properties the listener subscribes to.
var observed = []string{"time-pos", "duration", "pause", "volume", "mute"}

// EventListener keeps one connection open to mpv, observes properties on it
// and hands every property change and event to its callback.
type EventListener struct {
	socketPath string
	callback   func(ipcMessage)

	mu   sync.Mutex
	conn net.Conn
	done chan struct{}
}

// NewEventListener returns a listener for the given socket.
func NewEventListener(socketPath string, callback func(ipcMessage)) *EventListener {
	return &EventListener{socketPath: socketPath, callback: callback}
}

// Start connects and begins observing. It is a no-op when already started.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.conn != nil {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	// observe_property only reports to the connection that issued it.
	for i, name := range observed {
		id := requestIDs.Add(1)
		if err := writeCommand(conn, id, []any{"observe_property", i + 1, name}); err != nil {
			_ = conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.done = make(chan struct{})
	go el.readLoop(conn, el.done)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to return.
func (el *EventListener) Stop() {
	el.mu.Lock()
	conn, done := el.conn, el.done
	el.conn = nil
	el.mu.Unlock()

	if conn == nil {
		return
	}
	_ = conn.Close()
	<-done
}

func (el *EventListener) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	scanner := newLineScanner(conn)
	for scanner.Scan() {
		msg, ok := parseMessage(scanner.Bytes())
		if ok && msg.Event != "" {
			el.callback(msg)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warnf("mpv event listener: %s", err)
	}
}
