package player

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
)

// MPV is an Element backed by an mpv process controlled over JSON IPC.
type MPV struct {
	Emitter

	binary     string
	args       []string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	ipcMu      sync.Mutex
	listener   *EventListener

	mu          sync.Mutex
	time        float64
	duration    float64
	paused      bool
	volume      int
	muted       bool
	loaded      bool
	pendingSeek mo.Option[float64]
}

// NewMPV returns a player that will run binary with the extra args.
func NewMPV(binary string, args ...string) *MPV {
	return &MPV{
		binary: lo.Ternary(binary == "", "mpv", binary),
		args:   args,
		exited: make(chan struct{}),
		paused: true,
		volume: 100,
	}
}

// Attach connects to an mpv instance already listening on socketPath.
func Attach(socketPath string) (*MPV, error) {
	m := NewMPV("")
	m.socketPath = socketPath

	if err := m.listen(); err != nil {
		return nil, err
	}
	return m, nil
}

// Start launches an idle mpv window titled title and starts listening to it.
func (m *MPV) Start(title string) error {
	if m.socketPath != "" {
		return nil
	}

	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", random))

	safeTitle := sanitizeTitle(title)
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=no",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--title=%s", safeTitle),
	}
	args = append(args, m.args...)

	m.cmd = exec.Command(m.binary, args...)
	m.cmd.SysProcAttr = sysProcAttr()

	if err := m.cmd.Start(); err != nil {
		m.socketPath = ""
		return fmt.Errorf("start %s: %w", m.binary, err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing %s: socket never became ready", m.binary)
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	return m.listen()
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			_ = conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) listen() error {
	m.listener = NewEventListener(m.socketPath, m.handle)
	return m.listener.Start()
}

// Wait returns a channel closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) handle(msg ipcMessage) {
	switch msg.Event {
	case "property-change":
		m.propertyChanged(msg.Name, msg.Data)
	case "file-loaded":
		m.fileLoaded()
	case "end-file":
		m.fileEnded(msg.Reason, msg.FileError)
	}
}

func (m *MPV) propertyChanged(name string, data json.RawMessage) {
	var number float64
	var flag bool

	m.mu.Lock()
	loaded := m.loaded
	var ev mo.Option[Event]

	switch name {
	case "time-pos":
		if json.Unmarshal(data, &number) == nil && loaded {
			m.time = number
			ev = mo.Some(Event{Kind: TimeUpdate, Time: number, Duration: m.duration})
		}
	case "duration":
		if json.Unmarshal(data, &number) == nil {
			m.duration = number
		}
	case "pause":
		if json.Unmarshal(data, &flag) == nil && flag != m.paused {
			m.paused = flag
			if loaded {
				ev = mo.Some(Event{Kind: lo.Ternary(flag, Pause, Play), Time: m.time})
			}
		}
	case "volume":
		if json.Unmarshal(data, &number) == nil {
			m.volume = int(number)
			ev = mo.Some(Event{Kind: VolumeChange, Time: m.time})
		}
	case "mute":
		if json.Unmarshal(data, &flag) == nil {
			m.muted = flag
			ev = mo.Some(Event{Kind: VolumeChange, Time: m.time})
		}
	}
	m.mu.Unlock()

	if e, ok := ev.Get(); ok {
		m.Emit(e)
	}
}

func (m *MPV) fileLoaded() {
	var duration float64
	if data, err := m.sendCommand("get_property", "duration"); err == nil {
		_ = json.Unmarshal(data, &duration)
	}

	m.mu.Lock()
	m.loaded = true
	if duration > 0 {
		m.duration = duration
	}
	pending := m.pendingSeek
	m.pendingSeek = mo.None[float64]()
	m.mu.Unlock()

	if at, ok := pending.Get(); ok {
		if _, err := m.sendCommand("seek", at, "absolute"); err != nil {
			log.Warnf("deferred seek to %.1f: %s", at, err)
		}
	}

	m.mu.Lock()
	ev := Event{Kind: LoadedMetadata, Time: m.time, Duration: m.duration}
	m.mu.Unlock()
	m.Emit(ev)
}

func (m *MPV) fileEnded(reason, fileError string) {
	m.mu.Lock()
	m.loaded = false
	at := m.time
	m.mu.Unlock()

	switch reason {
	case "eof":
		m.Emit(Event{Kind: Ended, Time: at})
	case "error":
		m.Emit(Event{Kind: Error, Time: at, Err: fmt.Errorf("mpv: %s", lo.CoalesceOrEmpty(fileError, "playback error"))})
	}
}

// Load replaces the current file. The new file starts paused.
func (m *MPV) Load(rawURL string) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	m.mu.Lock()
	m.loaded = false
	m.time = 0
	m.duration = 0
	m.pendingSeek = mo.None[float64]()
	m.mu.Unlock()

	if err := m.set("pause", true); err != nil {
		return err
	}
	_, err = m.sendCommand("loadfile", target, "replace")
	return err
}

// SetTitle changes the window and media title.
func (m *MPV) SetTitle(title string) error {
	return m.set("force-media-title", sanitizeTitle(title))
}

func (m *MPV) Unload() error {
	m.mu.Lock()
	m.loaded = false
	m.mu.Unlock()

	_, err := m.sendCommand("stop")
	return err
}

func (m *MPV) Play() error {
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	return m.set("pause", true)
}

// Seek moves to an absolute position. Seeks issued before the file has
// loaded are applied once it has.
func (m *MPV) Seek(seconds float64) error {
	m.mu.Lock()
	if !m.loaded {
		m.pendingSeek = mo.Some(seconds)
		m.time = seconds
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

func (m *MPV) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MPV) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MPV) SetVolume(percent int) error {
	return m.set("volume", lo.Clamp(percent, 0, 100))
}

func (m *MPV) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted)
}

func (m *MPV) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// CanPlayNative reports true for adaptive formats: mpv demuxes HLS and DASH
// through ffmpeg.
func (m *MPV) CanPlayNative(format string) bool {
	switch strings.ToLower(format) {
	case "hls", "dash":
		return true
	default:
		return false
	}
}

func (m *MPV) AddTextTrack(track TextTrack) error {
	target, err := sanitizeMediaTarget(track.URL)
	if err != nil {
		return fmt.Errorf("invalid subtitle target: %w", err)
	}
	_, err = m.sendCommand("sub-add", target, "select", sanitizeTitle(track.Label), track.Language)
	return err
}

// ClearTextTracks removes every external subtitle track.
func (m *MPV) ClearTextTracks() error {
	data, err := m.sendCommand("get_property", "track-list")
	if err != nil {
		return err
	}

	var tracks []struct {
		ID       int    `json:"id"`
		Type     string `json:"type"`
		External bool   `json:"external"`
	}
	if err := json.Unmarshal(data, &tracks); err != nil {
		return fmt.Errorf("track-list: %w", err)
	}

	for _, t := range tracks {
		if t.Type == "sub" && t.External {
			if _, err := m.sendCommand("sub-remove", t.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetBuffer bounds the demuxer cache. The back buffer is sized assuming
// about one MiB per second of media.
func (m *MPV) SetBuffer(ahead, behind time.Duration) error {
	if err := m.set("demuxer-readahead-secs", ahead.Seconds()); err != nil {
		return err
	}
	if err := m.set("cache-secs", ahead.Seconds()); err != nil {
		return err
	}
	return m.set("demuxer-max-back-bytes", fmt.Sprintf("%dMiB", int(behind.Seconds())))
}

func (m *MPV) set(property string, value any) error {
	if m.socketPath == "" {
		return ErrNotRunning
	}
	_, err := m.sendCommand("set_property", property, value)
	return err
}

// Close stops listening, quits mpv and removes the socket.
func (m *MPV) Close() error {
	if m.socketPath == "" {
		return nil
	}

	if m.listener != nil {
		m.listener.Stop()
	}

	if m.cmd == nil {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// sanitizeMediaTarget rejects anything mpv could parse as an option and
// URLs with schemes other than http(s).
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
