package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/player"
	"github.com/reelix-cli/reelix/track"
	"github.com/samber/lo"
)

var ErrNotManifest = errors.New("not an HLS manifest")

// Variant is one EXT-X-STREAM-INF entry of a master playlist.
type Variant struct {
	URL        string
	Bandwidth  int
	Resolution string
	Codecs     string
}

// Manifest is a parsed playlist. A media playlist has no variants.
type Manifest struct {
	Variants []Variant
	Tracks   []track.Track
}

// HLS is an Engine that fetches the master playlist, picks the best variant
// under the bitrate ceiling and hands it to the element.
type HLS struct {
	client     *http.Client
	maxBitrate int
	buffer     BufferConfig

	mu       sync.Mutex
	el       player.Element
	handler  func(EngineEvent)
	tracks   []track.Track
	cancel   context.CancelFunc
	finished chan struct{}
}

// NewHLS returns an HLS engine using client for manifest requests.
func NewHLS(client *http.Client, maxBitrate int, buffer BufferConfig) *HLS {
	return &HLS{client: client, maxBitrate: maxBitrate, buffer: buffer}
}

// HLSFactory returns an EngineFactory building HLS engines.
func HLSFactory(client *http.Client, maxBitrate int) EngineFactory {
	return func(buffer BufferConfig) (Engine, bool) {
		return NewHLS(client, maxBitrate, buffer), true
	}
}

func (h *HLS) Attach(el player.Element) error {
	h.mu.Lock()
	h.el = el
	h.mu.Unlock()

	if b, ok := el.(player.Buffered); ok && (h.buffer.Ahead > 0 || h.buffer.Behind > 0) {
		if err := b.SetBuffer(h.buffer.Ahead, h.buffer.Behind); err != nil {
			return fmt.Errorf("set buffer: %w", err)
		}
	}
	return nil
}

func (h *HLS) OnEvent(handler func(EngineEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *HLS) Tracks() []track.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]track.Track(nil), h.tracks...)
}

// Load fetches the manifest in the background. Parsed or Failed follows.
func (h *HLS) Load(manifestURL string) {
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	h.finished = finished
	el := h.el
	h.mu.Unlock()

	go func() {
		defer close(finished)

		if el == nil {
			h.emit(ctx, EngineEvent{Kind: Failed, Fatal: true, Err: errors.New("hls: no element attached")})
			return
		}

		target, err := h.resolve(ctx, manifestURL)
		if err != nil {
			h.emit(ctx, EngineEvent{Kind: Failed, Fatal: true, Err: err})
			return
		}

		if ctx.Err() != nil {
			return
		}

		if err := el.Load(target); err != nil {
			h.emit(ctx, EngineEvent{Kind: Failed, Fatal: true, Err: fmt.Errorf("hls: load variant: %w", err)})
			return
		}

		h.emit(ctx, EngineEvent{Kind: Parsed})
	}()
}

func (h *HLS) resolve(ctx context.Context, manifestURL string) (string, error) {
	manifest, err := h.fetch(ctx, manifestURL)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.tracks = manifest.Tracks
	h.mu.Unlock()

	if len(manifest.Variants) == 0 {
		return manifestURL, nil
	}

	variant := SelectVariant(manifest.Variants, h.maxBitrate)
	log.Debugf("hls: picked %d bps variant of %d", variant.Bandwidth, len(manifest.Variants))
	return variant.URL, nil
}

func (h *HLS) fetch(ctx context.Context, manifestURL string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("hls: %w", err)
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hls: fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hls: fetch manifest: %s", resp.Status)
	}

	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("hls: %w", err)
	}

	return ParseManifest(resp.Body, base)
}

func (h *HLS) emit(ctx context.Context, ev EngineEvent) {
	if ctx.Err() != nil {
		return
	}

	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

// Destroy stops any manifest request and drops the element. No events are
// emitted afterwards.
func (h *HLS) Destroy() {
	h.mu.Lock()
	cancel, finished := h.cancel, h.finished
	h.cancel = nil
	h.el = nil
	h.handler = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-finished
	}
}

// SelectVariant returns the highest bandwidth variant not above maxBitrate,
// or the lowest one when all are above it. A non-positive maxBitrate means
// no ceiling.
func SelectVariant(variants []Variant, maxBitrate int) Variant {
	fitting := lo.Filter(variants, func(v Variant, _ int) bool {
		return maxBitrate <= 0 || v.Bandwidth <= maxBitrate
	})

	if len(fitting) == 0 {
		return lo.MinBy(variants, func(a, b Variant) bool { return a.Bandwidth < b.Bandwidth })
	}
	return lo.MaxBy(fitting, func(a, b Variant) bool { return a.Bandwidth > b.Bandwidth })
}

// ParseManifest reads an m3u8 playlist. Relative URIs are resolved against base.
func ParseManifest(r io.Reader, base *url.URL) (*Manifest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1<<20)

	var (
		manifest Manifest
		header   bool
		pending  *Variant
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !header {
			if line != "#EXTM3U" {
				return nil, ErrNotManifest
			}
			header = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			bandwidth, _ := strconv.Atoi(attrs["BANDWIDTH"])
			pending = &Variant{
				Bandwidth:  bandwidth,
				Resolution: attrs["RESOLUTION"],
				Codecs:     attrs["CODECS"],
			}
		case strings.HasPrefix(line, "#EXT-X-MEDIA:"):
			if t, ok := rendition(parseAttributes(strings.TrimPrefix(line, "#EXT-X-MEDIA:")), len(manifest.Tracks)); ok {
				manifest.Tracks = append(manifest.Tracks, t)
			}
		case strings.HasPrefix(line, "#"):
		default:
			if pending != nil {
				pending.URL = resolveURI(base, line)
				manifest.Variants = append(manifest.Variants, *pending)
				pending = nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("hls: read manifest: %w", err)
	}
	if !header {
		return nil, ErrNotManifest
	}

	return &manifest, nil
}

func rendition(attrs map[string]string, index int) (track.Track, bool) {
	var kind track.Kind
	switch attrs["TYPE"] {
	case "AUDIO":
		kind = track.Audio
	case "SUBTITLES":
		kind = track.Subtitle
	default:
		return track.Track{}, false
	}

	return track.Track{
		Index:    index,
		Kind:     kind,
		Label:    lo.CoalesceOrEmpty(attrs["NAME"], attrs["LANGUAGE"]),
		Language: attrs["LANGUAGE"],
		Default:  attrs["DEFAULT"] == "YES",
	}, true
}

// parseAttributes splits an attribute list such as
// BANDWIDTH=1280000,CODECS="avc1.4d401f,mp4a.40.2".
func parseAttributes(list string) map[string]string {
	attrs := make(map[string]string)

	for list != "" {
		eq := strings.IndexByte(list, '=')
		if eq < 0 {
			break
		}
		name := strings.TrimSpace(list[:eq])
		list = list[eq+1:]

		var value string
		if strings.HasPrefix(list, `"`) {
			end := strings.IndexByte(list[1:], '"')
			if end < 0 {
				value, list = list[1:], ""
			} else {
				value, list = list[1:end+1], list[end+2:]
			}
			list = strings.TrimPrefix(list, ",")
		} else {
			value, list, _ = strings.Cut(list, ",")
		}

		attrs[name] = value
	}

	return attrs
}

func resolveURI(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	resolved := base.ResolveReference(u)

	// Jellyfin authenticates variant playlists with the master's query.
	if resolved.RawQuery == "" && base.RawQuery != "" && resolved.Host == base.Host {
		resolved.RawQuery = base.RawQuery
	}
	return resolved.String()
}
