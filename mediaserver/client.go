// Package mediaserver is a client for the Jellyfin/Emby HTTP API: item
// metadata, episode listings, playback sessions and session reporting.
package mediaserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/network"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated, run \"reelix login\"")
	ErrNotFound         = errors.New("not found")
	ErrNoMediaSource    = errors.New("item has no playable media source")
)

// Client talks to one media server on behalf of one user.
type Client struct {
	BaseURL  string
	UserID   string
	Token    string
	DeviceID string
	HTTP     *http.Client
}

// New returns a client using the shared network client.
func New(baseURL, userID, token, deviceID string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		UserID:   userID,
		Token:    token,
		DeviceID: deviceID,
		HTTP:     network.Client,
	}
}

func (c *Client) authorization() string {
	parts := []string{
		fmt.Sprintf(`Client="%s"`, constant.Reelix),
		fmt.Sprintf(`Device="%s"`, constant.DeviceName),
		fmt.Sprintf(`DeviceId="%s"`, c.DeviceID),
		fmt.Sprintf(`Version="%s"`, constant.Version),
	}
	if c.Token != "" {
		parts = append(parts, fmt.Sprintf(`Token="%s"`, c.Token))
	}
	return "MediaBrowser " + strings.Join(parts, ", ")
}

func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a request and decodes a JSON response into out, when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return err
	}

	req.Header.Set("X-Emby-Authorization", c.authorization())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constant.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("%s %s", method, path)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrNotAuthenticated
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

const itemFields = "Chapters,Overview,SeriesId,ParentId"

// Item fetches an item with its chapters and user data.
func (c *Client) Item(ctx context.Context, id string) (*Item, error) {
	var item Item
	path := fmt.Sprintf("/Users/%s/Items/%s", url.PathEscape(c.UserID), url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Episodes lists the episodes of a series ordered by season, then episode.
// Entries without numbers sort last.
func (c *Client) Episodes(ctx context.Context, seriesID string) ([]*Item, error) {
	query := url.Values{
		"UserId": {c.UserID},
		"Fields": {itemFields},
	}

	var result itemsResult
	path := fmt.Sprintf("/Shows/%s/Episodes", url.PathEscape(seriesID))
	if err := c.do(ctx, http.MethodGet, path, query, nil, &result); err != nil {
		return nil, err
	}

	SortEpisodes(result.Items)
	return result.Items, nil
}

// SortEpisodes orders items by (season, episode) in place.
func SortEpisodes(items []*Item) {
	number := func(n *int) int {
		if n == nil {
			return int(^uint(0) >> 1)
		}
		return *n
	}

	slices.SortStableFunc(items, func(a, b *Item) int {
		if sa, sb := number(a.Season), number(b.Season); sa != sb {
			return compare(sa, sb)
		}
		return compare(number(a.Episode), number(b.Episode))
	})
}

func compare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Search looks up playable items and series by name.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]*Item, error) {
	query := url.Values{
		"SearchTerm":       {term},
		"Recursive":        {"true"},
		"IncludeItemTypes": {strings.Join([]string{TypeMovie, TypeEpisode, TypeSeries, TypeVideo}, ",")},
		"Limit":            {fmt.Sprint(limit)},
		"Fields":           {itemFields},
	}

	var result itemsResult
	path := fmt.Sprintf("/Users/%s/Items", url.PathEscape(c.UserID))
	if err := c.do(ctx, http.MethodGet, path, query, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// Resume lists partially watched items, most recent first.
func (c *Client) Resume(ctx context.Context, limit int) ([]*Item, error) {
	query := url.Values{
		"Limit":      {fmt.Sprint(limit)},
		"MediaTypes": {"Video"},
		"Fields":     {itemFields},
	}

	var result itemsResult
	path := fmt.Sprintf("/Users/%s/Items/Resume", url.PathEscape(c.UserID))
	if err := c.do(ctx, http.MethodGet, path, query, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// PlaybackInfo opens a playback session and returns its descriptor.
func (c *Client) PlaybackInfo(ctx context.Context, req PlaybackRequest) (*Descriptor, error) {
	body := playbackInfoBody{
		UserID:              c.UserID,
		MaxStreamingBitrate: req.MaxBitrate,
		StartTimeTicks:      req.ResumeTicks,
		AudioStreamIndex:    req.Audio,
		SubtitleStreamIndex: req.Subtitle,
		EnableDirectPlay:    true,
		EnableDirectStream:  true,
		EnableTranscoding:   true,
		AutoOpenLiveStream:  true,
		DeviceProfile:       PlayerProfile(constant.DeviceName, req.MaxBitrate),
	}

	var result playbackInfoResult
	path := fmt.Sprintf("/Items/%s/PlaybackInfo", url.PathEscape(req.ItemID))
	query := url.Values{"UserId": {c.UserID}}
	if err := c.do(ctx, http.MethodPost, path, query, body, &result); err != nil {
		return nil, err
	}

	if result.ErrorCode != "" {
		return nil, fmt.Errorf("playback info for %s: %s", req.ItemID, result.ErrorCode)
	}

	return c.descriptor(req.ItemID, &result)
}

func (c *Client) descriptor(itemID string, result *playbackInfoResult) (*Descriptor, error) {
	source, ok := lo.First(result.MediaSources)
	if !ok {
		return nil, ErrNoMediaSource
	}

	sessionID := result.PlaySessionID
	if sessionID == "" {
		sessionID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	d := &Descriptor{
		ItemID:        itemID,
		PlaySessionID: sessionID,
		MediaSourceID: source.ID,
		Streams: lo.Map(source.MediaStreams, func(s MediaStream, _ int) MediaStream {
			if s.DeliveryURL != "" {
				s.DeliveryURL = c.absolute(s.DeliveryURL)
			}
			return s
		}),
	}

	if source.TranscodingURL != "" {
		d.StreamURL = c.absolute(source.TranscodingURL)
		d.Transcoding = true
		return d, nil
	}

	query := url.Values{
		"static":        {"true"},
		"MediaSourceId": {source.ID},
		"PlaySessionId": {sessionID},
		"DeviceId":      {c.DeviceID},
		"api_key":       {c.Token},
	}
	if source.Container != "" {
		query.Set("Container", source.Container)
	}
	d.StreamURL = c.url(fmt.Sprintf("/Videos/%s/stream", url.PathEscape(itemID)), query)
	return d, nil
}

// absolute resolves server-relative paths against BaseURL.
func (c *Client) absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// ReportStart announces that a playback session began.
func (c *Client) ReportStart(ctx context.Context, r Report) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing", nil, r, nil)
}

// ReportProgress sends a position heartbeat.
func (c *Client) ReportProgress(ctx context.Context, r Report) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing/Progress", nil, r, nil)
}

// ReportStop announces that a playback session ended.
func (c *Client) ReportStop(ctx context.Context, r Report) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing/Stopped", nil, r, nil)
}

// AuthenticateByName signs in with a user name and password. On success the
// client adopts the returned token and user id.
func (c *Client) AuthenticateByName(ctx context.Context, user, password string) (*Auth, error) {
	body := map[string]string{"Username": user, "Pw": password}

	var auth Auth
	if err := c.do(ctx, http.MethodPost, "/Users/AuthenticateByName", nil, body, &auth); err != nil {
		return nil, err
	}

	c.Token = auth.AccessToken
	c.UserID = auth.User.ID
	return &auth, nil
}

// ItemPage returns the web UI page of an item.
func (c *Client) ItemPage(id string) string {
	return fmt.Sprintf("%s/web/index.html#!/details?id=%s", c.BaseURL, url.QueryEscape(id))
}
