package extractor

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"math"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/fetcher"
)

const (
	watchPageURL   = "https://www.youtube.com/watch?v="
	playerEndpoint = "https://www.youtube.com/youtubei/v1/player?key="
	// The Android client gets caption tracks without consent redirects.
	androidClientVersion = "20.10.38"
)

var (
	videoIDPattern      = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11}).*`)
	innertubeKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([^"]+)"`)
)

// transcriptLanguages is the caption language preference, most useful first.
var transcriptLanguages = []string{"ko", "en", "ja", "zh-Hans"}

// YouTubeExtractor returns video transcripts as timestamped text. When a
// Data API key is configured the video title and channel are prepended.
type YouTubeExtractor struct {
	BaseExtractor
	youtubeService *youtube.Service
}

// NewYouTubeExtractor creates a transcript extractor. A missing or broken
// Data API setup only drops the metadata header, never the transcript.
func NewYouTubeExtractor(cfg *config.AppConfig, client *fetcher.Client) *YouTubeExtractor {
	e := &YouTubeExtractor{BaseExtractor: NewBaseExtractor(cfg, client)}
	if cfg.HasYouTubeConfig() {
		service, err := youtube.NewService(context.Background(), option.WithAPIKey(cfg.YouTubeAPIKey))
		if err != nil {
			log.Warn().Err(err).Msg("youtube data api client unavailable, transcripts only")
		} else {
			e.youtubeService = service
		}
	}
	return e
}

func (e *YouTubeExtractor) CanHandle(url string) bool {
	return strings.Contains(url, "youtube.com")
}

// VideoID extracts the 11-character video id from watch, embed, and short
// URL forms.
func VideoID(url string) string {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Extract fetches the caption transcript, with the Data API metadata
// lookup running alongside when available.
func (e *YouTubeExtractor) Extract(ctx context.Context, url string) (string, error) {
	videoID := VideoID(url)
	if videoID == "" {
		return "", fmt.Errorf("youtube: no video id in %q", url)
	}

	var (
		wg         sync.WaitGroup
		header     string
		transcript string
		trErr      error
	)
	if e.youtubeService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			header = e.videoHeader(ctx, videoID)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		transcript, trErr = e.transcript(ctx, videoID)
	}()
	wg.Wait()

	if trErr != nil {
		return "", trErr
	}
	return header + transcript, nil
}

// videoHeader asks the Data API for title and channel. Failures drop the
// header rather than the extraction.
func (e *YouTubeExtractor) videoHeader(ctx context.Context, videoID string) string {
	call := e.youtubeService.Videos.List([]string{"snippet"}).Id(videoID)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("youtube metadata lookup failed")
		return ""
	}
	if len(resp.Items) == 0 {
		return ""
	}
	snippet := resp.Items[0].Snippet
	return fmt.Sprintf("Title: %s\nChannel: %s\n", snippet.Title, snippet.ChannelTitle)
}

func (e *YouTubeExtractor) transcript(ctx context.Context, videoID string) (string, error) {
	key, err := e.innertubeKey(ctx, videoID)
	if err != nil {
		return "", err
	}
	track, err := e.captionTrack(ctx, key, videoID)
	if err != nil {
		return "", err
	}
	return e.fetchTranscript(ctx, track.BaseURL)
}

// innertubeKey scrapes the API key the watch page embeds for its own
// player calls.
func (e *YouTubeExtractor) innertubeKey(ctx context.Context, videoID string) (string, error) {
	page, err := e.Fetcher.GetBytes(ctx, watchPageURL+videoID)
	if err != nil {
		return "", fmt.Errorf("youtube: watch page: %w", err)
	}
	m := innertubeKeyPattern.FindSubmatch(page)
	if m == nil {
		return "", errors.New("youtube: innertube key not found in watch page")
	}
	return string(m[1]), nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

// captionTrack lists the video's caption tracks through the player
// endpoint and picks the preferred one.
func (e *YouTubeExtractor) captionTrack(ctx context.Context, key, videoID string) (*captionTrack, error) {
	body, err := json.Marshal(map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":        "ANDROID",
				"clientVersion":     androidClientVersion,
				"androidSdkVersion": 30,
			},
		},
		"videoId": videoID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerEndpoint+key, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: player call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube: player call status %d", resp.StatusCode)
	}

	var pr playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("youtube: player response: %w", err)
	}

	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		if reason := pr.PlayabilityStatus.Reason; reason != "" {
			return nil, fmt.Errorf("youtube: no captions: %s", reason)
		}
		return nil, errors.New("youtube: video has no captions")
	}
	track := selectCaptionTrack(tracks)
	if track == nil {
		return nil, errors.New("youtube: no captions in supported languages")
	}
	return track, nil
}

// selectCaptionTrack prefers manually created tracks over auto-generated
// ones, in transcript language order.
func selectCaptionTrack(tracks []captionTrack) *captionTrack {
	for _, lang := range transcriptLanguages {
		for i := range tracks {
			if tracks[i].Kind != "asr" && tracks[i].LanguageCode == lang {
				return &tracks[i]
			}
		}
	}
	for _, lang := range transcriptLanguages {
		for i := range tracks {
			if tracks[i].Kind == "asr" && tracks[i].LanguageCode == lang {
				return &tracks[i]
			}
		}
	}
	return nil
}

type timedTextDocument struct {
	Texts []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

// fetchTranscript downloads the caption track and renders the timestamped
// transcript block.
func (e *YouTubeExtractor) fetchTranscript(ctx context.Context, baseURL string) (string, error) {
	raw, err := e.Fetcher.GetBytes(ctx, baseURL)
	if err != nil {
		return "", fmt.Errorf("youtube: caption fetch: %w", err)
	}
	var doc timedTextDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("youtube: caption parse: %w", err)
	}

	var b strings.Builder
	b.WriteString("### Transcript\n")
	for _, line := range doc.Texts {
		// Caption text arrives double-escaped.
		text := strings.TrimSpace(html.UnescapeString(line.Body))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s - %s]: %s\n", formatTimestamp(line.Start), formatTimestamp(line.Start+line.Dur), text)
	}
	return b.String(), nil
}

func formatTimestamp(seconds float64) string {
	total := int(math.Round(seconds))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
