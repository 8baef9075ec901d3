package media

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var youtubeRegex = regexp.MustCompile(`(?:https?:\/\/)?(?:www\.|music\.|m\.)?(youtube\.com|youtu\.be)\/\S+`)

// IsURL reports whether s looks like an http(s) link.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ContainsURL reports whether s contains an http(s) link anywhere.
func ContainsURL(s string) bool {
	return strings.Contains(s, "http://") || strings.Contains(s, "https://")
}

func isYouTubeURL(s string) bool {
	return IsURL(s) && youtubeRegex.MatchString(s)
}

// extractYouTubeID pulls the video id out of a watch or short link.
func extractYouTubeID(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid YouTube URL: %w", err)
	}

	var id string
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				id = parts[1]
			}
		}
	}

	if id == "" {
		return "", errors.New("unsupported YouTube URL format")
	}
	return id, nil
}
