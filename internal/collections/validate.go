package collections

import (
	"net/mail"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Upload size limits, checked before anything reaches storage.
const (
	MaxLogoSize  = 5 << 20
	MaxImageSize = 5 << 20
	MaxPhotoSize = 10 << 20
)

// Upload is a file handed to a mutation for storage.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func checkImage(field string, u *Upload, max int) error {
	if u == nil || len(u.Data) == 0 {
		return invalid(field, "file is required")
	}
	if len(u.Data) > max {
		return invalid(field, "file is %d bytes, limit is %d MB", len(u.Data), max>>20)
	}
	if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		return invalid(field, "file type %q is not an image", u.ContentType)
	}
	return nil
}

// objectPath names a stored object: dir/<uuid><ext>.
func objectPath(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return dir + "/" + uuid.NewString() + ext
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives a club slug: lowercased, non-word characters removed,
// whitespace runs turned into single hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWord.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// YouTubeID extracts the video id from watch, short, embed and youtu.be URLs.
func YouTubeID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", invalid("youtube_url", "%q is not a YouTube URL", raw)
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch host {
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case segs[0] == "watch":
			id = u.Query().Get("v")
		case len(segs) == 2 && (segs[0] == "embed" || segs[0] == "shorts" || segs[0] == "v" || segs[0] == "live"):
			id = segs[1]
		}
	case "youtu.be":
		if len(segs) == 1 {
			id = segs[0]
		}
	default:
		return "", invalid("youtube_url", "%q is not a YouTube URL", raw)
	}
	if !youtubeID.MatchString(id) {
		return "", invalid("youtube_url", "no video id in %q", raw)
	}
	return id, nil
}

func YouTubeThumbnail(id string) string {
	return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "%q must be one of %s", value, strings.Join(allowed, ", "))
}

func checkEmail(field, value string) error {
	if _, err := mail.ParseAddress(value); err != nil {
		return invalid(field, "%q is not a valid email address", value)
	}
	return nil
}

func checkLink(field, value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(field, "%q is not a valid link", value)
	}
	return nil
}

func parseDate(field, value string) (datatypes.Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return datatypes.Date{}, invalid(field, "%q is not a date (YYYY-MM-DD)", value)
	}
	return datatypes.Date(t), nil
}

func parseClock(field, value string) (datatypes.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0), nil
		}
	}
	return 0, invalid(field, "%q is not a time (HH:MM)", value)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
