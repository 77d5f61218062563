package activitypub

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"path"
	"regexp"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/fediarchive/internal/container"
	"github.com/mrlokans/fediarchive/internal/entities"
)

var mediaPattern = regexp.MustCompile(`(^|/)` + regexp.QuoteMeta(MediaDir))

// mimeTypes maps lower-case extensions to MIME types. The content is never sniffed.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".heic": "image/heic",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
}

const defaultMIMEType = "application/octet-stream"

// MIMEType returns the MIME type for a file name's extension.
func MIMEType(name string) string {
	if mime, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return mime
	}
	return defaultMIMEType
}

// MediaKindFor groups a MIME type into image, video, audio or unknown.
func MediaKindFor(mime string) entities.MediaKind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return entities.MediaKindImage
	case strings.HasPrefix(mime, "video/"):
		return entities.MediaKindVideo
	case strings.HasPrefix(mime, "audio/"):
		return entities.MediaKindAudio
	default:
		return entities.MediaKindUnknown
	}
}

// Media decodes every file under a media_attachments directory. Files are read
// in fixed-width concurrent batches; a file that fails is logged and dropped.
// When two entries share a file name the later one wins.
func (d *Decoder) Media(ctx context.Context, c container.Container, progress ProgressFunc) ([]entities.Media, Stats, error) {
	var entries []container.Entry
	for _, e := range c.Find(mediaPattern) {
		if !e.IsDir() {
			entries = append(entries, e)
		}
	}

	stats := Stats{Total: len(entries)}
	results := make([]*entities.Media, len(entries))
	width := d.batchWidth()

	progress.Report(StageMedia, 0, stats.Total)
	for start := 0; start < len(entries); start += width {
		end := min(start+width, len(entries))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				media, err := decodeMediaEntry(entries[i])
				if err != nil {
					log.Printf("[IMPORT] Skipping media file %s: %v", entries[i].Name(), err)
					return nil
				}
				results[i] = media
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}
		progress.Report(StageMedia, end, stats.Total)
	}

	byID := make(map[string]int, len(results))
	media := make([]entities.Media, 0, len(results))
	for _, m := range results {
		if m == nil {
			stats.Skipped++
			continue
		}
		if pos, ok := byID[m.ID]; ok {
			media[pos] = *m
			stats.Skipped++
			continue
		}
		byID[m.ID] = len(media)
		media = append(media, *m)
	}
	return media, stats, nil
}

func decodeMediaEntry(e container.Entry) (*entities.Media, error) {
	data, err := e.Bytes()
	if err != nil {
		return nil, err
	}

	name := path.Base(e.Name())
	mime := MIMEType(name)
	media := &entities.Media{
		ID:       name,
		Path:     e.Name(),
		Kind:     MediaKindFor(mime),
		MIMEType: mime,
		Size:     int64(len(data)),
		Data:     data,
	}

	if media.Kind == entities.MediaKindImage {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			w, h := cfg.Width, cfg.Height
			media.Width, media.Height = &w, &h
		}
	}
	return media, nil
}
