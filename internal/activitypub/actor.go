package activitypub

import (
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mrlokans/fediarchive/internal/container"
	"github.com/mrlokans/fediarchive/internal/entities"
)

// Actor decodes the archive owner's profile. The avatar and header images are
// loaded from the archive when the actor document points at them.
func (d *Decoder) Actor(c container.Container, progress ProgressFunc) (*entities.Account, error) {
	progress.Report(StageActor, 0, 1)

	entry, ok := locate(c, ActorPath)
	if !ok {
		return nil, ErrActorNotFound
	}
	data, err := entry.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read actor document: %w", err)
	}

	var actor Actor
	if err := json.Unmarshal(data, &actor); err != nil {
		return nil, fmt.Errorf("failed to parse actor document: %w", err)
	}
	if strings.TrimSpace(actor.ID) == "" {
		return nil, ErrActorMissingID
	}

	account := &entities.Account{
		ID:          strings.TrimSpace(actor.ID),
		Username:    actor.PreferredUsername,
		DisplayName: actor.Name,
		Bio:         actor.Summary,
	}
	if account.DisplayName == "" {
		account.DisplayName = account.Username
	}
	if created, ok := parseTime(actor.Published); ok {
		account.AccountCreatedAt = created
	}

	for _, field := range actor.Attachment {
		if field.Type != "" && field.Type != "PropertyValue" {
			continue
		}
		if field.Name == "" && field.Value == "" {
			continue
		}
		account.Fields = append(account.Fields, entities.ProfileField{Name: field.Name, Value: field.Value})
	}

	baseDir := path.Dir(entry.Name())
	if data, mime, ok := loadImage(c, baseDir, actor.Icon.Href); ok {
		account.Avatar, account.AvatarMIME = data, mime
	}
	if data, mime, ok := loadImage(c, baseDir, actor.Image.Href); ok {
		account.Header, account.HeaderMIME = data, mime
	}

	progress.Report(StageActor, 1, 1)
	return account, nil
}

// loadImage resolves href against the archive: as given, relative to the actor
// document's directory, then by file name anywhere in the archive.
func loadImage(c container.Container, baseDir, href string) ([]byte, string, bool) {
	p := archivePath(href)
	if p == "" {
		return nil, "", false
	}

	candidates := []string{p}
	if baseDir != "." && baseDir != "" {
		candidates = append(candidates, path.Join(baseDir, p))
	}

	var entry container.Entry
	for _, candidate := range candidates {
		if e, ok := c.File(candidate); ok && !e.IsDir() {
			entry = e
			break
		}
	}
	if entry == nil {
		pattern := regexp.MustCompile(`(^|/)` + regexp.QuoteMeta(p) + `$`)
		for _, e := range c.Find(pattern) {
			if !e.IsDir() {
				entry = e
				break
			}
		}
	}
	if entry == nil {
		return nil, "", false
	}

	data, err := entry.Bytes()
	if err != nil {
		log.Printf("[IMPORT] Failed to read profile image %s: %v", entry.Name(), err)
		return nil, "", false
	}
	return data, MIMEType(entry.Name()), true
}
