// Package newsfeed turns RSS and Atom items about the event into news press
// entries.
package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirdesai22/sportsfest-sync/internal/collections"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

const maxSummary = 500

type Importer struct {
	press  *collections.Press
	parser *gofeed.Parser
}

func NewImporter(press *collections.Press) *Importer {
	return &Importer{press: press, parser: gofeed.NewParser()}
}

// Import fetches feedURL and stores its new items. It returns how many
// press entries were created.
func (im *Importer) Import(ctx context.Context, feedURL string) (int, error) {
	parsed, err := im.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return 0, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return im.ImportFeed(ctx, parsed)
}

// ImportFeed stores every item whose link is not already a news entry.
// Items that fail validation are logged and skipped.
func (im *Importer) ImportFeed(ctx context.Context, feed *gofeed.Feed) (int, error) {
	created := 0
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		exists, err := im.press.HasNewsLink(ctx, link)
		if err != nil {
			return created, fmt.Errorf("lookup %s: %w", link, err)
		}
		if exists {
			continue
		}

		in := collections.PressInput{
			Type:     models.PressNews,
			Title:    item.Title,
			NewsLink: link,
			Source:   feed.Title,
			Content:  summary(item),
		}
		if item.Author != nil {
			in.AuthorName = item.Author.Name
		}
		if item.Image != nil {
			in.ImageURL = item.Image.URL
		}
		if item.PublishedParsed != nil {
			in.PublishDate = item.PublishedParsed.UTC().Format(time.DateOnly)
		}

		if _, err := im.press.Create(ctx, in); err != nil {
			if errors.Is(err, collections.ErrValidation) {
				log.Printf("❌ skipping feed item %s: %v", link, err)
				continue
			}
			return created, err
		}
		created++
	}
	log.Printf("✅ imported %d news items from %q", created, feed.Title)
	return created, nil
}

func summary(item *gofeed.Item) string {
	s := strings.TrimSpace(item.Description)
	if s == "" {
		s = strings.TrimSpace(item.Content)
	}
	if r := []rune(s); len(r) > maxSummary {
		s = string(r[:maxSummary]) + "…"
	}
	return s
}
