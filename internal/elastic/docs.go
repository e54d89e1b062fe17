package elastic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

type ClubDoc struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Logo        string    `json:"logo"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func BuildClubDoc(c models.Club) ([]byte, error) {
	return json.Marshal(ClubDoc{
		Name: c.Name, Slug: c.Slug, Description: c.Description, Status: c.Status, Logo: c.Logo, UpdatedAt: c.UpdatedAt,
	})
}

type MediaDoc struct {
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Sport       string    `json:"sport"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func BuildMediaDoc(m models.Media) ([]byte, error) {
	tags := m.TagList()
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(MediaDoc{m.Title, m.Type, m.Sport, m.Description, tags, m.URL, m.CreatedAt, m.UpdatedAt})
}

// PressDoc leaves out empty publish dates; the index maps the field as date.
type PressDoc struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"author_name"`
	Source      string    `json:"source"`
	NewsLink    string    `json:"news_link"`
	PublishDate string    `json:"publish_date,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func BuildPressDoc(p models.Press) ([]byte, error) {
	doc := PressDoc{
		Type: p.Type, Title: p.Title, Content: p.Content, AuthorName: p.AuthorName,
		Source: p.Source, NewsLink: p.NewsLink, UpdatedAt: p.UpdatedAt,
	}
	if d := time.Time(p.PublishDate); !d.IsZero() {
		doc.PublishDate = d.Format(time.DateOnly)
	}
	return json.Marshal(doc)
}

// BuildDoc decodes a change feed row of table and renders its search document.
func BuildDoc(table string, row json.RawMessage) ([]byte, error) {
	switch table {
	case models.TableClubs:
		var c models.Club
		if err := json.Unmarshal(row, &c); err != nil {
			return nil, err
		}
		return BuildClubDoc(c)
	case models.TableMedia:
		var m models.Media
		if err := json.Unmarshal(row, &m); err != nil {
			return nil, err
		}
		return BuildMediaDoc(m)
	case models.TablePress:
		var p models.Press
		if err := json.Unmarshal(row, &p); err != nil {
			return nil, err
		}
		return BuildPressDoc(p)
	}
	return nil, fmt.Errorf("no search document for table=%s", table)
}
