package elastic

import (
	"bytes"
	"context"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

const (
	IdxClubs = "clubs_v1"
	IdxMedia = "media_v1"
	IdxPress = "press_v1"
)

// IndexFor maps a table onto its search index. Tables without site search
// return ok == false.
func IndexFor(table string) (string, bool) {
	switch table {
	case models.TableClubs:
		return IdxClubs, true
	case models.TableMedia:
		return IdxMedia, true
	case models.TablePress:
		return IdxPress, true
	}
	return "", false
}

func EnsureIndexes(ctx context.Context, c *es.Client) error {
	mapping := `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"name":{"type":"text"},"slug":{"type":"keyword"},"description":{"type":"text"},
		"status":{"type":"keyword"},"logo":{"type":"keyword","index":false},"updated_at":{"type":"date"}
	}}}`
	if err := ensure(ctx, c, IdxClubs, mapping); err != nil {
		return err
	}

	mapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"title":{"type":"text"},"type":{"type":"keyword"},"sport":{"type":"keyword"},
		"description":{"type":"text"},"tags":{"type":"keyword"},"url":{"type":"keyword","index":false},
		"created_at":{"type":"date"},"updated_at":{"type":"date"}
	}}}`
	if err := ensure(ctx, c, IdxMedia, mapping); err != nil {
		return err
	}

	mapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"type":{"type":"keyword"},"title":{"type":"text"},"content":{"type":"text"},
		"author_name":{"type":"text"},"source":{"type":"keyword"},"news_link":{"type":"keyword"},
		"publish_date":{"type":"date"},"updated_at":{"type":"date"}
	}}}`
	return ensure(ctx, c, IdxPress, mapping)
}

func ensure(ctx context.Context, c *es.Client, index, body string) error {
	exists, err := c.Indices.Exists([]string{index}, c.Indices.Exists.WithContext(ctx))
	if err == nil {
		defer exists.Body.Close()
		if exists.StatusCode == 200 {
			return nil
		}
	}
	res, err := c.Indices.Create(index, c.Indices.Create.WithBody(bytes.NewBufferString(body)), c.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
