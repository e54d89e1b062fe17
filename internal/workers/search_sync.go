package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/elastic"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
)

var searchTables = []string{models.TableClubs, models.TableMedia, models.TablePress}

// SearchSync mirrors the searchable tables into Elasticsearch from the change
// feed. Events are queued so the feed publisher never waits on the cluster.
type SearchSync struct {
	ES     *es.Client
	Feed   remote.Client
	DLQ    DeadLetters
	Buffer int
}

func (w *SearchSync) Run(ctx context.Context) {
	if err := elastic.EnsureIndexes(ctx, w.ES); err != nil {
		log.Printf("❌ ensure indexes: %v, search sync disabled", err)
		return
	}
	size := w.Buffer
	if size <= 0 {
		size = 1024
	}
	queue := make(chan feed.ChangeEvent, size)
	for _, table := range searchTables {
		sub := w.Feed.SubscribeChanges(table, func(evt feed.ChangeEvent) {
			select {
			case queue <- evt:
			default:
				w.deadLetter(ctx, evt, "search queue full")
			}
		})
		defer w.Feed.Unsubscribe(sub)
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: w.ES, Index: "", FlushBytes: 5 << 20, NumWorkers: 2, FlushInterval: time.Second,
	})
	if err != nil {
		log.Printf("❌ bulk indexer: %v", err)
		return
	}
	defer func() {
		if err := bi.Close(context.Background()); err != nil {
			log.Printf("❌ bulk indexer close: %v", err)
		}
		stats := bi.Stats()
		log.Printf("bulk ok=%d failed=%d", stats.NumFlushed, stats.NumFailed)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-queue:
			if err := w.apply(ctx, bi, evt); err != nil {
				w.deadLetter(ctx, evt, err.Error())
			}
		}
	}
}

type searchAction struct {
	index  string
	docID  string
	action string
	body   []byte
}

// actionFor maps a change event onto the bulk action that mirrors it.
func actionFor(evt feed.ChangeEvent) (searchAction, error) {
	index, ok := elastic.IndexFor(evt.Table)
	if !ok {
		return searchAction{}, fmt.Errorf("no index for table=%s", evt.Table)
	}
	id, err := eventID(evt)
	if err != nil {
		return searchAction{}, err
	}
	if evt.Type == feed.Delete {
		return searchAction{index: index, docID: id.String(), action: "delete"}, nil
	}
	doc, err := elastic.BuildDoc(evt.Table, evt.New)
	if err != nil {
		return searchAction{}, err
	}
	return searchAction{index: index, docID: id.String(), action: "index", body: doc}, nil
}

func eventID(evt feed.ChangeEvent) (uuid.UUID, error) {
	row := evt.New
	if evt.Type == feed.Delete {
		row = evt.Old
	}
	var probe struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(row, &probe); err != nil {
		return uuid.Nil, fmt.Errorf("decode %s row: %w", evt.Table, err)
	}
	if probe.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s row carries no id", evt.Table)
	}
	return probe.ID, nil
}

func (w *SearchSync) apply(ctx context.Context, bi esutil.BulkIndexer, evt feed.ChangeEvent) error {
	a, err := actionFor(evt)
	if err != nil {
		return err
	}
	item := esutil.BulkIndexerItem{
		Action:     a.action,
		DocumentID: a.docID,
		Index:      a.index,
		OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
			metrics.SearchSynced.Inc()
		},
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			msg := ""
			switch {
			case err != nil:
				msg = err.Error()
			case res.Error.Reason != "":
				msg = fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason)
			default:
				msg = fmt.Sprintf("status=%d failed to index", res.Status)
			}
			w.deadLetter(ctx, evt, msg)
		},
	}
	if len(a.body) > 0 {
		item.Body = bytes.NewReader(a.body)
	}
	return bi.Add(ctx, item)
}

func (w *SearchSync) deadLetter(ctx context.Context, evt feed.ChangeEvent, msg string) {
	id, _ := eventID(evt)
	payload := evt.New
	if evt.Type == feed.Delete {
		payload = evt.Old
	}
	PutDLQ(ctx, w.DLQ, models.DLQ{
		OutboxID: evt.Seq,
		Table:    evt.Table,
		EntityID: id.String(),
		Op:       string(evt.Type),
		ErrorMsg: msg,
		Payload:  payload,
	})
}
