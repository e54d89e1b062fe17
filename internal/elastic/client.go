// Package elastic holds the search indexes that mirror clubs, media and press.
package elastic

import (
	"fmt"
	"log"

	es "github.com/elastic/go-elasticsearch/v8"
)

// Connect builds a client for url. Search is optional, so a bad address is
// returned to the caller instead of stopping the process.
func Connect(url string) (*es.Client, error) {
	client, err := es.NewClient(es.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s: %w", url, err)
	}
	log.Printf("✅ Elasticsearch client ready for %s", url)
	return client, nil
}
