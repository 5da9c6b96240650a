// Package redis stores search documents as JSON values in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/content-dimension/pkg/dimension/search"
)

// Engine implements search.Engine on Redis. A document is stored under
// "<prefix><index>:<id>" and its id is kept in the set "<prefix><index>".
type Engine struct {
	rdb    goredis.UniversalClient
	prefix string
}

// New creates an engine using rdb. prefix namespaces every key.
func New(rdb goredis.UniversalClient, prefix string) *Engine {
	return &Engine{rdb: rdb, prefix: prefix}
}

// Connect creates a client for addr and checks the connection.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (e *Engine) setKey(index string) string {
	return e.prefix + index
}

func (e *Engine) docKey(index, docID string) string {
	return e.prefix + index + ":" + docID
}

func (e *Engine) Save(ctx context.Context, index string, doc *search.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	_, err = e.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, e.docKey(index, doc.ID), raw, 0)
		pipe.SAdd(ctx, e.setKey(index), doc.ID)
		return nil
	})
	return err
}

func (e *Engine) Delete(ctx context.Context, index, docID string) error {
	var removed *goredis.IntCmd
	_, err := e.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		removed = pipe.Del(ctx, e.docKey(index, docID))
		pipe.SRem(ctx, e.setKey(index), docID)
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return search.ErrDocumentNotFound
	}
	return nil
}

// Get loads a stored document.
func (e *Engine) Get(ctx context.Context, index, docID string) (*search.Document, error) {
	raw, err := e.rdb.Get(ctx, e.docKey(index, docID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, search.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc search.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", docID, err)
	}
	return &doc, nil
}

// Documents returns the ids stored in index.
func (e *Engine) Documents(ctx context.Context, index string) ([]string, error) {
	return e.rdb.SMembers(ctx, e.setKey(index)).Result()
}

var _ search.Engine = (*Engine)(nil)
