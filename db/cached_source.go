package db

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SheetStore is the cache behind CachedSource. RedisService implements it.
type SheetStore interface {
	GetSheet(ctx context.Context, fingerprint string) ([][]string, bool, error)
	PutSheet(ctx context.Context, fingerprint string, rows [][]string, ttl time.Duration) error
}

// CachedSource serves sheet rows from a SheetStore, falling back to Next.
// Store failures are logged and never fail a read.
type CachedSource struct {
	Store  SheetStore
	Next   SheetSource
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachedSource creates a new CachedSource
func NewCachedSource(store SheetStore, next SheetSource, ttl time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{Store: store, Next: next, TTL: ttl, Logger: logger}
}

// Rows implements SheetSource.
func (c *CachedSource) Rows(ctx context.Context, path string) ([][]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		// let the underlying source report the missing file
		return c.Next.Rows(ctx, path)
	}
	fp := fingerprint(path, info.Size(), info.ModTime())

	rows, ok, err := c.Store.GetSheet(ctx, fp)
	switch {
	case err != nil:
		c.Logger.Warn("Sheet cache read failed", zap.String("path", path), zap.Error(err))
	case ok:
		c.Logger.Debug("Sheet cache hit", zap.String("path", path))
		return rows, nil
	}

	rows, err = c.Next.Rows(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.Store.PutSheet(ctx, fp, rows, c.TTL); err != nil {
		c.Logger.Warn("Sheet cache write failed", zap.String("path", path), zap.Error(err))
	}
	return rows, nil
}

func fingerprint(path string, size int64, modTime time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())))
	return hex.EncodeToString(sum[:])
}
