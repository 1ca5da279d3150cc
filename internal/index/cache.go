// Package index caches candidate embeddings and serves fast top-K face
// queries over the pool.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
)

// Cache stores candidate embeddings keyed by image URL, with disk
// persistence so repeat runs against the same pool skip fetch and
// extraction. Concurrent lookups of the same key resolve only once.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl time.Duration
}

// NewCache creates a Cache with disk persistence at the given path.
func NewCache(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := localfs.New[string, []byte]("profile-verify", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// NewNullCache creates a Cache with no persistence (all gets miss, all sets discard).
func NewNullCache() *Cache {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte]())
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}
	return &Cache{TieredCache: tc, ttl: 0}
}

// URLToKey converts an image URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// Embedding returns the cached embedding for an image URL, resolving it at
// most once per key via the given function. Resolution failures are not
// cached; the next lookup tries again.
func (c *Cache) Embedding(ctx context.Context, imageURL string, resolve func(context.Context) ([]float32, error)) ([]float32, error) {
	data, err := c.GetSet(ctx, URLToKey(imageURL), func(ctx context.Context) ([]byte, error) {
		emb, err := resolve(ctx)
		if err != nil {
			return nil, err
		}
		return encodeEmbedding(emb), nil
	}, c.ttl)
	if err != nil {
		return nil, err
	}
	return decodeEmbedding(data)
}

// encodeEmbedding packs an embedding as little-endian float32 bits.
func encodeEmbedding(emb []float32) []byte {
	data := make([]byte, 4*len(emb))
	for i, v := range emb {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return data
}

func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding: %d bytes", len(data))
	}
	emb := make([]float32, len(data)/4)
	for i := range emb {
		emb[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return emb, nil
}
