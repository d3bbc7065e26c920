// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package objcache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/fwscope/fwscope/pkg/types"
)

const (
	cacheItemSizeLimit = 64 * (1 << 20) // 64MiB
	cacheItemTTL       = time.Minute * 10
)

// ImageCache memoizes byte blobs derived from a firmware image (its
// serialized analysis report, decompressed content), keyed by the
// image ID and a role string.
type ImageCache struct {
	cache *ristretto.Cache
}

// New returns an ImageCache bounded by memoryLimit bytes.
func New(memoryLimit uint64) (*ImageCache, error) {
	cfg := &ristretto.Config{
		NumCounters: 1000,
		MaxCost:     int64(memoryLimit),
		BufferItems: 64,
		Metrics:     false,
	}
	cache, err := ristretto.NewCache(cfg)
	if err != nil {
		return nil, err
	}
	return &ImageCache{
		cache: cache,
	}, nil
}

func cacheKey(imageID types.ImageID, role string) string {
	return string(imageID[:]) + "\x00" + role
}

// Get returns the cached blob for the image and role, if any.
func (c *ImageCache) Get(ctx context.Context, imageID types.ImageID, role string) ([]byte, bool) {
	obj, found := c.cache.Get(cacheKey(imageID, role))
	if !found {
		return nil, false
	}
	b, ok := obj.([]byte)
	if !ok {
		return nil, false
	}
	return b, true
}

// Set stores the blob for the image and role.
func (c *ImageCache) Set(ctx context.Context, imageID types.ImageID, role string, data []byte) {
	if len(data) > cacheItemSizeLimit {
		// too big object
		return
	}
	c.cache.SetWithTTL(cacheKey(imageID, role), data, int64(len(data)), cacheItemTTL)
}

// Close stops the cache's background workers.
func (c *ImageCache) Close() error {
	c.cache.Close()
	return nil
}
