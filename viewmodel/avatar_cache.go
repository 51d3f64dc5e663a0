// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package viewmodel

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rxdemo/rxusers/stream"
)

// AvatarCache is an AvatarLoader that keeps the most recently loaded images.
// Only successful loads are cached.
type AvatarCache struct {
	loader AvatarLoader
	cache  *lru.Cache[string, []byte]
}

func NewAvatarCache(loader AvatarLoader, size int) (*AvatarCache, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &AvatarCache{loader: loader, cache: cache}, nil
}

func (c *AvatarCache) LoadAvatar(url string) stream.Observable[[]byte] {
	return stream.Defer(func() stream.Observable[[]byte] {
		if img, ok := c.cache.Get(url); ok {
			return stream.Just(img)
		}
		return stream.OnNext(c.loader.LoadAvatar(url), func(img []byte) {
			c.cache.Add(url, img)
		})
	})
}

func (c *AvatarCache) Len() int {
	return c.cache.Len()
}
