// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package devbackend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CodeStore holds one-time authorization codes issued by switch-account.
// A code redeems at most once.
type CodeStore interface {
	Issue(ctx context.Context, email string, ttl time.Duration) (string, error)
	Redeem(ctx context.Context, code string) (email string, ok bool, err error)
}

type memoryCodes struct {
	mu    sync.Mutex
	codes map[string]memoryCode
	now   func() time.Time
}

type memoryCode struct {
	email   string
	expires time.Time
}

// NewMemoryCodes returns a process-local code store.
func NewMemoryCodes() CodeStore {
	return &memoryCodes{codes: make(map[string]memoryCode), now: time.Now}
}

func (m *memoryCodes) Issue(_ context.Context, email string, ttl time.Duration) (string, error) {
	code := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code] = memoryCode{email: email, expires: m.now().Add(ttl)}
	return code, nil
}

func (m *memoryCodes) Redeem(_ context.Context, code string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return "", false, nil
	}
	delete(m.codes, code)
	if m.now().After(c.expires) {
		return "", false, nil
	}
	return c.email, true, nil
}

type redisCodes struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCodes stores codes in Redis so several dev backends can share them.
func NewRedisCodes(rdb *redis.Client, prefix string) CodeStore {
	if prefix == "" {
		prefix = "marketplace"
	}
	return &redisCodes{rdb: rdb, prefix: prefix}
}

func (r *redisCodes) key(code string) string { return r.prefix + ":code:" + code }

func (r *redisCodes) Issue(ctx context.Context, email string, ttl time.Duration) (string, error) {
	code := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, r.key(code), email, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("code collision")
	}
	return code, nil
}

func (r *redisCodes) Redeem(ctx context.Context, code string) (string, bool, error) {
	email, err := r.rdb.GetDel(ctx, r.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return email, true, nil
}
