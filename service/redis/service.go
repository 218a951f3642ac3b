package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/palette-xyz/goapi/base/ctx"
)

// Forever marks a key that should never expire
const Forever = time.Duration(-1)

var (
	// ErrNotFound aliases redigo's nil reply so callers never import it
	ErrNotFound = redis.ErrNil
	// ErrNoTTL is returned by TTL for keys without an expire
	ErrNoTTL = errors.New("key has no associated ttl")
	// ErrGapTime is returned when no pool can serve the command
	ErrGapTime = errors.New("no pool available")
	// ErrExpireNotExistOrTimeout is returned by Expire when the key does
	// not exist or the timeout could not be set
	ErrExpireNotExistOrTimeout = errors.New("key not exist or timeout cannot be set")
)

// Service is the redis facade used by the cache providers and stores
type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	GetStruct(c ctx.Ctx, key string, val interface{}) error
	Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	SetNX(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	SetStruct(c ctx.Ctx, key string, val interface{}, expire time.Duration) error
	Del(c ctx.Ctx, ks ...string) (int, error)
	Exists(c ctx.Ctx, key string) (bool, error)
	Expire(c ctx.Ctx, key string, ttl time.Duration) error
	TTL(c ctx.Ctx, key string) (int, error)
	Incr(c ctx.Ctx, key string) (int64, error)
	Incrby(c ctx.Ctx, key string, val int) (int64, error)
	GetConn() (redis.Conn, error)
	Name() string
}
