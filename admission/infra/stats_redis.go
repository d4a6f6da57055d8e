package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sunrise-finder/admission/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores de eventos de admissão em hashes Redis:
//
//	<prefix>:total                   kind -> count, waited_ms
//	<prefix>:minute:<yyyymmddHHMM>   idem, com TTL
//	<prefix>:name:<name>             idem, com TTL
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por nome.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "admission:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if ev.Kind == "" {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := string(ev.Kind)
	waitedMs := ev.Waited.Milliseconds()

	pipe := s.rdb.Pipeline()
	incr := func(key string, expire bool) {
		pipe.HIncrBy(ctx, key, field, 1)
		if ev.Kind == domain.EventAdmitted && waitedMs > 0 {
			pipe.HIncrBy(ctx, key, "waited_ms", waitedMs)
		}
		if expire && s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	incr(s.prefix+":total", false)

	if s.bucket == "minute" {
		incr(fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504")), true)
	}

	if name := strings.TrimSpace(ev.Name); name != "" {
		incr(s.prefix+":name:"+name, true)
	}

	_, err := pipe.Exec(ctx)
	return err
}
