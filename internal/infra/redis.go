package infra

import (
	"context"
	"encoding/json"
	"time"

	"aguabill/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// ── Public debt lookup cache ─────────────────────────────────────────────────

const consultaKeyPrefix = "consulta:deuda:"

// ConsultaCache stores public debt lookups keyed by customer code and
// document. Every operation is best effort: Redis failures degrade to a miss.
type ConsultaCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewConsultaCache(rdb *redis.Client, ttl time.Duration) *ConsultaCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConsultaCache{rdb: rdb, ttl: ttl}
}

func consultaKey(codigo, documento string) string {
	return consultaKeyPrefix + codigo + ":" + documento
}

func (c *ConsultaCache) Obtener(ctx context.Context, codigo, documento string) (*dto.ConsultaDeudaResponse, bool) {
	raw, err := c.rdb.Get(ctx, consultaKey(codigo, documento)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp dto.ConsultaDeudaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *ConsultaCache) Guardar(ctx context.Context, codigo, documento string, resp *dto.ConsultaDeudaResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, consultaKey(codigo, documento), b, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("codigo", codigo).Msg("consulta cache: set failed")
	}
}

// Invalidar removes every cached lookup of the customer, whatever document
// was used to query it.
func (c *ConsultaCache) Invalidar(ctx context.Context, codigo string) {
	iter := c.rdb.Scan(ctx, 0, consultaKeyPrefix+codigo+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("consulta cache: scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("consulta cache: invalidate failed")
	}
}
