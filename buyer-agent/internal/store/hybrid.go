package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/model"
)

const (
	rfqKeyPrefix = "rfq:"
	cacheTTL     = 15 * time.Minute
)

// HybridStore persists RFQ records to Postgres and caches them in Redis.
// When no Postgres URL is configured (local development), Redis alone holds
// the records for the duration of the cache TTL.
type HybridStore struct {
	redis  *redis.Client
	PG     *pgxpool.Pool
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid creates a Redis-fronted, Postgres-backed RFQ store.
func NewHybrid(redisAddr string, redisDB int, pgURL string, pgPoolConfig PGPoolConfig, logger *zap.Logger) (*HybridStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if pgPoolConfig.MaxConns > 0 {
			cfg.MaxConns = pgPoolConfig.MaxConns
		}
		if pgPoolConfig.MinConns > 0 {
			cfg.MinConns = pgPoolConfig.MinConns
		}
		if pgPoolConfig.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = pgPoolConfig.MaxConnLifetime
		}
		if pgPoolConfig.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = pgPoolConfig.MaxConnIdleTime
		}
		if pgPoolConfig.HealthCheckPeriod > 0 {
			cfg.HealthCheckPeriod = pgPoolConfig.HealthCheckPeriod
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	return &HybridStore{redis: rdb, PG: pgPool, logger: logger}, nil
}

func (s *HybridStore) SaveRFQ(ctx context.Context, rfq model.SubmitRFQ) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	rec := &RFQRecord{
		ID:        id,
		RFQ:       rfq,
		Status:    model.RFQProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.PG != nil {
		payload, err := json.Marshal(rfq)
		if err != nil {
			return "", err
		}
		_, err = s.PG.Exec(ctx, `
			INSERT INTO procurement.rfq (rfq_id, payload, currency, deadline, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
		`, id, payload, string(rfq.Currency), rfq.Deadline.Time, string(model.RFQProcessing), now)
		if err != nil {
			s.logger.Error("store.pg.insert_rfq_failed", zap.Error(err))
			return "", err
		}
	}

	s.cacheRecord(ctx, rec)
	return id, nil
}

// AttachQuote records a quote against the RFQ. The unique constraint on
// procurement.quote keeps concurrent attaches safe: the first insert wins and
// later ones become no-ops.
func (s *HybridStore) AttachQuote(ctx context.Context, id string, quote *model.Quote) error {
	now := time.Now().UTC()

	if s.PG != nil {
		payload, err := json.Marshal(quote)
		if err != nil {
			return err
		}
		tx, err := s.PG.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		tag, err := tx.Exec(ctx, `
			INSERT INTO procurement.quote (rfq_id, payload, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (rfq_id) DO NOTHING
		`, id, payload, now)
		if err != nil {
			s.logger.Error("store.pg.insert_quote_failed", zap.Error(err))
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil // a quote is already attached
		}

		_, err = tx.Exec(ctx, `
			UPDATE procurement.rfq
			SET status = $2, outcome = $3, failure_reason = NULL, updated_at = $4
			WHERE rfq_id = $1
		`, id, string(model.RFQQuoted), string(model.OutcomeSuccess), now)
		if err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	s.refreshCache(ctx, id, func(rec *RFQRecord) bool {
		if rec.Quote != nil {
			return false
		}
		rec.Quote = quote
		rec.Status = model.RFQQuoted
		rec.Outcome = model.OutcomeSuccess
		rec.Reason = ""
		rec.UpdatedAt = now
		return true
	})
	return nil
}

func (s *HybridStore) AttachFailure(ctx context.Context, id string, outcome model.Outcome, reason string) error {
	now := time.Now().UTC()

	if s.PG != nil {
		_, err := s.PG.Exec(ctx, `
			UPDATE procurement.rfq
			SET status = $2, outcome = $3, failure_reason = $4, updated_at = $5
			WHERE rfq_id = $1
			  AND NOT EXISTS (SELECT 1 FROM procurement.quote q WHERE q.rfq_id = $1)
		`, id, string(model.RFQFailed), string(outcome), reason, now)
		if err != nil {
			s.logger.Error("store.pg.update_failure_failed", zap.Error(err))
			return err
		}
	}

	s.refreshCache(ctx, id, func(rec *RFQRecord) bool {
		if rec.Quote != nil {
			return false
		}
		rec.Status = model.RFQFailed
		rec.Outcome = outcome
		rec.Reason = reason
		rec.UpdatedAt = now
		return true
	})
	return nil
}

func (s *HybridStore) GetRFQ(ctx context.Context, id string) (*RFQRecord, error) {
	data, err := s.redis.Get(ctx, rfqKeyPrefix+id).Bytes()
	if err == nil {
		var rec RFQRecord
		if uerr := json.Unmarshal(data, &rec); uerr == nil {
			return &rec, nil
		}
		// a corrupt cache entry falls through to postgres
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("store.redis.get_failed", zap.Error(err))
	}

	if s.PG == nil {
		return nil, ErrNotFound
	}

	row := s.PG.QueryRow(ctx, `
		SELECT r.rfq_id, r.payload, r.status,
		       COALESCE(r.outcome, ''), COALESCE(r.failure_reason, ''),
		       q.payload, r.created_at, r.updated_at
		FROM procurement.rfq r
		LEFT JOIN procurement.quote q ON q.rfq_id = r.rfq_id
		WHERE r.rfq_id = $1
	`, id)

	var (
		rec          RFQRecord
		rfqPayload   []byte
		quotePayload []byte
		status       string
		outcome      string
	)
	if err := row.Scan(&rec.ID, &rfqPayload, &status, &outcome, &rec.Reason,
		&quotePayload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetRFQ scan failed: %w", err)
	}
	rec.Status = model.RFQStatus(status)
	rec.Outcome = model.Outcome(outcome)
	if err := json.Unmarshal(rfqPayload, &rec.RFQ); err != nil {
		return nil, fmt.Errorf("GetRFQ decode rfq: %w", err)
	}
	if len(quotePayload) > 0 {
		var q model.Quote
		if err := json.Unmarshal(quotePayload, &q); err != nil {
			return nil, fmt.Errorf("GetRFQ decode quote: %w", err)
		}
		rec.Quote = &q
	}

	s.cacheRecord(ctx, &rec)
	return &rec, nil
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

// cacheRecord writes rec to redis; failures are logged, never surfaced.
func (s *HybridStore) cacheRecord(ctx context.Context, rec *RFQRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, rfqKeyPrefix+rec.ID, data, cacheTTL).Err(); err != nil {
		s.logger.Warn("store.redis.set_failed", zap.String("rfq_id", rec.ID), zap.Error(err))
	}
}

// refreshCache applies update to the cached record, if present. With no
// Postgres behind it the cache is the record, so updates apply in place.
func (s *HybridStore) refreshCache(ctx context.Context, id string, update func(*RFQRecord) bool) {
	data, err := s.redis.Get(ctx, rfqKeyPrefix+id).Bytes()
	if err != nil {
		return
	}
	var rec RFQRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = s.redis.Del(ctx, rfqKeyPrefix+id).Err()
		return
	}
	if update(&rec) {
		s.cacheRecord(ctx, &rec)
	}
}
