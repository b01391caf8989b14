package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pouch/internal/game"
)

// Redis implements Store with plain keys under a prefix:
//
//	<prefix>:items             hash, item id -> item JSON
//	<prefix>:solution:<date>   string, solution record JSON
//	<prefix>:solutions         set of stored dates
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "pouch"
	}
	log.Info().Str("addr", cfg.Address).Str("prefix", prefix).Msg("redis store connected")
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) itemsKey() string { return r.prefix + ":items" }
func (r *Redis) datesKey() string { return r.prefix + ":solutions" }
func (r *Redis) solutionKey(date string) string { return r.prefix + ":solution:" + date }

func (r *Redis) ListItems(ctx context.Context) ([]game.Item, error) {
	raw, err := r.client.HGetAll(ctx, r.itemsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	out := make([]game.Item, 0, len(raw))
	for id, v := range raw {
		var it game.Item
		if err := json.Unmarshal([]byte(v), &it); err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Redis) FindItem(ctx context.Context, id string) (game.Item, error) {
	v, err := r.client.HGet(ctx, r.itemsKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		return game.Item{}, ErrNotFound
	}
	if err != nil {
		return game.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	var it game.Item
	if err := json.Unmarshal([]byte(v), &it); err != nil {
		return game.Item{}, fmt.Errorf("item %s: %w", id, err)
	}
	return it, nil
}

func (r *Redis) SaveItems(ctx context.Context, items []game.Item) error {
	if len(items) == 0 {
		return nil
	}
	values := make(map[string]any, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			return err
		}
		values[it.ID] = b
	}
	return r.client.HSet(ctx, r.itemsKey(), values).Err()
}

func (r *Redis) FindSolution(ctx context.Context, date string) (*game.Solution, error) {
	v, err := r.client.Get(ctx, r.solutionKey(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}
	return decodeRedisRecord(v)
}

// SaveSolution uses SETNX so the first writer for a date wins.
func (r *Redis) SaveSolution(ctx context.Context, sol *game.Solution) (*game.Solution, error) {
	rec, err := encodeSolution(sol)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	created, err := r.client.SetNX(ctx, r.solutionKey(sol.Date), b, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create solution: %w", err)
	}
	if created {
		if err := r.client.SAdd(ctx, r.datesKey(), sol.Date).Err(); err != nil {
			return nil, fmt.Errorf("failed to index solution: %w", err)
		}
	}
	return r.FindSolution(ctx, sol.Date)
}

func (r *Redis) UpdateCells(ctx context.Context, date string, cells game.Grid) error {
	key := r.solutionKey(date)
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get solution: %w", err)
	}
	var rec solutionRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return fmt.Errorf("solution %s: %w", date, err)
	}
	if rec.Cells, err = json.Marshal(cells); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, key, b, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to update cells: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) ListSolutions(ctx context.Context) ([]*game.Solution, error) {
	dates, err := r.client.SMembers(ctx, r.datesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	sort.Strings(dates)

	out := make([]*game.Solution, 0, len(dates))
	for _, date := range dates {
		sol, err := r.FindSolution(ctx, date)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, nil
}

func decodeRedisRecord(v []byte) (*game.Solution, error) {
	var rec solutionRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("decode solution: %w", err)
	}
	return rec.decode()
}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.client.Close() }
