package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BurakkYuce/rental-backend/config"
	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client  *redis.Client
	carsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, carsTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), carsTTL)
}

func NewRedisCacheFromClient(client *redis.Client, carsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, carsTTL: carsTTL}
}

func (c *RedisCache) Client() *redis.Client { return c.client }

func (c *RedisCache) Close() error { return c.client.Close() }

// GetCars returns nil without error on a cache miss.
func (c *RedisCache) GetCars(ctx context.Context) ([]domain.Car, error) {
	var cars []domain.Car
	ok, err := c.getJSON(ctx, carsKey(), &cars)
	if err != nil || !ok {
		return nil, err
	}
	return cars, nil
}

func (c *RedisCache) SetCars(ctx context.Context, cars []domain.Car) error {
	return c.setJSON(ctx, carsKey(), cars)
}

// GetCar returns nil without error on a cache miss.
func (c *RedisCache) GetCar(ctx context.Context, id string) (*domain.Car, error) {
	var car domain.Car
	ok, err := c.getJSON(ctx, carKey(id), &car)
	if err != nil || !ok {
		return nil, err
	}
	return &car, nil
}

func (c *RedisCache) SetCar(ctx context.Context, car *domain.Car) error {
	return c.setJSON(ctx, carKey(car.ID), car)
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.carsTTL).Err()
}

func carsKey() string {
	return "cache:cars"
}

func carKey(id string) string {
	return fmt.Sprintf("cache:car:%s", id)
}
