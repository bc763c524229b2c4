package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"tickethub/internal/status"
)

// Reservations guards ticket inventory and per-account purchase caps with
// bounded Redis counters. Admission is INCRBY-then-check: the increment is
// atomic, so of any set of concurrent reservations racing for the last units,
// only those whose incremented value stays within the ceiling are admitted;
// the rest roll their increment back and fail. Capacity can therefore never
// be exceeded, only transiently over-counted between the INCRBY and DECRBY of
// a losing request.
type Reservations struct {
	Redis *redis.Client
}

func New(redisClient *redis.Client) *Reservations {
	return &Reservations{Redis: redisClient}
}

func typeKey(eventID, typeName string) string {
	return fmt.Sprintf("inv:%s:%s", eventID, typeName)
}

func accountKey(eventID, accountID string) string {
	return fmt.Sprintf("cap:%s:%s", eventID, accountID)
}

// Seed initializes a type counter from the durable issued-ticket count. SETNX
// keeps a concurrent seeder from clobbering reservations made in between.
func (r *Reservations) Seed(ctx context.Context, eventID, typeName string, issued int) error {
	return r.Redis.SetNX(ctx, typeKey(eventID, typeName), issued, 0).Err()
}

// Reserve admits n units of a ticket type if the type stays within capacity.
func (r *Reservations) Reserve(ctx context.Context, eventID, typeName string, n, capacity int) error {
	key := typeKey(eventID, typeName)

	total, err := r.Redis.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return fmt.Errorf("reserve %s: %w", key, err)
	}

	if total > int64(capacity) {
		// a failed rollback leaves the counter inflated and leaks capacity
		if err := r.Redis.DecrBy(ctx, key, int64(n)).Err(); err != nil {
			slog.Error("inventory: reservation rollback failed", "key", key, "n", n, "error", err)
		}
		return status.ErrSoldOut
	}

	return nil
}

// Release undoes a reservation whose order never materialized.
func (r *Reservations) Release(ctx context.Context, eventID, typeName string, n int) error {
	return r.Redis.DecrBy(ctx, typeKey(eventID, typeName), int64(n)).Err()
}

// SeedAccount initializes an account's purchase counter for an event.
func (r *Reservations) SeedAccount(ctx context.Context, eventID, accountID string, purchased int) error {
	return r.Redis.SetNX(ctx, accountKey(eventID, accountID), purchased, 0).Err()
}

// ReserveAccount admits n more units against the per-account cap.
func (r *Reservations) ReserveAccount(ctx context.Context, eventID, accountID string, n, cap int) error {
	key := accountKey(eventID, accountID)

	total, err := r.Redis.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return fmt.Errorf("reserve %s: %w", key, err)
	}

	if total > int64(cap) {
		if err := r.Redis.DecrBy(ctx, key, int64(n)).Err(); err != nil {
			slog.Error("inventory: cap rollback failed", "key", key, "n", n, "error", err)
		}
		return status.ErrPurchaseLimit
	}

	return nil
}

// ReleaseAccount undoes a per-account reservation.
func (r *Reservations) ReleaseAccount(ctx context.Context, eventID, accountID string, n int) error {
	return r.Redis.DecrBy(ctx, accountKey(eventID, accountID), int64(n)).Err()
}

// Reset force-sets a type counter; used by the event hooks when a promoter
// edits the price table.
func (r *Reservations) Reset(ctx context.Context, eventID, typeName string, issued int) error {
	return r.Redis.Set(ctx, typeKey(eventID, typeName), issued, 0).Err()
}
