package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"assetflow/admin"
	"assetflow/lifecycle"
	"assetflow/overdue"
)

// Assigner hands random assets to random employees in a loop. Contention
// outcomes (asset already out, lost guarded update) are expected; a
// validation error means the actor itself is broken and aborts the run.
func Assigner(ctx context.Context, engine *lifecycle.Engine, actorID string, assetIDs, employeeIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := engine.Assign(ctx, lifecycle.AssignParams{
			AssetID:    assetIDs[rand.Intn(len(assetIDs))],
			AssigneeID: employeeIDs[rand.Intn(len(employeeIDs))],
			ActorID:    actorID,
			OccurredAt: time.Now().UTC(),
		})
		if errors.Is(err, lifecycle.ErrInvalidInput) {
			return fmt.Errorf("assigner: %w", err)
		}
		// ErrInvalidTransition, ErrConflict and chaos-induced I/O errors
		// are all part of the workload.
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Returner brings random assets back. Most attempts hit assets that are
// not out, which is fine.
func Returner(ctx context.Context, engine *lifecycle.Engine, actorID string, assetIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := engine.Return(ctx, lifecycle.ReturnParams{
			AssetID:    assetIDs[rand.Intn(len(assetIDs))],
			ActorID:    actorID,
			OccurredAt: time.Now().UTC(),
		})
		if errors.Is(err, lifecycle.ErrInvalidInput) {
			return fmt.Errorf("returner: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(25)) * time.Millisecond)
	}
}

// Janitor cycles random assets through maintenance and back, competing
// with assigners for the available state.
func Janitor(ctx context.Context, svc *admin.Service, assetIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := assetIDs[rand.Intn(len(assetIDs))]
		if rand.Intn(2) == 0 {
			_, _ = svc.SendToMaintenance(ctx, id)
		} else {
			_, _ = svc.Reinstate(ctx, id)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// Sweeper runs overdue scans with the clock pushed past every return
// horizon, so anything currently out counts as overdue. Exactly one
// Sweeper should run at a time: the dedup check is read-then-write, and
// overlapping scans could both pass it.
func Sweeper(ctx context.Context, scanner *overdue.Scanner, lookahead time.Duration, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, _ = scanner.Scan(ctx, time.Now().UTC().Add(lookahead))
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}
