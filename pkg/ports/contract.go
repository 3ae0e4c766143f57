package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cascadehq/cascade/pkg/domain"
)

// RunSuspensionStoreContract is a reusable test suite verifying that an
// adapter complies with SuspensionStore. Adapter tests call it with a fresh,
// empty store.
func RunSuspensionStoreContract(t *testing.T, store SuspensionStore) {
	t.Helper()
	ctx := context.Background()

	record := &domain.Suspension{
		Token:       "tok-1",
		ExecutionID: "exec-1",
		Stage:       "fetch-user",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := store.Load(ctx, record.Token)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.ExecutionID != record.ExecutionID || got.Stage != record.Stage {
			t.Errorf("loaded record mismatch: got %+v, want %+v", got, record)
		}
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-token")
		if !errors.Is(err, domain.ErrSuspensionNotFound) {
			t.Errorf("expected ErrSuspensionNotFound, got %v", err)
		}
	})

	t.Run("ClaimIsOneShot", func(t *testing.T) {
		got, err := store.Claim(ctx, record.Token)
		if err != nil {
			t.Fatalf("first claim failed: %v", err)
		}
		if got.ExecutionID != record.ExecutionID {
			t.Errorf("claimed record mismatch: got %+v", got)
		}
		if _, err := store.Claim(ctx, record.Token); !errors.Is(err, domain.ErrSuspensionNotFound) {
			t.Errorf("second claim: expected ErrSuspensionNotFound, got %v", err)
		}
		if _, err := store.Load(ctx, record.Token); !errors.Is(err, domain.ErrSuspensionNotFound) {
			t.Errorf("load after claim: expected ErrSuspensionNotFound, got %v", err)
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		other := &domain.Suspension{Token: "tok-2", ExecutionID: "exec-2", CreatedAt: time.Now().UTC()}
		if err := store.Save(ctx, other); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := store.Delete(ctx, other.Token); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := store.Delete(ctx, other.Token); err != nil {
			t.Errorf("second delete should be a no-op, got %v", err)
		}
	})
}
