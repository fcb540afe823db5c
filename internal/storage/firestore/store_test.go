package firestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	fsapi "cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

func TestClientConfig(t *testing.T) {
	t.Run("serialized credentials win", func(t *testing.T) {
		t.Setenv(EmulatorHostEnv, "")
		project, opts, err := clientConfig(Options{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "missing.json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if project != fsapi.DetectProjectID || len(opts) != 1 {
			t.Fatalf("unexpected config: %q %d", project, len(opts))
		}
	})

	t.Run("credentials file", func(t *testing.T) {
		t.Setenv(EmulatorHostEnv, "")
		path := filepath.Join(t.TempDir(), "sa.json")
		if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}
		project, opts, err := clientConfig(Options{CredentialsFile: path, ProjectID: "parking-prod"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if project != "parking-prod" || len(opts) != 1 {
			t.Fatalf("unexpected config: %q %d", project, len(opts))
		}
	})

	t.Run("emulator needs no credentials", func(t *testing.T) {
		t.Setenv(EmulatorHostEnv, "localhost:8080")
		project, opts, err := clientConfig(Options{CredentialsFile: "missing.json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if project != emulatorProject || len(opts) != 0 {
			t.Fatalf("unexpected config: %q %d", project, len(opts))
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(EmulatorHostEnv, "")
		_, _, err := clientConfig(Options{CredentialsFile: "missing.json"})
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

// newEmulatorStore opens a store on a fresh emulator project so tests do not
// share documents.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv(EmulatorHostEnv) == "" {
		t.Skipf("skipping Firestore integration tests: %s not set", EmulatorHostEnv)
	}
	project := "test-" + uuid.NewString()[:8]
	store, err := Open(context.Background(), Options{ProjectID: project})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStore_Counter(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	if _, err := store.GetSummary(ctx); err != domain.ErrSummaryNotFound {
		t.Fatalf("expected ErrSummaryNotFound, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.IncrementOccupied(ctx, at); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if sum.Occupied != 3 || !sum.LastUpdated.Equal(at) {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.DecrementOccupied(ctx, at); err != nil {
				t.Errorf("decrement: %v", err)
			}
		}()
	}
	wg.Wait()

	sum, _ = store.GetSummary(ctx)
	if sum.Occupied != 0 {
		t.Fatalf("expected floor at 0, got %d", sum.Occupied)
	}

	_ = store.IncrementOccupied(ctx, at)
	if err := store.ResetOccupied(ctx, at.Add(time.Hour)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	sum, _ = store.GetSummary(ctx)
	if sum.Occupied != 0 || !sum.LastUpdated.Equal(at.Add(time.Hour)) {
		t.Fatalf("unexpected summary after reset: %+v", sum)
	}
}

func TestStore_Events(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.AppendEvent(ctx, domain.Event{
			ID:           uuid.NewString(),
			Type:         domain.EventTypeExit,
			LicensePlate: "XYZ789",
			ZoneID:       domain.DefaultZoneID,
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.RecentEvents(ctx, 2)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(2*time.Minute)) || !got[1].Timestamp.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected newest first, got %v, %v", got[0].Timestamp, got[1].Timestamp)
	}
	if got[0].Type != domain.EventTypeExit || got[0].LicensePlate != "XYZ789" {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestStore_WatchSummary(t *testing.T) {
	store := newEmulatorStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := store.WatchSummary(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stream.Stop()

	snap, err := stream.Next()
	if err != nil {
		t.Fatalf("first next: %v", err)
	}
	if snap.Exists {
		t.Fatalf("expected missing document, got %+v", snap)
	}

	if err := store.IncrementOccupied(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("increment: %v", err)
	}
	snap, err = stream.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !snap.Exists || snap.Summary.Occupied != 1 {
		t.Fatalf("expected occupied 1, got %+v", snap)
	}
}
