package feature

import (
	"context"
	"testing"

	"github.com/rushteam/deepctr/store"
)

func TestHistoryLoaderRoundTrip(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	loader := &HistoryLoader{Store: memStore, MaxLen: 5}

	// Record clicks with increasing timestamps
	for i, itemIdx := range []int64{11, 42, 301} {
		if err := loader.Record(ctx, 7, itemIdx, float64(1000+i)); err != nil {
			t.Fatalf("Record error = %v", err)
		}
	}

	row, err := loader.Load(ctx, 7)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	// Chronological order, then post-padded to maxlen
	want := []float64{11, 42, 301, 0, 0}
	if len(row) != len(want) {
		t.Fatalf("len(row) = %d, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestHistoryLoaderKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	loader := &HistoryLoader{Store: memStore, MaxLen: 3}
	for i := int64(1); i <= 6; i++ {
		if err := loader.Record(ctx, 9, i*10, float64(i)); err != nil {
			t.Fatalf("Record error = %v", err)
		}
	}

	row, err := loader.Load(ctx, 9)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	// maxlen=3 keeps the three most recent clicks, oldest first
	want := []float64{40, 50, 60}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestHistoryLoaderUnknownUser(t *testing.T) {
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	loader := &HistoryLoader{Store: memStore, MaxLen: 4}
	row, err := loader.Load(context.Background(), 12345)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	for i, v := range row {
		if v != 0 {
			t.Errorf("row[%d] = %v, want all padding for unknown user", i, v)
		}
	}
}

func TestHistoryLoaderConfigErrors(t *testing.T) {
	loader := &HistoryLoader{MaxLen: 4}
	if _, err := loader.Load(context.Background(), 1); err == nil {
		t.Error("nil store expected error, got nil")
	}

	loader = &HistoryLoader{Store: store.NewMemoryStore()}
	if _, err := loader.Load(context.Background(), 1); err == nil {
		t.Error("zero maxlen expected error, got nil")
	}
}
