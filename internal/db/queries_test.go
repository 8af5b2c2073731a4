package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGetTriage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	d := digest.Digest{
		ID:             "m1",
		ThreadID:       "t1",
		Type:           digest.CategoryTransactional,
		ActionRequired: true,
		FullBodyLength: 120,
	}
	if err := RecordTriage(ctx, db, TriageFromDigest(d, "s1", 100)); err != nil {
		t.Fatalf("RecordTriage() error = %v", err)
	}

	got, err := GetTriage(ctx, db, "m1")
	if err != nil {
		t.Fatalf("GetTriage() error = %v", err)
	}
	if got.ThreadID != "t1" || got.Category != digest.CategoryTransactional {
		t.Errorf("GetTriage() = %+v", got)
	}
	if !got.ActionRequired || got.BodyLength != 120 || got.Reads != 1 {
		t.Errorf("GetTriage() = %+v", got)
	}
	if got.FirstSeenAt != 100 || got.LastSeenAt != 100 || got.SessionID != "s1" {
		t.Errorf("GetTriage() = %+v", got)
	}
}

func TestRecordTriage_RepeatRead(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := TriageFromDigest(digest.Digest{ID: "m1", Type: digest.CategoryPersonal}, "s1", 100)
	if err := RecordTriage(ctx, db, first); err != nil {
		t.Fatalf("RecordTriage() error = %v", err)
	}
	second := TriageFromDigest(digest.Digest{ID: "m1", Type: digest.CategoryEvent}, "s2", 200)
	if err := RecordTriage(ctx, db, second); err != nil {
		t.Fatalf("RecordTriage() error = %v", err)
	}

	got, err := GetTriage(ctx, db, "m1")
	if err != nil {
		t.Fatalf("GetTriage() error = %v", err)
	}
	if got.Reads != 2 {
		t.Errorf("Reads = %d, want 2", got.Reads)
	}
	if got.FirstSeenAt != 100 || got.LastSeenAt != 200 {
		t.Errorf("seen = %d..%d, want 100..200", got.FirstSeenAt, got.LastSeenAt)
	}
	if got.Category != digest.CategoryEvent || got.SessionID != "s2" {
		t.Errorf("GetTriage() = %+v", got)
	}
}

func TestGetTriage_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := GetTriage(context.Background(), db, "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetTriage() error = %v, want NOT_FOUND", err)
	}
}

func TestRecentTriage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		row := TriageFromDigest(digest.Digest{ID: id, Type: digest.CategoryPersonal}, "", int64(i+1))
		if err := RecordTriage(ctx, db, row); err != nil {
			t.Fatalf("RecordTriage() error = %v", err)
		}
	}

	got, err := RecentTriage(ctx, db, 2)
	if err != nil {
		t.Fatalf("RecentTriage() error = %v", err)
	}
	if len(got) != 2 || got[0].MessageID != "c" || got[1].MessageID != "b" {
		t.Errorf("RecentTriage() = %+v", got)
	}
}

func TestCategoryCounts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rows := []digest.Digest{
		{ID: "1", Type: digest.CategoryPersonal},
		{ID: "2", Type: digest.CategorySecurity, ActionRequired: true},
		{ID: "3", Type: digest.CategorySecurity},
		{ID: "4", Type: digest.CategoryPromotional},
	}
	for _, d := range rows {
		if err := RecordTriage(ctx, db, TriageFromDigest(d, "", 1)); err != nil {
			t.Fatalf("RecordTriage() error = %v", err)
		}
	}

	got, err := CategoryCounts(ctx, db)
	if err != nil {
		t.Fatalf("CategoryCounts() error = %v", err)
	}
	want := []CategoryCount{
		{Category: digest.CategoryPromotional, Messages: 1},
		{Category: digest.CategorySecurity, Messages: 2, ActionRequired: 1},
		{Category: digest.CategoryPersonal, Messages: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("CategoryCounts() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CategoryCounts()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCategoryCounts_Empty(t *testing.T) {
	db := openTestDB(t)

	got, err := CategoryCounts(context.Background(), db)
	if err != nil {
		t.Fatalf("CategoryCounts() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("CategoryCounts() = %+v, want empty", got)
	}
}
