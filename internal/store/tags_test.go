package store

import (
	"context"
	"sync"
	"testing"
)

func TestRecordTagUsageCreates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.RecordTagUsage(ctx, "u1", "golang"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}

	rec, err := db.GetTag(ctx, "u1", "golang")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}
	if rec.UsageCount != 1 {
		t.Errorf("usage_count = %d, want 1", rec.UsageCount)
	}
	if rec.FirstUsed != rec.LastUsed {
		t.Errorf("first_used %d != last_used %d on creation", rec.FirstUsed, rec.LastUsed)
	}
}

func TestRecordTagUsageIncrements(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.RecordTagUsage(ctx, "u1", "golang"); err != nil {
			t.Fatalf("RecordTagUsage: %v", err)
		}
	}

	rec, err := db.GetTag(ctx, "u1", "golang")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if rec.UsageCount != 3 {
		t.Errorf("usage_count = %d, want 3", rec.UsageCount)
	}
	if rec.LastUsed < rec.FirstUsed {
		t.Errorf("last_used %d < first_used %d", rec.LastUsed, rec.FirstUsed)
	}
}

func TestRecordTagUsageRecencyMonotonic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.RecordTagUsage(ctx, "u1", "golang"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}
	first, _ := db.GetTag(ctx, "u1", "golang")

	if err := db.RecordTagUsage(ctx, "u1", "golang"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}
	second, _ := db.GetTag(ctx, "u1", "golang")

	if second.LastUsed < first.LastUsed {
		t.Errorf("last_used went backwards: %d -> %d", first.LastUsed, second.LastUsed)
	}
	if second.FirstUsed != first.FirstUsed {
		t.Errorf("first_used changed: %d -> %d", first.FirstUsed, second.FirstUsed)
	}
}

// Concurrent upserts for the same (user, tag) must produce exactly one
// record whose counter reflects every increment.
func TestRecordTagUsageConcurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.RecordTagUsage(ctx, "u1", "busy")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordTagUsage: %v", err)
		}
	}

	count, err := db.CountUserTags(ctx, "u1")
	if err != nil {
		t.Fatalf("CountUserTags: %v", err)
	}
	if count != 1 {
		t.Fatalf("records = %d, want 1", count)
	}

	rec, err := db.GetTag(ctx, "u1", "busy")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if rec.UsageCount != n {
		t.Errorf("usage_count = %d, want %d", rec.UsageCount, n)
	}
}

func TestSuggestTagsPrefix(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, tag := range []string{"adam", "adam-smith", "budget", "ad_hoc"} {
		if err := db.RecordTagUsage(ctx, "u1", tag); err != nil {
			t.Fatalf("RecordTagUsage(%s): %v", tag, err)
		}
	}

	got, err := db.SuggestTags(ctx, "u1", "ad", 10)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3: %+v", len(got), got)
	}
	for _, rec := range got {
		if rec.Tag[:2] != "ad" {
			t.Errorf("suggestion %q does not start with prefix", rec.Tag)
		}
	}
}

// '_' is legal in tags but a wildcard in LIKE; the prefix must match it
// literally.
func TestSuggestTagsPrefixEscaping(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, tag := range []string{"to_do", "today"} {
		if err := db.RecordTagUsage(ctx, "u1", tag); err != nil {
			t.Fatalf("RecordTagUsage(%s): %v", tag, err)
		}
	}

	got, err := db.SuggestTags(ctx, "u1", "to_", 10)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(got) != 1 || got[0].Tag != "to_do" {
		t.Errorf("SuggestTags(to_) = %+v, want only to_do", got)
	}
}

func TestSuggestTagsRankingAndLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Bump recency in a known order via direct updates so ordering is
	// deterministic regardless of clock granularity.
	tags := []string{"alpha", "beta", "gamma", "delta"}
	for i, tag := range tags {
		if err := db.RecordTagUsage(ctx, "u1", tag); err != nil {
			t.Fatalf("RecordTagUsage(%s): %v", tag, err)
		}
		if _, err := db.Exec("UPDATE tags SET first_used = ?, last_used = ? WHERE user_id = ? AND tag = ?",
			int64(1000+i), int64(1000+i), "u1", tag); err != nil {
			t.Fatalf("set last_used: %v", err)
		}
	}

	got, err := db.SuggestTags(ctx, "u1", "", 3)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(got))
	}
	want := []string{"delta", "gamma", "beta"}
	for i, rec := range got {
		if rec.Tag != want[i] {
			t.Errorf("suggestion[%d] = %q, want %q", i, rec.Tag, want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].LastUsed > got[i-1].LastUsed {
			t.Errorf("suggestions not sorted by last_used desc at %d", i)
		}
	}
}

func TestSuggestTagsDefaultLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < DefaultSuggestLimit+5; i++ {
		tag := "tag-" + string(rune('a'+i))
		if err := db.RecordTagUsage(ctx, "u1", tag); err != nil {
			t.Fatalf("RecordTagUsage: %v", err)
		}
	}

	got, err := db.SuggestTags(ctx, "u1", "", 0)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(got) != DefaultSuggestLimit {
		t.Errorf("got %d suggestions, want default limit %d", len(got), DefaultSuggestLimit)
	}
}

func TestTenantIsolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.RecordTagUsage(ctx, "alice", "secret"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}
	if err := db.RecordTagUsage(ctx, "bob", "public"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}

	bobSuggest, err := db.SuggestTags(ctx, "bob", "", 10)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	for _, rec := range bobSuggest {
		if rec.Tag == "secret" {
			t.Error("bob sees alice's tag in suggestions")
		}
	}

	bobList, err := db.ListTags(ctx, "bob", SortRecent)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(bobList) != 1 || bobList[0].Tag != "public" {
		t.Errorf("bob's vocabulary = %+v, want only public", bobList)
	}

	// Same tag string for both users stays two independent records.
	if err := db.RecordTagUsage(ctx, "bob", "secret"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}
	aliceRec, _ := db.GetTag(ctx, "alice", "secret")
	bobRec, _ := db.GetTag(ctx, "bob", "secret")
	if aliceRec.UsageCount != 1 || bobRec.UsageCount != 1 {
		t.Errorf("counters bled across tenants: alice=%d bob=%d",
			aliceRec.UsageCount, bobRec.UsageCount)
	}
}

func TestListTagsSortOrders(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seed := []struct {
		tag   string
		count int
		last  int64
	}{
		{"zebra", 1, 3000},
		{"apple", 3, 1000},
		{"mango", 2, 2000},
	}
	for _, s := range seed {
		for i := 0; i < s.count; i++ {
			if err := db.RecordTagUsage(ctx, "u1", s.tag); err != nil {
				t.Fatalf("RecordTagUsage: %v", err)
			}
		}
		if _, err := db.Exec("UPDATE tags SET first_used = ?, last_used = ? WHERE user_id = ? AND tag = ?",
			s.last, s.last, "u1", s.tag); err != nil {
			t.Fatalf("set last_used: %v", err)
		}
	}

	check := func(sortBy string, want []string) {
		t.Helper()
		got, err := db.ListTags(ctx, "u1", sortBy)
		if err != nil {
			t.Fatalf("ListTags(%s): %v", sortBy, err)
		}
		for i, rec := range got {
			if rec.Tag != want[i] {
				t.Errorf("ListTags(%s)[%d] = %q, want %q", sortBy, i, rec.Tag, want[i])
			}
		}
	}

	check(SortUsage, []string{"apple", "mango", "zebra"})
	check(SortAlphabetical, []string{"apple", "mango", "zebra"})
	check(SortRecent, []string{"zebra", "mango", "apple"})
}

func TestDeleteUserTags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, tag := range []string{"one", "two"} {
		if err := db.RecordTagUsage(ctx, "u1", tag); err != nil {
			t.Fatalf("RecordTagUsage: %v", err)
		}
	}
	if err := db.RecordTagUsage(ctx, "u2", "survivor"); err != nil {
		t.Fatalf("RecordTagUsage: %v", err)
	}

	if err := db.DeleteUserTags(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUserTags: %v", err)
	}

	count, err := db.CountUserTags(ctx, "u1")
	if err != nil {
		t.Fatalf("CountUserTags: %v", err)
	}
	if count != 0 {
		t.Errorf("u1 still has %d tags after cascade", count)
	}

	rec, err := db.GetTag(ctx, "u2", "survivor")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if rec == nil {
		t.Error("u2's vocabulary was deleted by u1's cascade")
	}
}
