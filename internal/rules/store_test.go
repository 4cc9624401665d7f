package rules

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetctl/budgetctl/internal/model"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("rule-%d", n)
	}
	return s
}

func TestLoad_Missing(t *testing.T) {
	rules, err := newTestStore(t).Load()
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir+"/rules", 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte("rules: [\n"), 0o644))

	_, err := NewStore(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules")
}

func TestUpsert_Create(t *testing.T) {
	s := newTestStore(t)

	r, created, err := s.Upsert("  Przelew do Jana ", model.CategoryOther, t0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "rule-1", r.ID)
	assert.Equal(t, "Przelew do Jana", r.Phrase)
	assert.Equal(t, model.CategoryOther, r.Category)
	assert.Equal(t, 1, r.UseCount)
	assert.True(t, r.CreatedAt.Equal(t0))
	assert.True(t, r.LastUsedAt.Equal(t0))

	rules, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, r.ID, rules[0].ID)
	assert.True(t, rules[0].CreatedAt.Equal(t0))
}

func TestUpsert_ExistingPhraseOverwritesCategory(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Upsert("przelew do jana", model.CategoryOther, t0)
	require.NoError(t, err)

	later := t0.Add(48 * time.Hour)
	r, created, err := s.Upsert("PRZELEW DO JANA", model.CategoryBills, later)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "rule-1", r.ID)
	assert.Equal(t, model.CategoryBills, r.Category)
	assert.Equal(t, 2, r.UseCount)
	assert.True(t, r.CreatedAt.Equal(t0))
	assert.True(t, r.LastUsedAt.Equal(later))

	rules, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.CategoryBills, rules[0].Category)
}

func TestUpsert_EmptyPhrase(t *testing.T) {
	_, _, err := newTestStore(t).Upsert("   ", model.CategoryOther, t0)
	assert.ErrorIs(t, err, ErrEmptyPhrase)
}

func TestLoad_Ordering(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Upsert("a", model.CategoryFood, t0)
	require.NoError(t, err)
	_, _, err = s.Upsert("b", model.CategoryFuel, t0.Add(time.Hour))
	require.NoError(t, err)
	_, _, err = s.Upsert("c", model.CategoryBills, t0.Add(2*time.Hour))
	require.NoError(t, err)
	_, _, err = s.Upsert("c", model.CategoryBills, t0.Add(3*time.Hour))
	require.NoError(t, err)

	rules, err := s.Load()
	require.NoError(t, err)
	var phrases []string
	for _, r := range rules {
		phrases = append(phrases, r.Phrase)
	}
	assert.Equal(t, []string{"c", "a", "b"}, phrases, "use_count desc, then oldest first")
}

func TestRecordUse(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Upsert("biedronka", model.CategoryFood, t0)
	require.NoError(t, err)
	_, _, err = s.Upsert("orlen", model.CategoryFuel, t0)
	require.NoError(t, err)

	later := t0.Add(time.Hour)
	require.NoError(t, s.RecordUse([]string{"BIEDRONKA", "unknown"}, later))

	rules, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "biedronka", rules[0].Phrase)
	assert.Equal(t, 2, rules[0].UseCount)
	assert.True(t, rules[0].LastUsedAt.Equal(later))
	assert.Equal(t, 1, rules[1].UseCount)
	assert.True(t, rules[1].LastUsedAt.Equal(t0))
}

func TestRecordUse_NoPhrasesNoFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewStore(dir).RecordUse(nil, t0))
	require.NoError(t, NewStore(dir).RecordUse([]string{"x"}, t0))
	_, err := os.Stat(Path(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Upsert("a", model.CategoryFood, t0)
	require.NoError(t, err)
	_, _, err = s.Upsert("b", model.CategoryFood, t0)
	require.NoError(t, err)

	removed, err := s.Delete("rule-1")
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Phrase)

	rules, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "rule-2", rules[0].ID)

	_, err = s.Delete("rule-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Upsert("a", model.CategoryFood, t0)
	require.NoError(t, err)

	r, err := s.Get("rule-1")
	require.NoError(t, err)
	assert.Equal(t, "a", r.Phrase)

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsert_Concurrent(t *testing.T) {
	s := NewStore(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.Upsert("shared", model.CategoryFood, t0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rules, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 20, rules[0].UseCount)
}
