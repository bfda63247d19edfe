package faq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lengolf/database"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(db)
	require.NoError(t, err)
	return db
}

func seedFixture() SeedFile {
	return SeedFile{Categories: []SeedCategory{
		{
			Name: "Hours",
			Entries: []SeedEntry{
				{Language: "en", Question: "What are your opening hours?", Answer: "10:00-23:00 every day.", Keywords: []string{"open", "close", "hours"}, SortOrder: 1},
				{Language: "th", Question: "เปิดกี่โมง", Answer: "เปิด 10:00-23:00 ทุกวัน", Keywords: []string{"เปิด", "ปิด"}, SortOrder: 1},
			},
		},
		{
			Name: "Lessons",
			Entries: []SeedEntry{
				{Language: "en", Question: "How do I book a lesson?", Answer: "Message us on LINE with your preferred time.", Keywords: []string{"coach", "lesson", "booking"}, SortOrder: 1},
			},
		},
	}}
}

func TestSeed_AddUpdateUnchanged(t *testing.T) {
	db := testDB(t)

	stats, err := Seed(db, seedFixture(), false)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Added: 3}, stats)

	// Reseeding the same file touches nothing.
	stats, err = Seed(db, seedFixture(), false)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Unchanged: 3}, stats)

	// An edited answer updates the row in place, keeping its id.
	before, err := database.GetFAQByKey(db, "en", "What are your opening hours?")
	require.NoError(t, err)

	edited := seedFixture()
	edited.Categories[0].Entries[0].Answer = "10:00-23:00, last bay at 22:00."
	stats, err = Seed(db, edited, false)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Updated: 1, Unchanged: 2}, stats)

	after, err := database.GetFAQByKey(db, "en", "What are your opening hours?")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "10:00-23:00, last bay at 22:00.", after.Answer)
}

func TestSeed_PruneDeactivatesMissingEntries(t *testing.T) {
	db := testDB(t)
	_, err := Seed(db, seedFixture(), false)
	require.NoError(t, err)

	trimmed := seedFixture()
	trimmed.Categories = trimmed.Categories[:1]
	stats, err := Seed(db, trimmed, true)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Unchanged: 2, Pruned: 1}, stats)

	// The pruned row survives inactive, not deleted.
	row, err := database.GetFAQByKey(db, "en", "How do I book a lesson?")
	require.NoError(t, err)
	assert.False(t, row.IsActive)

	active, err := database.GetActiveFAQs(db, "")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// Restoring the entry reactivates the same row.
	stats, err = Seed(db, seedFixture(), true)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Updated: 1, Unchanged: 2}, stats)
	restored, err := database.GetFAQByKey(db, "en", "How do I book a lesson?")
	require.NoError(t, err)
	assert.Equal(t, row.ID, restored.ID)
	assert.True(t, restored.IsActive)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq_seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: Hours
    entries:
      - language: en
        question: What are your opening hours?
        answer: 10:00-23:00 every day.
        keywords: [open, hours]
        sortOrder: 1
`), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Categories, 1)
	require.Len(t, seed.Categories[0].Entries, 1)
	assert.Equal(t, []string{"open", "hours"}, seed.Categories[0].Entries[0].Keywords)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SeedFile)
	}{
		{"empty file", func(s *SeedFile) { s.Categories = nil }},
		{"blank category", func(s *SeedFile) { s.Categories[0].Name = " " }},
		{"bad language", func(s *SeedFile) { s.Categories[0].Entries[0].Language = "jp" }},
		{"blank question", func(s *SeedFile) { s.Categories[0].Entries[0].Question = "" }},
		{"blank answer", func(s *SeedFile) { s.Categories[0].Entries[0].Answer = "\t" }},
		{"duplicate entry", func(s *SeedFile) {
			s.Categories[1].Entries = append(s.Categories[1].Entries, s.Categories[0].Entries[0])
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seed := seedFixture()
			tc.mutate(&seed)
			assert.Error(t, Validate(seed))
		})
	}
	assert.NoError(t, Validate(seedFixture()))
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_, err := Seed(db, seedFixture(), false)
	require.NoError(t, err)

	// Keyword hit.
	results, err := Search(db, "coach", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "How do I book a lesson?", results[0].Question)

	// Case-insensitive substring of the question.
	results, err = Search(db, "OPENING HOURS", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "en", results[0].Language)

	// Language filter.
	results, err = Search(db, "เปิด", "th")
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Empty query returns the whole active bank in display order.
	results, err = Search(db, "", "")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = Search(db, "membership", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ExactQuestionFirst(t *testing.T) {
	db := testDB(t)
	seed := SeedFile{Categories: []SeedCategory{{
		Name: "Hours",
		Entries: []SeedEntry{
			{Language: "en", Question: "Holiday hours", Answer: "Same as usual.", SortOrder: 1},
			{Language: "en", Question: "Hours", Answer: "10:00-23:00.", SortOrder: 2},
		},
	}}}
	_, err := Seed(db, seed, false)
	require.NoError(t, err)

	results, err := Search(db, "hours", "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Hours", results[0].Question, "exact match outranks display order")
	assert.Equal(t, "Holiday hours", results[1].Question)
}
