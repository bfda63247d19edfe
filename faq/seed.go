// Package faq seeds and searches the LINE chatbot's question bank. The
// YAML seed file is the source of truth; the database rows exist so the
// responder can serve lookups without touching the file.
package faq

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"lengolf/database"
	"lengolf/model"
)

// SeedEntry is one question in the seed file.
type SeedEntry struct {
	Language  string   `yaml:"language"`
	Question  string   `yaml:"question"`
	Answer    string   `yaml:"answer"`
	Keywords  []string `yaml:"keywords"`
	SortOrder int      `yaml:"sortOrder"`
}

// SeedCategory groups entries under one display heading.
type SeedCategory struct {
	Name    string      `yaml:"name"`
	Entries []SeedEntry `yaml:"entries"`
}

// SeedFile is the root of the YAML document.
type SeedFile struct {
	Categories []SeedCategory `yaml:"categories"`
}

// SeedStats reports what one seeding run changed.
type SeedStats struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Pruned    int `json:"pruned"`
}

// LoadSeedFile parses and validates a seed YAML file.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := Validate(seed); err != nil {
		return SeedFile{}, err
	}
	return seed, nil
}

// Validate rejects malformed seed files before anything touches the
// database: empty questions or answers, unknown languages, and duplicate
// (language, question) pairs within the file.
func Validate(seed SeedFile) error {
	if len(seed.Categories) == 0 {
		return fmt.Errorf("seed file has no categories")
	}
	seen := make(map[string]bool)
	for _, cat := range seed.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category with empty name")
		}
		for _, e := range cat.Entries {
			if e.Language != "en" && e.Language != "th" {
				return fmt.Errorf("category %q: entry %q: language must be en or th, got %q", cat.Name, e.Question, e.Language)
			}
			if strings.TrimSpace(e.Question) == "" {
				return fmt.Errorf("category %q: entry with empty question", cat.Name)
			}
			if strings.TrimSpace(e.Answer) == "" {
				return fmt.Errorf("category %q: entry %q has an empty answer", cat.Name, e.Question)
			}
			key := e.Language + "\x00" + e.Question
			if seen[key] {
				return fmt.Errorf("duplicate entry (%s, %q) in seed file", e.Language, e.Question)
			}
			seen[key] = true
		}
	}
	return nil
}

// Seed upserts the file into faq_entries keyed on (language, question).
// Existing rows keep their ids so LINE rich-menu links stay stable. With
// prune set, active rows absent from the file are deactivated.
func Seed(db *sqlx.DB, seed SeedFile, prune bool) (SeedStats, error) {
	if err := Validate(seed); err != nil {
		return SeedStats{}, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return SeedStats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stats SeedStats
	var keepIDs []int
	for _, cat := range seed.Categories {
		for _, e := range cat.Entries {
			want := model.FAQEntry{
				Category:  cat.Name,
				Language:  e.Language,
				Question:  e.Question,
				Answer:    e.Answer,
				Keywords:  strings.Join(e.Keywords, ","),
				SortOrder: e.SortOrder,
				IsActive:  true,
			}

			existing, err := database.GetFAQByKey(tx, e.Language, e.Question)
			if err == sql.ErrNoRows {
				id, err := database.InsertFAQInTx(tx, want)
				if err != nil {
					return SeedStats{}, err
				}
				keepIDs = append(keepIDs, id)
				stats.Added++
				continue
			}
			if err != nil {
				return SeedStats{}, err
			}

			keepIDs = append(keepIDs, existing.ID)
			if existing.Category == want.Category &&
				existing.Answer == want.Answer &&
				existing.Keywords == want.Keywords &&
				existing.SortOrder == want.SortOrder &&
				existing.IsActive {
				stats.Unchanged++
				continue
			}
			want.ID = existing.ID
			if err := database.UpdateFAQInTx(tx, want); err != nil {
				return SeedStats{}, err
			}
			stats.Updated++
		}
	}

	if prune {
		pruned, err := database.DeactivateFAQsNotInTx(tx, keepIDs)
		if err != nil {
			return SeedStats{}, err
		}
		stats.Pruned = pruned
	}

	if err := tx.Commit(); err != nil {
		return SeedStats{}, fmt.Errorf("failed to commit seed: %w", err)
	}
	return stats, nil
}
