package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
)

// corpusFile is the YAML layout of a seed file: a flat list of documents.
type corpusFile struct {
	Documents []corpusDoc `yaml:"documents"`
}

type corpusDoc struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
	Category string `yaml:"category"`
	City     string `yaml:"city"`
}

// SeedFromDir loads every *.yaml corpus file under dir into the store.
// Returns the number of documents loaded.
func (s *Store) SeedFromDir(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return 0, fmt.Errorf("failed to list corpus files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return 0, fmt.Errorf("failed to list corpus files: %w", err)
	}
	files = append(files, ymlFiles...)

	total := 0
	for _, file := range files {
		n, err := s.SeedFromFile(ctx, file)
		if err != nil {
			return total, err
		}
		total += n
	}

	s.logger.Info("seeded %d documents from %s", total, dir)
	return total, nil
}

// SeedFromFile loads one YAML corpus file into the store.
func (s *Store) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}

	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return 0, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}

	for i, cd := range corpus.Documents {
		category := analysis.DocCategory(cd.Category)
		switch category {
		case analysis.DocMarket, analysis.DocRegulatory:
		default:
			return i, fmt.Errorf("corpus file %s: document %s has unknown category %q", path, cd.ID, cd.Category)
		}
		doc := analysis.Document{
			ID:       cd.ID,
			Title:    cd.Title,
			Content:  cd.Content,
			Category: category,
			City:     cd.City,
		}
		if err := s.Put(ctx, doc); err != nil {
			return i, err
		}
	}

	return len(corpus.Documents), nil
}
