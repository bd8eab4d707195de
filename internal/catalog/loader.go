// Package catalog loads the book catalog from a seed file and watches that
// file for changes.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/pageboundapp/pagebound-server/internal/domain"
)

// seedFile is the on-disk layout of a catalog seed, in YAML or JSON.
type seedFile struct {
	Books []seedBook `yaml:"books" json:"books"`
}

type seedBook struct {
	ID          string        `yaml:"id" json:"id"`
	Title       string        `yaml:"title" json:"title"`
	Author      string        `yaml:"author" json:"author"`
	CoverURL    string        `yaml:"cover_url" json:"cover_url"`
	Price       float64       `yaml:"price" json:"price"`
	Rating      float64       `yaml:"rating" json:"rating"`
	Genre       string        `yaml:"genre" json:"genre"`
	Synopsis    string        `yaml:"synopsis" json:"synopsis"`
	ReleaseDate string        `yaml:"release_date" json:"release_date"`
	IsFree      *bool         `yaml:"is_free" json:"is_free"` // derived from price when absent
	Chapters    []seedChapter `yaml:"chapters" json:"chapters"`
}

type seedChapter struct {
	ID      string      `yaml:"id" json:"id"`
	Title   string      `yaml:"title" json:"title"`
	Content string      `yaml:"content" json:"content"`
	Images  []seedImage `yaml:"images" json:"images"`
}

type seedImage struct {
	URL     string `yaml:"url" json:"url"`
	Caption string `yaml:"caption" json:"caption"`
}

// Seed is a decoded catalog file.
type Seed struct {
	Path  string
	Books []domain.Book
	// Hash is the xxhash of the raw file, used to skip unchanged reloads.
	Hash uint64
}

// LoadFile reads and validates a seed file. The format follows the
// extension: .yaml/.yml or .json.
func LoadFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- operator-supplied seed path
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}

	books, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Seed{Path: path, Books: books, Hash: xxhash.Sum64(data)}, nil
}

// Parse decodes seed data. ext selects the format.
func Parse(data []byte, ext string) ([]domain.Book, error) {
	var f seedFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}

	books := make([]domain.Book, 0, len(f.Books))
	seen := make(map[string]bool, len(f.Books))
	for _, sb := range f.Books {
		b, err := domain.NewBook(sb.toDomain())
		if err != nil {
			return nil, err
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicate book id %s", b.ID)
		}
		seen[b.ID] = true
		books = append(books, b)
	}
	return books, nil
}

func (sb seedBook) toDomain() domain.Book {
	isFree := sb.Price == 0
	if sb.IsFree != nil {
		isFree = *sb.IsFree
	}

	chapters := make([]domain.Chapter, len(sb.Chapters))
	for i, sc := range sb.Chapters {
		images := make([]domain.ChapterImage, len(sc.Images))
		for j, img := range sc.Images {
			images[j] = domain.ChapterImage(img)
		}
		chapters[i] = domain.Chapter{ID: sc.ID, Title: sc.Title, Content: sc.Content, Images: images}
	}

	return domain.Book{
		ID:          sb.ID,
		Title:       sb.Title,
		Author:      sb.Author,
		CoverURL:    sb.CoverURL,
		Price:       sb.Price,
		Rating:      sb.Rating,
		Genre:       sb.Genre,
		Synopsis:    sb.Synopsis,
		ReleaseDate: sb.ReleaseDate,
		IsFree:      isFree,
		Chapters:    chapters,
	}
}
