package survey

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arashpd/surveybot/core/logger"
	"log/slog"
)

// ErrCategoryNotFound reports a category key with no question list behind it.
// Selection keyboards are generated from the catalog itself, so hitting this
// during a conversation means the catalog and the engine disagree.
var ErrCategoryNotFound = fmt.Errorf("survey: category not found")

// Question is a single survey step. Options empty means the answer is
// collected as free text instead of buttons.
type Question struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
}

// Category is an ordered question list selectable at the branch point.
// Title is the button label shown to the respondent; Key travels in
// callback payloads and in the persisted record.
type Category struct {
	Key       string     `yaml:"key"`
	Title     string     `yaml:"title"`
	Questions []Question `yaml:"questions"`
}

// Catalog maps category keys to their question lists, preserving the
// declaration order for keyboard rendering.
type Catalog struct {
	categories []Category
	byKey      map[string]int
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// NewCatalog validates and indexes a category list.
// Every category must carry a unique non-empty key and at least one question.
func NewCatalog(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("survey: catalog has no categories")
	}

	byKey := make(map[string]int, len(categories))
	for i, cat := range categories {
		key := strings.TrimSpace(cat.Key)
		if key == "" {
			return nil, fmt.Errorf("survey: category %d has an empty key", i)
		}
		if _, dup := byKey[key]; dup {
			return nil, fmt.Errorf("survey: duplicate category key %q", key)
		}
		if len(cat.Questions) == 0 {
			return nil, fmt.Errorf("survey: category %q has no questions", key)
		}
		for qi, q := range cat.Questions {
			if strings.TrimSpace(q.Prompt) == "" {
				return nil, fmt.Errorf("survey: category %q question %d has an empty prompt", key, qi)
			}
		}
		categories[i].Key = key
		if strings.TrimSpace(cat.Title) == "" {
			categories[i].Title = key
		}
		byKey[key] = i
	}

	return &Catalog{categories: categories, byKey: byKey}, nil
}

// LoadCatalog reads a catalog definition from a YAML file.
// An empty path falls back to the built-in default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		cat := DefaultCatalog()
		logger.SVCCatalog.Info("catalog loaded",
			slog.String("event", "catalog.load"),
			slog.String("source", "builtin"),
			slog.Int("categories", len(cat.categories)),
		)
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("survey: read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("survey: parse catalog: %w", err)
	}
	cat, err := NewCatalog(file.Categories)
	if err != nil {
		return nil, err
	}

	logger.SVCCatalog.Info("catalog loaded",
		slog.String("event", "catalog.load"),
		slog.String("source", path),
		slog.Int("categories", len(cat.categories)),
	)
	return cat, nil
}

// Categories returns the catalog's categories in declaration order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Questions returns the ordered question list for a category key.
func (c *Catalog) Questions(key string) ([]Question, error) {
	i, ok := c.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, key)
	}
	return c.categories[i].Questions, nil
}

// Has reports whether the catalog knows the given category key.
func (c *Catalog) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Title returns the display label for a category key, or the key itself
// when the key is unknown.
func (c *Catalog) Title(key string) string {
	if i, ok := c.byKey[key]; ok {
		return c.categories[i].Title
	}
	return key
}

// DefaultCatalog returns the built-in satisfaction survey used when no
// catalog file is configured.
func DefaultCatalog() *Catalog {
	ratings := []string{"1", "2", "3", "4", "5"}
	cats := make([]Category, 0, len(ratings))
	for _, r := range ratings {
		cats = append(cats, Category{
			Key:   r,
			Title: r + " ⭐",
			Questions: []Question{
				{Prompt: "What did you like the most?"},
				{Prompt: "What should we improve?"},
				{Prompt: "Any final comments?"},
			},
		})
	}
	cat, err := NewCatalog(cats)
	if err != nil {
		// The built-in catalog is static and always valid.
		panic(err)
	}
	return cat
}
