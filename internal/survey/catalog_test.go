package survey

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewCatalogValidation(t *testing.T) {
	q := []Question{{Prompt: "p"}}

	cases := []struct {
		name       string
		categories []Category
	}{
		{"empty catalog", nil},
		{"empty key", []Category{{Key: "  ", Questions: q}}},
		{"duplicate key", []Category{{Key: "a", Questions: q}, {Key: "a", Questions: q}}},
		{"no questions", []Category{{Key: "a"}}},
		{"empty prompt", []Category{{Key: "a", Questions: []Question{{Prompt: "  "}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCatalog(tc.categories); err == nil {
				t.Errorf("NewCatalog accepted invalid input")
			}
		})
	}
}

func TestCatalogLookup(t *testing.T) {
	cat, err := NewCatalog([]Category{
		{Key: "a", Title: "First", Questions: []Question{{Prompt: "p1"}, {Prompt: "p2"}}},
		{Key: "b", Questions: []Question{{Prompt: "p3"}}},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	qs, err := cat.Questions("a")
	if err != nil || len(qs) != 2 {
		t.Fatalf("Questions(a) = %v, %v", qs, err)
	}
	if _, err := cat.Questions("missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("Questions(missing) err = %v, want ErrCategoryNotFound", err)
	}
	if !cat.Has("b") || cat.Has("c") {
		t.Error("Has gave wrong membership")
	}
	if cat.Title("a") != "First" {
		t.Errorf("Title(a) = %q", cat.Title("a"))
	}
	// Untitled categories fall back to the key.
	if cat.Title("b") != "b" {
		t.Errorf("Title(b) = %q", cat.Title("b"))
	}

	keys := make([]string, 0, 2)
	for _, c := range cat.Categories() {
		keys = append(keys, c.Key)
	}
	if keys[0] != "a" || keys[1] != "b" {
		t.Errorf("declaration order lost: %v", keys)
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `categories:
  - key: hero
    title: "Hero 🦸"
    questions:
      - prompt: "Pick one"
        options: ["a", "b"]
      - prompt: "Tell us more"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	qs, err := cat.Questions("hero")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) != 2 || len(qs[0].Options) != 2 || len(qs[1].Options) != 0 {
		t.Errorf("unexpected questions: %+v", qs)
	}
}

func TestLoadCatalogEmptyPathUsesDefault(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog(\"\"): %v", err)
	}
	if len(cat.Categories()) == 0 {
		t.Fatal("default catalog is empty")
	}
	for _, c := range cat.Categories() {
		if len(c.Questions) == 0 {
			t.Errorf("default category %q has no questions", c.Key)
		}
	}
}
