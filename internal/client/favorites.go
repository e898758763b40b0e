package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrFavoriteName     = errors.New("favorite name must not be empty")
)

// Favorite is a saved prediction input.
type Favorite struct {
	Name    string         `json:"name"`
	Model   string         `json:"model"`
	Fields  map[string]any `json:"fields"`
	SavedAt time.Time      `json:"saved_at"`
}

// Favorites is a JSON file of saved inputs keyed by name. Every change is
// written back to disk before it returns.
type Favorites struct {
	path string

	mu    sync.Mutex
	items map[string]Favorite
}

// OpenFavorites loads path, treating a missing file as empty.
func OpenFavorites(path string) (*Favorites, error) {
	f := &Favorites{path: path, items: make(map[string]Favorite)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.items); err != nil {
		return nil, fmt.Errorf("parse favorites %s: %w", path, err)
	}
	return f, nil
}

// DefaultFavoritesPath is ~/.config/predictml/favorites.json, or the user
// config dir equivalent.
func DefaultFavoritesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "predictml", "favorites.json"), nil
}

// Save adds or replaces a favorite.
func (f *Favorites) Save(fav Favorite) error {
	if fav.Name == "" {
		return ErrFavoriteName
	}
	if fav.SavedAt.IsZero() {
		fav.SavedAt = time.Now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.items[fav.Name]
	f.items[fav.Name] = fav
	if err := f.flush(); err != nil {
		if had {
			f.items[fav.Name] = prev
		} else {
			delete(f.items, fav.Name)
		}
		return err
	}
	return nil
}

func (f *Favorites) Get(name string) (Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fav, ok := f.items[name]
	if !ok {
		return Favorite{}, fmt.Errorf("%w: %s", ErrFavoriteNotFound, name)
	}
	return fav, nil
}

// List returns favorites sorted by name.
func (f *Favorites) List() []Favorite {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Favorite, 0, len(f.items))
	for _, fav := range f.items {
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *Favorites) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.items[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFavoriteNotFound, name)
	}
	delete(f.items, name)
	if err := f.flush(); err != nil {
		f.items[name] = prev
		return err
	}
	return nil
}

// flush writes to a temp file and renames it over the target.
func (f *Favorites) flush() error {
	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create favorites directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace favorites: %w", err)
	}
	return nil
}
