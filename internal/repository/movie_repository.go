package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/EldonT123/bs-reviews/internal/model"
)

const (
	metadataFile = "metadata.json"
	reviewsFile  = "movieReviews.csv"
)

// MovieRepo manages the per-movie folders under DATA_DIR/movies.  Each
// folder holds a metadata.json and a movieReviews.csv.  There is no index;
// listing walks the directory.
type MovieRepo struct {
	mu   sync.Mutex
	root string
}

func NewMovieRepo(dataDir string) *MovieRepo {
	return &MovieRepo{root: filepath.Join(dataDir, "movies")}
}

// Root returns the movie folder root, shared with the review repository.
func (r *MovieRepo) Root() string { return r.root }

// List returns the sorted folder names of every movie.
func (r *MovieRepo) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	folders := []string{}
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// Exists reports whether a movie folder is present.
func (r *MovieRepo) Exists(folder string) bool {
	info, err := os.Stat(filepath.Join(r.root, folder))
	return err == nil && info.IsDir()
}

// GetMetadata loads a movie's metadata.json.
func (r *MovieRepo) GetMetadata(folder string) (model.MovieMetadata, error) {
	b, err := os.ReadFile(filepath.Join(r.root, folder, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.MovieMetadata{}, ErrNotFound
		}
		return model.MovieMetadata{}, err
	}
	var meta model.MovieMetadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return model.MovieMetadata{}, err
	}
	return meta, nil
}

// SaveMetadata rewrites a movie's metadata.json via temp file and rename.
func (r *MovieRepo) SaveMetadata(folder string, meta model.MovieMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir := filepath.Join(r.root, folder)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ErrNotFound
	}
	return writeJSON(filepath.Join(dir, metadataFile), meta)
}

// Create makes a new movie folder with its metadata and an empty review
// table.  Returns ErrConflict when the folder already exists.
func (r *MovieRepo) Create(folder string, meta model.MovieMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir := filepath.Join(r.root, folder)
	if _, err := os.Stat(dir); err == nil {
		return ErrConflict
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}
	return writeTable(filepath.Join(dir, reviewsFile), nil)
}

// Delete removes a movie folder and everything in it.
func (r *MovieRepo) Delete(folder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir := filepath.Join(r.root, folder)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ErrNotFound
	}
	return os.RemoveAll(dir)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
