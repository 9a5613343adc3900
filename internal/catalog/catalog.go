// Package catalog reads and writes DataLad catalog entries.
//
// A catalog is a directory with a config.json and a metadata/ tree in
// which each dataset version keeps one JSON-lines file per metadata
// source:
//
//	<catalog>/metadata/<dataset_id>/<dataset_version>/<source>.jsonl
//
// The home page dataset is recorded in <catalog>/super.json. Only the
// operations the pipeline needs are implemented: validate, add, remove,
// and setting the home page. Everything else about catalog rendering
// belongs to the catalog software itself.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// ErrIncompleteRemoval reports a removal that matched nothing. Callers
// that remove before re-adding treat it as success.
var ErrIncompleteRemoval = errors.New("no catalog entries removed for dataset")

// Catalog is a catalog directory.
type Catalog struct {
	Dir string
	// ConfigFile, when set, is attached to datasets on their first add.
	ConfigFile string
}

// New returns a handle on the catalog at dir. The directory does not
// have to exist yet; Add creates what it needs.
func New(dir string) *Catalog {
	return &Catalog{Dir: dir}
}

func (c *Catalog) versionDir(id, version string) string {
	return filepath.Join(c.Dir, "metadata", id, version)
}

// Validate checks an item against the subset of the catalog schema this
// pipeline produces.
func (c *Catalog) Validate(item Item) error {
	return Validate(item)
}

// Validate checks the fields the catalog requires on every item: type,
// dataset id and version, a path for files, and a name for datasets
// (the name becomes the catalog page title).
func Validate(item Item) error {
	var errs *multierror.Error
	b := item.Base()
	switch b.Type {
	case TypeDataset, TypeFile:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown metadata item type %q", b.Type))
	}
	if b.DatasetID == "" {
		errs = multierror.Append(errs, errors.New("dataset_id is required"))
	}
	if b.DatasetVersion == "" {
		errs = multierror.Append(errs, errors.New("dataset_version is required"))
	}
	switch it := item.(type) {
	case *FileItem:
		if it.Path == "" {
			errs = multierror.Append(errs, errors.New("file items need a path"))
		}
	case *DatasetItem:
		if it.Name == "" {
			errs = multierror.Append(errs, errors.New("dataset items need a name"))
		}
	}
	return errs.ErrorOrNil()
}

// Add appends a metadata item to the catalog.
func (c *Catalog) Add(item Item) error {
	b := item.Base()
	if b.DatasetID == "" || b.DatasetVersion == "" {
		return errors.New("cannot add an item without dataset id and version")
	}
	dir := c.versionDir(b.DatasetID, b.DatasetVersion)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating catalog entry dir: %w", err)
	}
	if c.ConfigFile != "" && b.Type == TypeDataset {
		if err := c.attachConfig(b.DatasetID); err != nil {
			return err
		}
	}

	line, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding metadata item: %w", err)
	}
	path := filepath.Join(dir, b.SourceName()+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// AddMany adds items in order, continuing past individual failures and
// reporting all of them at the end.
func (c *Catalog) AddMany(items []Item) error {
	var errs *multierror.Error
	for _, item := range items {
		if err := c.Add(item); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Remove deletes all entries for a dataset version. It returns
// ErrIncompleteRemoval when the catalog holds nothing for that version.
func (c *Catalog) Remove(id, version string) error {
	dir := c.versionDir(id, version)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s@%s: %w", id, version, ErrIncompleteRemoval)
		}
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing catalog entries: %w", err)
	}

	// drop the dataset dir when no other versions remain
	parent := filepath.Dir(dir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.Name() != "config.json" {
			return nil
		}
	}
	if err := os.RemoveAll(parent); err != nil {
		return fmt.Errorf("removing empty dataset dir: %w", err)
	}
	return nil
}

// Home is the dataset shown on the catalog's main page.
type Home struct {
	DatasetID      string `json:"dataset_id"`
	DatasetVersion string `json:"dataset_version"`
}

// SetHome records the catalog's home page dataset. An existing home
// page is only replaced when overwrite is set.
func (c *Catalog) SetHome(id, version string, overwrite bool) error {
	path := filepath.Join(c.Dir, "super.json")
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("catalog home already set in %s", path)
		}
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}
	data, err := json.Marshal(Home{DatasetID: id, DatasetVersion: version})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Home reads the recorded home page, or nil when none is set.
func (c *Catalog) Home() (*Home, error) {
	data, err := os.ReadFile(filepath.Join(c.Dir, "super.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var h Home
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing super.json: %w", err)
	}
	return &h, nil
}

func (c *Catalog) attachConfig(id string) error {
	dst := filepath.Join(c.Dir, "metadata", id, "config.json")
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading catalog config: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("attaching config for %s: %w", id, err)
	}
	return nil
}
