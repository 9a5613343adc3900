// Package tabby loads tabby metadata records: tab-separated value
// sheets that can reference each other and carry a convention suffix in
// their file name, e.g. dataset@tby-crc1451v0.tsv.
//
// The loader covers the subset of the tabby convention this pipeline
// consumes: single-record sheets (key, value...), many-record sheets
// (header row plus one record per row), @tabby-single-<sheet> and
// @tabby-many-<sheet> imports, and JSON-LD context attachment from
// convention definitions. Sheets are read as UTF-8 unless another
// encoding is requested.
package tabby

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Record is a loaded tabby record.
type Record = map[string]any

// Sheet import tokens.
const (
	importSinglePrefix = "@tabby-single-"
	importManyPrefix   = "@tabby-many-"
)

// Option configures loading.
type Option func(*loader)

// WithConventionPaths sets the directories searched for convention
// context definitions (<convention>.ctx.jsonld or <convention>/ctx.jsonld).
func WithConventionPaths(dirs ...string) Option {
	return func(l *loader) { l.cpaths = append(l.cpaths, dirs...) }
}

// WithEncoding sets the text encoding of the sheets.
func WithEncoding(name string) Option {
	return func(l *loader) { l.encoding = name }
}

type loader struct {
	cpaths      []string
	encoding    string
	stack       []string
	conventions []string
}

// Load reads the single-record sheet at path, resolves sheet imports,
// and attaches the JSON-LD context of every convention encountered.
func Load(path string, opts ...Option) (Record, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	record, err := l.single(path)
	if err != nil {
		return nil, err
	}
	ctx, err := l.mergedContext()
	if err != nil {
		return nil, err
	}
	if len(ctx) > 0 {
		record["@context"] = ctx
	}
	return record, nil
}

// splitStem splits a tabby file stem into prefix, sheet, and convention:
// "example-record_dataset@tby-crc1451v0" -> ("example-record", "dataset", "tby-crc1451v0").
func splitStem(stem string) (prefix, sheet, convention string) {
	rest := stem
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		convention = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.LastIndexByte(rest, '_'); i >= 0 {
		return rest[:i], rest[i+1:], convention
	}
	return "", rest, convention
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (l *loader) single(path string) (Record, error) {
	leave, err := l.enter(path)
	if err != nil {
		return nil, err
	}
	defer leave()

	rows, err := l.rows(path)
	if err != nil {
		return nil, err
	}

	record := Record{}
	for _, row := range rows {
		key := strings.TrimSpace(row[0])
		if key == "" {
			continue
		}
		var values []string
		for _, cell := range row[1:] {
			if v := strings.TrimSpace(cell); v != "" {
				values = append(values, v)
			}
		}
		switch len(values) {
		case 0:
			continue
		case 1:
			v, err := l.value(path, values[0])
			if err != nil {
				return nil, err
			}
			record[key] = v
		default:
			list := make([]any, 0, len(values))
			for _, raw := range values {
				v, err := l.value(path, raw)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			record[key] = list
		}
	}
	return record, nil
}

func (l *loader) many(path string) ([]any, error) {
	leave, err := l.enter(path)
	if err != nil {
		return nil, err
	}
	defer leave()

	rows, err := l.rows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}

	var items []any
	for _, row := range rows[1:] {
		item := Record{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			raw := strings.TrimSpace(cell)
			if raw == "" {
				continue
			}
			v, err := l.value(path, raw)
			if err != nil {
				return nil, err
			}
			item[header[i]] = v
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items, nil
}

// value resolves one cell, following sheet imports.
func (l *loader) value(path, raw string) (any, error) {
	if sheet, ok := strings.CutPrefix(raw, importManyPrefix); ok {
		target, err := l.sibling(path, sheet)
		if err != nil {
			return nil, err
		}
		return l.many(target)
	}
	if sheet, ok := strings.CutPrefix(raw, importSinglePrefix); ok {
		target, err := l.sibling(path, sheet)
		if err != nil {
			return nil, err
		}
		return l.single(target)
	}
	return raw, nil
}

// sibling locates an imported sheet next to the importing file. Sheets
// from the same prefix family win over bare sheet files; the convention
// suffix may differ from the importer's.
func (l *loader) sibling(path, sheet string) (string, error) {
	dir := filepath.Dir(path)
	prefix, _, _ := splitStem(stem(path))

	var patterns []string
	if prefix != "" {
		patterns = append(patterns,
			prefix+"_"+sheet+"@*.tsv",
			prefix+"_"+sheet+".tsv",
		)
	}
	patterns = append(patterns, sheet+"@*.tsv", sheet+".tsv")

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("sheet %q imported by %s not found", sheet, path)
}

func (l *loader) enter(path string) (func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for _, p := range l.stack {
		if p == abs {
			return nil, fmt.Errorf("circular sheet import via %s", path)
		}
	}
	l.stack = append(l.stack, abs)
	return func() { l.stack = l.stack[:len(l.stack)-1] }, nil
}

// rows reads all non-empty, non-comment rows of a sheet and records the
// convention its file name carries.
func (l *loader) rows(path string) ([][]string, error) {
	if _, _, conv := splitStem(stem(path)); conv != "" {
		l.addConvention(conv)
	}

	r, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rows [][]string
	for _, row := range all {
		if len(row) == 0 {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (l *loader) addConvention(conv string) {
	for _, c := range l.conventions {
		if c == conv {
			return
		}
	}
	l.conventions = append(l.conventions, conv)
}

// mergedContext combines the context definitions of all conventions
// encountered while loading. Conventions without a definition on the
// search path contribute nothing; records stay usable without JSON-LD
// processing.
func (l *loader) mergedContext() (map[string]any, error) {
	merged := map[string]any{}
	for _, conv := range l.conventions {
		ctx, err := l.conventionContext(conv)
		if err != nil {
			return nil, err
		}
		if ctx == nil {
			slog.Debug("no context definition for convention", "convention", conv)
			continue
		}
		for k, v := range ctx {
			merged[k] = v
		}
	}
	return merged, nil
}

func (l *loader) conventionContext(conv string) (map[string]any, error) {
	for _, dir := range l.cpaths {
		for _, candidate := range []string{
			filepath.Join(dir, conv+".ctx.jsonld"),
			filepath.Join(dir, conv, "ctx.jsonld"),
		} {
			data, err := os.ReadFile(candidate)
			if err != nil {
				continue
			}
			var doc map[string]any
			if err := json.Unmarshal(data, &doc); err != nil {
				return nil, fmt.Errorf("parsing context %s: %w", candidate, err)
			}
			if inner, ok := doc["@context"].(map[string]any); ok {
				return inner, nil
			}
			return doc, nil
		}
	}
	return nil, nil
}
