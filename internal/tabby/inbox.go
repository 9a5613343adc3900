package tabby

import (
	"path/filepath"
	"strings"
)

// SheetConventions maps known sheet names to the convention suffix
// their files carry in a tabby record directory.
var SheetConventions = map[string]string{
	"dataset":         "@tby-crc1451v0",
	"funding":         "@tby-crc1451v0",
	"publications":    "@tby-crc1451v0",
	"data-controller": "@tby-crc1451v0",
	"used-for":        "@tby-crc1451v0",
	"authors":         "@tby-crc1451v0",
	"files":           "@tby-ds1",
}

// PrefixSheet splits a tabby file stem into its workbook prefix and
// sheet name at the last underscore. Files without an underscore have
// no prefix.
func PrefixSheet(path string) (prefix, sheet string) {
	s := stem(path)
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// DirEquivalent translates a prefixed flat file into its
// file-in-directory form: inbox/proj_dataset.tsv -> inbox/proj/dataset.tsv.
// Unprefixed paths are returned unchanged.
func DirEquivalent(path string) string {
	prefix, sheet := PrefixSheet(path)
	if prefix == "" {
		return path
	}
	return filepath.Join(filepath.Dir(path), prefix, sheet+filepath.Ext(path))
}

// AffixConvention appends the convention suffix for known sheets:
// proj/dataset.tsv -> proj/dataset@tby-crc1451v0.tsv. Unknown sheets
// are returned unchanged.
func AffixConvention(path string) string {
	_, sheet := PrefixSheet(path)
	convention := SheetConventions[sheet]
	if convention == "" {
		return path
	}
	ext := filepath.Ext(path)
	return filepath.Join(filepath.Dir(path), stem(path)+convention+ext)
}
