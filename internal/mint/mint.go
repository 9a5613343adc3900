// Package mint derives deterministic dataset identifiers.
//
// Identifiers are UUIDv5 values chained from the DNS namespace through
// "datalad.org", so the same dataset name and project always mint the
// same id without any shared state.
package mint

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// datasetFormat seeds ids for SFB1451 datasets.
const datasetFormat = "sfb1451.{project}.{name}"

var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("datalad.org"))

// ID mints a UUIDv5 in the datalad.org namespace from the given seed.
func ID(seed string) string {
	return uuid.NewSHA1(namespace, []byte(seed)).String()
}

// FromFormat renders format by substituting {key} placeholders from fields
// and mints an id from the result. It fails when a placeholder has no value.
func FromFormat(format string, fields map[string]string) (string, error) {
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{"+k+"}", v)
	}
	seed := strings.NewReplacer(pairs...).Replace(format)
	if i := strings.IndexByte(seed, '{'); i >= 0 {
		if j := strings.IndexByte(seed[i:], '}'); j >= 0 {
			return "", fmt.Errorf("unresolved placeholder %s in %q", seed[i:i+j+1], format)
		}
	}
	return ID(seed), nil
}

// DatasetID mints the id for an SFB1451 dataset from its name and the
// project it belongs to. The project code is lowercased first, so the
// same dataset minted from "Z03" and "z03" gets the same id.
func DatasetID(name, project string) string {
	id, err := FromFormat(datasetFormat, map[string]string{
		"name":    name,
		"project": strings.ToLower(project),
	})
	if err != nil {
		// both placeholders are always supplied
		panic(err)
	}
	return id
}
