package refindex

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidReferenceSet is returned when a reference-set document does not
// conform to the reference-set schema.
var ErrInvalidReferenceSet = errors.New("invalid reference set")

//go:embed referenceset.schema.json
var referenceSetSchema []byte

// ReferenceSet is the on-disk form of a compiled unit's declared references.
// JSON documents are accepted as well, being valid YAML.
type ReferenceSet struct {
	References []ReferenceEntry `yaml:"references"`
}

// LoadReferenceSet reads and validates the reference-set document at path.
func LoadReferenceSet(path string) ([]ReferenceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference set: %w", err)
	}

	return ParseReferenceSet(data)
}

// ParseReferenceSet validates and decodes a reference-set document, keeping
// the declaration order.
func ParseReferenceSet(data []byte) ([]ReferenceEntry, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReferenceSet, err)
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidReferenceSet)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(referenceSetSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReferenceSet, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidReferenceSet, strings.Join(msgs, "; "))
	}

	var set ReferenceSet

	err = yaml.Unmarshal(data, &set)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReferenceSet, err)
	}

	return set.References, nil
}
