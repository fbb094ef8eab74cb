package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/huntwise/drawcore/internal/airlock"
)

// LoadStagingSnapshot reads a captured snapshot from a YAML file.
// Unknown fields are rejected; scraper output drift should fail loudly.
func LoadStagingSnapshot(path string) (airlock.StagingSnapshot, error) {
	s, err := decodeYAMLFile[airlock.StagingSnapshot](path)
	if err != nil {
		return airlock.StagingSnapshot{}, fmt.Errorf("load staging snapshot: %w", err)
	}
	return s, nil
}

// LoadLiveRecord reads a live jurisdiction record from a YAML file.
func LoadLiveRecord(path string) (airlock.LiveRecord, error) {
	l, err := decodeYAMLFile[airlock.LiveRecord](path)
	if err != nil {
		return airlock.LiveRecord{}, fmt.Errorf("load live record: %w", err)
	}
	return l, nil
}

// LoadTolerances reads tolerance overrides from a YAML file. Fields omitted
// from the file keep their default values.
func LoadTolerances(path string) (airlock.Tolerances, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return airlock.Tolerances{}, fmt.Errorf("load tolerances: %w", err)
	}

	tol := airlock.DefaultTolerances
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tol); err != nil && !errors.Is(err, io.EOF) {
		return airlock.Tolerances{}, fmt.Errorf("load tolerances: %w", err)
	}
	return tol, nil
}

func decodeYAMLFile[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
