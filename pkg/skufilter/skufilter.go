// Package skufilter filters Azure compute SKU listings down to the SKUs that
// are fully available in a given location. Input is the JSON array produced
// by `az vm list-skus`; records pass through byte-for-byte so fields the
// filter does not inspect are preserved.
package skufilter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	restrictionTypeLocation        = "Location"
	reasonNotAvailableSubscription = "NotAvailableForSubscription"
)

// Restriction is the subset of a SKU restriction entry the filter inspects.
type Restriction struct {
	Type            string          `json:"type"`
	ReasonCode      string          `json:"reasonCode"`
	RestrictionInfo RestrictionInfo `json:"restrictionInfo"`
}

type RestrictionInfo struct {
	Locations []string `json:"locations"`
}

// Record is a single SKU entry. Unmarshalling retains the raw JSON so that
// marshalling reproduces the record unchanged.
type Record struct {
	Restrictions []Restriction

	raw json.RawMessage
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Restrictions []Restriction `json:"restrictions"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	r.Restrictions = envelope.Restrictions
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// FullyAvailable reports whether the SKU is usable in the given location.
// Only a Location-typed restriction with reason NotAvailableForSubscription
// naming the location disqualifies a SKU; zone-level restrictions do not.
func FullyAvailable(record Record, location string) bool {
	for _, restriction := range record.Restrictions {
		if restriction.Type != restrictionTypeLocation || restriction.ReasonCode != reasonNotAvailableSubscription {
			continue
		}
		for _, restricted := range restriction.RestrictionInfo.Locations {
			if restricted == location {
				return false
			}
		}
	}
	return true
}

// Filter returns the records fully available in the given location,
// preserving input order.
func Filter(records []Record, location string) []Record {
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if FullyAvailable(record, location) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// OutputFilename names the result file after the location and the local
// wall-clock time, e.g. "eastus_skus_08-29-26T14.05.01CEST.json".
func OutputFilename(location string, now time.Time) string {
	return fmt.Sprintf("%s_skus_%s%s.json", location, now.Format("01-02-06T15.04.05"), now.Format("MST"))
}

// Run reads a JSON array of SKU records, filters it for the location and
// writes the result as indented JSON to a timestamped file under outputDir.
// Returns the path of the written file.
func Run(in io.Reader, location, outputDir string) (string, error) {
	var records []Record
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return "", fmt.Errorf("decoding SKU records: %w", err)
	}

	filtered := Filter(records, location)

	data, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding filtered records: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, OutputFilename(location, time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing filtered records: %w", err)
	}
	return path, nil
}
