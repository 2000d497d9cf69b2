package openai

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// IdentityHash digests the fields that define an eval's semantic
// identity: name, data source config, and testing criteria. Metadata,
// id, and timestamps do not participate, so two resources with equal
// hashes are the same content regardless of bookkeeping. The digest is
// computed over the canonical JSON of that projection: map keys sort
// and numeric literals are preserved, so the hash is stable across
// decode/re-encode cycles.
func IdentityHash(e Eval) (string, error) {
	projection := struct {
		Name             string           `json:"name"`
		DataSourceConfig DataSourceConfig `json:"data_source_config"`
		TestingCriteria  []Grader         `json:"testing_criteria"`
	}{
		Name:             e.Name,
		DataSourceConfig: e.DataSourceConfig,
		TestingCriteria:  e.TestingCriteria,
	}
	if projection.TestingCriteria == nil {
		projection.TestingCriteria = []Grader{}
	}

	data, err := json.Marshal(projection)
	if err != nil {
		return "", fmt.Errorf("identity hash for %s: %w", e.Name, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
