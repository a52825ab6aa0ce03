package skufilter_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploykit/azsp/pkg/skufilter"
)

func record(t *testing.T, raw string) skufilter.Record {
	t.Helper()
	var r skufilter.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

func TestFullyAvailable(t *testing.T) {
	t.Run("no restrictions", func(t *testing.T) {
		r := record(t, `{"name": "Standard_D2s_v3", "restrictions": []}`)
		assert.True(t, skufilter.FullyAvailable(r, "eastus"))
	})

	t.Run("missing restrictions field", func(t *testing.T) {
		r := record(t, `{"name": "Standard_D2s_v3"}`)
		assert.True(t, skufilter.FullyAvailable(r, "eastus"))
	})

	t.Run("restricted in queried location", func(t *testing.T) {
		r := record(t, `{"restrictions": [{
			"type": "Location",
			"reasonCode": "NotAvailableForSubscription",
			"restrictionInfo": {"locations": ["eastus"]}
		}]}`)
		assert.False(t, skufilter.FullyAvailable(r, "eastus"))
	})

	t.Run("restricted in another location", func(t *testing.T) {
		r := record(t, `{"restrictions": [{
			"type": "Location",
			"reasonCode": "NotAvailableForSubscription",
			"restrictionInfo": {"locations": ["westus2"]}
		}]}`)
		assert.True(t, skufilter.FullyAvailable(r, "eastus"))
	})

	t.Run("zone-only restriction is retained", func(t *testing.T) {
		r := record(t, `{"restrictions": [{
			"type": "Zone",
			"reasonCode": "NotAvailableForSubscription",
			"restrictionInfo": {"locations": ["eastus"], "zones": ["1", "2"]}
		}]}`)
		assert.True(t, skufilter.FullyAvailable(r, "eastus"))
	})

	t.Run("other reason code is retained", func(t *testing.T) {
		r := record(t, `{"restrictions": [{
			"type": "Location",
			"reasonCode": "QuotaId",
			"restrictionInfo": {"locations": ["eastus"]}
		}]}`)
		assert.True(t, skufilter.FullyAvailable(r, "eastus"))
	})
}

func TestFilter(t *testing.T) {
	records := []skufilter.Record{
		record(t, `{"name": "a", "restrictions": []}`),
		record(t, `{"name": "b", "restrictions": [{
			"type": "Location",
			"reasonCode": "NotAvailableForSubscription",
			"restrictionInfo": {"locations": ["eastus"]}
		}]}`),
		record(t, `{"name": "c"}`),
	}

	filtered := skufilter.Filter(records, "eastus")
	require.Len(t, filtered, 2)

	names := make([]string, 0, len(filtered))
	for _, r := range filtered {
		var envelope struct {
			Name string `json:"name"`
		}
		data, err := json.Marshal(r)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &envelope))
		names = append(names, envelope.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestRecordRoundTrip(t *testing.T) {
	raw := `{"name":"Standard_D2s_v3","tier":"Standard","capabilities":[{"name":"vCPUs","value":"2"}],"restrictions":[]}`
	r := record(t, raw)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(data))
}

func TestOutputFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 1, 0, time.UTC)
	assert.Equal(t, "eastus_skus_03-09-24T14.05.01UTC.json", skufilter.OutputFilename("eastus", now))
}

func TestRun(t *testing.T) {
	in := strings.NewReader(`[
		{"name": "a", "restrictions": []},
		{"name": "b", "restrictions": [{
			"type": "Location",
			"reasonCode": "NotAvailableForSubscription",
			"restrictionInfo": {"locations": ["eastus"]}
		}]}
	]`)

	dir := t.TempDir()
	path, err := skufilter.Run(in, "eastus", dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "eastus_skus_"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0]["name"])
}

func TestRunRejectsMalformedInput(t *testing.T) {
	_, err := skufilter.Run(strings.NewReader(`{"not": "an array"`), "eastus", t.TempDir())
	assert.Error(t, err)
}
