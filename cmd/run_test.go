package cmd

import (
	"testing"

	"github.com/storageops/nascheck/internal/config"
	"github.com/storageops/nascheck/internal/harness/suitedef"
	"github.com/stretchr/testify/assert"
)

func TestBulkParams(t *testing.T) {
	cfg := &config.Config{BulkCount: 50}

	three := 3
	zero := 0

	tests := []struct {
		name       string
		spec       *suitedef.BulkSpec
		wantPrefix string
		wantCount  int
	}{
		{
			name:       "explicit prefix and count",
			spec:       &suitedef.BulkSpec{Prefix: "churn", Count: &three},
			wantPrefix: "churn",
			wantCount:  3,
		},
		{
			name:       "omitted fields fall back to config",
			spec:       &suitedef.BulkSpec{},
			wantPrefix: config.BulkNamePrefix,
			wantCount:  50,
		},
		{
			name:       "explicit zero count is not a fallback",
			spec:       &suitedef.BulkSpec{Prefix: "churn", Count: &zero},
			wantPrefix: "churn",
			wantCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, count := bulkParams(cfg, tt.spec)
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}
