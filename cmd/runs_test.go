package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/facwatch/internal/model"
)

func TestFormatOutcomes(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	outcomes := []model.RunOutcome{
		{
			TargetID: "physics", Status: model.RunSuccess, Tier: 2,
			Records: 14, Added: 3, Changed: 1,
			StartedAt: t0, FinishedAt: t0.Add(90 * time.Second),
		},
		{
			TargetID: "chemistry", Status: model.RunFailed,
			Error:     strings.Repeat("x", 80),
			StartedAt: t0, FinishedAt: t0.Add(time.Second),
		},
	}

	var buf bytes.Buffer
	formatOutcomes(&buf, outcomes)
	out := buf.String()

	assert.Contains(t, out, "physics")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "1m30s")
	// Long errors are truncated for the table.
	assert.Contains(t, out, "xxx...")
	assert.NotContains(t, out, strings.Repeat("x", 80))
}
