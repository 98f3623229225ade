package statementparser

import (
	"testing"

	"budgetflow/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFormat(t *testing.T) {
	for _, format := range []string{"CSV", "csv", " Csv ", "EXCEL", "JSON", "PDF"} {
		t.Run(format, func(t *testing.T) {
			parser, err := ForFormat(format)
			require.NoError(t, err)
			assert.NotNil(t, parser)
		})
	}
}

func TestForFormatUnsupported(t *testing.T) {
	_, err := ForFormat("XML")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalid(err))
	// The error must name every supported format so callers can self-correct.
	for _, format := range SupportedFormats() {
		assert.Contains(t, err.Error(), format)
	}
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"CSV", "EXCEL", "JSON", "PDF"}, SupportedFormats())
}
