package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatutCR_Lifecycle(t *testing.T) {
	t.Run("only draft is modifiable", func(t *testing.T) {
		assert.True(t, StatutDraft.IsModifiable())
		assert.False(t, StatutSubmitted.IsModifiable())
		assert.False(t, StatutValidated.IsModifiable())
	})

	t.Run("only submitted can be validated", func(t *testing.T) {
		assert.False(t, StatutDraft.CanBeValidated())
		assert.True(t, StatutSubmitted.CanBeValidated())
		assert.False(t, StatutValidated.CanBeValidated())
	})

	t.Run("exactly three states", func(t *testing.T) {
		assert.Len(t, StatutValues(), 3)
		assert.Equal(t, []StatutCR{StatutDraft, StatutSubmitted, StatutValidated}, StatutValues())
	})
}

func TestParseStatutCR(t *testing.T) {
	st, err := ParseStatutCR("SUBMITTED")
	require.NoError(t, err)
	assert.Equal(t, StatutSubmitted, st)

	_, err = ParseStatutCR("ARCHIVED")
	require.Error(t, err)
}
