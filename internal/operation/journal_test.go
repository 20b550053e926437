package operation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalUnwindsInReverse(t *testing.T) {
	j := &Journal{}
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		j.Record(func() error {
			order = append(order, i)
			return nil
		})
	}
	require.Equal(t, 3, j.Len())
	require.NoError(t, j.Unwind())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestJournalUnwindAttemptsEveryStep(t *testing.T) {
	j := &Journal{}
	var ran []string
	j.Record(func() error {
		ran = append(ran, "first")
		return nil
	})
	j.Record(func() error {
		ran = append(ran, "second")
		return errors.New("second failed")
	})
	j.Record(func() error {
		ran = append(ran, "third")
		return nil
	})

	err := j.Unwind()
	require.Error(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, ran)
}

func TestEmptyJournal(t *testing.T) {
	j := &Journal{}
	assert.Equal(t, 0, j.Len())
	assert.NoError(t, j.Unwind())
}
