package folds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FiveFoldsWithPurgeAndEmbargo(t *testing.T) {
	folds, err := Generate(0, 49, 5, 2, 3)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	naiveComplement := 40
	for i, f := range folds {
		assert.Len(t, f.Val, 10, "fold %d val block", i)
		assert.Less(t, len(f.Train), naiveComplement, "fold %d train must shrink below the naive complement", i)
		assert.NotEmpty(t, f.Train, "fold %d", i)
	}
}

func TestGenerate_ValBlocksPartitionRange(t *testing.T) {
	folds, err := Generate(10, 62, 4, 1, 1)
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, f := range folds {
		for _, p := range f.Val {
			seen[p]++
		}
	}
	for p := 10; p <= 62; p++ {
		assert.Equal(t, 1, seen[p], "position %d must be validation exactly once", p)
	}
	assert.Len(t, seen, 53)
}

func TestGenerate_PurgeEmbargoDistances(t *testing.T) {
	const purge, embargo = 3, 4
	folds, err := Generate(0, 99, 5, purge, embargo)
	require.NoError(t, err)

	for i, f := range folds {
		valSet := make(map[int]bool, len(f.Val))
		for _, v := range f.Val {
			valSet[v] = true
		}
		valStart, valEnd := f.Val[0], f.Val[len(f.Val)-1]

		for _, tr := range f.Train {
			assert.False(t, valSet[tr], "fold %d: train/val overlap at %d", i, tr)
			if tr < valStart {
				assert.Greater(t, valStart-tr, purge, "fold %d: train %d inside purge gap", i, tr)
			}
			if tr > valEnd {
				assert.Greater(t, tr-valEnd, embargo, "fold %d: train %d inside embargo gap", i, tr)
			}
		}
	}
}

func TestGenerate_UnevenBlockSizes(t *testing.T) {
	folds, err := Generate(0, 52, 5, 0, 0)
	require.NoError(t, err)

	// 53 positions over 5 blocks: three blocks of 11, two of 10.
	sizes := make([]int, len(folds))
	total := 0
	for i, f := range folds {
		sizes[i] = len(f.Val)
		total += len(f.Val)
	}
	assert.Equal(t, 53, total)
	assert.Equal(t, []int{11, 11, 11, 10, 10}, sizes)
}

func TestGenerate_DegenerateFold(t *testing.T) {
	// Horizons wide enough to wipe out every training position.
	_, err := Generate(0, 9, 2, 10, 10)
	assert.ErrorIs(t, err, ErrDegenerateFold)
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	_, err := Generate(0, 49, 1, 0, 0)
	assert.Error(t, err, "k below 2")

	_, err = Generate(0, 4, 10, 0, 0)
	assert.Error(t, err, "k larger than range")

	_, err = Generate(5, 2, 2, 0, 0)
	assert.Error(t, err, "inverted range")

	_, err = Generate(0, 49, 5, -1, 0)
	assert.Error(t, err, "negative purge")
}
