package securitycenter_test

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-securitycenter"
)

func makeSeq[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func makeSeqWithError[T any](items []T, errAt int, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i, item := range items {
			if i == errAt {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func TestCollect(t *testing.T) {
	t.Run("collects all items", func(t *testing.T) {
		seq := makeSeq([]int{1, 2, 3, 4, 5})

		result, err := securitycenter.Collect(seq)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, result)
	})

	t.Run("stops on error", func(t *testing.T) {
		testErr := errors.New("test error")
		seq := makeSeqWithError([]int{1, 2, 3, 4, 5}, 3, testErr)

		result, err := securitycenter.Collect(seq)
		require.ErrorIs(t, err, testErr)
		assert.Equal(t, []int{1, 2, 3}, result)
	})

	t.Run("handles empty sequence", func(t *testing.T) {
		seq := makeSeq([]int{})

		result, err := securitycenter.Collect(seq)
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestCollectN(t *testing.T) {
	t.Run("collects up to n items", func(t *testing.T) {
		seq := makeSeq([]int{1, 2, 3, 4, 5})

		result, err := securitycenter.CollectN(seq, 3)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, result)
	})

	t.Run("collects all if less than n", func(t *testing.T) {
		seq := makeSeq([]int{1, 2})

		result, err := securitycenter.CollectN(seq, 5)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, result)
	})

	t.Run("stops on error before n", func(t *testing.T) {
		testErr := errors.New("test error")
		seq := makeSeqWithError([]int{1, 2, 3, 4, 5}, 2, testErr)

		result, err := securitycenter.CollectN(seq, 5)
		require.ErrorIs(t, err, testErr)
		assert.Equal(t, []int{1, 2}, result)
	})
}

func TestFirst(t *testing.T) {
	t.Run("returns first item", func(t *testing.T) {
		seq := makeSeq([]string{"a", "b", "c"})

		result, err := securitycenter.First(seq)
		require.NoError(t, err)
		assert.Equal(t, "a", result)
	})

	t.Run("returns error for empty iterator", func(t *testing.T) {
		seq := makeSeq([]string{})

		_, err := securitycenter.First(seq)
		require.Error(t, err)
		assert.ErrorIs(t, err, securitycenter.ErrEmptyIterator)
	})

	t.Run("returns error if first item errors", func(t *testing.T) {
		testErr := errors.New("test error")
		seq := makeSeqWithError([]string{"a"}, 0, testErr)

		_, err := securitycenter.First(seq)
		require.ErrorIs(t, err, testErr)
	})
}

func TestTake(t *testing.T) {
	t.Run("takes n items", func(t *testing.T) {
		seq := makeSeq([]int{1, 2, 3, 4, 5})
		taken := securitycenter.Take(seq, 3)

		result, err := securitycenter.Collect(taken)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, result)
	})

	t.Run("propagates errors", func(t *testing.T) {
		testErr := errors.New("test error")
		seq := makeSeqWithError([]int{1, 2, 3, 4, 5}, 2, testErr)
		taken := securitycenter.Take(seq, 5)

		_, err := securitycenter.Collect(taken)
		require.ErrorIs(t, err, testErr)
	})
}

func TestFilterSeq(t *testing.T) {
	t.Run("filters items", func(t *testing.T) {
		seq := makeSeq([]int{1, 2, 3, 4, 5, 6})
		even := securitycenter.FilterSeq(seq, func(n int) bool { return n%2 == 0 })

		result, err := securitycenter.Collect(even)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4, 6}, result)
	})

	t.Run("propagates errors", func(t *testing.T) {
		testErr := errors.New("test error")
		seq := makeSeqWithError([]int{1, 2, 3}, 1, testErr)
		filtered := securitycenter.FilterSeq(seq, func(n int) bool { return true })

		_, err := securitycenter.Collect(filtered)
		require.ErrorIs(t, err, testErr)
	})
}

func TestMap(t *testing.T) {
	t.Run("transforms to different type", func(t *testing.T) {
		seq := makeSeq([]securitycenter.Record{
			{"ip": "10.0.0.1"},
			{"ip": "10.0.0.2"},
		})
		ips := securitycenter.Map(seq, func(r securitycenter.Record) string {
			ip, _ := r["ip"].(string)
			return ip
		})

		result, err := securitycenter.Collect(ips)
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, result)
	})

	t.Run("propagates errors", func(t *testing.T) {
		testErr := errors.New("test error")
		seq := makeSeqWithError([]int{1, 2, 3}, 1, testErr)
		mapped := securitycenter.Map(seq, func(n int) int { return n * 2 })

		_, err := securitycenter.Collect(mapped)
		require.ErrorIs(t, err, testErr)
	})
}

func TestIteratorComposition(t *testing.T) {
	seq := makeSeq([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	// Filter even, double them, take first 3
	result, err := securitycenter.Collect(
		securitycenter.Take(
			securitycenter.Map(
				securitycenter.FilterSeq(seq, func(n int) bool { return n%2 == 0 }),
				func(n int) int { return n * 2 },
			),
			3,
		),
	)

	require.NoError(t, err)
	assert.Equal(t, []int{4, 8, 12}, result)
}
