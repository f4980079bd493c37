package outline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSelector struct {
	ids     []int
	err     error
	compact []byte
	calls   int
}

func (f *fakeSelector) SelectOutline(_ context.Context, _ string, compact []byte) ([]int, error) {
	f.calls++
	f.compact = compact
	return f.ids, f.err
}

func TestLLMMatcherUsesSelectedRecords(t *testing.T) {
	idx := sampleIndex(t)
	selector := &fakeSelector{ids: []int{6, 42}}

	res, err := NewLLMMatcher(selector, nil).Match(context.Background(), idx, "infecção grave")

	require.NoError(t, err)
	assert.Equal(t, []int{30}, res.Pages)
	assert.Equal(t, 1, selector.calls)
	assert.True(t, json.Valid(selector.compact))
}

func TestLLMMatcherFallsBackToKeywords(t *testing.T) {
	idx := sampleIndex(t)
	selector := &fakeSelector{err: errors.New("model offline")}

	res, err := NewLLMMatcher(selector, nil).Match(context.Background(), idx, "sepse")

	require.NoError(t, err)
	assert.Equal(t, []int{30}, res.Pages)
}

func TestLLMMatcherSkipsSelectorForEmptyOutline(t *testing.T) {
	selector := &fakeSelector{ids: []int{1}}

	res, err := NewLLMMatcher(selector, nil).Match(context.Background(), NewIndex(nil, nil), "sepse")

	require.NoError(t, err)
	assert.Empty(t, res.Pages)
	assert.Zero(t, selector.calls)
}

func TestLLMMatcherPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	selector := &fakeSelector{err: context.Canceled}

	_, err := NewLLMMatcher(selector, nil).Match(ctx, sampleIndex(t), "sepse")

	require.ErrorIs(t, err, context.Canceled)
}

func TestKeywordMatcher(t *testing.T) {
	res, err := KeywordMatcher{}.Match(context.Background(), sampleIndex(t), "desfibrilação")

	require.NoError(t, err)
	assert.Equal(t, []int{7}, res.Pages)
}
