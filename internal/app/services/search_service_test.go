package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearchService() SearchService {
	return NewSearchService(&fakeSearchRepo{
		societies: []string{"Chess Club", "Robotics Society"},
		events:    []string{"Chess Tournament"},
	}, testLogger)
}

func TestSearchDirectMatch(t *testing.T) {
	resp, err := newTestSearchService().Search(context.Background(), "chess")
	require.NoError(t, err)
	assert.Nil(t, resp.DidYouMean)
	assert.Len(t, resp.Societies, 1)
	assert.Len(t, resp.Events, 1)
	assert.Equal(t, 2, resp.TotalResult)
}

func TestSearchDidYouMean(t *testing.T) {
	resp, err := newTestSearchService().Search(context.Background(), "robotcs")
	require.NoError(t, err)
	require.NotNil(t, resp.DidYouMean)
	assert.Equal(t, "robotics", *resp.DidYouMean)
	assert.Equal(t, "robotcs", resp.Query)
	require.Len(t, resp.Societies, 1)
	assert.Equal(t, "Robotics Society", resp.Societies[0].Name)
}

func TestSearchNoSuggestion(t *testing.T) {
	resp, err := newTestSearchService().Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Nil(t, resp.DidYouMean)
	assert.Zero(t, resp.TotalResult)
	assert.NotNil(t, resp.Societies)

	resp, err = newTestSearchService().Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, resp.Query)
}
