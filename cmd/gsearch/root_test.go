package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsearch/internal/config"
	"gsearch/internal/gsearch"
	"gsearch/internal/models"
	"gsearch/internal/paging"
)

type fakeSearcher struct {
	requests []models.SearchRequest
	items    []models.Item
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, req models.SearchRequest) ([]models.Item, error) {
	f.requests = append(f.requests, req)
	return f.items, f.err
}

func execute(t *testing.T, searcher *fakeSearcher, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")

	var out bytes.Buffer
	c := newCLI(&out)
	c.newSearcher = func(config.Config, *zap.Logger) (gsearch.Searcher, error) {
		return searcher, nil
	}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestSearchCommandBuildsRequest(t *testing.T) {
	searcher := &fakeSearcher{items: []models.Item{
		models.ImageResult{Title: "Golden Gate", TitleNoFormatting: "Golden Gate", URL: "https://example.com/gg.jpg", Width: 1024, Height: 768},
	}}

	out, err := execute(t, searcher, "images", "--size", "large", "--image-type", "photo", "-n", "3", "golden", "gate")
	require.NoError(t, err)
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, models.SearchRequest{
		Type:    models.SearchTypeImage,
		Query:   "golden gate",
		Count:   3,
		Filters: map[string]string{"size": "large", "image_type": "photo"},
	}, searcher.requests[0])
	assert.True(t, strings.HasPrefix(out, "1. "), out)
}

func TestSearchCommandDefaultCountAndJSON(t *testing.T) {
	searcher := &fakeSearcher{items: []models.Item{
		models.WebResult{Title: "<b>Go</b>", TitleNoFormatting: "Go", URL: "https://go.dev/"},
		models.WebResult{Title: "Tour", TitleNoFormatting: "Tour", URL: "https://go.dev/tour/"},
	}}

	out, err := execute(t, searcher, "--json", "web", "golang")
	require.NoError(t, err)
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, 8, searcher.requests[0].Count)
	assert.Nil(t, searcher.requests[0].Filters)

	var records []models.ResultRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, "https://go.dev/tour/", records[1].URL)
	assert.Equal(t, models.SearchTypeWeb, records[1].Type)
}

func TestSearchCommandRejectsBadFilterWithoutSearching(t *testing.T) {
	searcher := &fakeSearcher{}

	_, err := execute(t, searcher, "news", "--topic", "gossip", "elections")
	require.Error(t, err)
	assert.ErrorIs(t, err, paging.ErrInvalidArgument)
	assert.Empty(t, searcher.requests)
}

func TestSearchCommandRejectsZeroCount(t *testing.T) {
	searcher := &fakeSearcher{}

	_, err := execute(t, searcher, "book", "--count", "0", "dune")
	assert.ErrorIs(t, err, paging.ErrInvalidArgument)
	assert.Empty(t, searcher.requests)
}

func TestSearchCommandRequiresQuery(t *testing.T) {
	_, err := execute(t, &fakeSearcher{}, "video")
	assert.Error(t, err)
}

func TestSearchCommandPropagatesFetchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: &paging.FetchError{Service: "patent", Offset: 0, PageSize: 8, Err: errors.New("boom")}}

	_, err := execute(t, searcher, "patents", "--status", "issued", "solar", "cell")
	assert.ErrorIs(t, err, paging.ErrFetchFailed)
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, map[string]string{"status": "issued"}, searcher.requests[0].Filters)
}

func TestTypesCommand(t *testing.T) {
	out, err := execute(t, &fakeSearcher{}, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "image   max_per_call=32")
	assert.Contains(t, out, "web     max_per_call=8")
	assert.Contains(t, out, "filters=full_view,library")
}

func TestWriteTextIndentsContinuationLines(t *testing.T) {
	var out bytes.Buffer
	writeText(&out, []models.Item{
		models.WebResult{TitleNoFormatting: "Go", Content: "The Go language", VisibleURL: "go.dev", URL: "https://go.dev/"},
	})
	assert.Equal(t, "1. Go\n   The Go language\n   go.dev\n   https://go.dev/\n", out.String())
}
