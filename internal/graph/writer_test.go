package graph_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"gsearch/internal/graph"
	"gsearch/internal/models"
	"gsearch/mocks"
)

func sampleResult() models.SearchResult {
	return models.SearchResult{
		JobID:   "job-1",
		Request: models.SearchRequest{Type: models.SearchTypeWeb, Query: "golang", Count: 3},
		Items: []models.ResultRecord{
			{Rank: 1, Type: models.SearchTypeWeb, PlainTitle: "The Go Programming Language", URL: "https://Go.dev/"},
			{Rank: 2, Type: models.SearchTypeWeb, URL: ""},
			{Rank: 3, Type: models.SearchTypeWeb, PlainTitle: "Tour", URL: "https://go.dev/tour", ThumbnailURL: "https://tb/1"},
		},
	}
}

func TestBuildResultQuery(t *testing.T) {
	query, params, ok := graph.BuildResultQuery(sampleResult())
	if !ok {
		t.Fatal("expected query to be built")
	}
	for _, fragment := range []string{"MERGE (q:Query", "UNWIND $items", "RETURNED", "HOSTED_ON", "coalesce"} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("query missing %q: %s", fragment, query)
		}
	}
	if params["query"] != "golang" || params["type"] != "web" || params["job_id"] != "job-1" {
		t.Fatalf("unexpected params: %+v", params)
	}
	items, ok := params["items"].([]map[string]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 linkable items, got %+v", params["items"])
	}
	if items[0]["host"] != "go.dev" || items[0]["rank"] != 1 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[0]["thumbnail_url"] != nil {
		t.Fatalf("expected nil thumbnail, got %v", items[0]["thumbnail_url"])
	}
	if items[1]["rank"] != 3 || items[1]["thumbnail_url"] != "https://tb/1" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}

func TestBuildResultQuerySkipsEmpty(t *testing.T) {
	if _, _, ok := graph.BuildResultQuery(models.SearchResult{Request: models.SearchRequest{Query: "q"}}); ok {
		t.Fatal("expected no query for empty result")
	}
	result := sampleResult()
	result.Request.Query = " "
	if _, _, ok := graph.BuildResultQuery(result); ok {
		t.Fatal("expected no query for blank query text")
	}
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://Example.COM:8443/a": "example.com",
		"http://maps.example/place":  "maps.example",
		"not a url":                  "",
		"":                           "",
	}
	for in, want := range cases {
		if got := graph.HostOf(in); got != want {
			t.Fatalf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriterWriteResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	driver := mocks.NewMockDriverSessioner(ctrl)
	session := mocks.NewMockSessionRunner(ctrl)

	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cfg neo4j.SessionConfig) graph.SessionRunner {
			if cfg.AccessMode != neo4j.AccessModeWrite {
				t.Fatalf("expected write session, got %v", cfg.AccessMode)
			}
			return session
		},
	)
	session.EXPECT().ExecuteWrite(gomock.Any(), gomock.Any()).Return(nil, nil)
	session.EXPECT().Close(gomock.Any()).Return(nil)

	writer := graph.NewWriter(driver, nil)
	if err := writer.WriteResult(context.Background(), sampleResult()); err != nil {
		t.Fatalf("WriteResult error: %v", err)
	}
}

func TestWriterWriteResultError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	driver := mocks.NewMockDriverSessioner(ctrl)
	session := mocks.NewMockSessionRunner(ctrl)
	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).Return(session)
	session.EXPECT().ExecuteWrite(gomock.Any(), gomock.Any()).Return(nil, errors.New("neo4j down"))
	session.EXPECT().Close(gomock.Any()).Return(errors.New("close failed"))

	writer := graph.NewWriter(driver, nil)
	if err := writer.WriteResult(context.Background(), sampleResult()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriterSkipsEmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	driver := mocks.NewMockDriverSessioner(ctrl)
	writer := graph.NewWriter(driver, nil)
	if err := writer.WriteResult(context.Background(), models.SearchResult{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
