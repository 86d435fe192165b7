package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodiesEqualIgnoresKeysAndNumberKinds(t *testing.T) {
	a := []byte(`[{"id": 1, "title": "x", "created_at": "2024-01-01"}]`)
	b := []byte(`[{"id": 1.0, "title": "x", "created_at": "2023-12-31"}]`)
	assert.True(t, bodiesEqual(a, b, []string{"created_at"}))
	assert.False(t, bodiesEqual(a, b, nil))
	assert.False(t, bodiesEqual([]byte(`{"id": 1}`), []byte(`not json`), nil))
	assert.True(t, bodiesEqual([]byte(" ok "), []byte("ok"), nil))
}

func TestCompareTarget(t *testing.T) {
	goSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"count":2,"created_at":"now"}`))
	}))
	defer goSrv.Close()
	legacySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":2,"created_at":"then"}`))
	}))
	defer legacySrv.Close()

	comp := compareTarget(http.DefaultClient, goSrv.URL, legacySrv.URL, "tkn", target{Path: "api/survey-aggregates/", Ignore: []string{"created_at"}})
	require.NoError(t, comp.Error)
	assert.True(t, comp.StatusMatch)
	assert.True(t, comp.BodyMatch)

	comp = compareTarget(nil, goSrv.URL, legacySrv.URL, "", target{Path: "/"})
	assert.Error(t, comp.Error)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, []comparison{
		{Target: target{Method: "GET", Path: "/api/posts/"}, StatusMatch: true, BodyMatch: false},
		{Target: target{Method: "GET", Path: "/api/programs/"}, Error: errors.New("boom")},
	})
	assert.Contains(t, buf.String(), "[DIFF] GET /api/posts/")
	assert.Contains(t, buf.String(), "[ERROR] GET /api/programs/")
}
