package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinprj/predictml/internal/client"
)

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"area=2000", "bedrooms=3", "location=urban"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"area": 2000.0, "bedrooms": 3.0, "location": "urban"}, fields)

	_, err = parseFields([]string{"area"})
	assert.Error(t, err)
	_, err = parseFields([]string{"=5"})
	assert.Error(t, err)
	_, err = parseFields([]string{"a=1", "a=2"})
	assert.Error(t, err)
}

func TestParseFields_NonFiniteStaysString(t *testing.T) {
	fields, err := parseFields([]string{"years_experience=NaN", "area=Inf", "bedrooms=-inf", "rainfall=1e400"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"years_experience": "NaN",
		"area":             "Inf",
		"bedrooms":         "-inf",
		"rainfall":         "1e400",
	}, fields)

	// the body must still encode
	_, err = json.Marshal(fields)
	assert.NoError(t, err)
}

func TestApp_Importance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/house/feature-importance", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model_name":"house","version":"v1.0","fields":["area","bedrooms","location"],` +
			`"features":["Area","Bedrooms","Location"],"importance":[0.55,0.2,0.25]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	a := &app{api: client.New(srv.URL), out: &out}

	require.NoError(t, a.run(context.Background(), []string{"importance", "house"}))
	assert.Contains(t, out.String(), `"importance"`)
	assert.Contains(t, out.String(), "0.55")
}

func TestApp_FavRunPredicts(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict/salary", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_salary":73041.99,"model":"Linear Regression","version":"v1.0"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	a := &app{
		api:           client.New(srv.URL),
		favoritesPath: filepath.Join(t.TempDir(), "favorites.json"),
		out:           &out,
	}
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"fav", "add", "mid", "salary", "years_experience=5"}))
	out.Reset()
	require.NoError(t, a.run(ctx, []string{"fav", "run", "mid"}))

	assert.Equal(t, map[string]any{"years_experience": 5.0}, got)
	assert.Contains(t, out.String(), "73041.99")
}

func TestApp_Usage(t *testing.T) {
	a := &app{api: client.New("http://127.0.0.1:1"), out: &bytes.Buffer{}}

	for _, args := range [][]string{nil, {"bogus"}, {"predict"}, {"model"}, {"importance"}, {"fav"}} {
		assert.ErrorIs(t, a.run(context.Background(), args), errUsage, "%v", args)
	}
}
