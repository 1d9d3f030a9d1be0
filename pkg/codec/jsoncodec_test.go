package codec_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-mvc/pkg/codec"
)

type user struct {
	Name string `json:"name"`
}

func TestStrictRejectsUnknownAndTrailing(t *testing.T) {
	t.Parallel()

	var u user
	require.NoError(t, codec.JSONStrict.Unmarshal([]byte(`{"name":"ada"}`), &u))
	assert.Equal(t, "ada", u.Name)

	require.Error(t, codec.JSONStrict.Unmarshal([]byte(`{"name":"ada","age":3}`), &u))
	require.Error(t, codec.JSONStrict.Unmarshal([]byte(`{"name":"ada"} {}`), &u))
	require.NoError(t, codec.JSON.Unmarshal([]byte(`{"name":"ada","age":3}`), &u))
}

func TestJSONKeepsNumbers(t *testing.T) {
	t.Parallel()

	var m map[string]any
	require.NoError(t, codec.JSON.Unmarshal([]byte(`{"id":12345678901234567}`), &m))
	assert.Equal(t, json.Number("12345678901234567"), m["id"])
}

func TestWrite(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, codec.Write(rec, codec.JSON, http.StatusCreated, map[string]string{"a": "<b>"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"a":"<b>"}`, rec.Body.String())
}
