package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/domocan/internal/nodeapi"
)

func serve(t *testing.T, h http.Handler, params url.Values) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/json.htm?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func command(param string, kv ...string) url.Values {
	v := url.Values{"type": {"command"}, "param": {param}}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func TestHandler_EmptyListOmitsResult(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	body := serve(t, h, command(nodeapi.CmdGetNodes, "hid", "1"))
	assert.Equal(t, "OK", body["status"])
	_, ok := body["result"]
	assert.False(t, ok, "result should be omitted for an empty list")
}

func TestHandler_AddThenList(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	body := serve(t, h, command(nodeapi.CmdAddNode, "hid", "1", "name", "<b>Door</b>", "devtype", "8", "dcanid", "12"))
	require.Equal(t, "OK", body["status"])

	body = serve(t, h, command(nodeapi.CmdGetNodes, "hid", "1"))
	result, ok := body["result"].([]any)
	require.True(t, ok)
	require.Len(t, result, 1)

	row := result[0].(map[string]any)
	assert.Equal(t, "1", row["idx"])
	assert.Equal(t, "Door", row["Name"])
	assert.Equal(t, "8", row["DomoCANDevType"])
	assert.Equal(t, "12", row["DomoCANID"])
}

func TestHandler_MissingParameters(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	tests := []struct {
		name   string
		params url.Values
	}{
		{"list without hid", command(nodeapi.CmdGetNodes)},
		{"list with bad hid", command(nodeapi.CmdGetNodes, "hid", "abc")},
		{"list unknown hardware", command(nodeapi.CmdGetNodes, "hid", "9")},
		{"add without name", command(nodeapi.CmdAddNode, "hid", "1", "devtype", "1", "dcanid", "2")},
		{"add with markup-only name", command(nodeapi.CmdAddNode, "hid", "1", "name", "<i></i>", "devtype", "1", "dcanid", "2")},
		{"add without dcanid", command(nodeapi.CmdAddNode, "hid", "1", "name", "x", "devtype", "1")},
		{"update without idx", command(nodeapi.CmdUpdateNode, "hid", "1", "name", "x", "devtype", "1", "dcanid", "2")},
		{"remove without idx", command(nodeapi.CmdRemoveNode, "hid", "1")},
		{"clear without hid", command(nodeapi.CmdClearNodes)},
		{"unknown command", command("domocanfrobnicate", "hid", "1")},
		{"wrong type", url.Values{"type": {"devices"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := serve(t, h, tt.params)
			assert.Equal(t, "ERR", body["status"])
		})
	}
}

func TestHandler_NameSurvivesRepeatedUpdates(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	body := serve(t, h, command(nodeapi.CmdAddNode, "hid", "1", "name", "Tom & Jerry", "devtype", "8", "dcanid", "12"))
	require.Equal(t, "OK", body["status"])

	for i := 0; i < 3; i++ {
		body = serve(t, h, command(nodeapi.CmdGetNodes, "hid", "1"))
		result, ok := body["result"].([]any)
		require.True(t, ok)
		require.Len(t, result, 1)
		row := result[0].(map[string]any)
		require.Equal(t, "Tom & Jerry", row["Name"], "after %d update(s)", i)

		name, _ := row["Name"].(string)
		body = serve(t, h, command(nodeapi.CmdUpdateNode, "hid", "1", "idx", "1", "name", name, "devtype", "9", "dcanid", "12"))
		require.Equal(t, "OK", body["status"])
	}

	nodes, err := h.Store().List(1)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Tom & Jerry", nodes[0].Name)
	assert.Equal(t, 9, nodes[0].DeviceType)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Front door", "Front door"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"Tom &amp; Jerry", "Tom &amp; Jerry"},
		{"<b>Door</b>", "Door"},
		{"<script>alert(1)</script>Gate", "alert(1)Gate"},
		{"a < b", "a < b"},
		{"  <br/>Hall  ", "Hall"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := sanitizeName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, sanitizeName(got), "sanitizing twice must not change the name")
		})
	}
}

func TestHandler_UpdateUnknownNode(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	body := serve(t, h, command(nodeapi.CmdUpdateNode, "hid", "1", "idx", "42", "name", "x", "devtype", "1", "dcanid", "2"))
	assert.Equal(t, "ERR", body["status"])
}

func TestHandler_RemoveUnknownNodeIsOK(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	body := serve(t, h, command(nodeapi.CmdRemoveNode, "hid", "1", "idx", "42"))
	assert.Equal(t, "OK", body["status"])
}

func TestHandler_ClearNodes(t *testing.T) {
	store := NewStore(1)
	_, _, _ = store.Add(1, "A", 1, "1")
	_, _, _ = store.Add(1, "B", 2, "2")
	h := NewHandler(store, nil)

	body := serve(t, h, command(nodeapi.CmdClearNodes, "hid", "1"))
	assert.Equal(t, "OK", body["status"])

	nodes, _ := store.List(1)
	assert.Empty(t, nodes)
}

func TestHandler_GetVersion(t *testing.T) {
	h := NewHandler(NewStore(), nil)

	body := serve(t, h, command(nodeapi.CmdGetVersion))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestHandler_RejectsOtherPathsAndMethods(t *testing.T) {
	h := NewHandler(NewStore(1), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/json.htm", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
