package nodeapi_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/domocan/internal/controller"
	"github.com/muurk/domocan/internal/nodeapi"
)

// newSimulator starts a simulated controller with gateway 1 registered
func newSimulator(t *testing.T) (*nodeapi.Client, *controller.Store) {
	t.Helper()

	store := controller.NewStore(1)
	server := httptest.NewServer(controller.NewHandler(store, nil))
	t.Cleanup(server.Close)

	return nodeapi.NewClientWithURL(server.URL + "/"), store
}

// newStubServer answers every request with the given status and body
func newStubServer(t *testing.T, status int, body string) *nodeapi.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return nodeapi.NewClientWithURL(server.URL)
}

func TestPing_Success(t *testing.T) {
	client, _ := newSimulator(t)

	if err := client.Ping(); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestList_Empty(t *testing.T) {
	client, _ := newSimulator(t)

	nodes, err := client.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if nodes == nil || len(nodes) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", nodes)
	}
}

func TestAddThenList(t *testing.T) {
	client, _ := newSimulator(t)

	if err := client.Add(1, "Front door", 8, "12"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := client.Add(1, "Relay & co", 11, "A3"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	nodes, err := client.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []nodeapi.Node{
		{ID: "1", Name: "Front door", DeviceType: 8, BusID: "12"},
		{ID: "2", Name: "Relay & co", DeviceType: 11, BusID: "A3"},
	}
	if len(nodes) != len(want) {
		t.Fatalf("List() returned %d nodes, want %d", len(nodes), len(want))
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Errorf("nodes[%d] = %+v, want %+v", i, nodes[i], want[i])
		}
	}
}

func TestAdd_DuplicateIsAccepted(t *testing.T) {
	client, store := newSimulator(t)

	for i := 0; i < 2; i++ {
		if err := client.Add(1, "Counter", 9, "4"); err != nil {
			t.Fatalf("Add() #%d error = %v", i, err)
		}
	}
	nodes, _ := store.List(1)
	if len(nodes) != 1 {
		t.Errorf("store holds %d nodes, want 1", len(nodes))
	}
}

func TestAdd_LocalValidation(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()
	client := nodeapi.NewClientWithURL(server.URL)

	tests := []struct {
		name string
		call func() error
	}{
		{"add without name", func() error { return client.Add(1, "", 1, "2") }},
		{"add without bus id", func() error { return client.Add(1, "x", 1, "") }},
		{"update without name", func() error { return client.Update(1, "1", "", 1, "2") }},
		{"update without bus id", func() error { return client.Update(1, "1", "x", 1, "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !nodeapi.IsValidationError(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}

	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

func TestAdd_RejectedIsValidationError(t *testing.T) {
	client, _ := newSimulator(t)

	// Gateway 9 is not registered, so the controller answers ERR
	err := client.Add(9, "x", 1, "2")
	if !nodeapi.IsValidationError(err) {
		t.Errorf("Add() error = %v, want validation error", err)
	}
}

func TestUpdate(t *testing.T) {
	client, store := newSimulator(t)
	id, _, _ := store.Add(1, "Old", 1, "1")

	if err := client.Update(1, id, "New", 10, "7"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	nodes, _ := store.List(1)
	if nodes[0].Name != "New" || nodes[0].DeviceType != 10 || nodes[0].BusID != "7" {
		t.Errorf("node after update = %+v", nodes[0])
	}
}

func TestUpdate_ListedNameRoundTrips(t *testing.T) {
	client, _ := newSimulator(t)

	if err := client.Add(1, "Tom & Jerry", 8, "12"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		nodes, err := client.List(1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(nodes) != 1 || nodes[0].Name != "Tom & Jerry" {
			t.Fatalf("List() after %d update(s) = %+v", i, nodes)
		}
		n := nodes[0]
		if err := client.Update(1, n.ID, n.Name, n.DeviceType+1, n.BusID); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	nodes, _ := client.List(1)
	if nodes[0].Name != "Tom & Jerry" || nodes[0].DeviceType != 11 {
		t.Errorf("node after updates = %+v", nodes[0])
	}
}

func TestUpdate_UnknownNodeIsNotFound(t *testing.T) {
	client, _ := newSimulator(t)

	err := client.Update(1, "404", "x", 1, "2")
	if !nodeapi.IsNotFoundError(err) {
		t.Errorf("Update() error = %v, want not-found error", err)
	}
}

func TestDelete(t *testing.T) {
	client, store := newSimulator(t)
	id, _, _ := store.Add(1, "A", 1, "1")

	if err := client.Delete(1, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// A node that is already gone is not an error for the controller
	if err := client.Delete(1, id); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	nodes, _ := store.List(1)
	if len(nodes) != 0 {
		t.Errorf("store holds %d nodes, want 0", len(nodes))
	}
}

func TestDelete_RejectedIsNotFound(t *testing.T) {
	client := newStubServer(t, http.StatusOK, `{"status":"ERR"}`)

	if err := client.Delete(1, "5"); !nodeapi.IsNotFoundError(err) {
		t.Errorf("Delete() error = %v, want not-found error", err)
	}
}

func TestClearAll(t *testing.T) {
	client, store := newSimulator(t)
	_, _, _ = store.Add(1, "A", 1, "1")
	_, _, _ = store.Add(1, "B", 2, "2")

	if err := client.ClearAll(1); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	nodes, err := client.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("List() after ClearAll returned %d nodes", len(nodes))
	}
}

func TestRejectedListAndClearAreTransportErrors(t *testing.T) {
	client, _ := newSimulator(t)

	if _, err := client.List(9); !nodeapi.IsTransportError(err) {
		t.Errorf("List() error = %v, want transport error", err)
	}
	if err := client.ClearAll(9); !nodeapi.IsTransportError(err) {
		t.Errorf("ClearAll() error = %v, want transport error", err)
	}
}

func TestHTTPErrorIsTransport(t *testing.T) {
	client := newStubServer(t, http.StatusInternalServerError, "boom")

	_, err := client.List(1)
	if !nodeapi.IsTransportError(err) {
		t.Fatalf("List() error = %v, want transport error", err)
	}
	if msg := nodeapi.ShortMessage(err); msg != "Controller error (HTTP 500)" {
		t.Errorf("ShortMessage() = %q", msg)
	}
}

func TestMalformedBodyIsParseError(t *testing.T) {
	client := newStubServer(t, http.StatusOK, `<html>login</html>`)

	_, err := client.List(1)
	if !nodeapi.IsParseError(err) {
		t.Errorf("List() error = %v, want parse error", err)
	}
}

func TestList_NumericColumns(t *testing.T) {
	client := newStubServer(t, http.StatusOK,
		`{"status":"OK","result":[{"idx":3,"Name":"n","DomoCANDevType":"8","DomoCANID":17},{"idx":"4"}]}`)

	nodes, err := client.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("List() returned %d nodes, want 2", len(nodes))
	}
	want := nodeapi.Node{ID: "3", Name: "n", DeviceType: 8, BusID: "17"}
	if nodes[0] != want {
		t.Errorf("nodes[0] = %+v, want %+v", nodes[0], want)
	}
	if nodes[1] != (nodeapi.Node{ID: "4"}) {
		t.Errorf("nodes[1] = %+v, want only an id", nodes[1])
	}
}

func TestList_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer server.Close()

	client := nodeapi.NewClientWithURL(server.URL)
	client.SetRetry(2, time.Millisecond)

	if _, err := client.List(1); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server saw %d calls, want 2", n)
	}
}

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client := nodeapi.NewClientWithURL(base)
	client.SetTimeout(time.Second)

	_, err := client.List(1)
	if !nodeapi.IsTransportError(err) {
		t.Errorf("List() error = %v, want transport error", err)
	}
}

func TestCommandURL_EscapesValues(t *testing.T) {
	client := nodeapi.NewClientWithURL("http://controller:8080/")

	params := url.Values{}
	params.Set("hid", "3")
	params.Set("name", "Hall & Stairs")

	got := client.CommandURL(nodeapi.CmdAddNode, params)
	want := "http://controller:8080/json.htm?hid=3&name=Hall+%26+Stairs&param=domocanaddnode&type=command"
	if got != want {
		t.Errorf("CommandURL() = %q, want %q", got, want)
	}
}

func TestRequestCarriesCommandAndHardware(t *testing.T) {
	var got url.Values
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		requestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer server.Close()

	client := nodeapi.NewClientWithURL(server.URL)
	if err := client.Update(7, "12", "Hall", 10, "5"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	expected := map[string]string{
		"type":    "command",
		"param":   nodeapi.CmdUpdateNode,
		"hid":     "7",
		"idx":     "12",
		"name":    "Hall",
		"devtype": "10",
		"dcanid":  "5",
	}
	for k, v := range expected {
		if got.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, got.Get(k), v)
		}
	}
	if requestID == "" {
		t.Error("X-Request-ID header not set")
	}
}
