package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/logging"
	"github.com/muurk/domocan/internal/nodeapi"
)

// Version is reported by the getversion command
const Version = "domocan-sim"

// Handler serves the DomoCAN subset of the json.htm command API
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a handler backed by store
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logging.OrNop(logger)}
}

// Store returns the backing store
func (h *Handler) Store() *Store {
	return h.store
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != nodeapi.CommandPath {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	if q.Get("type") != "command" {
		writeJSON(w, errResponse("unsupported type"))
		return
	}

	start := time.Now()
	param := q.Get("param")
	var resp any
	switch param {
	case nodeapi.CmdGetVersion:
		resp = map[string]string{"status": nodeapi.StatusOK, "title": "GetVersion", "version": Version}
	case nodeapi.CmdGetNodes:
		resp = h.getNodes(q.Get("hid"))
	case nodeapi.CmdAddNode:
		resp = h.addNode(q.Get("hid"), q.Get("name"), q.Get("devtype"), q.Get("dcanid"))
	case nodeapi.CmdUpdateNode:
		resp = h.updateNode(q.Get("hid"), q.Get("idx"), q.Get("name"), q.Get("devtype"), q.Get("dcanid"))
	case nodeapi.CmdRemoveNode:
		resp = h.removeNode(q.Get("hid"), q.Get("idx"))
	case nodeapi.CmdClearNodes:
		resp = h.clearNodes(q.Get("hid"))
	default:
		resp = errResponse("unknown command")
	}

	status := nodeapi.StatusOK
	if rr, ok := resp.(*nodeapi.Response); ok {
		status = rr.Status
	}
	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}
	logging.LogCommand(h.logger.With(zap.String("remote_addr", r.RemoteAddr)), param, params, status, time.Since(start))
	writeJSON(w, resp)
}

func (h *Handler) getNodes(hwid string) *nodeapi.Response {
	hid, ok := parseHID(hwid)
	if !ok {
		return errResponse("missing hid")
	}
	nodes, err := h.store.List(hid)
	if err != nil {
		return errResponse(err.Error())
	}

	resp := &nodeapi.Response{Status: nodeapi.StatusOK, Title: "DomoCANGetNodes"}
	for _, n := range nodes {
		resp.Result = append(resp.Result, nodeapi.RecordFromNode(n))
	}
	return resp
}

func (h *Handler) addNode(hwid, name, devtype, dcanid string) *nodeapi.Response {
	hid, ok := parseHID(hwid)
	name = sanitizeName(name)
	if !ok || name == "" || devtype == "" || dcanid == "" {
		return errResponse("missing parameter")
	}
	// Non-numeric types are stored as 0, like the controller's atoi
	dt, _ := strconv.Atoi(devtype)

	id, created, err := h.store.Add(hid, name, dt, dcanid)
	if err != nil {
		return errResponse(err.Error())
	}
	if created {
		logging.LogNodeEvent(h.logger, "added", hid, id)
	}
	return &nodeapi.Response{Status: nodeapi.StatusOK, Title: "DomoCANAddNode"}
}

func (h *Handler) updateNode(hwid, idx, name, devtype, dcanid string) *nodeapi.Response {
	hid, ok := parseHID(hwid)
	name = sanitizeName(name)
	if !ok || idx == "" || name == "" || devtype == "" || dcanid == "" {
		return errResponse("missing parameter")
	}
	dt, _ := strconv.Atoi(devtype)

	if err := h.store.Update(hid, idx, name, dt, dcanid); err != nil {
		return errResponse(err.Error())
	}
	logging.LogNodeEvent(h.logger, "updated", hid, idx)
	return &nodeapi.Response{Status: nodeapi.StatusOK, Title: "DomoCANUpdateNode"}
}

func (h *Handler) removeNode(hwid, idx string) *nodeapi.Response {
	hid, ok := parseHID(hwid)
	if !ok || idx == "" {
		return errResponse("missing parameter")
	}
	removed, err := h.store.Remove(hid, idx)
	if err != nil {
		return errResponse(err.Error())
	}
	if removed {
		logging.LogNodeEvent(h.logger, "removed", hid, idx)
	}
	return &nodeapi.Response{Status: nodeapi.StatusOK, Title: "DomoCANRemoveNode"}
}

func (h *Handler) clearNodes(hwid string) *nodeapi.Response {
	hid, ok := parseHID(hwid)
	if !ok {
		return errResponse("missing hid")
	}
	n, err := h.store.Clear(hid)
	if err != nil {
		return errResponse(err.Error())
	}
	h.logger.Info("Nodes cleared", zap.Int("hid", hid), zap.Int("count", n))
	return &nodeapi.Response{Status: nodeapi.StatusOK, Title: "DomoCANClearNodes"}
}

var markupTag = regexp.MustCompile(`<[^>]*>`)

// sanitizeName drops markup tags from a node name. Entities are left
// alone, so a name read back from the list survives being sent again.
func sanitizeName(name string) string {
	return strings.TrimSpace(markupTag.ReplaceAllString(name, ""))
}

func parseHID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	hid, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return hid, true
}

func errResponse(message string) *nodeapi.Response {
	return &nodeapi.Response{Status: nodeapi.StatusERR, Message: message}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}
