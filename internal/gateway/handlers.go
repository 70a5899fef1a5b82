package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"html/template"
	"io"
	"net/http"

	"github.com/soyeahso/hookpress/internal/host"
	"github.com/soyeahso/hookpress/internal/plugin"
)

// maxContentBody caps POST /preview bodies.
const maxContentBody = 1 << 20

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the authenticated RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Plugins  int    `json:"plugins,omitempty"`
	Handlers int    `json:"handlers,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>hookpress preview</title>
{{.Head}}</head>
<body>
{{.Body}}
{{if .Live}}<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (m) {
    var f = JSON.parse(m.data);
    if (f.type === "event" && f.event === "connect.challenge") {
      ws.send(JSON.stringify({type: "req", id: "1", method: "connect",
        params: {minProtocol: 1, maxProtocol: 1, client: {id: "preview"}}}));
    } else if (f.type === "event") {
      location.reload();
    }
  };
})();
</script>{{end}}
</body>
</html>
`))

type previewData struct {
	Head template.HTML
	Body template.HTML
	Live bool
}

// handleHealth returns the server health status. Only status is exposed
// publicly; detailed info is available via the authenticated RPC health method.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handlePreview renders content into a full HTML page. GET takes the content
// from the "content" query parameter with markup escaped, so only shortcodes
// expand; POST takes raw content from the request body and is refused from
// foreign origins. When auth is off the page reloads itself on host changes.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	// query content arrives through links, so it is shown as text
	content := html.EscapeString(r.URL.Query().Get("content"))
	if r.Method == http.MethodPost {
		if !sameOriginOrAllowed(r, s.cfg.AllowedOrigins) {
			writeJSONError(w, http.StatusForbidden, CodeUnauthorized, "cross-origin preview rejected")
			return
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBody))
		if err != nil {
			writeJSONError(w, http.StatusRequestEntityTooLarge, CodeInvalidParams, "content too large")
			return
		}
		content = string(data)
	}

	head, body := s.host.Render(r.Context(), content)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := previewPage.Execute(w, previewData{
		Head: template.HTML(head),
		Body: template.HTML(body),
		Live: s.auth.Mode == AuthModeNone,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("writing preview page")
	}
}

// handleShortcode renders a single shortcode as an HTML fragment.
func (s *Server) handleShortcode(w http.ResponseWriter, r *http.Request) {
	s.writeFragment(w, r, s.host.Shortcode, "shortcode")
}

// handleWidget renders a single widget as an HTML fragment.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	s.writeFragment(w, r, s.host.Widget, "widget")
}

func (s *Server) writeFragment(w http.ResponseWriter, r *http.Request, render func(context.Context, string) (string, bool), kind string) {
	name := r.PathValue("name")
	out, ok := render(r.Context(), name)
	if !ok {
		writeJSONError(w, http.StatusNotFound, CodeNotFound, "no "+kind+" named "+name)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// handlePlugins lists the registered plugins.
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.host.Plugins().Info())
}

// handleHooks lists every hook with its handlers in dispatch order.
func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hookTable())
}

// handleSchema returns the settings schema of one plugin.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.schema(r.PathValue("id"))
	if err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

// handleSettings returns the effective settings of one plugin.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := s.host.Settings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func (s *Server) hookTable() map[string]any {
	table := make(map[string]any)
	reg := s.host.Hooks()
	for _, name := range reg.Hooks() {
		table[name] = reg.Entries(name)
	}
	return table
}

func (s *Server) schema(id string) (any, error) {
	p := s.host.Plugins().Get(id)
	if p == nil {
		return nil, plugin.ErrNotFound
	}
	schema := p.ConfigSchema()
	if schema == nil {
		return nil, plugin.ErrNotFound
	}
	return schema, nil
}

// errorCode maps host errors onto protocol error codes and HTTP statuses.
func errorCode(err error) (string, int) {
	switch {
	case errors.Is(err, plugin.ErrNotFound):
		return CodeNotFound, http.StatusNotFound
	case errors.Is(err, host.ErrStoreDisabled):
		return CodeUnavailable, http.StatusServiceUnavailable
	default:
		return CodeInvalidParams, http.StatusBadRequest
	}
}

func writeHostError(w http.ResponseWriter, err error) {
	code, status := errorCode(err)
	writeJSONError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]ErrorShape{
		"error": {Code: code, Message: message},
	})
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Ctx    context.Context
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	err := rc.Client.RespondError(rc.Frame.ID, ErrorShape{
		Code:    code,
		Message: message,
	})
	if err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send error response")
	}
}

// Fail responds with the protocol error matching err.
func (rc *RequestContext) Fail(err error) {
	code, _ := errorCode(err)
	rc.RespondError(code, err.Error())
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}
