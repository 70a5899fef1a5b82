package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/hookpress/internal/config"
	"gopkg.in/yaml.v3"
)

// readableConfigPrefixes lists config path prefixes that can be read via
// RPC. Gateway credentials are never exposed.
var readableConfigPrefixes = []string{
	"gateway.port",
	"gateway.bind",
	"gateway.customBindHost",
	"gateway.allowedOrigins",
	"logging",
	"store",
	"plugins",
}

func isReadableConfigPath(key string) bool {
	for _, prefix := range readableConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("POST /preview", s.handlePreview)
	mux.HandleFunc("GET /shortcode/{name}", s.handleShortcode)
	mux.HandleFunc("GET /widget/{name}", s.handleWidget)

	mux.HandleFunc("GET /api/plugins", s.handlePlugins)
	mux.HandleFunc("GET /api/plugins/{id}/schema", s.handleSchema)
	mux.HandleFunc("GET /api/plugins/{id}/settings", s.handleSettings)
	mux.HandleFunc("GET /api/hooks", s.handleHooks)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("render", s.rpcRender)
	s.Handle("shortcode", s.rpcShortcode)
	s.Handle("widget", s.rpcWidget)
	s.Handle("plugins.list", s.rpcPluginsList)
	s.Handle("plugins.activate", s.rpcPluginsActivate)
	s.Handle("plugins.deactivate", s.rpcPluginsDeactivate)
	s.Handle("hooks.list", s.rpcHooksList)
	s.Handle("schema.get", s.rpcSchemaGet)
	s.Handle("settings.get", s.rpcSettingsGet)
	s.Handle("settings.set", s.rpcSettingsSet)
	s.Handle("settings.reset", s.rpcSettingsReset)
	s.Handle("config.get", s.rpcConfigGet)
	s.Handle("config.reload", s.rpcConfigReload)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Plugins:  s.host.Plugins().Count(),
		Handlers: s.host.Hooks().Len(),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	})
}

type renderParams struct {
	Content string `json:"content"`
}

type renderResult struct {
	Head string `json:"head"`
	Body string `json:"body"`
}

func (s *Server) rpcRender(rc *RequestContext) {
	var p renderParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	head, body := s.host.Render(rc.Ctx, p.Content)
	rc.Respond(renderResult{Head: head, Body: body})
}

type nameParams struct {
	Name string `json:"name"`
}

func (s *Server) rpcShortcode(rc *RequestContext) {
	var p nameParams
	if err := rc.Params(&p); err != nil || p.Name == "" {
		rc.RespondError(CodeInvalidParams, "name is required")
		return
	}
	out, ok := s.host.Shortcode(rc.Ctx, p.Name)
	if !ok {
		rc.RespondError(CodeNotFound, "no shortcode named "+p.Name)
		return
	}
	rc.Respond(map[string]string{"html": out})
}

func (s *Server) rpcWidget(rc *RequestContext) {
	var p nameParams
	if err := rc.Params(&p); err != nil || p.Name == "" {
		rc.RespondError(CodeInvalidParams, "name is required")
		return
	}
	out, ok := s.host.Widget(rc.Ctx, p.Name)
	if !ok {
		rc.RespondError(CodeNotFound, "no widget named "+p.Name)
		return
	}
	rc.Respond(map[string]string{"html": out})
}

func (s *Server) rpcPluginsList(rc *RequestContext) {
	rc.Respond(map[string]any{"plugins": s.host.Plugins().Info()})
}

type pluginParams struct {
	Plugin string `json:"plugin"`
}

func (rc *RequestContext) pluginParam() (string, bool) {
	var p pluginParams
	if err := rc.Params(&p); err != nil || p.Plugin == "" {
		rc.RespondError(CodeInvalidParams, "plugin is required")
		return "", false
	}
	return p.Plugin, true
}

func (s *Server) rpcPluginsActivate(rc *RequestContext) {
	id, ok := rc.pluginParam()
	if !ok {
		return
	}
	if err := s.host.Activate(rc.Ctx, id); err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]string{"plugin": id, "state": s.host.Plugins().Get(id).State().String()})
}

func (s *Server) rpcPluginsDeactivate(rc *RequestContext) {
	id, ok := rc.pluginParam()
	if !ok {
		return
	}
	if err := s.host.Deactivate(rc.Ctx, id); err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]string{"plugin": id, "state": s.host.Plugins().Get(id).State().String()})
}

type hooksParams struct {
	Hook string `json:"hook,omitempty"`
}

func (s *Server) rpcHooksList(rc *RequestContext) {
	var p hooksParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.Hook != "" {
		rc.Respond(map[string]any{p.Hook: s.host.Hooks().Entries(p.Hook)})
		return
	}
	rc.Respond(s.hookTable())
}

func (s *Server) rpcSchemaGet(rc *RequestContext) {
	id, ok := rc.pluginParam()
	if !ok {
		return
	}
	schema, err := s.schema(id)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(schema)
}

func (s *Server) rpcSettingsGet(rc *RequestContext) {
	id, ok := rc.pluginParam()
	if !ok {
		return
	}
	doc, err := s.host.Settings(rc.Ctx, id)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"plugin": id, "settings": doc})
}

type settingsSetParams struct {
	Plugin string `json:"plugin"`
	Key    string `json:"key"`
	Value  any    `json:"value"`
}

func (s *Server) rpcSettingsSet(rc *RequestContext) {
	var p settingsSetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.Plugin == "" || p.Key == "" {
		rc.RespondError(CodeInvalidParams, "plugin and key are required")
		return
	}
	doc, err := s.host.SetSetting(rc.Ctx, p.Plugin, p.Key, p.Value)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"plugin": p.Plugin, "settings": doc})
}

func (s *Server) rpcSettingsReset(rc *RequestContext) {
	id, ok := rc.pluginParam()
	if !ok {
		return
	}
	if err := s.host.ResetSettings(rc.Ctx, id); err != nil {
		rc.Fail(err)
		return
	}
	doc, err := s.host.Settings(rc.Ctx, id)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"plugin": id, "settings": doc})
}

type configGetParams struct {
	Key string `json:"key"`
}

func (s *Server) rpcConfigGet(rc *RequestContext) {
	var p configGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.Key == "" {
		rc.RespondError(CodeInvalidParams, "key is required")
		return
	}
	if !isReadableConfigPath(p.Key) {
		rc.RespondError(CodeUnauthorized, "access denied for config path: "+p.Key)
		return
	}

	path, err := config.ParseConfigPath(p.Key)
	if err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	raw, err := configMap(s.host.Config())
	if err != nil {
		rc.RespondError(CodeInternal, err.Error())
		return
	}
	val, ok := config.GetValueAtPath(raw, path)
	if !ok {
		rc.RespondError(CodeNotFound, "key not found: "+p.Key)
		return
	}
	rc.Respond(map[string]any{"key": p.Key, "value": val})
}

func (s *Server) rpcConfigReload(rc *RequestContext) {
	if err := s.host.Reload(rc.Ctx); err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]bool{"reloaded": true})
}

// configMap converts the effective config into the generic map form the
// path helpers walk.
func configMap(cfg config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
