package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/artpar/brushkit/app"
	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/core/commandlist"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/preset"
	"github.com/artpar/brushkit/ports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the brush API.
type Handler struct {
	svc    *app.BrushService
	logger zerolog.Logger
}

// -----------------------------------------------------------------------------
// Response types
// -----------------------------------------------------------------------------

// ChannelTypeResponse describes a registered channel.
type ChannelTypeResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Kind        string         `json:"kind"`
	Subtype     string         `json:"subtype"`
	Min         float64        `json:"min"`
	Max         float64        `json:"max"`
	SoftMin     float64        `json:"soft_min"`
	SoftMax     float64        `json:"soft_max"`
	Default     []float64      `json:"default"`
	Items       []ItemResponse `json:"items,omitempty"`
	Flags       []string       `json:"flags,omitempty"`
	Mappable    bool           `json:"mappable"`
}

// ItemResponse is one enum or bitmask item.
type ItemResponse struct {
	Value int64  `json:"value"`
	ID    string `json:"id"`
	Name  string `json:"name"`
}

// PresetResponse is a stored preset. Channels is set on single-preset reads.
type PresetResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Scope     string             `json:"scope"`
	Tool      string             `json:"tool"`
	ParentID  string             `json:"parent_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Channels  *channels.Document `json:"channels,omitempty"`
}

// CommandResponse is one stroke command of a built list.
type CommandResponse struct {
	Stage    string            `json:"stage"`
	Tool     string            `json:"tool"`
	Channels channels.Document `json:"channels"`
}

// EvaluationResponse is the result of evaluating a channel.
type EvaluationResponse struct {
	Channel string    `json:"channel"`
	Base    []float64 `json:"base"`
	Value   []float64 `json:"value"`
}

// CreatePresetRequest is the body of POST /presets.
type CreatePresetRequest struct {
	Name     string                `json:"name"`
	Scope    string                `json:"scope"`
	Tool     string                `json:"tool"`
	ParentID string                `json:"parent_id,omitempty"`
	Channels []channels.ChannelDoc `json:"channels,omitempty"`
}

// UpdatePresetRequest is the body of PATCH /presets/{id}.
type UpdatePresetRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

// SignalsRequest is the body of POST /presets/{id}/evaluate/{channel}.
type SignalsRequest struct {
	Pressure float64 `json:"pressure"`
	XTilt    float64 `json:"x_tilt"`
	YTilt    float64 `json:"y_tilt"`
	Angle    float64 `json:"angle"`
	Speed    float64 `json:"speed"`
}

// -----------------------------------------------------------------------------
// System
// -----------------------------------------------------------------------------

// Health returns OK with the curve cache size.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"cache_entries": h.svc.Cache().Len(),
	})
}

// CacheStats returns curve cache counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Cache().Stats())
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// ListChannels returns every registered channel in registry order.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	defs := channel.All()
	out := make([]ChannelTypeResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, channelTypeResponse(def))
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": out})
}

// GetChannelType returns one registered channel.
func (h *Handler) GetChannelType(w http.ResponseWriter, r *http.Request) {
	def, err := channel.Lookup(chi.URLParam(r, "channelID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channelTypeResponse(def))
}

// ListTools returns the known tool kinds.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": commandlist.Tools()})
}

// ToolDefaults returns the bottom resolve layer of a tool.
func (h *Handler) ToolDefaults(w http.ResponseWriter, r *http.Request) {
	set, err := h.svc.ToolDefaults(commandlist.ToolKind(chi.URLParam(r, "tool")))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer set.Free()
	writeJSON(w, http.StatusOK, channels.ToDocument(set))
}

func channelTypeResponse(def *channel.TypeDef) ChannelTypeResponse {
	resp := ChannelTypeResponse{
		ID:          def.ID,
		Name:        def.Name,
		Category:    def.Category,
		Description: def.Description,
		Kind:        def.Kind.String(),
		Subtype:     def.Subtype.String(),
		Min:         def.Min,
		Max:         def.Max,
		SoftMin:     def.SoftMin,
		SoftMax:     def.SoftMax,
		Default:     channels.ValueNumbers(def.Default),
		Flags:       def.Flags.Names(),
		Mappable:    def.Mappable(),
	}
	for _, it := range def.EnumItems {
		resp.Items = append(resp.Items, ItemResponse{Value: it.Value, ID: it.ID, Name: it.Name})
	}
	return resp
}

// -----------------------------------------------------------------------------
// Presets
// -----------------------------------------------------------------------------

// ListPresets returns all presets without channel data.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPresets(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]PresetResponse, 0, len(list))
	for _, p := range list {
		out = append(out, presetResponse(p, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": out})
}

// CreatePreset stores a new preset.
func (h *Handler) CreatePreset(w http.ResponseWriter, r *http.Request) {
	var req CreatePresetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, err := preset.ParseScope(req.Scope)
	if err != nil {
		h.fail(w, err)
		return
	}

	set, err := channels.FromDocument(channels.Document{Name: req.Name, Channels: req.Channels}, h.svc.Cache())
	if err != nil {
		h.fail(w, err)
		return
	}
	defer set.Free()

	p, err := h.svc.CreatePreset(r.Context(), app.CreatePresetInput{
		Name:     req.Name,
		Scope:    scope,
		Tool:     req.Tool,
		ParentID: req.ParentID,
		Channels: set,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	doc := channels.ToDocument(set)
	writeJSON(w, http.StatusCreated, presetResponse(p, &doc))
}

// GetPreset returns a preset with its stored channels.
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	set, p, err := h.svc.LoadSet(r.Context(), chi.URLParam(r, "presetID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer set.Free()
	doc := channels.ToDocument(set)
	writeJSON(w, http.StatusOK, presetResponse(p, &doc))
}

// UpdatePreset renames or reparents a preset.
func (h *Handler) UpdatePreset(w http.ResponseWriter, r *http.Request) {
	var req UpdatePresetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.svc.UpdatePreset(r.Context(), chi.URLParam(r, "presetID"), app.UpdatePresetInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presetResponse(p, nil))
}

// DeletePreset removes a preset.
func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePreset(r.Context(), chi.URLParam(r, "presetID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportPreset returns the stored channels as a YAML document.
func (h *Handler) ExportPreset(w http.ResponseWriter, r *http.Request) {
	set, _, err := h.svc.LoadSet(r.Context(), chi.URLParam(r, "presetID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer set.Free()

	data, err := channels.MarshalYAML(set)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Lineage returns the preset chain from root to the requested preset.
func (h *Handler) Lineage(w http.ResponseWriter, r *http.Request) {
	chain, err := h.svc.Lineage(r.Context(), chi.URLParam(r, "presetID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]PresetResponse, 0, len(chain))
	for _, p := range chain {
		out = append(out, presetResponse(p, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"lineage": out})
}

// GetChannel returns one stored channel of a preset.
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetChannel(r.Context(), chi.URLParam(r, "presetID"), chi.URLParam(r, "channelID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// PutChannel replaces one stored channel of a preset.
func (h *Handler) PutChannel(w http.ResponseWriter, r *http.Request) {
	var doc channels.ChannelDoc
	if !decodeBody(w, r, &doc) {
		return
	}
	id := chi.URLParam(r, "channelID")
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		writeError(w, http.StatusBadRequest, "id_mismatch", "body id does not match path")
		return
	}
	got, err := h.svc.SetChannel(r.Context(), chi.URLParam(r, "presetID"), doc)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// -----------------------------------------------------------------------------
// Resolve
// -----------------------------------------------------------------------------

// Resolve returns the fully resolved channel set of a preset.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	set, _, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "presetID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer set.Free()
	writeJSON(w, http.StatusOK, channels.ToDocument(set))
}

// Commands returns the stroke command list of a preset.
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.BuildCommands(r.Context(), chi.URLParam(r, "presetID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer list.Free()

	out := make([]CommandResponse, 0, len(list.Commands))
	for _, c := range list.Commands {
		out = append(out, CommandResponse{
			Stage:    c.Stage.String(),
			Tool:     string(c.Tool),
			Channels: channels.ToDocument(c.Channels),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tool": list.Tool, "commands": out})
}

// Evaluate evaluates one resolved channel against posted input signals.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req SignalsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := h.svc.Evaluate(r.Context(), chi.URLParam(r, "presetID"), chi.URLParam(r, "channelID"), channel.InputSignals{
		Pressure: req.Pressure,
		XTilt:    req.XTilt,
		YTilt:    req.YTilt,
		Angle:    req.Angle,
		Speed:    req.Speed,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluationResponse{
		Channel: ev.Channel,
		Base:    channels.ValueNumbers(ev.Base),
		Value:   channels.ValueNumbers(ev.Value),
	})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func presetResponse(p preset.Preset, doc *channels.Document) PresetResponse {
	return PresetResponse{
		ID:        p.ID,
		Name:      p.Name,
		Scope:     string(p.Scope),
		Tool:      p.Tool,
		ParentID:  p.ParentID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Channels:  doc,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// fail maps service errors to HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, channel.ErrChannelNotFound):
		writeError(w, http.StatusNotFound, "channel_not_found", err.Error())
	case errors.Is(err, channel.ErrTypeMismatch):
		writeError(w, http.StatusUnprocessableEntity, "type_mismatch", err.Error())
	case errors.Is(err, ports.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, app.ErrPresetInUse):
		writeError(w, http.StatusConflict, "preset_in_use", err.Error())
	case errors.Is(err, preset.ErrCycle):
		writeError(w, http.StatusBadRequest, "cycle", err.Error())
	case errors.Is(err, preset.ErrInvalid), errors.Is(err, app.ErrUnknownTool):
		writeError(w, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, channels.ErrCorruptData):
		h.logger.Error().Err(err).Msg("stored channel data is corrupt")
		writeError(w, http.StatusInternalServerError, "corrupt_data", "stored channel data is corrupt")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
