package rooms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/proctor/internal/application/incidents"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/json"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
)

// Handler serves read-only room views for the host dashboard.
type Handler struct {
	store     domain.RoomStore
	incidents *incidents.Logger
	audit     domain.RoomAuditRepository
	registry  *ws.Registry
	logger    logging.Logger
}

func NewHandler(
	store domain.RoomStore,
	incidentLogger *incidents.Logger,
	audit domain.RoomAuditRepository,
	registry *ws.Registry,
	logger logging.Logger,
) *Handler {
	return &Handler{
		store:     store,
		incidents: incidentLogger,
		audit:     audit,
		registry:  registry,
		logger:    logger,
	}
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	room, err := h.store.FindRoom(r.Context(), code)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	participants, err := h.store.ListParticipants(r.Context(), code)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	resp := roomResponse{
		ID:           room.ID,
		Code:         room.Code,
		CreatedAt:    room.CreatedAt,
		MemberCount:  len(room.Members),
		LiveMembers:  len(h.registry.Group(code)),
		Participants: make([]participantResponse, 0, len(participants)),
	}
	if _, err := h.registry.ResolveHost(code); err == nil {
		resp.HostOnline = true
	}
	for _, p := range participants {
		if p.RoomID != room.ID {
			continue
		}
		resp.Participants = append(resp.Participants, participantResponse{
			ID:       p.ID,
			Name:     p.Name,
			JoinedAt: p.JoinedAt,
		})
	}

	json.Write(w, http.StatusOK, resp)
}

func (h *Handler) ListIncidentsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	limit, err := parseLimit(r)
	if err != nil {
		json.WriteBadRequestError(w, err.Error())
		return
	}

	list, err := h.incidents.List(r.Context(), code, limit)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	resp := incidentsResponse{
		RoomCode:  code,
		Incidents: make([]incidentResponse, 0, len(list)),
	}
	names := make(map[string]string)
	for _, inc := range list {
		name, seen := names[inc.ParticipantID]
		if !seen {
			if p, err := h.store.GetParticipant(r.Context(), inc.ParticipantID); err == nil {
				name = p.Name
			}
			names[inc.ParticipantID] = name
		}

		resp.Incidents = append(resp.Incidents, incidentResponse{
			ID:            inc.ID,
			ParticipantID: inc.ParticipantID,
			UserName:      name,
			Kind:          string(inc.Kind),
			Message:       inc.Message,
			Timestamp:     inc.Timestamp,
		})
	}

	json.Write(w, http.StatusOK, resp)
}

func (h *Handler) ListAuditHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	limit, err := parseLimit(r)
	if err != nil {
		json.WriteBadRequestError(w, err.Error())
		return
	}

	logs, err := h.audit.GetByRoomCode(r.Context(), code, limit)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	resp := auditResponse{
		RoomCode: code,
		Entries:  make([]auditEntryResponse, 0, len(logs)),
	}
	for _, entry := range logs {
		resp.Entries = append(resp.Entries, auditEntryResponse{
			ID:        entry.ID,
			EventType: string(entry.EventType),
			Timestamp: entry.Timestamp,
			Metadata:  entry.Metadata,
		})
	}

	json.Write(w, http.StatusOK, resp)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		json.WriteNotFoundError(w, "Room not found")
	case errors.Is(err, domain.ErrInvalidInput):
		json.WriteBadRequestError(w, "Invalid room code")
	default:
		h.logger.Error(logging.RequestResponse, logging.ExternalService, "room lookup failed", map[logging.ExtraKey]any{
			logging.Path:         r.URL.Path,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
	}
}

// parseLimit reads ?limit=N, defaulting to 100 and capping at 1000.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return incidents.DefaultListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > incidents.MaxListLimit {
		limit = incidents.MaxListLimit
	}
	return limit, nil
}
