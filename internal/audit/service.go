// Package audit records who changed what through the HTTP API.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/store"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindSystem    ActorKind = "system"
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes the entity performing the action.
type Actor struct {
	Kind   ActorKind
	UserID int64
}

// ActorFrom derives the actor from the authenticated identity on ctx.
func ActorFrom(ctx context.Context) Actor {
	if id, ok := common.IdentityFrom(ctx); ok {
		return Actor{Kind: ActorKindUser, UserID: id.UserID}
	}
	return Actor{Kind: ActorKindAnonymous}
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg store.InsertAuditLogParams) error
	ListAuditLogs(ctx context.Context, arg store.ListAuditLogsParams) ([]store.AuditLog, error)
}

// Service persists audit logs.
type Service struct {
	Store   Store
	Enabled bool
	NewID   func() uuid.UUID
}

// Event is a single audited action.
type Event struct {
	Actor        Actor
	Action       string
	ResourceType string
	ResourceID   string
	Route        string
	Status       int
	Metadata     map[string]any
}

// Record persists ev for req when auditing is enabled.
func (s Service) Record(ctx context.Context, req *http.Request, ev Event) error {
	if !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := strings.TrimSpace(ev.Route)
	if route == "" {
		route = obs.RoutePatternFromContext(req.Context())
	}
	if route == "" {
		route = req.URL.Path
	}
	status := ev.Status
	if status == 0 {
		status = http.StatusOK
	}
	newID := s.NewID
	if newID == nil {
		newID = uuid.New
	}

	var actorID pgtype.Int8
	kind := normalizeActorKind(ev.Actor.Kind)
	if kind == ActorKindUser && ev.Actor.UserID > 0 {
		actorID = pgtype.Int8{Int64: ev.Actor.UserID, Valid: true}
	}

	return s.Store.InsertAuditLog(ctx, store.InsertAuditLogParams{
		ID:           newID(),
		ActorKind:    string(kind),
		ActorUserID:  actorID,
		Action:       buildAction(ev.Action, req.Method, route),
		ResourceType: buildResource(ev.ResourceType, route),
		ResourceID:   nullText(ev.ResourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Route:        nullText(route),
		Status:       int32(status),
		Ip:           nullText(common.ClientIP(req)),
		UserAgent:    nullText(req.Header.Get("User-Agent")),
		RequestID:    nullText(req.Header.Get("X-Request-ID")),
		Metadata:     metadataJSON(ev.Metadata, req.URL.RawQuery),
	})
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

// buildResource turns /api/v1/customers/{id}/payments into customers.payments.
func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	segments := strings.Split(strings.Trim(route, "/ "), "/")
	if len(segments) >= 2 && segments[0] == "api" && segments[1] == "v1" {
		segments = segments[2:]
	}
	kept := segments[:0]
	for _, seg := range segments {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return "unknown"
	}
	return strings.Join(kept, ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindUser, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func nullText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func metadataJSON(metadata map[string]any, query string) []byte {
	payload := map[string]any{}
	for k, v := range metadata {
		payload[k] = v
	}
	if strings.TrimSpace(query) != "" {
		payload["query"] = query
	}
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}
