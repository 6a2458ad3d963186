package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertAuditLog = `INSERT INTO audit_logs (
    id, actor_kind, actor_user_id, action, resource_type, resource_id, method, path, route, status, ip, user_agent, request_id, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

type InsertAuditLogParams struct {
	ID           uuid.UUID
	ActorKind    string
	ActorUserID  pgtype.Int8
	Action       string
	ResourceType string
	ResourceID   pgtype.Text
	Method       string
	Path         string
	Route        pgtype.Text
	Status       int32
	Ip           pgtype.Text
	UserAgent    pgtype.Text
	RequestID    pgtype.Text
	Metadata     []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertAuditLog,
		arg.ID, arg.ActorKind, arg.ActorUserID, arg.Action, arg.ResourceType, arg.ResourceID,
		arg.Method, arg.Path, arg.Route, arg.Status, arg.Ip, arg.UserAgent, arg.RequestID, arg.Metadata,
	)
	return err
}

const listAuditLogs = `SELECT id, actor_kind, actor_user_id, action, resource_type, resource_id, method, path, route, status, ip, user_agent, request_id, metadata, created_at
FROM audit_logs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

type ListAuditLogsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AuditLog{}
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.ActorKind, &a.ActorUserID, &a.Action, &a.ResourceType, &a.ResourceID,
			&a.Method, &a.Path, &a.Route, &a.Status, &a.Ip, &a.UserAgent, &a.RequestID, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
