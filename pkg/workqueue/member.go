package workqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

var ErrNotMember = errors.New("user is not a member of the project")

func GetMemberRole(ctx context.Context, projectID string, userID string) (types.MemberRole, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT role FROM project_member WHERE project_id = $1 AND user_id = $2`

	var role types.MemberRole
	if err := conn.QueryRow(ctx, query, projectID, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("error scanning member role: %w", err)
	}
	return role, nil
}

// GetViewerCapabilities is what a user may do in a project's work queue.
// Non-members get an empty capability set rather than an error.
func GetViewerCapabilities(ctx context.Context, projectID string, userID string) (types.ViewerCapabilities, error) {
	role, err := GetMemberRole(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return types.ViewerCapabilities{}, nil
		}
		return types.ViewerCapabilities{}, err
	}
	return types.CapabilitiesForRole(role), nil
}

func ListProjectMembers(ctx context.Context, projectID string) ([]types.ProjectMember, error) {
	return listMembers(ctx, projectID, "")
}

func ListProjectOwners(ctx context.Context, projectID string) ([]types.ProjectMember, error) {
	return listMembers(ctx, projectID, types.MemberRoleOwner)
}

func listMembers(ctx context.Context, projectID string, role types.MemberRole) ([]types.ProjectMember, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		project_member.project_id,
		project_member.user_id,
		project_member.role,
		engineo_user.name,
		engineo_user.email
	FROM
		project_member
	INNER JOIN engineo_user ON engineo_user.id = project_member.user_id
	WHERE
		project_member.project_id = $1 AND
		($2::text = '' OR project_member.role = $2::text)
	ORDER BY
		project_member.user_id`

	rows, err := conn.Query(ctx, query, projectID, string(role))
	if err != nil {
		return nil, fmt.Errorf("error listing project members: %w", err)
	}
	defer rows.Close()

	members := []types.ProjectMember{}
	for rows.Next() {
		var m types.ProjectMember
		var name, email sql.NullString
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &name, &email); err != nil {
			return nil, fmt.Errorf("error scanning project member: %w", err)
		}
		m.Name = name.String
		m.Email = email.String
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project members: %w", err)
	}
	return members, nil
}

func AddProjectMember(ctx context.Context, projectID string, userID string, name string, email string, role types.MemberRole) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO engineo_user (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`, userID, name, email)
	if err != nil {
		return fmt.Errorf("error upserting user: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO project_member (project_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role`, projectID, userID, role)
	if err != nil {
		return fmt.Errorf("error upserting project member: %w", err)
	}

	return tx.Commit(ctx)
}

func CreateProject(ctx context.Context, projectID string, name string) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	_, err := conn.Exec(ctx, `INSERT INTO project (id, name, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, projectID, name)
	if err != nil {
		return fmt.Errorf("error upserting project: %w", err)
	}
	return nil
}
