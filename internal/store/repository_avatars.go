package store

import "context"

const ModeratorAvatarID = "moderator"

func (s *Store) ListActiveAvatars(ctx context.Context) ([]Avatar, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, color, model, persona, seat, is_moderator, active
		 FROM avatars WHERE active ORDER BY seat, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Avatar
	for rows.Next() {
		var a Avatar
		if err := rows.Scan(&a.ID, &a.Name, &a.Color, &a.Model, &a.Persona, &a.Seat, &a.IsModerator, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAvatar(ctx context.Context, id string) (*Avatar, error) {
	var a Avatar
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, color, model, persona, seat, is_moderator, active FROM avatars WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Color, &a.Model, &a.Persona, &a.Seat, &a.IsModerator, &a.Active)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

func (s *Store) UpsertAvatar(ctx context.Context, a Avatar) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO avatars (id, name, color, model, persona, seat, is_moderator, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, color = EXCLUDED.color, model = EXCLUDED.model,
		   persona = EXCLUDED.persona, seat = EXCLUDED.seat,
		   is_moderator = EXCLUDED.is_moderator, active = EXCLUDED.active`,
		a.ID, a.Name, a.Color, a.Model, a.Persona, a.Seat, a.IsModerator, a.Active)
	return err
}

func (s *Store) CountAvatars(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM avatars`).Scan(&n)
	return n, err
}
