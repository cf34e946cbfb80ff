// Package sqlite persists the room directory. Playback state is not stored
// here; this is the plain CRUD surface rooms are created and listed through.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/openjukebox/server/internal/repository/directory"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps writers serialized and makes :memory:
	// databases behave: every pooled connection would otherwise get its own
	// empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT,
			created_at  INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

func (s *Store) CreateRoom(params *directory.CreateRoomParams) (directory.Room, error) {
	_, err := s.db.Exec(`
		INSERT INTO rooms (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`,
		params.Id,
		params.Name,
		nullString(params.Description),
		params.CreatedAt.Unix(),
	)
	if err != nil {
		return directory.Room{}, fmt.Errorf("failed to insert room: %w", err)
	}

	return directory.Room{
		Id:          params.Id,
		Name:        params.Name,
		Description: params.Description,
		CreatedAt:   params.CreatedAt,
	}, nil
}

func (s *Store) ListRooms() ([]directory.Room, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, created_at
		FROM rooms
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []directory.Room
	for rows.Next() {
		room, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}

	return rooms, nil
}

func (s *Store) GetRoom(id string) (directory.Room, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, created_at
		FROM rooms
		WHERE id = ?
	`, id)

	room, err := scanRoom(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.Room{}, directory.ErrRoomNotFound
		}
		return directory.Room{}, err
	}

	return room, nil
}

func (s *Store) DeleteRoom(id string) error {
	res, err := s.db.Exec(`DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return directory.ErrRoomNotFound
	}

	return nil
}

func scanRoom(scan func(dest ...any) error) (directory.Room, error) {
	var (
		id          string
		name        string
		description sql.NullString
		createdAt   int64
	)
	if err := scan(&id, &name, &description, &createdAt); err != nil {
		return directory.Room{}, err
	}

	return directory.Room{
		Id:          id,
		Name:        name,
		Description: description.String,
		CreatedAt:   unixTime(createdAt),
	}, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
