package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"devevent/internal/domain"
	"devevent/internal/store"
)

func newConn(db *sql.DB) *store.Connector[*sql.DB] {
	return store.NewConnector(func(context.Context) (*sql.DB, error) { return db, nil }, nil)
}

var eventRowColumns = []string{
	"id", "title", "slug", "description", "overview", "image", "venue", "location",
	"date", "time", "mode", "audience", "agenda", "organizer", "tags", "created_at", "updated_at",
}

var ts = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleEvent() *domain.Event {
	return &domain.Event{
		Title:       "React Conf 2026!",
		Slug:        "react-conf-2026",
		Description: "desc",
		Overview:    "overview",
		Image:       "https://cdn.example.com/a.png",
		Venue:       "Hall A",
		Location:    "Cairo",
		Date:        "2026-03-15",
		Time:        "14:30",
		Mode:        domain.ModeHybrid,
		Audience:    "devs",
		Agenda:      []string{"Keynote", "Workshops"},
		Organizer:   "React Cairo",
		Tags:        []string{"react", "web"},
	}
}

func addEventRow(rows *sqlmock.Rows, id, slug string, tags string) *sqlmock.Rows {
	return rows.AddRow(id, "React Conf 2026!", slug, "desc", "overview", "https://cdn.example.com/a.png",
		"Hall A", "Cairo", "2026-03-15", "14:30", "hybrid", "devs", "{Keynote,Workshops}", "React Cairo", tags, ts, ts)
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(title, slug, description`).
					WithArgs("React Conf 2026!", "react-conf-2026", "desc", "overview", "https://cdn.example.com/a.png",
						"Hall A", "Cairo", "2026-03-15", "14:30", "hybrid", "devs",
						pq.Array([]string{"Keynote", "Workshops"}), "React Cairo", pq.Array([]string{"react", "web"})).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("ev-uuid-1", ts, ts))
			},
			wantID: "ev-uuid-1",
		},
		{
			name: "slug unique violation maps to conflict",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "events_slug_key"})
			},
			wantErr: domain.ErrConflict,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(newConn(db))
			ev := sampleEvent()
			err = repo.Create(ctx, ev)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, ev.ID)
			require.Equal(t, ts, ev.CreatedAt)
			require.Equal(t, ts, ev.UpdatedAt)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	later := ts.Add(time.Hour)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET`).
					WithArgs("React Conf 2026!", "react-conf-2026", "desc", "overview", "https://cdn.example.com/a.png",
						"Hall A", "Cairo", "2026-03-15", "14:30", "hybrid", "devs",
						pq.Array([]string{"Keynote", "Workshops"}), "React Cairo", pq.Array([]string{"react", "web"}), "ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, later))
			},
		},
		{
			name: "missing row",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET`).WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "slug taken",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET`).WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(newConn(db))
			ev := sampleEvent()
			ev.ID = "ev-1"
			err = repo.Update(ctx, ev)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, later, ev.UpdatedAt)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetBySlug(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		slug    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Event
		wantErr error
	}{
		{
			name: "success",
			slug: "react-conf-2026",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, title, slug, .* FROM events WHERE slug = \$1`).
					WithArgs("react-conf-2026").
					WillReturnRows(addEventRow(sqlmock.NewRows(eventRowColumns), "ev-1", "react-conf-2026", "{react,web}"))
			},
			want: func() *domain.Event {
				e := sampleEvent()
				e.ID = "ev-1"
				e.CreatedAt = ts
				e.UpdatedAt = ts
				return e
			}(),
		},
		{
			name: "not found",
			slug: "missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE slug = \$1`).
					WithArgs("missing").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "db error",
			slug: "x",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE slug = \$1`).
					WithArgs("x").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(newConn(db))
			got, err := repo.GetBySlug(ctx, tt.slug)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(addEventRow(sqlmock.NewRows(eventRowColumns), "ev-1", "react-conf-2026", "{react}"))
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs("ev-missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewEventRepository(newConn(db))
	got, err := repo.GetByID(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, "ev-1", got.ID)
	require.Equal(t, []string{"react"}, got.Tags)
	require.Equal(t, domain.ModeHybrid, got.Mode)

	_, err = repo.GetByID(ctx, "ev-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(eventRowColumns)
	addEventRow(rows, "ev-2", "react-conf-2026-1", "{react}")
	addEventRow(rows, "ev-1", "react-conf-2026", "{react}")
	mock.ExpectQuery(`FROM events ORDER BY created_at DESC, id DESC`).WillReturnRows(rows)

	repo := NewEventRepository(newConn(db))
	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ev-2", got[0].ID)
	require.Equal(t, "ev-1", got[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_List_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events ORDER BY created_at DESC, id DESC`).WillReturnRows(sqlmock.NewRows(eventRowColumns))

	got, err := NewEventRepository(newConn(db)).List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestEventRepository_ListByTags(t *testing.T) {
	ctx := context.Background()

	t.Run("overlap query with limit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(eventRowColumns)
		addEventRow(rows, "ev-2", "cloud-day", "{cloud}")
		mock.ExpectQuery(`FROM events WHERE slug <> \$1 AND tags && \$2 LIMIT \$3`).
			WithArgs("ai-summit", pq.Array([]string{"ai", "cloud"}), 3).
			WillReturnRows(rows)

		got, err := NewEventRepository(newConn(db)).ListByTags(ctx, "ai-summit", []string{"ai", "cloud"}, 3)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "cloud-day", got[0].Slug)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no tags skips the query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		got, err := NewEventRepository(newConn(db)).ListByTags(ctx, "ai-summit", nil, 3)
		require.NoError(t, err)
		require.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_StoreUnavailable(t *testing.T) {
	conn := store.NewConnector(func(context.Context) (*sql.DB, error) {
		return nil, sql.ErrConnDone
	}, nil)
	repo := NewEventRepository(conn)

	_, err := repo.GetBySlug(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	err = repo.Create(context.Background(), sampleEvent())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestEventRepository_DroppedConnectionResetsHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	opens, closes := 0, 0
	conn := store.NewConnector(func(context.Context) (*sql.DB, error) {
		opens++
		return db, nil
	}, func(*sql.DB) error {
		closes++
		return nil
	})
	repo := NewEventRepository(conn)
	ctx := context.Background()

	mock.ExpectQuery(`FROM events WHERE slug = \$1`).
		WithArgs("go-meetup").
		WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET})

	_, err = repo.GetBySlug(ctx, "go-meetup")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.False(t, conn.Ready())
	require.Equal(t, 1, closes)

	mock.ExpectQuery(`FROM events WHERE slug = \$1`).
		WithArgs("go-meetup").
		WillReturnRows(addEventRow(sqlmock.NewRows(eventRowColumns), "ev-1", "go-meetup", "{go}"))

	got, err := repo.GetBySlug(ctx, "go-meetup")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 2, opens)
	require.True(t, conn.Ready())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreErr(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", sql.ErrConnDone, true},
		{"net", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"deadline", context.DeadlineExceeded, false},
		{"unique violation", &pq.Error{Code: uniqueViolation}, false},
		{"other", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newConn(nil)
			_, err := conn.Get(context.Background())
			require.NoError(t, err)

			got := storeErr(conn, tt.err)
			require.Equal(t, tt.unavailable, errors.Is(got, domain.ErrStoreUnavailable))
			require.Equal(t, !tt.unavailable, conn.Ready())
			if !tt.unavailable {
				require.Equal(t, tt.err, got)
			}
		})
	}
}
