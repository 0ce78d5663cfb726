package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffdraft/draftboard/internal/db"
	"github.com/ffdraft/draftboard/internal/provider"
)

// recordingQuerier resolves every team lookup to a stable id and records the
// batches it is sent.
type recordingQuerier struct {
	teams   map[string]int64
	lookups int
	batches []*pgx.Batch
	execErr error
}

func newRecordingQuerier() *recordingQuerier {
	return &recordingQuerier{teams: map[string]int64{}}
}

func (q *recordingQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if sql != db.StmtTeamIDByAbbr {
		return idRow{err: errors.New("unexpected statement " + sql)}
	}
	q.lookups++
	abbr := strings.ToUpper(args[0].(string))
	id, ok := q.teams[abbr]
	if !ok {
		id = int64(len(q.teams) + 1)
		q.teams[abbr] = id
	}
	return idRow{id: id}
}

func (q *recordingQuerier) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	q.batches = append(q.batches, b)
	return batchResults{err: q.execErr}
}

type idRow struct {
	id  int64
	err error
}

func (r idRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.id
	return nil
}

type batchResults struct{ err error }

func (b batchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, b.err }
func (b batchResults) Query() (pgx.Rows, error)         { return nil, b.err }
func (b batchResults) QueryRow() pgx.Row                { return idRow{err: b.err} }
func (b batchResults) Close() error                     { return nil }

func testWriter() *Store {
	return New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func knownPlayer(context.Context, string) (int64, bool, error) { return 42, true, nil }

func TestWriteStats_SkipsBlankTeam(t *testing.T) {
	q := newRecordingQuerier()
	stats := provider.PlayerStats{
		Passing: []provider.PassingStats{
			{SeasonKey: key("MahoPa00", 2023, " ")},
			{SeasonKey: key("MahoPa00", 2023, "KAN"), Games: ptr(16)},
		},
	}

	res, err := testWriter().writeStats(t.Context(), q, stats, knownPlayer)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Passing)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, q.batches, 1)
	queued := q.batches[0].QueuedQueries
	require.Len(t, queued, 1)
	assert.Equal(t, []any{int64(42), int64(1), 2023}, queued[0].Arguments[:3])
}

func TestWriteStats_SkipsUnknownPlayer(t *testing.T) {
	q := newRecordingQuerier()
	resolve := func(_ context.Context, id string) (int64, bool, error) {
		return 7, id == "KelcTr00", nil
	}
	stats := provider.PlayerStats{
		Receiving: []provider.ReceivingStats{
			{SeasonKey: key("KelcTr00", 2023, "KAN")},
			{SeasonKey: key("NobodyX00", 2023, "KAN")},
		},
	}

	res, err := testWriter().writeStats(t.Context(), q, stats, resolve)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Receiving)
	assert.Equal(t, 1, res.Skipped)
}

func TestWriteStats_ResolverErrorAborts(t *testing.T) {
	q := newRecordingQuerier()
	boom := errors.New("connection reset")
	resolve := func(context.Context, string) (int64, bool, error) { return 0, false, boom }
	stats := provider.PlayerStats{
		Rushing: []provider.RushingStats{{SeasonKey: key("HenrDe00", 2023, "TEN")}},
	}

	_, err := testWriter().writeStats(t.Context(), q, stats, resolve)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, q.batches)
}

func TestWriteStats_TeamsResolvedOncePerAbbreviation(t *testing.T) {
	q := newRecordingQuerier()
	stats := provider.PlayerStats{
		Passing: []provider.PassingStats{{SeasonKey: key("MahoPa00", 2022, "KAN")}},
		Rushing: []provider.RushingStats{
			{SeasonKey: key("MahoPa00", 2022, "KAN")},
			{SeasonKey: key("MahoPa00", 2023, "kan")},
		},
	}

	res, err := testWriter().writeStats(t.Context(), q, stats, knownPlayer)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total())
	assert.Equal(t, 1, q.lookups)
}

func TestWriteStats_AbsentAndZeroArgs(t *testing.T) {
	q := newRecordingQuerier()
	stats := provider.PlayerStats{
		Rushing: []provider.RushingStats{
			{SeasonKey: key("MahoPa00", 2023, "KAN"), Games: ptr(0)},
		},
	}

	_, err := testWriter().writeStats(t.Context(), q, stats, knownPlayer)
	require.NoError(t, err)

	require.Len(t, q.batches, 1)
	qq := q.batches[0].QueuedQueries[0]
	assert.Equal(t, rushingUpsert, qq.SQL)
	require.Len(t, qq.Arguments, len(rushingColumns)+3)
	// games is zero, games_started is absent
	assert.Equal(t, ptr(0), qq.Arguments[3])
	assert.Nil(t, qq.Arguments[4])
}

func TestWriteStats_IdenticalWritesQueueIdenticalUpserts(t *testing.T) {
	stats := provider.PlayerStats{
		Passing: []provider.PassingStats{
			{SeasonKey: key("MahoPa00", 2023, "KAN"), Games: ptr(16), PassingYards: ptr(4183)},
		},
	}
	q := newRecordingQuerier()
	w := testWriter()

	_, err := w.writeStats(t.Context(), q, stats, knownPlayer)
	require.NoError(t, err)
	_, err = w.writeStats(t.Context(), q, stats, knownPlayer)
	require.NoError(t, err)

	require.Len(t, q.batches, 2)
	first, second := q.batches[0].QueuedQueries[0], q.batches[1].QueuedQueries[0]
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Arguments, second.Arguments)
	assert.Contains(t, first.SQL, "ON CONFLICT (player_id, team_id, season) DO UPDATE")
}

func TestWriteStats_BatchErrorReturned(t *testing.T) {
	q := newRecordingQuerier()
	q.execErr = errors.New("constraint violation")
	stats := provider.PlayerStats{
		Passing: []provider.PassingStats{{SeasonKey: key("MahoPa00", 2023, "KAN")}},
	}

	res, err := testWriter().writeStats(t.Context(), q, stats, knownPlayer)
	require.Error(t, err)
	assert.Zero(t, res.Passing)
}

func TestWriteStats_EmptyWritesNothing(t *testing.T) {
	q := newRecordingQuerier()
	res, err := testWriter().writeStats(t.Context(), q, provider.PlayerStats{}, knownPlayer)
	require.NoError(t, err)
	assert.Zero(t, res.Total())
	assert.Empty(t, q.batches)
}

func TestTeamID_Blank(t *testing.T) {
	_, err := teamID(t.Context(), newRecordingQuerier(), "  ")
	assert.ErrorIs(t, err, ErrEmptyTeam)
}
