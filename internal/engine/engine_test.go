package engine_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestor/internal/db"
	"gestor/internal/domain"
	"gestor/internal/engine"
	"gestor/internal/migrate"
)

var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	Engine engine.Engine
	DB     *sql.DB
	Ctx    context.Context
}

// newTestEnv seeds states 1 Abierta -> 2 En revisión -> 3 Cerrada, a wildcard
// required template on state 2 and user 7.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))

	eng := engine.New()
	eng.Now = func() time.Time { return fixedNow }
	ctx := context.Background()
	r := eng.Repo
	for _, s := range []domain.State{
		{ID: 1, Name: "Abierta", Order: 1},
		{ID: 2, Name: "En revisión", Order: 2},
		{ID: 3, Name: "Cerrada", Order: 3, IsTerminal: true},
	} {
		require.NoError(t, r.UpsertState(ctx, conn, s))
	}
	require.NoError(t, r.InsertEdge(ctx, conn, domain.Transition{FromStateID: 1, ToStateID: 2}))
	require.NoError(t, r.InsertEdge(ctx, conn, domain.Transition{FromStateID: 2, ToStateID: 3}))
	_, err = r.UpsertTemplate(ctx, conn, domain.CommentTemplate{StateID: 2, Title: "Revisión", Body: "Motivo:", Required: true}, "2024-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	require.NoError(t, r.UpsertUser(ctx, conn, domain.User{ID: 7, Name: "Ana"}))
	return testEnv{Engine: eng, DB: conn, Ctx: ctx}
}

func (env testEnv) createCase(t *testing.T, name string, state *int64, tipo *string) domain.Case {
	t.Helper()
	c, err := env.Engine.Repo.InsertCase(env.Ctx, env.DB, domain.Case{Name: name, StateID: state, Type: tipo, CreatedAt: fixedNow})
	require.NoError(t, err)
	return c
}

// apply runs one transition in its own transaction, committing on success.
func (env testEnv) apply(t *testing.T, req engine.TransitionRequest) (engine.TransitionResult, error) {
	t.Helper()
	tx, err := env.DB.BeginTx(env.Ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	res, err := env.Engine.ApplyTransition(env.Ctx, tx, req)
	if err != nil {
		return res, err
	}
	require.NoError(t, tx.Commit())
	return res, nil
}

func (env testEnv) eventCount(t *testing.T, caseID int64) int {
	t.Helper()
	n, err := env.Engine.Repo.CountEventsForCase(env.Ctx, env.DB, caseID)
	require.NoError(t, err)
	return n
}

func ptr[T any](v T) *T { return &v }

func TestTransitionLegality(t *testing.T) {
	env := newTestEnv(t)
	pairs := []struct{ from, to int64 }{{1, 3}, {1, 1}, {2, 1}, {3, 1}, {3, 2}, {2, 2}}
	for _, p := range pairs {
		c := env.createCase(t, fmt.Sprintf("caso %d-%d", p.from, p.to), ptr(p.from), nil)
		_, err := env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: p.to, Comment: ptr("x")})
		var invalid domain.InvalidTransitionError
		require.ErrorAs(t, err, &invalid, "%d -> %d", p.from, p.to)
		assert.Equal(t, p.from, invalid.From)
		assert.Equal(t, p.to, invalid.To)

		got, err := env.Engine.Repo.GetCase(env.Ctx, env.DB, c.ID)
		require.NoError(t, err)
		assert.Equal(t, p.from, *got.StateID)
		assert.Zero(t, env.eventCount(t, c.ID))
	}
}

func TestFirstAssignmentAcceptsAnyExistingState(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCase(t, "sin estado", nil, nil)
	res, err := env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 3})
	require.NoError(t, err)
	assert.Nil(t, res.From)
	assert.Equal(t, int64(3), *res.Case.StateID)

	other := env.createCase(t, "otro sin estado", nil, nil)
	_, err = env.apply(t, engine.TransitionRequest{CaseID: other.ID, TargetStateID: 99})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyTransitionUnknownCaseOrUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.apply(t, engine.TransitionRequest{CaseID: 404, TargetStateID: 2})
	var nf domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "case", nf.Kind)

	c := env.createCase(t, "usuario", ptr(int64(1)), nil)
	_, err = env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2, UserID: ptr(int64(8)), Comment: ptr("ok")})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Kind)
	assert.Zero(t, env.eventCount(t, c.ID))
}

func TestCommentGating(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCase(t, "gating", ptr(int64(1)), nil)
	for _, blank := range []*string{nil, ptr(""), ptr("   \t\n")} {
		_, err := env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2, Comment: blank})
		require.ErrorIs(t, err, domain.ErrCommentRequired)
	}
	assert.Zero(t, env.eventCount(t, c.ID))

	res, err := env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2, Comment: ptr("  revisado  ")})
	require.NoError(t, err)
	require.NotNil(t, res.Template)
	assert.True(t, res.Template.Required)
	assert.Equal(t, "  revisado  ", *res.Event.Comment)
	assert.Equal(t, int64(2), *res.Event.StateID)
	assert.True(t, fixedNow.Equal(res.Event.CreatedAt))

	// no template on state 3: blank comments are fine
	_, err = env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 3})
	require.NoError(t, err)
}

func TestAtomicityOnEventFailure(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCase(t, "atomico", ptr(int64(1)), nil)
	_, err := env.DB.ExecContext(env.Ctx, `CREATE TRIGGER fail_evento BEFORE INSERT ON evento BEGIN SELECT RAISE(ABORT, 'simulated failure'); END;`)
	require.NoError(t, err)

	_, err = env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2, Comment: ptr("ok")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append event")

	got, err := env.Engine.Repo.GetCase(env.Ctx, env.DB, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *got.StateID)
	assert.Zero(t, env.eventCount(t, c.ID))
}

func TestConcurrentStateChangeIsDetected(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCase(t, "carrera", ptr(int64(1)), nil)
	// a stale guard must not move the case
	moved, err := env.Engine.Repo.UpdateCaseState(env.Ctx, env.DB, c.ID, ptr(int64(2)), 3)
	require.NoError(t, err)
	assert.False(t, moved)
	moved, err = env.Engine.Repo.UpdateCaseState(env.Ctx, env.DB, c.ID, nil, 3)
	require.NoError(t, err)
	assert.False(t, moved)
	moved, err = env.Engine.Repo.UpdateCaseState(env.Ctx, env.DB, c.ID, ptr(int64(1)), 2)
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestRecordComment(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCase(t, "comentarios", ptr(int64(1)), nil)
	tx, err := env.DB.BeginTx(env.Ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = env.Engine.RecordComment(env.Ctx, tx, engine.CommentRequest{CaseID: c.ID, Comment: "  "})
	require.ErrorIs(t, err, domain.ErrEmptyComment)

	ev, err := env.Engine.RecordComment(env.Ctx, tx, engine.CommentRequest{CaseID: c.ID, UserID: ptr(int64(7)), Comment: "llamé al cliente"})
	require.NoError(t, err)
	assert.Nil(t, ev.StateID)
	require.NoError(t, tx.Commit())

	got, err := env.Engine.Repo.GetCase(env.Ctx, env.DB, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *got.StateID)
	assert.Equal(t, 1, env.eventCount(t, c.ID))
}

func TestCaseDetailLookup(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.Engine.Repo.UpsertUser(env.Ctx, env.DB, domain.User{ID: 9, Name: "Luis"}))
	c, err := env.Engine.Repo.InsertCase(env.Ctx, env.DB, domain.Case{
		Name: "Reclamo 100%_Norte", StateID: ptr(int64(1)), ResponsibleID: ptr(int64(9)), CreatedAt: fixedNow,
	})
	require.NoError(t, err)
	env.createCase(t, "Reclamo 1000 Sur", nil, nil)

	byID, err := env.Engine.CaseDetail(env.Ctx, env.DB, "1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byID.ID)
	assert.Equal(t, "Abierta", *byID.StateName)
	assert.Equal(t, "Luis", *byID.ResponsibleName)
	assert.Equal(t, "2024-01-01T09:30:00.000000Z", byID.CreatedAt)
	assert.Empty(t, byID.Timeline)

	// wildcards in the query are literal
	byName, err := env.Engine.CaseDetail(env.Ctx, env.DB, "100%_norte")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)

	accented := env.createCase(t, "Gestión Ñandú", nil, nil)
	for _, code := range []string{"gestión", "GESTIÓN", "ñandú"} {
		d, err := env.Engine.CaseDetail(env.Ctx, env.DB, code)
		require.NoError(t, err, code)
		assert.Equal(t, accented.ID, d.ID, code)
	}

	_, err = env.Engine.CaseDetail(env.Ctx, env.DB, "no existe")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.Engine.CaseDetail(env.Ctx, env.DB, "12345")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEndToEndApproval(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCase(t, "C", ptr(int64(1)), ptr("standard"))
	user := ptr(int64(7))

	_, err := env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2, UserID: user, Comment: ptr("  ")})
	var required domain.CommentRequiredError
	require.ErrorAs(t, err, &required)
	assert.True(t, errors.Is(err, domain.ErrCommentRequired))

	res, err := env.apply(t, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2, UserID: user, Comment: ptr("approved")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), *res.Case.StateID)

	detail, err := env.Engine.CaseDetail(env.Ctx, env.DB, "C")
	require.NoError(t, err)
	assert.Equal(t, int64(2), *detail.StateID)
	require.Len(t, detail.Timeline, 1)
	entry := detail.Timeline[0]
	assert.Equal(t, "approved", *entry.Comment)
	assert.Equal(t, int64(2), *entry.StateID)
	assert.Equal(t, "En revisión", *entry.StateName)
	assert.Equal(t, int64(7), *entry.UserID)
}
