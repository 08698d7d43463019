package app_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestor/internal/app"
	"gestor/internal/config"
	"gestor/internal/db"
	"gestor/internal/domain"
	"gestor/internal/engine"
	"gestor/internal/locks"
	"gestor/internal/logging"
	"gestor/internal/metrics"
)

func newService(t *testing.T) *app.Service {
	t.Helper()
	svc, closeFn, err := app.Open(context.Background(), db.Config{Workspace: t.TempDir()}, config.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeFn() })
	svc.Engine.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	_, err = svc.SeedCatalog(context.Background(), config.Default().Catalog)
	require.NoError(t, err)
	return svc
}

func ptr[T any](v T) *T { return &v }

func TestSeedIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	stats, err := svc.SeedCatalog(ctx, config.Default().Catalog)
	require.NoError(t, err)
	assert.Equal(t, app.SeedStats{States: 5, Transitions: 6, Templates: 4, Users: 1}, stats)

	tpls, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, tpls, 4)
	states, err := svc.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 5)
	assert.Equal(t, []int64{1, 3, 4}, states[1].AllowedNext)
}

func TestCreateCaseWithInitialState(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, app.CreateCaseRequest{Name: " Reclamo 1 ", Type: ptr("reclamo"), StateID: ptr(int64(1)), ResponsibleID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, "Reclamo 1", c.Name)
	assert.Equal(t, int64(1), *c.StateID)

	detail, err := svc.CaseDetail(ctx, "reclamo 1")
	require.NoError(t, err)
	assert.Equal(t, "Registrada", *detail.StateName)
	assert.Equal(t, "Administrador", *detail.ResponsibleName)
	require.Len(t, detail.Timeline, 1)
	assert.Equal(t, "2024-06-01T12:00:00.000000Z", detail.Timeline[0].Timestamp)

	_, err = svc.CreateCase(ctx, app.CreateCaseRequest{Name: "Reclamo 1"})
	assert.Error(t, err, "duplicate name")
	_, err = svc.CreateCase(ctx, app.CreateCaseRequest{Name: "otro", ResponsibleID: ptr(int64(99))})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.CreateCase(ctx, app.CreateCaseRequest{Name: "  "})
	assert.ErrorIs(t, err, app.ErrNameRequired)

	// a failed first transition leaves no case behind
	_, err = svc.CreateCase(ctx, app.CreateCaseRequest{Name: "sin estado válido", StateID: ptr(int64(42))})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	cases, err := svc.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 1)
}

func TestTransitionMetricsAndLogs(t *testing.T) {
	svc := newService(t)
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "info", "json")
	require.NoError(t, err)
	svc.Log = logger
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, app.CreateCaseRequest{Name: "m", StateID: ptr(int64(1))})
	require.NoError(t, err)

	_, err = svc.ApplyTransition(ctx, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 5})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = svc.ApplyTransition(ctx, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2})
	require.NoError(t, err)
	_, err = svc.ApplyTransition(ctx, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 4, Comment: ptr(" ")})
	require.ErrorIs(t, err, domain.ErrCommentRequired)

	tr := svc.Metrics.Transitions
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.WithLabelValues("5", metrics.OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.WithLabelValues("2", metrics.OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.WithLabelValues("4", metrics.OutcomeCommentRequired)))
	assert.Contains(t, buf.String(), "transition applied")
	assert.Contains(t, buf.String(), "transition rejected")

	_, err = svc.RecordComment(ctx, engine.CommentRequest{CaseID: c.ID, Comment: "nota"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Comments))

	entries, err := svc.Timeline(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	_, err = svc.Timeline(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentTransitionsOnSameCase(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, app.CreateCaseRequest{Name: "carrera", StateID: ptr(int64(1))})
	require.NoError(t, err)

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ApplyTransition(ctx, engine.TransitionRequest{CaseID: c.ID, TargetStateID: 2})
		}(i)
	}
	wg.Wait()
	applied := 0
	for _, err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
	assert.Equal(t, 1, applied)
	entries, err := svc.Timeline(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUpdateAndDeleteCase(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, app.CreateCaseRequest{Name: "editar", StateID: ptr(int64(1))})
	require.NoError(t, err)

	up, err := svc.UpdateCase(ctx, app.UpdateCaseRequest{ID: c.ID, Name: "editado", Type: ptr("consulta")})
	require.NoError(t, err)
	assert.Equal(t, "editado", up.Name)
	assert.Equal(t, int64(1), *up.StateID)

	_, err = svc.UpdateCase(ctx, app.UpdateCaseRequest{ID: 404, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.DeleteCase(ctx, c.ID))
	assert.ErrorIs(t, svc.DeleteCase(ctx, c.ID), domain.ErrNotFound)
}

func TestResolveTemplatePreview(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	res, err := svc.ResolveTemplate(ctx, ptr("reclamo"), 3)
	require.NoError(t, err)
	require.NotNil(t, res.Template)
	assert.True(t, res.CommentRequired)

	res, err = svc.ResolveTemplate(ctx, ptr("consulta"), 3)
	require.NoError(t, err)
	assert.Nil(t, res.Template)

	_, err = svc.ResolveTemplate(ctx, nil, 77)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewLockerBackends(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	l, closeFn, err := app.NewLocker(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, closeFn)
	assert.IsType(t, &locks.Local{}, l)

	cfg.Locks.Backend = config.LockBackendNone
	l, _, err = app.NewLocker(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, locks.Noop{}, l)

	mr := miniredis.RunT(t)
	cfg.Locks.Backend = config.LockBackendRedis
	cfg.Locks.Redis.Addr = mr.Addr()
	l, closeFn, err = app.NewLocker(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()
	unlock, err := l.Lock(ctx, "case:1", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("gestor:lock:case:1"))
	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("gestor:lock:case:1"))
}
