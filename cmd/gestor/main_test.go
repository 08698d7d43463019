package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gestor/internal/domain"
)

func run(t *testing.T, ws string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"-w", ws}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	ws := t.TempDir()
	_, err := run(t, ws, "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(ws, "gestor.yml"))
	require.NoError(t, err)

	_, err = run(t, ws, "config", "init")
	require.ErrorContains(t, err, "already exists")
	_, err = run(t, ws, "config", "init", "--force")
	require.NoError(t, err)
}

func TestCaseLifecycle(t *testing.T) {
	ws := t.TempDir()
	out, err := run(t, ws, "--json", "seed")
	require.NoError(t, err)
	var stats map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Equal(t, 5, stats["states"])

	out, err = run(t, ws, "--json", "case", "create", "--nombre", "Solicitud de prueba", "--estado", "1", "--usuario", "1")
	require.NoError(t, err)
	var created caseView
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotNil(t, created.StateID)
	require.EqualValues(t, 1, *created.StateID)

	_, err = run(t, ws, "case", "transition", "1", "--estado", "2")
	require.NoError(t, err)

	// rejecting requires a comment
	_, err = run(t, ws, "case", "transition", "1", "--estado", "4")
	require.ErrorIs(t, err, domain.ErrCommentRequired)

	// no edge from 2 to 5
	_, err = run(t, ws, "case", "transition", "1", "--estado", "5")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = run(t, ws, "case", "transition", "1", "--estado", "4", "--comentario", "Falta documentación", "--usuario", "1")
	require.NoError(t, err)

	_, err = run(t, ws, "case", "comment", "1", "--comentario", "Notificado al solicitante")
	require.NoError(t, err)

	out, err = run(t, ws, "--json", "case", "show", "prueba")
	require.NoError(t, err)
	var detail domain.CaseDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	require.Equal(t, "Solicitud de prueba", detail.Name)
	require.NotNil(t, detail.StateName)
	require.Equal(t, "Rechazada", *detail.StateName)
	require.Len(t, detail.Timeline, 4)
	require.Equal(t, "Falta documentación", *detail.Timeline[2].Comment)
	require.Nil(t, detail.Timeline[3].StateID)

	out, err = run(t, ws, "case", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Solicitud de prueba")
}

func TestTemplateResolve(t *testing.T) {
	ws := t.TempDir()
	_, err := run(t, ws, "seed")
	require.NoError(t, err)

	out, err := run(t, ws, "--json", "template", "resolve", "--estado", "3", "--tipo", "reclamo")
	require.NoError(t, err)
	var res struct {
		Template        *domain.CommentTemplate `json:"plantilla"`
		CommentRequired bool                    `json:"comment_required"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Template)
	require.True(t, res.CommentRequired)

	out, err = run(t, ws, "template", "resolve", "--estado", "1")
	require.NoError(t, err)
	require.Contains(t, out, "comment optional")

	_, err = run(t, ws, "template", "resolve", "--estado", "99")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionNeedsNumericID(t *testing.T) {
	_, err := run(t, t.TempDir(), "case", "transition", "abc", "--estado", "2")
	require.ErrorContains(t, err, "invalid case id")
}
