package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestor/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/api", cfg.Server.BasePath)
	assert.Len(t, cfg.Catalog.States, 5)
	assert.Equal(t, "En revisión", cfg.Catalog.States[1].Name)
	assert.True(t, cfg.Catalog.States[4].Terminal)
	assert.Equal(t, int64(2), cfg.Catalog.Transitions[0].ToStateID)
	assert.Equal(t, "reclamo", cfg.Catalog.Templates[1].Type)
	assert.Equal(t, 10*time.Second, cfg.LockTTL())

	parsed, err := config.FromYAML([]byte(config.GenerateDefault()))
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestLoadOptionalFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.Load(dir)
	assert.ErrorContains(t, err, "not found")

	yml := "log:\n  format: json\ncatalog:\n  states:\n    - {id: 7, nombre: Única}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gestor.yml"), []byte(yml), 0o644))
	cfg, err = config.LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	require.Len(t, cfg.Catalog.States, 1)
}

func TestValidateRejectsBrokenCatalogs(t *testing.T) {
	cases := map[string]string{
		"unknown edge":       "catalog:\n  states: [{id: 1, nombre: A}]\n  transitions: [{from: 1, to: 2}]\n",
		"duplicate state":    "catalog:\n  states: [{id: 1, nombre: A}, {id: 1, nombre: B}]\n",
		"empty name":         "catalog:\n  states: [{id: 1, nombre: ' '}]\n",
		"two wildcards":      "catalog:\n  states: [{id: 1, nombre: A}]\n  templates: [{estado: 1}, {estado: 1}]\n",
		"two same type":      "catalog:\n  states: [{id: 1, nombre: A}]\n  templates: [{estado: 1, tipo: x}, {estado: 1, tipo: x}]\n",
		"template state":     "catalog:\n  templates: [{estado: 3}]\n",
		"redis without addr": "locks:\n  backend: redis\n",
		"bad backend":        "locks:\n  backend: etcd\n",
		"bad ttl":            "locks:\n  ttl: soon\n",
		"bad format":         "log:\n  format: xml\n",
		"relative base":      "server:\n  base_path: api\n",
	}
	for name, yml := range cases {
		_, err := config.FromYAML([]byte(yml))
		assert.Error(t, err, name)
	}
}

func TestWildcardAndTypedTemplatesCoexist(t *testing.T) {
	yml := "catalog:\n  states: [{id: 1, nombre: A}]\n  templates: [{estado: 1}, {estado: 1, tipo: x}, {estado: 1, tipo: y}]\n"
	cfg, err := config.FromYAML([]byte(yml))
	require.NoError(t, err)
	assert.Len(t, cfg.Catalog.Templates, 3)
}
