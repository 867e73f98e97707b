package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/axon-context/internal/graph"
)

func TestPythonParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("Imports", func(t *testing.T) {
		content := []byte(`import os
import json, sys as system
from typing import List, Optional
from .models import User
from .. import config
from app.services.auth import login as do_login

def main():
    import inner
`)
		parser := NewPythonParser()
		result, err := parser.Parse("app/main.py", content)
		require.NoError(t, err)

		assert.Equal(t,
			[]string{"os", "json", "sys", "typing", ".models", "..", "app.services.auth", "inner"},
			modulePaths(result.Imports))

		byPath := make(map[string]ImportStatement)
		for _, imp := range result.Imports {
			byPath[imp.ModulePath] = imp
		}
		assert.True(t, byPath[".models"].IsRelative)
		assert.True(t, byPath[".."].IsRelative)
		assert.False(t, byPath["app.services.auth"].IsRelative)
		assert.Equal(t, []string{"List", "Optional"}, byPath["typing"].Symbols)
		assert.Equal(t, []string{"login"}, byPath["app.services.auth"].Symbols)
	})

	t.Run("ParenthesizedNames", func(t *testing.T) {
		content := []byte(`from . import (
    config,  # settings
    models as m,
)
from pkg import (a, b)
`)
		result, err := NewPythonParser().Parse("app/main.py", content)
		require.NoError(t, err)

		require.Len(t, result.Imports, 2)
		assert.Equal(t, ".", result.Imports[0].ModulePath)
		assert.Equal(t, []string{"config", "models"}, result.Imports[0].Symbols)
		assert.Equal(t, []string{"a", "b"}, result.Imports[1].Symbols)
	})

	t.Run("Exports", func(t *testing.T) {
		content := []byte(`class UserService:
    def get(self):
        pass

def public_helper():
    pass

async def fetch():
    pass

def _private():
    pass

class _Hidden:
    pass
`)
		parser := NewPythonParser()
		result, err := parser.Parse("service.py", content)
		require.NoError(t, err)

		assert.Equal(t, []string{"UserService", "public_helper", "fetch"}, result.Exports)
		assert.Equal(t, graph.LangPython, parser.Language())
	})
}
