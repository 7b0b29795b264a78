package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

func newPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".intellidocs", "prompts"), store.Dir())

	_, err = os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "constructor does no I/O")
}

func TestPromptStore_SeedsDefaults(t *testing.T) {
	store, dir := newPromptStore(t)

	prompt, err := store.Load(driven.PromptSummarise)
	require.NoError(t, err)
	assert.Contains(t, prompt, "%d words")

	for _, name := range []string{"system.txt", "summarise.txt", "answer.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestPromptStore_KeepsUserEdits(t *testing.T) {
	store, dir := newPromptStore(t)
	require.NoError(t, os.MkdirAll(dir, 0700))
	custom := "Answer in one sentence.\n\nQ: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("  "+custom+"\n"), 0600))

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)

	raw, err := os.ReadFile(filepath.Join(dir, "answer.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), custom, "seeding does not overwrite")
}

func TestPromptStore_InvalidTemplateFallsBack(t *testing.T) {
	tests := map[string]string{
		"missing verb":  "Summarise the document.",
		"wrong verb":    "Summarise in %s words.",
		"two verbs":     "Summarise in %d to %d words.",
		"trailing":      "Summarise in %d words at 100%",
		"empty file":    "   \n",
		"system with %": "Cite sources as %s.",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			store, dir := newPromptStore(t)
			require.NoError(t, os.MkdirAll(dir, 0700))
			prompt := driven.PromptSummarise
			if name == "system with %" {
				prompt = driven.PromptSystem
			}
			require.NoError(t, os.WriteFile(filepath.Join(dir, prompt+".txt"), []byte(content), 0600))

			got, err := store.Load(prompt)
			require.NoError(t, err)
			want, _ := builtinPrompt(prompt)
			assert.Equal(t, want, got)
		})
	}
}

func TestPromptStore_LiteralPercentAllowed(t *testing.T) {
	store, dir := newPromptStore(t)
	require.NoError(t, os.MkdirAll(dir, 0700))
	custom := "Keep 100%% of the figures. Use ~%d words."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summarise.txt"), []byte(custom), 0600))

	got, err := store.Load(driven.PromptSummarise)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
	assert.Equal(t, "Keep 100% of the figures. Use ~5 words.", fmt.Sprintf(got, 5))
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, dir := newPromptStore(t)

	_, err := store.Load("critic")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "critic.txt"), []byte("Check %v freely"), 0600))
	got, err := store.Load("critic")
	require.NoError(t, err)
	assert.Equal(t, "Check %v freely", got, "templates without a built-in are not checked")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	store, dir := newPromptStore(t)
	path := filepath.Join(dir, "system.txt")

	first, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Be brief."), 0600))
	cached, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", fresh)
}

func TestPromptStore_UnwritableDirUsesBuiltins(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	want, _ := builtinPrompt(driven.PromptAnswer)
	assert.Equal(t, want, got)
}

func TestPromptStore_ConcurrentLoads(t *testing.T) {
	store, _ := newPromptStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names := []string{driven.PromptSystem, driven.PromptSummarise, driven.PromptAnswer}
			_, err := store.Load(names[i%3])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestCheckPlaceholders(t *testing.T) {
	tests := []struct {
		text    string
		verb    byte
		wantErr bool
	}{
		{"plain", 0, false},
		{"50%% off", 0, false},
		{"one %d", 'd', false},
		{"%s at start", 's', false},
		{"none", 'd', true},
		{"%d and %d", 'd', true},
		{"%s instead", 'd', true},
		{"ends with %", 0, true},
		{"%v", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			err := checkPlaceholders(tt.text, tt.verb)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
