package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultsFS embed.FS

// promptVerbs is the single formatting verb each template must contain.
var promptVerbs = map[string]byte{
	driven.PromptSystem:    0,
	driven.PromptSummarise: 'd',
	driven.PromptAnswer:    's',
}

// PromptStore serves prompt templates from <dir>/<name>.txt. Missing
// directories are seeded with the built-in templates on first use and
// existing files are never overwritten. A template whose placeholders do
// not match what the caller formats is replaced by the built-in one.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a store over dir, default ~/.intellidocs/prompts.
// No I/O happens until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })
	if s.seedErr != nil {
		logger.Debug("prompt directory unavailable: %v", s.seedErr)
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	builtin, hasBuiltin := builtinPrompt(name)
	prompt, err := s.readFile(name)
	switch {
	case err != nil && !hasBuiltin:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		prompt = builtin
	case hasBuiltin:
		if verr := checkPlaceholders(prompt, promptVerbs[name]); verr != nil {
			logger.Warn("prompt %s.txt ignored: %v", name, verr)
			prompt = builtin
		}
	}

	s.mu.Lock()
	s.cache[name] = prompt
	s.mu.Unlock()
	return prompt, nil
}

// Reload forgets cached templates so edited files are read again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *PromptStore) readFile(name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%s.txt is empty", name)
	}
	return text, nil
}

// seed copies every embedded default that is not already on disk.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		content, err := defaultsFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0600); err != nil {
			return fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return nil
}

func builtinPrompt(name string) (string, bool) {
	raw, err := defaultsFS.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

// checkPlaceholders requires exactly one %<verb> and no other verbs.
// verb 0 means the template takes no arguments. "%%" is a literal.
func checkPlaceholders(text string, verb byte) error {
	found := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '%' {
			continue
		}
		if i+1 >= len(text) {
			return errors.New("trailing %")
		}
		next := text[i+1]
		i++
		switch {
		case next == '%':
		case verb != 0 && next == verb:
			found++
		default:
			return fmt.Errorf("unexpected placeholder %%%c", next)
		}
	}
	if verb != 0 && found != 1 {
		return fmt.Errorf("want exactly one %%%c, found %d", verb, found)
	}
	return nil
}
