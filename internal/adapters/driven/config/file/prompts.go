package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads answer prompts from user-editable files.
// The directory and default files are created on the first Load, not in
// the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: domain.DefaultAnswerSystemPrompt,
	driven.PromptAnswerUser:   domain.DefaultAnswerUserPrompt,
}

// requiredVerbs is the number of %s verbs a template must contain.
var requiredVerbs = map[string]int{
	driven.PromptAnswerSystem: 0,
	driven.PromptAnswerUser:   2,
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.docrag/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name. A missing, unreadable or malformed
// file falls back to the built-in template.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("%w: unknown prompt %q", domain.ErrNotFound, name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return fallback, nil
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		logger.Warn("Using built-in %s prompt: %v", name, err)
		prompt = fallback
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and any missing default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Prompt store disabled: %v", s.initErr)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0o600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				logger.Warn("Prompt store disabled: %v", s.initErr)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		logger.Debug("Prompt README not written: %v", err)
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("%s.txt is empty", name)
	}
	want := requiredVerbs[name]
	if want == 0 {
		// Used verbatim, so only a stray %s is a mistake.
		if strings.Contains(prompt, "%s") {
			return "", fmt.Errorf("%s.txt must not contain %%s placeholders", name)
		}
		return prompt, nil
	}
	got, err := countVerbs(prompt)
	if err != nil {
		return "", fmt.Errorf("%s.txt: %w", name, err)
	}
	if got != want {
		return "", fmt.Errorf("%s.txt has %d %%s placeholders, want %d", name, got, want)
	}
	return prompt, nil
}

// countVerbs counts the %s verbs of a format template. %% is a literal
// percent sign; any other use of % is rejected.
func countVerbs(template string) (int, error) {
	n := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 == len(template) {
			return 0, errors.New("trailing %, write %% for a percent sign")
		}
		switch template[i+1] {
		case '%':
		case 's':
			n++
		default:
			return 0, fmt.Errorf("unsupported verb %q at offset %d, write %%%% for a percent sign", template[i:i+2], i)
		}
		i++
	}
	return n, nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# docrag prompts

These files control how docrag asks the LLM to answer from retrieved context.

- ` + "`answer_system.txt`" + ` - system instruction, no placeholders
- ` + "`answer_user.txt`" + ` - user message; the first ` + "`%s`" + ` is the context,
  the second is the question

Write ` + "`%%`" + ` for a literal percent sign in the user message.

A file that is empty or has the wrong number of ` + "`%s`" + ` placeholders is
ignored and the built-in prompt is used instead. Changes take effect on the
next command or server restart.
`
	return os.WriteFile(path, []byte(content), 0o600)
}
