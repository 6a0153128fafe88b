package excel

import (
	"strings"
	"sync"

	"github.com/AsgardXIV/calyx-go/pack"
)

// Module owns every Sheet loaded from one Pack, keyed case-insensitively, and
// hands out a shared *Sheet for repeated lookups of the same name.
type Module struct {
	pack             *pack.Pack
	defaultLanguage  Language
	mu               sync.Mutex
	sheets           map[string]*Sheet
}

// NewModule constructs a Module over p, resolving sheets in defaultLanguage
// unless GetSheetLanguage requests otherwise.
func NewModule(p *pack.Pack, defaultLanguage Language) *Module {
	return &Module{
		pack:            p,
		defaultLanguage: defaultLanguage,
		sheets:          make(map[string]*Sheet),
	}
}

// GetSheet returns the named sheet, read in the Module's default language,
// constructing and caching it on first request.
func (m *Module) GetSheet(name string) (*Sheet, error) {
	return m.GetSheetLanguage(name, m.defaultLanguage)
}

// GetSheetLanguage returns the named sheet read in lang. A sheet already
// cached under a different language is not re-read; callers that need two
// languages of the same sheet from one Module should use distinct Modules.
func (m *Module) GetSheetLanguage(name string, lang Language) (*Sheet, error) {
	key := strings.ToLower(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sheets[key]; ok {
		return s, nil
	}

	s, err := newSheet(m.pack, name, lang)
	if err != nil {
		return nil, err
	}
	m.sheets[key] = s
	return s, nil
}
