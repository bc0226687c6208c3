package newsletter

import (
	"strings"

	"github.com/osteele/liquid"
)

// DefaultSubject is used for campaigns without a title.
const DefaultSubject = "Newsletter"

// Subjects renders campaign titles as Liquid templates, e.g.
// "Hello {{ subscriber.email }}".
type Subjects struct {
	engine *liquid.Engine
}

func NewSubjects() *Subjects {
	return &Subjects{engine: liquid.NewEngine()}
}

// Render returns the subject for one recipient. A template that fails to
// parse or render falls back to the raw title.
func (s *Subjects) Render(title, email string) string {
	if strings.TrimSpace(title) == "" {
		return DefaultSubject
	}
	if !strings.Contains(title, "{{") && !strings.Contains(title, "{%") {
		return title
	}

	out, err := s.engine.ParseAndRenderString(title, map[string]any{
		"newsletter": map[string]any{"title": title},
		"subscriber": map[string]any{"email": email},
	})
	if err != nil || strings.TrimSpace(out) == "" {
		return title
	}
	return strings.TrimSpace(out)
}
