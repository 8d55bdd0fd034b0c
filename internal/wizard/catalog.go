// Package wizard реализует пошаговые формы заявок: один вопрос на экран,
// переход вперёд только после валидации текущего ответа.
package wizard

import (
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed forms.yaml
var defaultForms []byte

type QuestionType string

const (
	TypeText        QuestionType = "text"
	TypeEmail       QuestionType = "email"
	TypePhone       QuestionType = "phone"
	TypeTextarea    QuestionType = "textarea"
	TypeSelect      QuestionType = "select"
	TypeMultiSelect QuestionType = "multiselect"
	TypeNumber      QuestionType = "number"
)

func (t QuestionType) known() bool {
	switch t {
	case TypeText, TypeEmail, TypePhone, TypeTextarea, TypeSelect, TypeMultiSelect, TypeNumber:
		return true
	}
	return false
}

const defaultLocale = "en"

type Option struct {
	Value string            `yaml:"value"`
	Label map[string]string `yaml:"label"`
}

type Question struct {
	ID        string            `yaml:"id"`
	Type      QuestionType      `yaml:"type"`
	Label     map[string]string `yaml:"label"`
	Required  bool              `yaml:"required"`
	Options   []Option          `yaml:"options"`
	MinLength int               `yaml:"min_length"`
	MaxLength int               `yaml:"max_length"`
}

type Form struct {
	ID        string            `yaml:"id"`
	Source    string            `yaml:"source"`
	Title     map[string]string `yaml:"title"`
	Questions []Question        `yaml:"questions"`
}

type Catalog struct {
	forms map[string]*Form
	order []string
}

// DefaultCatalog возвращает формы, вшитые в бинарник.
func DefaultCatalog(log *zap.Logger) (*Catalog, error) {
	return LoadCatalog(defaultForms, log)
}

func LoadCatalog(data []byte, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var doc struct {
		Forms []*Form `yaml:"forms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse forms: %w", err)
	}

	c := &Catalog{forms: make(map[string]*Form)}
	for _, f := range doc.Forms {
		if err := f.normalize(log); err != nil {
			return nil, err
		}
		if _, dup := c.forms[f.ID]; dup {
			return nil, fmt.Errorf("form %q declared twice", f.ID)
		}
		c.forms[f.ID] = f
		c.order = append(c.order, f.ID)
	}
	return c, nil
}

func (c *Catalog) Form(id string) (*Form, bool) {
	f, ok := c.forms[id]
	return f, ok
}

func (c *Catalog) Forms() []*Form {
	out := make([]*Form, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.forms[id])
	}
	return out
}

// HasSource сообщает, пишет ли какая-нибудь форма заявки с этим source.
func (c *Catalog) HasSource(source string) bool {
	for _, f := range c.forms {
		if f.Source == source {
			return true
		}
	}
	return false
}

func (f *Form) normalize(log *zap.Logger) error {
	if f.ID == "" {
		return fmt.Errorf("form without id")
	}
	if len(f.Questions) == 0 {
		return fmt.Errorf("form %q has no questions", f.ID)
	}
	if f.Source == "" {
		f.Source = "wizard:" + f.ID
	}

	seen := make(map[string]struct{}, len(f.Questions))
	for i := range f.Questions {
		q := &f.Questions[i]
		if q.ID == "" {
			return fmt.Errorf("form %q: question %d has no id", f.ID, i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("form %q: duplicate question %q", f.ID, q.ID)
		}
		seen[q.ID] = struct{}{}

		if !q.Type.known() {
			log.Warn("unknown question type, falling back to text",
				zap.String("form", f.ID),
				zap.String("question", q.ID),
				zap.String("type", string(q.Type)),
			)
			q.Type = TypeText
		}
		if (q.Type == TypeSelect || q.Type == TypeMultiSelect) && len(q.Options) == 0 {
			return fmt.Errorf("form %q: question %q needs options", f.ID, q.ID)
		}
		if limit, ok := columnLimits[q.Type]; ok && (q.MaxLength == 0 || q.MaxLength > limit) {
			q.MaxLength = limit
		}
	}
	return nil
}

// ответы ложатся в колонки заявки, длиннее им не влезть
var columnLimits = map[QuestionType]int{
	TypeText:  255,
	TypeEmail: 255,
	TypePhone: 50,
}

func (q *Question) hasOption(v string) bool {
	for _, o := range q.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Localized resolves a label map: exact locale, then its language, then English,
// then the fallback.
func Localized(m map[string]string, locale, fallback string) string {
	locale = strings.TrimSpace(locale)
	if v, ok := m[locale]; ok && v != "" {
		return v
	}
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		if v, ok := m[strings.ToLower(locale[:i])]; ok && v != "" {
			return v
		}
	}
	if v, ok := m[defaultLocale]; ok && v != "" {
		return v
	}
	return fallback
}

type OptionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type QuestionView struct {
	ID        string       `json:"id"`
	Type      QuestionType `json:"type"`
	Label     string       `json:"label"`
	Required  bool         `json:"required"`
	Options   []OptionView `json:"options,omitempty"`
	MinLength int          `json:"min_length,omitempty"`
	MaxLength int          `json:"max_length,omitempty"`
}

type FormView struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Steps     int            `json:"steps"`
	Questions []QuestionView `json:"questions,omitempty"`
}

func (q *Question) View(locale string) QuestionView {
	v := QuestionView{
		ID:        q.ID,
		Type:      q.Type,
		Label:     Localized(q.Label, locale, q.ID),
		Required:  q.Required,
		MinLength: q.MinLength,
		MaxLength: q.MaxLength,
	}
	for _, o := range q.Options {
		v.Options = append(v.Options, OptionView{Value: o.Value, Label: Localized(o.Label, locale, o.Value)})
	}
	return v
}

// View без вопросов нужен для списка форм.
func (f *Form) View(locale string, withQuestions bool) FormView {
	v := FormView{
		ID:    f.ID,
		Title: Localized(f.Title, locale, f.ID),
		Steps: len(f.Questions),
	}
	if withQuestions {
		for i := range f.Questions {
			v.Questions = append(v.Questions, f.Questions[i].View(locale))
		}
	}
	return v
}
