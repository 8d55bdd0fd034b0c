package wizard

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("wizard session not found")
	ErrNotLastStep      = errors.New("submit is only allowed on the last step")
	ErrAlreadySubmitted = errors.New("wizard already submitted")
	ErrSubmitting       = errors.New("submission already in progress")
	ErrFormMismatch     = errors.New("session belongs to another form")
)

type Session struct {
	ID           string         `json:"id"`
	FormID       string         `json:"form_id"`
	Step         int            `json:"step"`
	Answers      map[string]any `json:"answers"`
	Locale       string         `json:"locale"`
	UserID       uint           `json:"user_id,omitempty"`
	Submitting   bool           `json:"submitting"`
	Submitted    bool           `json:"submitted"`
	SubmissionID uint           `json:"submission_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (f *Form) NewSession(locale string) *Session {
	if locale == "" {
		locale = defaultLocale
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		FormID:    f.ID,
		Answers:   make(map[string]any),
		Locale:    locale,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *Form) check(s *Session) error {
	if s.FormID != f.ID {
		return ErrFormMismatch
	}
	if s.Submitted {
		return ErrAlreadySubmitted
	}
	if s.Submitting {
		return ErrSubmitting
	}
	if s.Step < 0 {
		s.Step = 0
	}
	if s.Step >= len(f.Questions) {
		s.Step = len(f.Questions) - 1
	}
	return nil
}

func (f *Form) Current(s *Session) *Question {
	step := s.Step
	if step < 0 {
		step = 0
	}
	if step >= len(f.Questions) {
		step = len(f.Questions) - 1
	}
	return &f.Questions[step]
}

func (f *Form) IsLast(s *Session) bool {
	return s.Step >= len(f.Questions)-1
}

// Progress = (step+1)/total.
func (f *Form) Progress(s *Session) float64 {
	return float64(s.Step+1) / float64(len(f.Questions))
}

func (f *Form) record(s *Session, value any) error {
	q := f.Current(s)
	normalized, err := q.Validate(value)
	if err != nil {
		return err
	}
	if s.Answers == nil {
		s.Answers = make(map[string]any)
	}
	if normalized == nil {
		delete(s.Answers, q.ID)
	} else {
		s.Answers[q.ID] = normalized
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Next сохраняет ответ на текущий вопрос и, только если он прошёл валидацию,
// переходит к следующему. На последнем шаге индекс не растёт.
func (f *Form) Next(s *Session, value any) error {
	if err := f.check(s); err != nil {
		return err
	}
	if err := f.record(s, value); err != nil {
		return err
	}
	if !f.IsLast(s) {
		s.Step++
	}
	return nil
}

// Previous возвращает на шаг назад без валидации. Ответы сохраняются.
func (f *Form) Previous(s *Session) error {
	if err := f.check(s); err != nil {
		return err
	}
	if s.Step > 0 {
		s.Step--
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// BeginSubmit валидирует последний ответ и все обязательные вопросы,
// затем помечает сессию как отправляемую.
func (f *Form) BeginSubmit(s *Session, value any) error {
	if err := f.check(s); err != nil {
		return err
	}
	if !f.IsLast(s) {
		return ErrNotLastStep
	}
	if err := f.record(s, value); err != nil {
		return err
	}
	for i := range f.Questions {
		q := &f.Questions[i]
		if _, err := q.Validate(s.Answers[q.ID]); err != nil {
			return err
		}
	}
	s.Submitting = true
	return nil
}

// FinishSubmit фиксирует успешную отправку.
func (s *Session) FinishSubmit(submissionID uint) {
	s.Submitting = false
	s.Submitted = true
	s.SubmissionID = submissionID
	s.UpdatedAt = time.Now().UTC()
}

// Release снимает флаг отправки после ошибки, чтобы можно было повторить.
func (s *Session) Release() {
	s.Submitting = false
	s.UpdatedAt = time.Now().UTC()
}

// Answer возвращает строковый ответ или "".
func (s *Session) Answer(id string) string {
	v, _ := s.Answers[id].(string)
	return v
}
