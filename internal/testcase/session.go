package testcase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/domain"
)

var (
	ErrSessionClosed   = errors.New("test case form is closed")
	ErrSessionNotFound = errors.New("test case form not found")
	ErrNotColumnScoped = fmt.Errorf("%w: form is not column scoped", core.ErrBadRequest)
)

// Catalog provides the reference data a form needs.
type Catalog interface {
	ListTestDefinitions(ctx context.Context, filter domain.TestDefinitionFilter) ([]domain.TestDefinition, error)
	ListTestCases(ctx context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error)
}

// SubmitFunc receives a validated request. The form never persists it itself.
type SubmitFunc func(ctx context.Context, payload *domain.CreateTestCase) error

// CancelFunc receives the unvalidated request of a cancelled form.
type CancelFunc func(payload *domain.CreateTestCase)

// SessionOptions wires a Session to its collaborators.
type SessionOptions struct {
	Catalog  Catalog
	Builder  *Builder
	Rules    *RuleSet
	PageSize int
	OnSubmit SubmitFunc
	OnCancel CancelFunc
	Listener Listener
	Now      func() time.Time
}

// DraftPatch is a partial update of a form; nil fields are left alone.
type DraftPatch struct {
	Column      *string                   `json:"column,omitempty"`
	TestName    *string                   `json:"testName,omitempty"`
	TestTypeID  *string                   `json:"testTypeId,omitempty"`
	Params      map[string]ParameterInput `json:"params,omitempty"`
	Description *string                   `json:"description,omitempty"`
}

// FormState is a read-only view of a session.
type FormState struct {
	ID               string                  `json:"id"`
	Context          FormContext             `json:"context"`
	Draft            Draft                   `json:"draft"`
	Description      string                  `json:"description"`
	EntityLink       string                  `json:"entityLink"`
	Definitions      []domain.TestDefinition `json:"testDefinitions"`
	ActiveDefinition *domain.TestDefinition  `json:"activeDefinition,omitempty"`
	ParameterForm    *ParameterForm          `json:"parameterForm,omitempty"`
	Closed           bool                    `json:"closed"`
}

// Session is one open test case form. Fetch results are applied only if the
// session generation they started under is still current, so a response that
// arrives after Close (or after a newer column selection) is dropped.
type Session struct {
	id          string
	fc          FormContext
	opts        SessionOptions
	description *DescriptionEditor

	submitMu sync.Mutex // serializes Submit and Cancel

	mu                   sync.Mutex
	draft                Draft
	definitions          []domain.TestDefinition
	testCases            []domain.TestCase
	testCasesLink        string
	testCasesLoaded      bool
	initialParamsDecoded bool
	generation           uint64
	definitionsGen       uint64
	closed               bool
	lastTouched          time.Time
}

// NewSession opens a form. In edit mode the draft is pre-filled from the
// initial value; array parameters are decoded once definitions are known.
func NewSession(id string, fc FormContext, opts SessionOptions) *Session {
	if opts.Builder == nil {
		opts.Builder = NewBuilder(nil)
	}
	if opts.Rules == nil {
		opts.Rules = NewRuleSet(nil)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{id: id, fc: fc, opts: opts}
	description := ""
	if initial := fc.InitialValue; initial != nil {
		s.draft.TestName = core.ReplaceSpecialChars(initial.Name)
		s.draft.TestTypeID = initial.TestDefinition
		if len(initial.ParameterValues) > 0 {
			s.draft.Params = make(map[string]ParameterInput, len(initial.ParameterValues))
			for _, pv := range initial.ParameterValues {
				s.draft.Params[pv.Name] = Scalar(pv.Value)
			}
		}
		description = initial.Description
	}
	s.description = NewDescriptionEditor(description)
	s.lastTouched = opts.Now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Load fetches the test definitions and, while the local cache is empty, the
// existing test cases. Both run concurrently; failures become EventFetchFailed
// notifications and the form stays usable with whatever it already has.
func (s *Session) Load(ctx context.Context) ([]Event, error) {
	var g errgroup.Group
	var defErr, casesErr error
	g.Go(func() error {
		defErr = s.refreshDefinitions(ctx)
		return defErr
	})
	if s.needsTestCases() {
		g.Go(func() error {
			casesErr = s.refreshTestCases(ctx)
			return casesErr
		})
	}
	err := g.Wait()

	var events []Event
	for _, e := range []error{defErr, casesErr} {
		if e != nil && !errors.Is(e, ErrSessionClosed) {
			events = append(events, fetchFailed(e))
		}
	}
	s.dispatch(events)
	return events, err
}

// --- Mutations ---

// SelectColumn changes the column of a column-scoped form. It emits
// EventColumnSelected for known columns and re-fetches the definitions
// that support the column's data type.
func (s *Session) SelectColumn(ctx context.Context, name string) ([]Event, error) {
	if !s.fc.ColumnScoped {
		return nil, ErrNotColumnScoped
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.touchLocked()
	changed := s.draft.Column != name
	s.draft.Column = name
	col, found := s.fc.Table.ColumnByName(name)
	s.mu.Unlock()

	if !changed {
		return nil, nil
	}

	var events []Event
	if found {
		events = append(events, Event{Kind: EventColumnSelected, ActiveColumnFQN: col.FullyQualifiedName})
	}
	if err := s.refreshDefinitions(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
		events = append(events, fetchFailed(err))
	}
	s.dispatch(events)
	return events, nil
}

// SelectTestType records the live test type selection. Empty values are
// ignored. Switching to another type clears the parameter values, as the
// parameter sub-form is rebuilt for the new definition.
func (s *Session) SelectTestType(id string) error {
	return s.update(func(d *Draft) {
		if id == "" || id == d.TestTypeID {
			return
		}
		d.TestTypeID = id
		d.Params = nil
	})
}

// SetTestName sets the free-text name.
func (s *Session) SetTestName(name string) error {
	return s.update(func(d *Draft) { d.TestName = name })
}

// SetParam sets one parameter value.
func (s *Session) SetParam(name string, input ParameterInput) error {
	return s.update(func(d *Draft) {
		if d.Params == nil {
			d.Params = make(map[string]ParameterInput)
		}
		d.Params[name] = input
	})
}

// SetParams replaces every parameter value at once.
func (s *Session) SetParams(params map[string]ParameterInput) error {
	return s.update(func(d *Draft) {
		d.Params = make(map[string]ParameterInput, len(params))
		for name, input := range params {
			d.Params[name] = input
		}
	})
}

// SetDescription replaces the description content.
func (s *Session) SetDescription(content string) error {
	if err := s.update(func(*Draft) {}); err != nil {
		return err
	}
	s.description.SetContent(content)
	return nil
}

// Apply runs a patch in field order: column, test type, name, params, description.
func (s *Session) Apply(ctx context.Context, patch DraftPatch) ([]Event, error) {
	var events []Event
	if patch.Column != nil {
		evs, err := s.SelectColumn(ctx, *patch.Column)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	if patch.TestTypeID != nil {
		if err := s.SelectTestType(*patch.TestTypeID); err != nil {
			return events, err
		}
	}
	if patch.TestName != nil {
		if err := s.SetTestName(*patch.TestName); err != nil {
			return events, err
		}
	}
	for name, input := range patch.Params {
		if err := s.SetParam(name, input); err != nil {
			return events, err
		}
	}
	if patch.Description != nil {
		if err := s.SetDescription(*patch.Description); err != nil {
			return events, err
		}
	}
	return events, nil
}

func (s *Session) update(fn func(d *Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.touchLocked()
	fn(&s.draft)
	return nil
}

// --- Reads ---

// State returns the current form view.
func (s *Session) State() FormState {
	snap, closed := s.snapshot()
	return FormState{
		ID:               s.id,
		Context:          snap.Context,
		Draft:            snap.Draft,
		Description:      s.description.Content(),
		EntityLink:       EntityLinkFor(snap.Context, snap.Draft).String(),
		Definitions:      snap.Definitions,
		ActiveDefinition: snap.Active,
		ParameterForm:    BuildParameterForm(snap.Active, snap.Context.Table),
		Closed:           closed,
	}
}

// ActiveDefinition resolves the definition currently driving the parameter form.
func (s *Session) ActiveDefinition() *domain.TestDefinition {
	snap, _ := s.snapshot()
	return snap.Active
}

func (s *Session) snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defs := append([]domain.TestDefinition(nil), s.definitions...)
	draft := s.draft.clone()
	return Snapshot{
		Context:     s.fc,
		Draft:       draft,
		Definitions: defs,
		Active:      SelectDefinition(s.fc.InitialValue, draft.TestTypeID, defs),
		TestCases:   s,
	}, s.closed
}

// TestCasesFor fetches the test cases of entityLink, falling back to the
// cached list when the fetch fails. It backs the name collision rule.
func (s *Session) TestCasesFor(ctx context.Context, entityLink string) ([]domain.TestCase, error) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	cases, err := s.fetchTestCases(ctx, entityLink)
	if err != nil {
		s.dispatch([]Event{fetchFailed(fmt.Errorf("failed to load test cases: %w", err))})
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.testCasesLoaded && s.testCasesLink == entityLink {
			return append([]domain.TestCase(nil), s.testCases...), nil
		}
		return nil, err
	}

	s.mu.Lock()
	if !s.closed && s.generation == gen {
		s.testCases = cases
		s.testCasesLink = entityLink
		s.testCasesLoaded = true
	}
	s.mu.Unlock()
	return cases, nil
}

// --- Validation and completion ---

// Validate evaluates the rule table against the current state.
func (s *Session) Validate(ctx context.Context) (FieldErrors, error) {
	snap, closed := s.snapshot()
	if closed {
		return nil, ErrSessionClosed
	}
	return s.opts.Rules.Evaluate(ctx, snap), nil
}

// Submit validates the form, builds the request and hands it to OnSubmit.
// A failed validation returns a *ValidationError and OnSubmit is not called.
// The session closes once OnSubmit accepts the request.
func (s *Session) Submit(ctx context.Context) (*domain.CreateTestCase, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	snap, closed := s.snapshot()
	if closed {
		return nil, ErrSessionClosed
	}
	if errs := s.opts.Rules.Evaluate(ctx, snap); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	payload, err := s.opts.Builder.Build(snap.Context, snap.Draft, snap.Active, s.description)
	if err != nil {
		return nil, err
	}
	if s.opts.OnSubmit != nil {
		if err := s.opts.OnSubmit(ctx, payload); err != nil {
			return nil, err
		}
	}

	s.Close()
	s.dispatch([]Event{{Kind: EventSubmitted}})
	return payload, nil
}

// Cancel builds the request from the current, unvalidated draft, hands it to
// OnCancel and closes the session.
func (s *Session) Cancel() (*domain.CreateTestCase, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	snap, closed := s.snapshot()
	if closed {
		return nil, ErrSessionClosed
	}
	payload := s.opts.Builder.BuildDraft(snap.Context, snap.Draft, snap.Active, s.description)
	if s.opts.OnCancel != nil {
		s.opts.OnCancel(payload)
	}

	s.Close()
	s.dispatch([]Event{{Kind: EventCancelled}})
	return payload, nil
}

// Close dismisses the form. In-flight fetches finish but their results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.generation++
}

// Closed reports whether the form was dismissed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IdleFor reports how long the session has gone without a mutation.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastTouched)
}

// --- Fetching ---

func (s *Session) needsTestCases() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && len(s.testCases) == 0
}

func (s *Session) refreshDefinitions(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	gen := s.generation
	s.definitionsGen++
	defGen := s.definitionsGen
	filter := s.definitionFilterLocked()
	s.mu.Unlock()

	defs, err := s.opts.Catalog.ListTestDefinitions(ctx, filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen || s.definitionsGen != defGen {
		customLog.Debugf("Testcase: discarding stale test definitions for form %s", s.id)
		return nil
	}
	if err != nil {
		customLog.Warnf("Testcase: failed to load test definitions for form %s: %v", s.id, err)
		return fmt.Errorf("failed to load test definitions: %w", err)
	}
	s.definitions = defs
	s.decodeInitialParamsLocked()
	return nil
}

func (s *Session) refreshTestCases(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	gen := s.generation
	link := EntityLinkFor(s.fc, s.draft).String()
	s.mu.Unlock()

	cases, err := s.fetchTestCases(ctx, link)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		customLog.Debugf("Testcase: discarding stale test cases for form %s", s.id)
		return nil
	}
	if err != nil {
		customLog.Warnf("Testcase: failed to load test cases for form %s: %v", s.id, err)
		return fmt.Errorf("failed to load test cases: %w", err)
	}
	s.testCases = cases
	s.testCasesLink = link
	s.testCasesLoaded = true
	return nil
}

func (s *Session) fetchTestCases(ctx context.Context, entityLink string) ([]domain.TestCase, error) {
	return s.opts.Catalog.ListTestCases(ctx, domain.TestCaseFilter{
		Fields:     []string{"testDefinition"},
		Limit:      s.opts.PageSize,
		EntityLink: entityLink,
	})
}

// definitionFilterLocked narrows definitions by entity kind and, for
// column forms, by the selected column's data type.
func (s *Session) definitionFilterLocked() domain.TestDefinitionFilter {
	filter := domain.TestDefinitionFilter{
		Limit:        s.opts.PageSize,
		EntityType:   domain.EntityTypeTable,
		TestPlatform: domain.TestPlatformOpenMetadata,
	}
	if s.fc.ColumnScoped {
		filter.EntityType = domain.EntityTypeColumn
		if col, ok := s.fc.Table.ColumnByName(s.draft.Column); ok {
			filter.SupportedDataType = col.DataType
		}
	}
	return filter
}

// decodeInitialParamsLocked turns untouched edit-mode array values back into lists.
func (s *Session) decodeInitialParamsLocked() {
	initial := s.fc.InitialValue
	if s.initialParamsDecoded || initial == nil || len(initial.ParameterValues) == 0 {
		return
	}
	def := SelectDefinition(initial, s.draft.TestTypeID, s.definitions)
	if def == nil {
		return
	}
	s.initialParamsDecoded = true
	if !usesArrayEncoding(def) {
		return
	}
	for _, pv := range initial.ParameterValues {
		current, ok := s.draft.Params[pv.Name]
		if ok && !current.IsList && current.Scalar == pv.Value {
			s.draft.Params[pv.Name] = decodeParameter(true, pv.Value)
		}
	}
}

func (s *Session) touchLocked() {
	s.lastTouched = s.opts.Now()
}

func (s *Session) dispatch(events []Event) {
	if s.opts.Listener == nil {
		return
	}
	for _, e := range events {
		s.opts.Listener(e)
	}
}

func fetchFailed(err error) Event {
	return Event{Kind: EventFetchFailed, Message: err.Error()}
}
