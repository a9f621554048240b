package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/cache"
	"github.com/spboyer/mfqbench/internal/config"
	"github.com/spboyer/mfqbench/internal/dataset"
	"github.com/spboyer/mfqbench/internal/llm"
	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/prompt"
	"github.com/spboyer/mfqbench/internal/scoring"
)

// Runner asks every registered model every question and scores the replies.
type Runner struct {
	cfg      *config.AnalysisConfig
	composer *prompt.Composer
	registry *llm.Registry

	// questions overrides loading the dataset named by the analysis spec
	questions   []models.Question
	foundations []string

	cache *cache.Cache
	now   func() time.Time

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventRunStart      EventType = "run_start"
	EventQuestionStart EventType = "question_start"
	EventQueryComplete EventType = "query_complete"
	EventRunComplete   EventType = "run_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType      EventType
	Model          string
	Question       string
	Foundation     string
	QuestionNum    int
	TotalQuestions int
	QueryNum       int
	TotalQueries   int
	Value          int
	Rule           scoring.Rule
	Status         models.Status
	Cached         bool
	DurationMs     int64
	Details        map[string]any
}

// Run is the outcome of one pass over the questionnaire.
type Run struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Started   time.Time            `json:"started"`
	Finished  time.Time            `json:"finished"`
	Models    []string             `json:"models"`
	Questions int                  `json:"questions"`
	Results   []models.QueryResult `json:"results"`
	// Interrupted is set when the context was cancelled after querying began. Results then
	// hold only the queries that were attempted.
	Interrupted bool `json:"interrupted,omitempty"`
}

// Table aggregates the run's results.
func (r *Run) Table() *aggregate.Table {
	return aggregate.Compute(r.Results)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithQuestions supplies the question list directly instead of loading the analysis spec's dataset.
func WithQuestions(qs []models.Question) RunnerOption {
	return func(r *Runner) {
		r.questions = qs
	}
}

// WithFoundationFilters keeps only questions whose foundation matches one of the patterns.
func WithFoundationFilters(patterns ...string) RunnerOption {
	return func(r *Runner) {
		r.foundations = patterns
	}
}

// WithCache enables response caching
func WithCache(c *cache.Cache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a new runner
func NewRunner(cfg *config.AnalysisConfig, composer *prompt.Composer, registry *llm.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		composer:  composer,
		registry:  registry,
		now:       time.Now,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run queries every model with every question. Backend failures are recorded as results,
// never returned. An error means nothing was queried.
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	questions, err := r.loadQuestions()
	if err != nil {
		return nil, err
	}

	registry, err := r.registry.Only(r.cfg.Models()...)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		Started:   r.now(),
		Models:    registry.Names(),
		Questions: len(questions),
	}
	if spec := r.cfg.Spec(); spec != nil {
		run.Name = spec.Name
	}

	clients := make([]llm.Client, 0, registry.Len())
	for _, name := range run.Models {
		c, _ := registry.Get(name)
		clients = append(clients, c)
	}

	total := len(questions) * len(clients)
	r.notifyProgress(ProgressEvent{
		EventType:      EventRunStart,
		TotalQuestions: len(questions),
		TotalQueries:   total,
		Details:        map[string]any{"models": run.Models, "parallel": r.cfg.Concurrent()},
	})

	if r.cfg.Concurrent() {
		run.Results, run.Interrupted = r.runConcurrent(ctx, questions, clients)
	} else {
		run.Results, run.Interrupted = r.runSequential(ctx, questions, clients)
	}
	run.Finished = r.now()

	valid := 0
	for _, res := range run.Results {
		if res.Valid() {
			valid++
		}
	}
	r.notifyProgress(ProgressEvent{
		EventType:      EventRunComplete,
		TotalQuestions: len(questions),
		TotalQueries:   total,
		QueryNum:       len(run.Results),
		DurationMs:     run.Finished.Sub(run.Started).Milliseconds(),
		Details:        map[string]any{"valid": valid, "interrupted": run.Interrupted},
	})

	return run, nil
}

func (r *Runner) loadQuestions() ([]models.Question, error) {
	questions := r.questions
	if questions == nil {
		spec := r.cfg.Spec()
		if spec == nil {
			return nil, fmt.Errorf("no questions: analysis spec has no dataset")
		}
		var err error
		questions, err = dataset.LoadQuestions(spec.Dataset)
		if err != nil {
			return nil, fmt.Errorf("loading questions: %w", err)
		}
	}

	questions, err := FilterQuestions(questions, r.foundations)
	if err != nil {
		return nil, err
	}

	return dataset.Limit(questions, r.cfg.Limit()), nil
}

func (r *Runner) runSequential(ctx context.Context, questions []models.Question, clients []llm.Client) ([]models.QueryResult, bool) {
	results := make([]models.QueryResult, 0, len(questions)*len(clients))
	total := len(questions) * len(clients)

	for qi, q := range questions {
		if ctx.Err() != nil {
			return results, true
		}

		r.notifyProgress(ProgressEvent{
			EventType:      EventQuestionStart,
			Question:       q.Text,
			Foundation:     q.Foundation,
			QuestionNum:    qi + 1,
			TotalQuestions: len(questions),
		})

		for _, c := range clients {
			if ctx.Err() != nil {
				return results, true
			}
			res := r.query(ctx, c, q)
			results = append(results, res.result)
			r.notifyQueryComplete(res, qi, len(questions), len(results), total)
		}
	}

	return results, false
}

func (r *Runner) runConcurrent(ctx context.Context, questions []models.Question, clients []llm.Client) ([]models.QueryResult, bool) {
	total := len(questions) * len(clients)

	// slots keep question-major, model-minor order regardless of completion order
	slots := make([]models.QueryResult, total)
	filled := make([]bool, total)
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers())

	interrupted := false
schedule:
	for qi, q := range questions {
		r.notifyProgress(ProgressEvent{
			EventType:      EventQuestionStart,
			Question:       q.Text,
			Foundation:     q.Foundation,
			QuestionNum:    qi + 1,
			TotalQuestions: len(questions),
		})

		for mi, c := range clients {
			if ctx.Err() != nil {
				interrupted = true
				break schedule
			}
			idx := qi*len(clients) + mi
			g.Go(func() error {
				res := r.query(ctx, c, q)
				slots[idx] = res.result
				filled[idx] = true
				r.notifyQueryComplete(res, qi, len(questions), int(done.Add(1)), total)
				// failures are data; returning nil keeps one failure from cancelling the rest
				return nil
			})
		}
	}
	_ = g.Wait()

	if !interrupted {
		return slots, false
	}

	results := make([]models.QueryResult, 0, done.Load())
	for i, ok := range filled {
		if ok {
			results = append(results, slots[i])
		}
	}
	return results, true
}

type queryOutcome struct {
	result    models.QueryResult
	rule      scoring.Rule
	cached    bool
	duration  time.Duration
	invokeErr error
}

func (r *Runner) query(ctx context.Context, c llm.Client, q models.Question) queryOutcome {
	msgs := r.composer.Compose(q)
	system, user := msgs[0].Content, msgs[1].Content

	key := r.cacheKey(c.Name(), system, user)
	res, cached := r.lookup(key)

	if !cached {
		qctx := ctx
		if timeout := r.cfg.Timeout(); timeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		res = c.Invoke(qctx, system, user)
		if res.Duration == 0 {
			res.Duration = time.Since(start)
		}

		if !res.Failed() && key != "" {
			entry := &cache.Entry{Backend: c.Name(), Model: r.backend(c.Name()).ModelID(), Text: res.Text, StoredAt: r.now()}
			if err := r.cache.Put(key, entry); err != nil {
				slog.Warn("failed to cache response", "backend", c.Name(), "error", err)
			}
		}
	}

	extraction := scoring.Extraction{Value: models.Unparseable, Rule: scoring.RuleNone}
	if !res.Failed() {
		extraction = scoring.Explain(res.Text)
	}

	return queryOutcome{
		result: models.QueryResult{
			LLM:            c.Name(),
			Question:       q.Text,
			Part:           q.Part,
			Foundation:     q.Foundation,
			Response:       res.Response(),
			ExtractedValue: extraction.Value,
			Timestamp:      models.NewTimestamp(r.now()),
		},
		rule:      extraction.Rule,
		cached:    cached,
		duration:  res.Duration,
		invokeErr: res.Err,
	}
}

func (r *Runner) lookup(key string) (llm.Result, bool) {
	if key == "" {
		return llm.Result{}, false
	}
	entry, ok := r.cache.Get(key)
	if !ok {
		return llm.Result{}, false
	}
	return llm.Result{Text: entry.Text, Cached: true}, true
}

// cacheKey returns "" when caching is off.
func (r *Runner) cacheKey(backend, system, user string) string {
	if r.cache == nil {
		return ""
	}
	b := r.backend(backend)
	key, err := cache.Key(cache.Request{
		Backend:     backend,
		Model:       b.ModelID(),
		Temperature: b.EffectiveTemperature(),
		System:      system,
		User:        user,
	})
	if err != nil {
		slog.Warn("failed to compute cache key", "backend", backend, "error", err)
		return ""
	}
	return key
}

// backend finds the backend definition for a client. Clients built outside an analysis spec get a bare entry.
func (r *Runner) backend(name string) models.BackendSpec {
	if spec := r.cfg.Spec(); spec != nil {
		for _, b := range spec.Backends {
			if b.Name == name {
				return b
			}
		}
	}
	return models.BackendSpec{Name: name}
}

func (r *Runner) notifyQueryComplete(o queryOutcome, qi, totalQuestions, queryNum, totalQueries int) {
	details := map[string]any{"response": o.result.Response}
	if o.invokeErr != nil {
		details["error"] = o.invokeErr.Error()
	}
	r.notifyProgress(ProgressEvent{
		EventType:      EventQueryComplete,
		Model:          o.result.LLM,
		Question:       o.result.Question,
		Foundation:     o.result.Foundation,
		QuestionNum:    qi + 1,
		TotalQuestions: totalQuestions,
		QueryNum:       queryNum,
		TotalQueries:   totalQueries,
		Value:          o.result.ExtractedValue,
		Rule:           o.rule,
		Status:         o.result.Status(),
		Cached:         o.cached,
		DurationMs:     o.duration.Milliseconds(),
		Details:        details,
	})
}
