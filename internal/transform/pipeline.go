package transform

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kirum/internal/lexis"
	"kirum/internal/match"
)

// Step is one primitive with the conditional of the transform it came from.
type Step struct {
	Transform string
	When      match.Predicate
	Func      Func
}

// Pipeline is an ordered list of steps.
type Pipeline []Step

// Steps expands a transform into pipeline steps sharing its conditional.
func Steps(t Transform) Pipeline {
	p := make(Pipeline, len(t.Funcs))
	for i, f := range t.Funcs {
		p[i] = Step{Transform: t.Name, When: t.When, Func: f}
	}
	return p
}

// Observer receives pipeline events. A nil Observer is valid on Executor.
type Observer interface {
	StepApplied(kind Kind)
	StepSkipped(transform string)
	ScriptDuration(d time.Duration)
}

// Executor applies pipelines to words.
type Executor struct {
	Scripts  Scripter
	Logger   *zap.Logger
	Observer Observer
}

// NewExecutor builds an executor. scripts may be nil when no pipeline
// contains a script primitive.
func NewExecutor(scripts Scripter, logger *zap.Logger, obs Observer) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{Scripts: scripts, Logger: logger.Named("transform"), Observer: obs}
}

// Run applies p to word in order. Conditionals are matched against src with
// its word replaced by the current word. nodeID names the lexis being
// derived and is only used for error context.
func (e *Executor) Run(ctx context.Context, p Pipeline, word string, src *lexis.Lexis, nodeID string) (string, error) {
	var snapshot lexis.Lexis
	if src != nil {
		snapshot = *src
	}

	for _, step := range p {
		snapshot.Word = word
		if !match.Matches(step.When, &snapshot) {
			e.Logger.Debug("step skipped",
				zap.String("lexis", nodeID),
				zap.String("transform", step.Transform),
				zap.Stringer("func", step.Func))
			if e.Observer != nil {
				e.Observer.StepSkipped(step.Transform)
			}
			continue
		}

		next, err := e.apply(ctx, step, word, src, nodeID)
		if err != nil {
			return "", err
		}
		if e.Observer != nil {
			e.Observer.StepApplied(step.Func.Kind)
		}
		word = next
	}
	return word, nil
}

func (e *Executor) apply(ctx context.Context, step Step, word string, src *lexis.Lexis, nodeID string) (string, error) {
	if step.Func.Kind != KindScript {
		return step.Func.applyPure(word), nil
	}

	fail := func(err error) error {
		return &ScriptError{NodeID: nodeID, Transform: step.Transform, File: step.Func.File, Err: err}
	}
	if e.Scripts == nil {
		return "", fail(ErrNoScriptRuntime)
	}

	start := time.Now()
	out, err := e.Scripts.TransformWord(ctx, step.Func.File, InputFor(word, src))
	if e.Observer != nil {
		e.Observer.ScriptDuration(time.Since(start))
	}
	if err != nil {
		return "", fail(err)
	}
	e.Logger.Debug("script applied",
		zap.String("lexis", nodeID),
		zap.String("file", step.Func.File),
		zap.String("in", word),
		zap.String("out", out))
	return out, nil
}
