// Package workflow связывает получение факта и публикацию в один запуск.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"factposter/internal/logger"
	"factposter/internal/models"
	"factposter/internal/publisher"
)

var ErrNoFact = errors.New("no fact to post")

type FactSource interface {
	Fact(ctx context.Context) (models.Fact, bool)
}

type Poster interface {
	Publish(ctx context.Context, fact models.Fact) (models.Post, error)
}

// Recorder сохраняет итог запуска, например в PostgreSQL.
type Recorder interface {
	SaveRun(ctx context.Context, run models.Run) (int64, error)
}

// Notifier сообщает об успешной публикации, например в RabbitMQ.
type Notifier interface {
	PostPublished(ctx context.Context, run models.Run) error
}

type RunObserver interface {
	ObserveRun(run models.Run)
}

type Option func(*Runner)

func WithRecorder(r Recorder) Option {
	return func(rn *Runner) { rn.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(rn *Runner) { rn.notifier = n }
}

func WithObserver(o RunObserver) Option {
	return func(rn *Runner) { rn.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(rn *Runner) { rn.now = now }
}

// Runner выполняет один запуск: один запрос факта и не больше одной публикации.
type Runner struct {
	facts    FactSource
	poster   Poster
	recorder Recorder
	notifier Notifier
	observer RunObserver
	now      func() time.Time
	log      *logger.Entry
}

func NewRunner(facts FactSource, poster Poster, opts ...Option) *Runner {
	r := &Runner{
		facts:  facts,
		poster: poster,
		now:    time.Now,
		log:    logger.Component("workflow"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run возвращает ErrNoFact, если факт не получен, ошибку публикации или nil.
// Сбои журнала и уведомлений только пишутся в лог и на результат не влияют.
func (r *Runner) Run(ctx context.Context) error {
	run := models.Run{StartedAt: r.now()}

	fact, ok := r.facts.Fact(ctx)
	if !ok {
		r.log.Warn("No fact to post, stopping")
		run.Status = models.RunNoFact
		run.Error = ErrNoFact.Error()
		r.finish(ctx, &run)
		return ErrNoFact
	}
	run.Fact = fact

	post, err := r.poster.Publish(ctx, fact)
	run.Post = post
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
		var stepErr *publisher.StepError
		if errors.As(err, &stepErr) {
			run.FailedStep = stepErr.Step
		}
		r.finish(ctx, &run)
		return fmt.Errorf("publish fact: %w", err)
	}

	run.Status = models.RunPublished
	r.finish(ctx, &run)

	if r.notifier != nil {
		if err := r.notifier.PostPublished(ctx, run); err != nil {
			r.log.Warnf("Failed to send publish event: %v", err)
		}
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, run *models.Run) {
	run.FinishedAt = r.now()

	r.log.WithFields(logger.Fields{
		"status":   run.Status,
		"duration": run.FinishedAt.Sub(run.StartedAt).String(),
		"fallback": run.Fact.Fallback,
	}).Info("Run finished")

	if r.observer != nil {
		r.observer.ObserveRun(*run)
	}
	if r.recorder != nil {
		id, err := r.recorder.SaveRun(ctx, *run)
		if err != nil {
			r.log.Warnf("Failed to save run: %v", err)
			return
		}
		run.ID = id
	}
}
