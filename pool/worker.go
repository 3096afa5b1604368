package pool

import (
	"time"

	"github.com/utkarsh5026/futures/internal/cpu"
	"github.com/utkarsh5026/futures/internal/types"
	"go.uber.org/zap"
)

// spawn registers a new worker and starts its loop after delay.
func (p *Pool[T, R]) spawn(delay time.Duration) int {
	id := p.board.Register()
	p.group.Go(func() error {
		p.runWorker(id, delay)
		return nil
	})
	return id
}

// runWorker is the loop of one worker: take the next task, execute it, settle
// its future, repeat. It returns when the board stops handing out tasks or
// when the worker is lost.
func (p *Pool[T, R]) runWorker(id int, delay time.Duration) {
	log := p.log.With(zap.Int("worker", id))

	if delay > 0 {
		log.Debug("replacement worker waiting", zap.Duration("delay", delay))
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-p.board.Closing():
			// drain whatever is left without waiting out the backoff
			timer.Stop()
		case <-p.ctx.Done():
			timer.Stop()
			p.board.Retire(id, nil, false)
			return
		}
	}

	if p.conf.cpuAffinity {
		core, release, err := cpu.Pin(id)
		if err != nil {
			log.Warn("cpu affinity unavailable", zap.Error(err))
		} else {
			log.Debug("worker pinned", zap.Int("core", core))
		}
		defer release()
	}

	log.Debug("worker started")
	for {
		task, ok := p.board.Next(id)
		if !ok {
			log.Debug("worker exiting")
			return
		}

		if task.Future.IsReady() {
			// cancelled while queued
			p.board.Skip(id)
			continue
		}

		if err := p.execute(id, task); err != nil {
			p.handleLoss(id, task, err)
			return
		}
		p.board.Release(id)
	}
}

// execute runs one attempt of task on worker id. A non-nil return means the
// worker was lost; the future is then left for handleLoss.
func (p *Pool[T, R]) execute(id int, task *Task[T, R]) error {
	ev := TaskEvent{
		Index:    task.Index,
		Batch:    task.Batch,
		WorkerID: id,
		Attempt:  task.Losses() + 1,
	}

	ctx, stop := mergeContext(task.Context(), p.ctx)
	defer stop()

	if p.conf.rateLimiter != nil {
		if err := p.conf.rateLimiter.Wait(ctx); err != nil {
			p.settle(task, Outcome[R]{Index: task.Index, Err: err}, ev)
			return nil
		}
	}

	if p.conf.beforeTaskStart != nil {
		p.conf.beforeTaskStart(ev)
	}

	ctx, span := p.startTaskSpan(ctx, ev)
	start := time.Now()
	out, envErr := p.runner.Run(ctx, id, task)
	ev.Duration = time.Since(start)

	if envErr != nil {
		endSpan(span, envErr)
		return envErr
	}
	endSpan(span, out.Err)

	p.lossRun.Store(0)
	p.backoff.Reset()
	p.stats.observe(ev.Duration)
	p.settle(task, out, ev)
	return nil
}

// settle writes out into the task's future and reports the attempt.
func (p *Pool[T, R]) settle(task *Task[T, R], out Outcome[R], ev TaskEvent) {
	var err error
	if out.Err != nil {
		err = task.Future.Fail(out.Err)
	} else {
		err = task.Future.Resolve(out.Value)
	}

	switch {
	case err == nil && out.Err == nil:
		p.stats.completed.Add(1)
	case err == nil:
		p.stats.failed.Add(1)
	case task.Future.State() == types.StateCancelled:
		p.stats.discarded.Add(1)
	default:
		p.log.Error("task result written twice",
			zap.Int("index", task.Index),
			zap.String("batch", task.Batch),
			zap.Error(err),
		)
	}

	ev.Err = out.Err
	if p.conf.onTaskEnd != nil {
		p.conf.onTaskEnd(ev)
	}
}

// handleLoss retires worker id after it died running task. The task goes back
// to the front of the queue while its retry budget lasts; otherwise its
// future fails with a WorkerLostError.
func (p *Pool[T, R]) handleLoss(id int, task *Task[T, R], cause error) {
	losses := task.RecordLoss()
	streak := p.lossRun.Add(1)
	p.stats.lost.Add(1)

	p.log.Warn("worker lost",
		zap.Int("worker", id),
		zap.Int("index", task.Index),
		zap.String("batch", task.Batch),
		zap.Int("losses", losses),
		zap.Error(cause),
	)

	if p.conf.onWorkerLost != nil {
		p.conf.onWorkerLost(TaskEvent{
			Index:    task.Index,
			Batch:    task.Batch,
			WorkerID: id,
			Attempt:  losses,
			Err:      cause,
		})
	}

	requeue := losses <= p.conf.maxRetries && !task.Future.IsReady()
	if requeue {
		p.stats.retried.Add(1)
	} else {
		lost := &types.WorkerLostError{Index: task.Index, WorkerID: id, Attempts: losses, Cause: cause}
		if task.Future.Fail(lost) == nil {
			p.stats.failed.Add(1)
		}
	}

	live := p.board.Retire(id, task, requeue)

	if p.ctx.Err() != nil {
		return
	}

	if p.conf.autoReplace {
		delay := p.backoff.Delay(int(streak - 1))
		newID := p.spawn(delay)
		p.log.Info("worker replaced", zap.Int("dead", id), zap.Int("replacement", newID), zap.Duration("delay", delay))
		return
	}

	if live == 0 {
		p.log.Error("no workers left")
		p.abandon(noWorkersLeft[T, R])
	}
}
