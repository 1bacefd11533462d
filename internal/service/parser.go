package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tgparser/internal/config"
	"tgparser/internal/domain"
	"tgparser/internal/pool"
	"tgparser/internal/repository"
	"tgparser/internal/telegram"

	"go.uber.org/zap"
)

var (
	// ErrInvalidGroupLink is returned for group links no reference can be
	// extracted from
	ErrInvalidGroupLink = errors.New("invalid group link format")

	// ErrGroupAccessDenied is returned when the group cannot be read; the
	// bot must be added to the group as an admin first
	ErrGroupAccessDenied = errors.New("bot must be a member of the group with admin rights")

	// ErrRetryBudgetExhausted is returned once every attempt of a job has
	// failed; partial results are never returned
	ErrRetryBudgetExhausted = errors.New("failed to enumerate group members: retry attempts exhausted")
)

// jobRetention is how long a finished or failed job stays pollable before
// its registry entry is evicted
const jobRetention = 5 * time.Minute

// permanentError aborts the whole job without consuming further attempts
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// poolDrainedError reports that every credential is cooling down.
// wake is the soonest cooldown expiry across the pool.
type poolDrainedError struct {
	wake time.Time
}

func (e *poolDrainedError) Error() string { return pool.ErrNoCredentialAvailable.Error() }
func (e *poolDrainedError) Unwrap() error { return pool.ErrNoCredentialAvailable }

// ParserService drives group membership enumerations against the platform
// API, coordinating credential usage through the pool. One job runs per
// inbound parse request; concurrent jobs contend over the same pool.
type ParserService struct {
	pool   *pool.Pool
	client telegram.Client
	groups repository.GroupRepository
	logger *zap.Logger

	maxAttempts  int
	retryDelay   time.Duration
	batchSize    int
	jobRetention time.Duration

	jobsMux sync.RWMutex
	jobs    map[string]*Job
}

// NewParserService creates a new parser service
func NewParserService(
	credPool *pool.Pool,
	client telegram.Client,
	groups repository.GroupRepository,
	cfg config.ParserConfig,
	logger *zap.Logger,
) *ParserService {
	return &ParserService{
		pool:         credPool,
		client:       client,
		groups:       groups,
		logger:       logger,
		maxAttempts:  cfg.MaxAttempts,
		retryDelay:   cfg.RetryDelay,
		batchSize:    cfg.BatchSize,
		jobRetention: jobRetention,
		jobs:         make(map[string]*Job),
	}
}

// StartEnumeration resolves a group link to group info and persists it.
// This is the entry point for a parse request; members are fetched
// separately via GetMembers.
func (s *ParserService) StartEnumeration(ctx context.Context, groupLink string) (*domain.GroupInfo, error) {
	ref, err := ExtractGroupRef(groupLink)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Resolving group", zap.String("group_ref", ref))

	var info *domain.GroupInfo
	err = s.withCredential(func(cred domain.Credential) error {
		var callErr error
		info, callErr = s.client.ResolveGroup(ctx, cred, ref)
		return callErr
	})
	if err != nil {
		return nil, unwrapPermanent(err)
	}

	// Persistence is best effort, the caller already has the result
	if err := s.groups.SaveGroup(info); err != nil {
		s.logger.Warn("Failed to persist group info",
			zap.String("group_id", info.GroupID),
			zap.Error(err),
		)
	}

	return info, nil
}

// GetMembers enumerates the full membership of a group. The result is
// all-or-nothing: either the complete member set or an error. Progress of the
// running job can be polled via Progress while this call is in flight.
func (s *ParserService) GetMembers(ctx context.Context, groupID string) ([]domain.MemberRecord, error) {
	job := newJob(groupID)
	s.registerJob(job)
	defer s.evictLater(job)

	members, err := s.enumerate(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := s.groups.ReplaceMembers(groupID, members); err != nil {
		s.logger.Warn("Failed to persist member set",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
	}

	return members, nil
}

// GroupInfo returns the stored info for a previously parsed group, nil when
// the group has never been parsed
func (s *ParserService) GroupInfo(groupID string) (*domain.GroupInfo, error) {
	return s.groups.GetGroup(groupID)
}

// Progress reports the state and completion percentage of the most recent
// enumeration job for a group. Callers poll; intermediate values may be
// skipped (last value wins).
func (s *ParserService) Progress(groupID string) (int, domain.JobState, bool) {
	s.jobsMux.RLock()
	job, ok := s.jobs[groupID]
	s.jobsMux.RUnlock()

	if !ok {
		return 0, "", false
	}
	return job.Progress(), job.State(), true
}

// enumerate runs the job state machine: Resolving, then Paging, with a
// whole-job retry budget shared across both phases. A transient failure
// while resolving costs an attempt the same way a failed page fetch does;
// a group resolved on an earlier attempt is not resolved again.
func (s *ParserService) enumerate(ctx context.Context, job *Job) ([]domain.MemberRecord, error) {
	var info *domain.GroupInfo
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		job.setAttempt(attempt)

		var err error
		if info == nil {
			job.setState(domain.JobResolving)
			err = s.withCredential(func(cred domain.Credential) error {
				var callErr error
				info, callErr = s.client.ResolveGroup(ctx, cred, job.groupID)
				return callErr
			})
		}

		var members []domain.MemberRecord
		if err == nil {
			members, err = s.runAttempt(ctx, job, info.MemberCount)
		}
		if err == nil {
			job.finish()
			s.logger.Info("Enumeration complete",
				zap.String("group_id", job.groupID),
				zap.Int("members", len(members)),
				zap.Int("attempt", attempt),
			)
			return members, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			job.fail(perm.err)
			return nil, perm.err
		}
		if ctx.Err() != nil {
			job.fail(ctx.Err())
			return nil, ctx.Err()
		}

		lastErr = err

		// Whole-job retry: everything collected so far is discarded and
		// the next attempt starts over at offset 0.
		job.reset()
		s.logger.Warn("Enumeration attempt failed",
			zap.String("group_id", job.groupID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == s.maxAttempts {
			break
		}

		delay := s.retryDelay
		var drained *poolDrainedError
		if errors.As(err, &drained) {
			// The pool is empty: waiting out the soonest cooldown is
			// the only way forward, and it costs this attempt. The pad
			// keeps the timer from firing a hair before the expiry.
			if until := time.Until(drained.wake) + 50*time.Millisecond; until > delay {
				delay = until
			}
		}

		select {
		case <-ctx.Done():
			job.fail(ctx.Err())
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	err := fmt.Errorf("%w (last error: %v)", ErrRetryBudgetExhausted, lastErr)
	job.fail(err)
	return nil, err
}

// runAttempt pages through the membership once, from offset 0
func (s *ParserService) runAttempt(ctx context.Context, job *Job, knownTotal int) ([]domain.MemberRecord, error) {
	job.setState(domain.JobPaging)

	var collected []domain.MemberRecord
	offset := 0
	total := knownTotal

	for {
		// Cancellation checkpoint: never start a page fetch for a caller
		// that is gone
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page *telegram.MemberPage
		err := s.withCredential(func(cred domain.Credential) error {
			var callErr error
			page, callErr = s.client.ListMembers(ctx, cred, job.groupID, offset, s.batchSize)
			return callErr
		})
		if err != nil {
			return nil, err
		}

		collected = append(collected, page.Members...)
		if page.TotalCount > 0 {
			total = page.TotalCount
		}
		job.setProgress(progressPercent(len(collected), total))

		offset += s.batchSize
		hasMore := len(page.Members) == s.batchSize
		if total > 0 && offset >= total {
			hasMore = false
		}
		if !hasMore {
			return collected, nil
		}
	}
}

// withCredential runs one network call under an acquired credential and
// releases it with the classified outcome. A credential is held only for the
// duration of the call. Rate-limited credentials are rotated transparently
// without consuming the job's retry budget; the loop ends when a
// non-rate-limit outcome is reached or the pool drains.
func (s *ParserService) withCredential(call func(cred domain.Credential) error) error {
	for {
		cred, err := s.pool.Acquire()
		if err != nil {
			wake, ok := s.pool.NextWake()
			if !ok {
				wake = time.Now().Add(s.retryDelay)
			}
			return &poolDrainedError{wake: wake}
		}

		err = call(cred)
		if err == nil {
			s.pool.Release(cred.ID, pool.Success())
			return nil
		}

		outcome := telegram.Classify(err)
		switch outcome.Kind {
		case telegram.KindRateLimited:
			s.pool.Release(cred.ID, pool.RateLimited(outcome.RetryAfter))
			s.logger.Warn("Credential rate limited, rotating",
				zap.String("credential_id", cred.ID),
				zap.Duration("retry_after", outcome.RetryAfter),
			)

		case telegram.KindEntityNotFound:
			s.pool.Release(cred.ID, pool.Failure())
			return &permanentError{err: fmt.Errorf("%w: %v", ErrGroupAccessDenied, err)}

		case telegram.KindFatal:
			s.pool.Release(cred.ID, pool.Failure())
			return &permanentError{err: err}

		default: // transient
			s.pool.Release(cred.ID, pool.Failure())
			return err
		}
	}
}

func (s *ParserService) registerJob(job *Job) {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()
	s.jobs[job.groupID] = job
}

// evictLater drops a terminal job from the registry after the retention
// window so entries do not pile up for the process lifetime. A newer job for
// the same group keeps its slot.
func (s *ParserService) evictLater(job *Job) {
	time.AfterFunc(s.jobRetention, func() {
		s.jobsMux.Lock()
		defer s.jobsMux.Unlock()
		if s.jobs[job.groupID] == job {
			delete(s.jobs, job.groupID)
		}
	})
}

// progressPercent is min(100, collected*100/total); 0 while the total is unknown
func progressPercent(collected, total int) int {
	if total <= 0 {
		return 0
	}
	p := collected * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}

func unwrapPermanent(err error) error {
	var perm *permanentError
	if errors.As(err, &perm) {
		return perm.err
	}
	return err
}
