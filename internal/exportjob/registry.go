// Package exportjob tracks export jobs by output name and evicts finished
// entries (and their archives) once they outlive the TTL.
package exportjob

import (
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/metrics"
)

// Status is the lifecycle state of an export job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is a snapshot of one registry entry. FilePath is set only when
// Status is StatusCompleted.
type Job struct {
	Name        string    `json:"name"`
	BuildID     string    `json:"buildId,omitempty"`
	Token       string    `json:"token,omitempty"`
	Status      Status    `json:"status"`
	FilePath    string    `json:"-"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Registry is the in-memory job table keyed by output name. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	ttl      time.Duration
	now      func() time.Time
	recorder metrics.Recorder
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithRecorder reports job gauges and sweep counts.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRegistry creates an empty registry whose finished entries expire after ttl.
func NewRegistry(ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		jobs:     make(map[string]*Job),
		ttl:      ttl,
		now:      time.Now,
		recorder: metrics.NoopRecorder{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// TTL returns the eviction age for finished entries.
func (r *Registry) TTL() time.Duration { return r.ttl }

// SetPending inserts or overwrites name as a pending job.
func (r *Registry) SetPending(name string) Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	j := &Job{Name: name, Status: StatusPending, CreatedAt: now, SubmittedAt: now}
	r.jobs[name] = j
	r.updateGaugesLocked()
	return *j
}

// Reserve marks name pending for buildID with a fresh token. It fails with
// an already_exists error while another run for name is pending; finished
// entries are replaced.
func (r *Registry) Reserve(name, buildID string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.jobs[name]; ok && cur.Status == StatusPending {
		return Job{}, errors.AlreadyExistsError("export already in progress").
			WithContext("name", name).
			WithContext("build_id", cur.BuildID).
			Build()
	}
	now := r.now()
	j := &Job{
		Name:        name,
		BuildID:     buildID,
		Token:       uuid.NewString(),
		Status:      StatusPending,
		CreatedAt:   now,
		SubmittedAt: now,
	}
	r.jobs[name] = j
	r.updateGaugesLocked()
	return *j, nil
}

// SetCompleted records a finished archive at filePath.
func (r *Registry) SetCompleted(name, filePath string) Job {
	return r.transition(name, func(j *Job) {
		j.Status = StatusCompleted
		j.FilePath = filePath
		j.Error = ""
	})
}

// SetFailed records a failed export with its message.
func (r *Registry) SetFailed(name, message string) Job {
	return r.transition(name, func(j *Job) {
		j.Status = StatusFailed
		j.FilePath = ""
		j.Error = message
	})
}

// transition overwrites the entry, keeping the run identity of an existing one.
func (r *Registry) transition(name string, apply func(*Job)) Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	j := &Job{Name: name, SubmittedAt: now}
	if cur, ok := r.jobs[name]; ok {
		j.BuildID, j.Token, j.SubmittedAt = cur.BuildID, cur.Token, cur.SubmittedAt
	}
	apply(j)
	j.CreatedAt = now
	r.jobs[name] = j
	r.updateGaugesLocked()
	slog.Debug("Export job updated", logfields.ExportName(name), logfields.JobStatus(string(j.Status)))
	return *j
}

// Get returns a copy of the entry for name.
func (r *Registry) Get(name string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[name]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// FilePath returns the archive path for name when the job is completed.
func (r *Registry) FilePath(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[name]
	if !ok || j.Status != StatusCompleted || j.FilePath == "" {
		return "", false
	}
	return j.FilePath, true
}

// List returns all entries sorted by name.
func (r *Registry) List() []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Sweep evicts finished entries older than the TTL and deletes their
// archives. Pending entries are never evicted. Files are removed while the
// lock is held, so a name re-reserved concurrently cannot lose its new
// archive, and a path still referenced by a live entry is kept. File
// removal is best effort. It returns the evicted names.
func (r *Registry) Sweep() []string {
	now := r.now()
	var (
		names []string
		files []string
	)
	r.mu.Lock()
	for name, j := range r.jobs {
		if j.Status == StatusPending || now.Sub(j.CreatedAt) <= r.ttl {
			continue
		}
		names = append(names, name)
		if j.FilePath != "" {
			files = append(files, j.FilePath)
		}
		delete(r.jobs, name)
	}
	if len(files) > 0 {
		live := make(map[string]bool, len(r.jobs))
		for _, j := range r.jobs {
			if j.FilePath != "" {
				live[j.FilePath] = true
			}
		}
		for _, f := range files {
			if live[f] {
				continue
			}
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				slog.Debug("Failed to remove expired export", logfields.Path(f), logfields.Error(err))
			}
		}
	}
	if len(names) > 0 {
		r.updateGaugesLocked()
	}
	r.mu.Unlock()

	if len(names) > 0 {
		sort.Strings(names)
		r.recorder.AddSwept(len(names))
		slog.Info("Swept expired exports", logfields.Count(len(names)))
	}
	return names
}

func (r *Registry) updateGaugesLocked() {
	counts := map[Status]int{StatusPending: 0, StatusCompleted: 0, StatusFailed: 0}
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	for s, n := range counts {
		r.recorder.SetJobs(string(s), n)
	}
}
