package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type TaskName string

const (
	TaskObligations   TaskName = "obligations"
	TaskSubscriptions TaskName = "subscriptions"
	TaskOverdue       TaskName = "overdue"
	TaskDispatch      TaskName = "dispatch"
)

type task struct {
	name TaskName
	spec string
	run  func(ctx context.Context) (PassStats, error)
}

// Scheduler owns the cron lifecycle for the reminder passes. Every task is
// a plain pass function, so the manual trigger endpoint runs exactly the
// same code the cron entries do.
type Scheduler struct {
	mu      sync.Mutex
	loc     *time.Location
	tasks   []task
	cron    *cron.Cron
	entries map[TaskName]cron.EntryID
	running bool
}

func NewScheduler(obligations *Engine, subscriptions *SubscriptionEngine, drip *DripEngine, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		loc: loc,
		tasks: []task{
			{TaskObligations, "0 * * * *", obligations.RunObligationPass},
			{TaskSubscriptions, "0 */6 * * *", subscriptions.RunExpiryPass},
			{TaskOverdue, "0 0 * * *", obligations.RunOverduePass},
			{TaskDispatch, "* * * * *", drip.RunDispatchPass},
		},
	}
}

// Start registers the cron entries and begins running them. Calling Start
// on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	c := cron.New(cron.WithLocation(s.loc))
	s.entries = make(map[TaskName]cron.EntryID, len(s.tasks))
	for _, t := range s.tasks {
		t := t
		id, err := c.AddFunc(t.spec, func() { s.runTask(t) })
		if err != nil {
			log.Printf("scheduler: scheduling %s: %v", t.name, err)
			continue
		}
		s.entries[t.name] = id
	}
	c.Start()
	s.cron = c
	s.running = true
	log.Printf("scheduler: started %d tasks in %s", len(s.entries), s.loc)
}

// Stop halts the cron and waits for in-flight passes to finish, so every
// delivery attempt gets its ledger row before shutdown. Calling Stop on a
// stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.entries = nil
	s.running = false
	log.Println("scheduler: stopped")
}

func (s *Scheduler) runTask(t task) {
	start := time.Now()
	stats, err := t.run(context.Background())
	if err != nil {
		log.Printf("scheduler: %s pass: %v", t.name, err)
		return
	}
	log.Printf("scheduler: %s pass done in %s (evaluated=%d sent=%d failures=%d)",
		t.name, time.Since(start).Round(time.Millisecond), stats.Evaluated, stats.Sent, stats.Failures)
}

// RunNow executes the named task immediately on the caller's goroutine,
// independent of whether the cron is running.
func (s *Scheduler) RunNow(ctx context.Context, name TaskName) (PassStats, error) {
	for _, t := range s.tasks {
		if t.name == name {
			return t.run(ctx)
		}
	}
	return PassStats{}, fmt.Errorf("unknown task %q", name)
}

type TaskStatus struct {
	Schedule string     `json:"schedule"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

type SchedulerStatus struct {
	Running bool                  `json:"running"`
	Tasks   map[string]TaskStatus `json:"tasks"`
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{
		Running: s.running,
		Tasks:   make(map[string]TaskStatus, len(s.tasks)),
	}
	for _, t := range s.tasks {
		ts := TaskStatus{Schedule: t.spec}
		if s.running {
			if id, ok := s.entries[t.name]; ok {
				next := s.cron.Entry(id).Next
				if !next.IsZero() {
					ts.NextRun = &next
				}
			}
		}
		status.Tasks[string(t.name)] = ts
	}
	return status
}
