// Package dashboard aggregates the KPIs shown on the admin home page and
// keeps the recent-activity feed.
package dashboard

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
	"github.com/nimburion/tutoradmin/pkg/pricing"
	"github.com/nimburion/tutoradmin/pkg/service"
	"github.com/nimburion/tutoradmin/pkg/user"
)

// Entity is the name used in logs, spans and request keys.
const Entity = "dashboard"

// Sources are the services the dashboard reads from.
type Sources struct {
	Users      interface{ Counts(context.Context) (user.Counts, error) }
	Complaints interface{ Stats(context.Context) (complaint.Stats, error) }
	Plans      interface{ Revenue(context.Context) (pricing.Revenue, error) }
	Files      interface{ Stats(context.Context) (knowledgebase.Stats, error) }
}

// KPI are the headline numbers.
type KPI struct {
	TotalUsers         int     `json:"total_users"`
	ActiveLearners     int     `json:"active_learners"`
	MonthlyRevenue     float64 `json:"monthly_revenue"`
	PendingComplaints  int     `json:"pending_complaints"`
	KnowledgeBaseFiles int     `json:"knowledge_base_files"`
}

// SubjectCount is the number of knowledge-base files for one subject.
type SubjectCount struct {
	Subject string `json:"subject"`
	Files   int    `json:"files"`
}

// Overview is everything the dashboard page shows.
type Overview struct {
	KPI             KPI                   `json:"kpi"`
	TopPlans        []pricing.PlanRevenue `json:"top_plans"`
	PopularSubjects []SubjectCount        `json:"popular_subjects"`
	RecentActivity  []Activity            `json:"recent_activity"`
}

// TopPlanCount and PopularSubjectCount bound the ranked lists.
const (
	TopPlanCount        = 3
	PopularSubjectCount = 5
	RecentActivityCount = 10
)

// Service builds the dashboard overview.
type Service struct {
	service.Base
	sources Sources
	feed    *Feed
}

// NewService creates a dashboard over sources and feed.
func NewService(sources Sources, feed *Feed, deps service.Deps) *Service {
	if feed == nil {
		feed = NewFeed(DefaultFeedCapacity)
	}
	return &Service{
		Base:    service.NewBase(Entity, deps),
		sources: sources,
		feed:    feed,
	}
}

// Feed returns the recent-activity feed.
func (s *Service) Feed() *Feed {
	return s.feed
}

// Overview gathers the KPIs from every source concurrently.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	return service.Read(ctx, &s.Base, "overview", func(ctx context.Context) (Overview, error) {
		var (
			counts  user.Counts
			stats   complaint.Stats
			revenue pricing.Revenue
			files   knowledgebase.Stats
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { counts, err = s.sources.Users.Counts(gctx); return err })
		g.Go(func() (err error) { stats, err = s.sources.Complaints.Stats(gctx); return err })
		g.Go(func() (err error) { revenue, err = s.sources.Plans.Revenue(gctx); return err })
		g.Go(func() (err error) { files, err = s.sources.Files.Stats(gctx); return err })
		if err := g.Wait(); err != nil {
			return Overview{}, err
		}

		return Overview{
			KPI: KPI{
				TotalUsers:         counts.Total,
				ActiveLearners:     counts.ActiveLearners,
				MonthlyRevenue:     revenue.Monthly,
				PendingComplaints:  stats.Pending,
				KnowledgeBaseFiles: files.TotalFiles,
			},
			TopPlans:        topPlans(revenue.ByPlan, TopPlanCount),
			PopularSubjects: popularSubjects(files.BySubject, PopularSubjectCount),
			RecentActivity:  s.feed.Recent(RecentActivityCount),
		}, nil
	})
}

// Activity returns up to limit recent entries, newest first.
func (s *Service) Activity(limit int) []Activity {
	return s.feed.Recent(limit)
}

func topPlans(plans []pricing.PlanRevenue, n int) []pricing.PlanRevenue {
	ranked := slices.Clone(plans)
	slices.SortStableFunc(ranked, func(a, b pricing.PlanRevenue) int {
		return cmp.Compare(b.Subscribers, a.Subscribers)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func popularSubjects(bySubject map[string]int, n int) []SubjectCount {
	out := make([]SubjectCount, 0, len(bySubject))
	for subject, files := range bySubject {
		out = append(out, SubjectCount{Subject: subject, Files: files})
	}
	slices.SortFunc(out, func(a, b SubjectCount) int {
		if c := cmp.Compare(b.Files, a.Files); c != 0 {
			return c
		}
		return cmp.Compare(a.Subject, b.Subject)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
