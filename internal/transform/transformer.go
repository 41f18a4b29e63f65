package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/rewriting"
	"github.com/jonathan/onepage/internal/selection"
	"github.com/jonathan/onepage/internal/types"
)

const (
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 30 * time.Second
	// DefaultConcurrency is the number of bullets rewritten at once.
	DefaultConcurrency = 4
)

// Option configures a Transformer.
type Option func(*Transformer)

// WithTimeout sets the per-call generation timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transformer) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithConcurrency sets how many rewrites run in parallel.
func WithConcurrency(n int) Option {
	return func(t *Transformer) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// Transformer applies compression plans. A nil generator disables rewriting and
// generator ranking; the deterministic paths are used instead.
type Transformer struct {
	generator   rewriting.Generator
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// New creates a Transformer backed by generator.
func New(generator rewriting.Generator, opts ...Option) *Transformer {
	t := &Transformer{
		generator:   generator,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type rewriteJob struct {
	loc  BulletLocation
	text string
}

// Apply returns a new model compressed according to plan. The input model is never mutated.
func (t *Transformer) Apply(ctx context.Context, model types.ContentModel, plan compression.Plan, role string) (types.ContentModel, Report, error) {
	report := Report{Level: plan.Level.String(), BulletsIn: model.BulletCount()}

	if err := model.Validate(); err != nil {
		return types.ContentModel{}, report, &TransformationError{Message: "invalid input model", Cause: err}
	}

	scorer := selection.NewScorer(model, role)
	sections := make([]types.Section, 0, len(model.Sections))

	for _, sec := range model.Sections {
		if plan.DropOptionalSections && sec.Optional {
			report.SectionsDropped = append(report.SectionsDropped, sec.Title)
			report.Dropped += sectionBullets(sec)
			continue
		}
		if sec.Kind == types.SectionSkills {
			sections = append(sections, sec)
			continue
		}

		entries := make([]types.Entry, len(sec.Entries))
		for j, entry := range sec.Entries {
			compressed, err := t.compressEntry(ctx, entry, plan, role, scorer, &report)
			if err != nil {
				return types.ContentModel{}, report, err
			}
			entries[j] = compressed
		}
		sections = append(sections, sec.WithEntries(entries))
	}

	if plan.Rewrite && t.generator != nil {
		if err := t.rewriteAll(ctx, sections, plan, role, &report); err != nil {
			return types.ContentModel{}, report, err
		}
	}

	out := model.WithSections(sections)
	if err := checkStructure(model, out); err != nil {
		return types.ContentModel{}, report, err
	}
	report.BulletsOut = out.BulletCount()
	return out, report, nil
}

// compressEntry merges, caps and densifies one entry's bullets.
func (t *Transformer) compressEntry(ctx context.Context, entry types.Entry, plan compression.Plan, role string, scorer *selection.Scorer, report *Report) (types.Entry, error) {
	bullets := entry.Bullets

	if plan.MergeNearDuplicates {
		var merged int
		bullets, merged = selection.MergeNearDuplicates(bullets)
		report.Merged += merged
	}

	if plan.MaxBulletsPerEntry > 0 && len(bullets) > plan.MaxBulletsPerEntry {
		before := len(bullets)
		bullets = t.keepTop(ctx, entry.WithBullets(bullets), plan, role, scorer, report)
		report.Dropped += before - len(bullets)
	}

	if plan.Densify {
		densified := make([]string, len(bullets))
		for i, b := range bullets {
			densified[i] = densify(b)
		}
		bullets = densified
	}

	if len(bullets) == 0 {
		return types.Entry{}, &TransformationError{Message: "entry would have no bullets", Path: entry.Heading}
	}
	if sameBullets(bullets, entry.Bullets) {
		return entry, nil
	}
	return entry.WithBullets(bullets), nil
}

// keepTop selects plan.MaxBulletsPerEntry bullets, asking the generator when the plan allows it.
func (t *Transformer) keepTop(ctx context.Context, entry types.Entry, plan compression.Plan, role string, scorer *selection.Scorer, report *Report) []string {
	n := plan.MaxBulletsPerEntry
	if plan.RankWithGenerator && t.generator != nil {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		ranked, err := t.generator.Rank(callCtx, entry.Bullets, role)
		cancel()
		if err == nil {
			var order []int
			order, err = rankingOrder(entry.Bullets, ranked)
			if err == nil {
				report.GeneratorRanked++
				kept := make([]selection.ScoredBullet, n)
				for i := 0; i < n; i++ {
					kept[i] = selection.ScoredBullet{Index: order[i]}
				}
				return selection.KeepInOriginalOrder(entry.Bullets, kept)
			}
		}
		report.RankingFallbacks++
		t.logger.Debug("generator ranking failed, using deterministic ranking",
			"entry", entry.Heading, "error", err)
	}
	return scorer.KeepTop(entry, n)
}

// rankingOrder maps a ranked copy of bullets back to original indices.
// ranked must be a permutation of bullets.
func rankingOrder(bullets, ranked []string) ([]int, error) {
	if len(ranked) != len(bullets) {
		return nil, fmt.Errorf("ranking has %d bullets, want %d", len(ranked), len(bullets))
	}
	positions := make(map[string][]int, len(bullets))
	for i, b := range bullets {
		positions[b] = append(positions[b], i)
	}
	order := make([]int, 0, len(ranked))
	for _, r := range ranked {
		free := positions[r]
		if len(free) == 0 {
			return nil, fmt.Errorf("ranking is not a permutation: unexpected bullet %q", r)
		}
		order = append(order, free[0])
		positions[r] = free[1:]
	}
	return order, nil
}

// rewriteAll rewrites every non-skills bullet in sections, in place on fresh slices.
func (t *Transformer) rewriteAll(ctx context.Context, sections []types.Section, plan compression.Plan, role string, report *Report) error {
	var jobs []rewriteJob
	for i, sec := range sections {
		if sec.Kind == types.SectionSkills {
			continue
		}
		for j, entry := range sec.Entries {
			for k, b := range entry.Bullets {
				jobs = append(jobs, rewriteJob{loc: BulletLocation{Section: i, Entry: j, Bullet: k}, text: b})
			}
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	constraints := rewriting.Constraints{
		MaxChars:      plan.TargetCharsPerBullet,
		Level:         plan.Level.String(),
		Instructions:  plan.Instructions(),
		ClipSentences: plan.ClipSentences,
	}

	changes := make([]BulletChange, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			changes[i] = t.rewriteBullet(gCtx, job, role, constraints)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	// copy-on-write: one fresh entries slice per section, one fresh bullets slice per entry
	copied := make(map[[2]int]bool)
	for i := range sections {
		if sections[i].Kind != types.SectionSkills {
			sections[i] = sections[i].WithEntries(append([]types.Entry(nil), sections[i].Entries...))
		}
	}
	for _, c := range changes {
		loc := c.Location
		key := [2]int{loc.Section, loc.Entry}
		entry := &sections[loc.Section].Entries[loc.Entry]
		if !copied[key] {
			*entry = entry.WithBullets(append([]string(nil), entry.Bullets...))
			copied[key] = true
		}
		entry.Bullets[loc.Bullet] = c.After
	}
	report.Changes = append(report.Changes, changes...)
	return nil
}

// rewriteBullet asks the generator for a rewrite, retries once, then truncates locally.
func (t *Transformer) rewriteBullet(ctx context.Context, job rewriteJob, role string, c rewriting.Constraints) BulletChange {
	change := BulletChange{Location: job.loc, Before: job.text}
	c.MustKeep = rewriting.ExtractFacts(job.text).All()

	for attempt := 0; attempt < 2; attempt++ {
		out, err := t.attempt(ctx, job.text, role, c)
		if err == nil {
			change.After = out
			change.Outcome = OutcomeRewritten
			if attempt > 0 {
				change.Outcome = OutcomeRetried
			}
			return change
		}
		change.Reasons = append(change.Reasons, err.Error())

		var dropped *droppedFactsError
		if errors.As(err, &dropped) {
			c.Missing = dropped.missing
		} else {
			c.Missing = nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	change.After = rewriting.Truncate(job.text, c.MaxChars)
	change.Outcome = OutcomeTruncated
	if change.After == job.text {
		change.Outcome = OutcomeKept
	}
	t.logger.Debug("rewrite fell back to local truncation",
		"bullet", change.Location.String(), "reasons", strings.Join(change.Reasons, "; "))
	return change
}

type droppedFactsError struct {
	missing []string
}

func (e *droppedFactsError) Error() string {
	return "rewrite dropped facts: " + strings.Join(e.missing, ", ")
}

func (t *Transformer) attempt(ctx context.Context, text, role string, c rewriting.Constraints) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.generator.Rewrite(callCtx, text, role, c)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &rewriting.GenerationServiceError{Message: "empty rewrite"}
	}
	if missing := rewriting.MissingFacts(text, out); len(missing) > 0 {
		return "", &droppedFactsError{missing: missing}
	}
	return out, nil
}

// densify removes filler wording when doing so keeps every fact.
func densify(bullet string) string {
	out := rewriting.Compact(bullet)
	if out == "" || !rewriting.PreservesFacts(bullet, out) {
		return bullet
	}
	return out
}

// checkStructure enforces that no entry is empty and that only optional sections disappear.
func checkStructure(in, out types.ContentModel) error {
	kept := make(map[string]bool, len(out.Sections))
	for i, sec := range out.Sections {
		if len(sec.Entries) == 0 {
			return &TransformationError{Message: "section would be empty", Path: fmt.Sprintf("sections[%d]", i)}
		}
		for j, e := range sec.Entries {
			if len(e.Bullets) == 0 {
				return &TransformationError{Message: "entry would have no bullets", Path: fmt.Sprintf("sections[%d].entries[%d]", i, j)}
			}
		}
		kept[sec.Title] = true
	}
	for _, sec := range in.Sections {
		if !sec.Optional && !kept[sec.Title] {
			return &TransformationError{Message: "required section removed", Path: sec.Title}
		}
	}
	return nil
}

func sectionBullets(sec types.Section) int {
	n := 0
	for _, e := range sec.Entries {
		n += len(e.Bullets)
	}
	return n
}

func sameBullets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
