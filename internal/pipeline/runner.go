// Package pipeline runs the full episode build for one job: source material
// in, published episode out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"podforge/internal/assembler"
	"podforge/internal/audio"
	"podforge/internal/config"
	"podforge/internal/jobs"
	"podforge/internal/library"
	"podforge/internal/logging"
	"podforge/internal/notifications"
	"podforge/internal/rss"
	"podforge/internal/script"
	"podforge/internal/services"
	"podforge/internal/services/scriptgen"
)

// Synthesizer matches internal/synth so tests can stub provider behavior.
type Synthesizer interface {
	Synthesize(ctx context.Context, u script.Utterance) (audio.Clip, error)
}

// Options wires the runner's collaborators.
type Options struct {
	Config      *config.Config
	Generator   scriptgen.Generator
	Synthesizer Synthesizer
	Assembler   *assembler.Assembler
	Library     *library.Store
	Notifier    notifications.Service
	Logger      *slog.Logger
}

// Runner implements jobs.Runner.
type Runner struct {
	opts       Options
	logger     *slog.Logger
	titleCaser cases.Caser

	// publishMu serializes library append + feed rewrite across concurrent
	// jobs so episode numbers stay in step with the feed.
	publishMu sync.Mutex
}

// New constructs a Runner. All collaborators are required except Notifier,
// which defaults to a noop.
func New(opts Options) (*Runner, error) {
	switch {
	case opts.Config == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "config required", nil)
	case opts.Generator == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "script generator required", nil)
	case opts.Synthesizer == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "synthesizer required", nil)
	case opts.Assembler == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "assembler required", nil)
	case opts.Library == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "library store required", nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(&config.Config{})
	}
	return &Runner{
		opts:       opts,
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
		titleCaser: cases.Title(language.English),
	}, nil
}

// Run builds and publishes one episode. Any returned error fails the job.
func (r *Runner) Run(ctx context.Context, job jobs.Job, progress jobs.Reporter) (jobs.Result, error) {
	cfg := r.opts.Config
	log := logging.WithContext(ctx, r.logger)

	material, err := r.gatherMaterial(job)
	if err != nil {
		return jobs.Result{}, err
	}

	if err := r.opts.Notifier.NotifyJobStarted(ctx, job.Topic); err != nil {
		log.Warn("start notification failed", logging.Error(err))
	}

	progress.Milestone(jobs.MilestoneScript)
	episodeScript, err := r.opts.Generator.Generate(services.WithStage(ctx, "script"), scriptgen.Request{
		Material:      material,
		Topic:         job.Topic,
		PrimaryHost:   cfg.Podcast.PrimaryHost,
		SecondaryHost: cfg.Podcast.SecondaryHost,
	})
	if err != nil {
		r.notifyFailure(ctx, log, err, "script generation")
		return jobs.Result{}, err
	}

	progress.Milestone(jobs.MilestoneSegmenting)
	planned := r.planSections(episodeScript)
	utteranceTotal := 0
	for _, section := range planned {
		utteranceTotal += len(section.utterances)
	}
	if utteranceTotal == 0 {
		err := services.Wrap(services.ErrValidation, "pipeline", "segment", "script contains no spoken lines", nil)
		r.notifyFailure(ctx, log, err, "segmentation")
		return jobs.Result{}, err
	}
	log.Info("script segmented",
		logging.Int("sections", len(planned)),
		logging.Int("utterances", utteranceTotal))

	progress.Milestone(jobs.MilestoneSynthesis)
	sections, err := r.synthesizeSections(services.WithStage(ctx, "synthesis"), planned, utteranceTotal, progress)
	if err != nil {
		r.notifyFailure(ctx, log, err, "synthesis")
		return jobs.Result{}, err
	}

	progress.Milestone(jobs.MilestoneAssembly)
	voice, err := r.opts.Assembler.AssembleVoice(sections)
	if err != nil {
		r.notifyFailure(ctx, log, err, "assembly")
		return jobs.Result{}, err
	}

	progress.Milestone(jobs.MilestoneMixing)
	mix, err := r.opts.Assembler.MixBed(services.WithStage(ctx, "mixing"), voice)
	if err != nil {
		r.notifyFailure(ctx, log, err, "bed mixing")
		return jobs.Result{}, err
	}

	progress.Milestone(jobs.MilestoneExport)
	result, err := r.publish(services.WithStage(ctx, "publish"), episodeScript, job, mix, progress)
	if err != nil {
		r.notifyFailure(ctx, log, err, "publishing")
		return jobs.Result{}, err
	}
	return result, nil
}

// gatherMaterial joins uploaded plain-text documents, falling back to the
// topic for feed-style jobs with no uploads.
func (r *Runner) gatherMaterial(job jobs.Job) (string, error) {
	var parts []string
	for _, file := range job.InputFiles {
		data, err := os.ReadFile(file.StoredPath)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "pipeline", "read input",
				file.OriginalName, err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}
	material := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if material == "" {
		material = strings.TrimSpace(job.Topic)
	}
	if material == "" {
		return "", services.Wrap(services.ErrValidation, "pipeline", "gather material",
			"no usable source material", nil)
	}
	return material, nil
}

type plannedSection struct {
	name       string
	utterances []script.Utterance
}

// planSections converts the generated script into utterance lists, wrapping
// it with the configured sign-on and sign-off lines.
func (r *Runner) planSections(s scriptgen.Script) []plannedSection {
	cfg := r.opts.Config
	tags := script.Tags{Primary: cfg.Podcast.PrimaryHost, Secondary: cfg.Podcast.SecondaryHost}

	var planned []plannedSection
	if signOn := strings.TrimSpace(cfg.Podcast.SignOn); signOn != "" {
		planned = append(planned, plannedSection{
			name:       "sign-on",
			utterances: []script.Utterance{{Speaker: script.SpeakerPrimary, Text: signOn, Ordinal: 0}},
		})
	}
	for i, section := range s.Sections {
		name := fmt.Sprintf("section-%d", i+1)
		var utterances []script.Utterance
		if section.Kind == scriptgen.KindMonologue {
			utterances = []script.Utterance{{Speaker: script.SpeakerPrimary, Text: section.Text, Ordinal: 0}}
		} else {
			utterances = script.Segment(section.Text, tags)
		}
		if len(utterances) == 0 {
			continue
		}
		planned = append(planned, plannedSection{name: name, utterances: utterances})
	}
	if signOff := strings.TrimSpace(cfg.Podcast.SignOff); signOff != "" {
		planned = append(planned, plannedSection{
			name:       "sign-off",
			utterances: []script.Utterance{{Speaker: script.SpeakerPrimary, Text: signOff, Ordinal: 0}},
		})
	}
	return planned
}

// synthesizeSections renders every utterance, fanning out across the
// configured worker count. Completion order is irrelevant: each clip lands in
// its own slot and the assembler re-sorts by ordinal.
func (r *Runner) synthesizeSections(ctx context.Context, planned []plannedSection, total int, progress jobs.Reporter) ([]assembler.Section, error) {
	type task struct {
		section int
		slot    int
		u       script.Utterance
	}

	sections := make([]assembler.Section, len(planned))
	tasks := make([]task, 0, total)
	for i, section := range planned {
		sections[i].Name = section.name
		sections[i].Turns = make([]assembler.Turn, len(section.utterances))
		for j, u := range section.utterances {
			tasks = append(tasks, task{section: i, slot: j, u: u})
		}
	}

	workers := r.opts.Config.Jobs.SynthWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	synthCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		done     atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	queue := make(chan task)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				clip, err := r.opts.Synthesizer.Synthesize(synthCtx, t.u)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				sections[t.section].Turns[t.slot] = assembler.Turn{Ordinal: t.u.Ordinal, Clip: clip}
				progress.Synthesized(int(done.Add(1)), total)
			}
		}()
	}

	for _, t := range tasks {
		select {
		case queue <- t:
		case <-synthCtx.Done():
		}
		if synthCtx.Err() != nil {
			break
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

// publish exports the mixdown, records the episode, and rebuilds the feed.
func (r *Runner) publish(ctx context.Context, s scriptgen.Script, job jobs.Job, mix audio.Clip, progress jobs.Reporter) (jobs.Result, error) {
	cfg := r.opts.Config
	log := logging.WithContext(ctx, r.logger)

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	number, err := r.opts.Library.NextNumber(ctx)
	if err != nil {
		return jobs.Result{}, err
	}

	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = r.titleCaser.String(strings.TrimSpace(job.Topic))
	}
	if title == "" {
		title = fmt.Sprintf("Episode %d", number)
	}

	filename := fmt.Sprintf("episode_%03d_%s.wav", number, slugify(title))
	episodePath := filepath.Join(cfg.Paths.OutputDir, filename)
	if err := audio.WriteWAVFile(episodePath, mix); err != nil {
		return jobs.Result{}, services.Wrap(services.ErrTransient, "pipeline", "export", episodePath, err)
	}
	info, err := os.Stat(episodePath)
	if err != nil {
		return jobs.Result{}, services.Wrap(services.ErrTransient, "pipeline", "export", "stat episode", err)
	}

	progress.Milestone(jobs.MilestonePublishing)
	audioURL := joinURL(cfg.Podcast.SiteURL, filename)
	episode, err := r.opts.Library.Add(ctx, library.Episode{
		Number:      number,
		Title:       title,
		Description: s.Description,
		AudioPath:   episodePath,
		AudioURL:    audioURL,
		SizeBytes:   info.Size(),
		Duration:    mix.Duration().Seconds(),
	})
	if err != nil {
		return jobs.Result{}, err
	}

	episodes, err := r.opts.Library.List(ctx)
	if err != nil {
		return jobs.Result{}, err
	}
	feedPath := filepath.Join(cfg.Paths.OutputDir, "feed.xml")
	if err := rss.WriteFile(feedPath, cfg.Podcast, episodes); err != nil {
		return jobs.Result{}, err
	}

	if err := r.opts.Notifier.NotifyEpisodePublished(ctx, title, episode.Number, mix.Duration()); err != nil {
		log.Warn("publish notification failed", logging.Error(err))
	}
	log.Info("episode published",
		logging.String(logging.FieldEpisode, title),
		logging.Int("number", episode.Number),
		logging.Duration("duration", mix.Duration()))

	return jobs.Result{
		EpisodePath: episodePath,
		Title:       title,
		Description: s.Description,
		PublishURL:  audioURL,
		FeedURL:     joinURL(cfg.Podcast.SiteURL, "feed.xml"),
	}, nil
}

func (r *Runner) notifyFailure(ctx context.Context, log *slog.Logger, err error, stage string) {
	if nerr := r.opts.Notifier.NotifyJobFailed(ctx, err, stage); nerr != nil {
		log.Warn("failure notification failed", logging.Error(nerr))
	}
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	if slug == "" {
		slug = "episode"
	}
	return slug
}

func joinURL(base, name string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return name
	}
	return base + "/" + name
}

var _ jobs.Runner = (*Runner)(nil)
