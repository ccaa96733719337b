// Package app ties the data pipeline together: it owns the current
// directory, drives the listing cache, size store and size dispatcher, and
// runs the NoFolder/Loading/Viewing state machine that decides when the
// scene is torn down and respawned.
//
// The controller is driven from a single foreground goroutine. Background
// work only reaches it through channels drained in Tick.
package app

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tw93/probe/internal/config"
	"github.com/tw93/probe/internal/dircache"
	"github.com/tw93/probe/internal/fsread"
	"github.com/tw93/probe/internal/navigation"
	"github.com/tw93/probe/internal/sizecalc"
	"github.com/tw93/probe/internal/sizestore"
	"github.com/tw93/probe/internal/watch"
)

var ErrNotDirectory = errors.New("app: not a directory")

// Renderer is the presentation side. It only ever receives copies.
type Renderer interface {
	Spawn(frame Frame)
	Despawn()
	UpdateBody(body Body)
	StartTransition(t Transition)
}

type nopRenderer struct{}

func (nopRenderer) Spawn(Frame) {}
func (nopRenderer) Despawn() {}
func (nopRenderer) UpdateBody(Body) {}
func (nopRenderer) StartTransition(Transition) {}

// Options wires a Controller. Store and Watcher may be nil.
type Options struct {
	Config     *config.Config
	Cache      *dircache.Cache
	Store      *sizestore.Store
	Dispatcher *sizecalc.Dispatcher
	History    *navigation.History
	Watcher    *watch.Watcher
	Renderer   Renderer
	Log        *zap.Logger
	Now        func() time.Time
}

type Controller struct {
	cfg        *config.Config
	reader     fsread.Reader
	cache      *dircache.Cache
	store      *sizestore.Store
	dispatcher *sizecalc.Dispatcher
	history    *navigation.History
	watcher    *watch.Watcher
	renderer   Renderer
	log        *zap.Logger
	now        func() time.Time

	state      AppState
	mode       ViewingMode
	view       MainView
	current    string
	breadcrumb navigation.Breadcrumb
	scene      *scene
	transition *Transition
	hovered    EntityID
	selected   EntityID
}

func New(opts Options) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		cfg:        cfg,
		reader:     fsread.Reader{ShowHidden: cfg.History.ShowHidden},
		cache:      opts.Cache,
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		history:    opts.History,
		watcher:    opts.Watcher,
		renderer:   opts.Renderer,
		log:        log.Named("app"),
		now:        opts.Now,
		scene:      newScene(),
	}
	if c.cache == nil {
		c.cache = dircache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
	}
	if c.dispatcher == nil {
		strategy := sizecalc.Select(cfg.SizeCalc.Strategy, cfg.SizeCalc.Timeout, cfg.SizeCalc.Workers)
		c.dispatcher = sizecalc.NewDispatcher(strategy, cfg.SizeCalc.Results, log)
	}
	if c.history == nil {
		c.history = navigation.NewHistory(cfg.History.Max)
	}
	if c.renderer == nil {
		c.renderer = nopRenderer{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// SetRenderer swaps the presentation side, e.g. once the UI exists.
func (c *Controller) SetRenderer(r Renderer) {
	if r == nil {
		r = nopRenderer{}
	}
	c.renderer = r
}

func (c *Controller) State() AppState { return c.state }
func (c *Controller) Mode() ViewingMode { return c.mode }
func (c *Controller) View() MainView { return c.view }
func (c *Controller) Current() string { return c.current }
func (c *Controller) ShowHidden() bool { return c.reader.ShowHidden }
func (c *Controller) HistoryLimit() int { return c.history.Max() }
func (c *Controller) Strategy() string { return c.dispatcher.Strategy().Name() }
func (c *Controller) StoreAvailable() bool { return c.store != nil }

// RestoreHistory merges the persisted recent list into the in-memory one.
// Paths that no longer exist are skipped.
func (c *Controller) RestoreHistory() {
	persisted := c.store.LoadHistory()
	if len(persisted) == 0 {
		return
	}
	n := c.history.Restore(persisted, exists)
	if n > 0 {
		c.log.Info("loaded history entries from persistent cache", zap.Int("count", n))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ChooseFolder opens path as the visualized root, from the folder dialog
// or a recent-history click. It lands in Viewing/Idle.
func (c *Controller) ChooseFolder(path string) error {
	path, err := resolveDir(path)
	if err != nil {
		return err
	}
	c.cancelTransition()
	c.enter(path)
	c.view = SceneView
	c.log.Info("folder selected", zap.String("path", path))
	c.respawn()
	return nil
}

// DrillDown enters the directory shown by body id with a camera move
// toward target. Only honored in Viewing/Idle on the scene view. The old
// bodies are torn down at once; the new ones spawn when the move ends.
func (c *Controller) DrillDown(id EntityID, target Point) bool {
	if c.state != Viewing || c.mode != Idle || !c.inputEnabled() {
		return false
	}
	body, ok := c.scene.byID[id]
	if !ok || !body.IsDir || body.Star {
		return false
	}
	path := body.Path

	c.enter(path)
	c.teardown()
	c.startTransition(Drilldown, target, c.cfg.Camera.Drilldown)
	c.log.Info("drilldown", zap.String("path", path))
	return true
}

// NavigateTo jumps to path from a breadcrumb or history entry. It skips the
// drilldown animation and returns to Idle immediately.
func (c *Controller) NavigateTo(path string) error {
	if c.state == NoFolder {
		return c.ChooseFolder(path)
	}
	path, err := resolveDir(path)
	if err != nil {
		return err
	}
	c.cancelTransition()
	c.enter(path)
	c.log.Info("navigated", zap.String("path", path))
	c.respawn()
	return nil
}

// Back returns to the previous directory without adding a history entry.
func (c *Controller) Back() bool {
	if c.state != Viewing {
		return false
	}
	prev, ok := c.history.GoBack(c.current)
	if !ok {
		return false
	}
	c.jump(prev)
	return true
}

// Forward mirrors Back.
func (c *Controller) Forward() bool {
	if c.state != Viewing {
		return false
	}
	next, ok := c.history.GoForward(c.current)
	if !ok {
		return false
	}
	c.jump(next)
	return true
}

// Up navigates to the parent of the current directory.
func (c *Controller) Up() bool {
	if c.state != Viewing {
		return false
	}
	parent := filepath.Dir(c.current)
	if parent == c.current {
		return false
	}
	return c.NavigateTo(parent) == nil
}

// ResetView plays the return-to-center camera move. Ignored unless Idle.
func (c *Controller) ResetView() bool {
	if c.state != Viewing || c.mode != Idle {
		return false
	}
	c.startTransition(ReturnToCenter, Point{}, c.cfg.Camera.Reset)
	return true
}

// AnimationComplete ends the running camera move, returns to Idle and
// respawns the scene.
func (c *Controller) AnimationComplete() {
	if c.state != Viewing || c.mode != Animating {
		return
	}
	c.transition = nil
	c.mode = Idle
	c.respawn()
}

// Respawn rebuilds the scene from the current directory.
func (c *Controller) Respawn() {
	if c.state == NoFolder {
		return
	}
	c.respawn()
}

// Refresh drops the cached listing for the current directory and respawns.
func (c *Controller) Refresh() {
	if c.current == "" {
		return
	}
	c.cache.Invalidate(c.current)
	c.Respawn()
}

func (c *Controller) Hover(id EntityID) {
	if !c.inputEnabled() {
		c.hovered = 0
		return
	}
	if _, ok := c.scene.byID[id]; !ok {
		id = 0
	}
	c.hovered = id
}

func (c *Controller) Select(id EntityID) {
	if !c.inputEnabled() {
		return
	}
	if _, ok := c.scene.byID[id]; !ok {
		id = 0
	}
	c.selected = id
}

func (c *Controller) ClearSelection() {
	c.selected = 0
}

// ShowSettings switches the main area to the settings page. Scene input is
// suppressed until ShowScene.
func (c *Controller) ShowSettings() {
	c.view = SettingsView
	c.hovered = 0
}

func (c *Controller) ShowScene() {
	c.view = SceneView
}

// SetShowHidden toggles dotfiles. Cached listings were filtered with the old
// setting, so they are dropped and the scene respawns.
func (c *Controller) SetShowHidden(show bool) {
	if c.reader.ShowHidden == show {
		return
	}
	c.reader.ShowHidden = show
	c.cfg.History.ShowHidden = show
	c.cache.Clear()
	if c.state == Viewing {
		c.respawn()
	}
}

// SetHistoryLimit changes the recent-list bound (clamped to 10..30) and
// persists the result.
func (c *Controller) SetHistoryLimit(n int) {
	c.history.SetMax(n)
	c.cfg.History.Max = c.history.Max()
	c.store.WriteHistory(c.history.Entries())
}

// Tick runs once per frame on the foreground. It never blocks.
func (c *Controller) Tick() {
	c.drainSizes()
	c.drainChanges()
	if c.transition != nil && c.transition.done(c.now()) {
		c.AnimationComplete()
	}
}

func (c *Controller) drainSizes() {
	results := c.dispatcher.Results()
	for {
		select {
		case r := <-results:
			c.applySize(r)
		default:
			return
		}
	}
}

func (c *Controller) applySize(r sizecalc.Result) {
	// A zero may be a failed calculation; keep it out of the store.
	if r.Size > 0 {
		c.store.WriteSize(r.Path, r.Size)
	}
	body, ok := c.scene.byPath[r.Path]
	if !ok || !body.Pending {
		c.log.Debug("dropping size result for missing body", zap.String("path", r.Path))
		return
	}
	body.Size = r.Size
	body.Pending = false
	c.renderer.UpdateBody(*body)
}

func (c *Controller) drainChanges() {
	changes := c.watcher.Changes()
	if changes == nil {
		return
	}
	for {
		select {
		case dir := <-changes:
			c.cache.Invalidate(dir)
			if dir == c.current && c.state == Viewing && c.mode == Idle {
				c.log.Debug("directory changed, respawning", zap.String("path", dir))
				c.respawn()
			}
		default:
			return
		}
	}
}

// Frame snapshots everything the UI draws.
func (c *Controller) Frame() Frame {
	f := Frame{
		State:      c.state,
		Mode:       c.mode,
		View:       c.view,
		Current:    c.current,
		Overflow:   c.scene.overflow,
		Breadcrumb: c.breadcrumb.Copy(),
		Recent:     c.history.Entries(),
		Hovered:    c.hovered,
		Selected:   c.selected,
	}
	if c.scene.star != nil {
		f.Star = *c.scene.star
	}
	f.Bodies = make([]Body, 0, len(c.scene.bodies))
	for _, b := range c.scene.bodies {
		f.Bodies = append(f.Bodies, *b)
	}
	if c.transition != nil {
		t := *c.transition
		f.Transition = &t
	}
	return f
}

func (c *Controller) inputEnabled() bool {
	return c.state == Viewing && c.view == SceneView
}

// enter makes path current and records the visit.
func (c *Controller) enter(path string) {
	c.history.Push(path)
	c.store.WriteHistory(c.history.Entries())
	c.current = path
	c.breadcrumb = navigation.FromPath(path)
	c.state = Viewing
	if err := c.watcher.Watch(path); err != nil {
		c.log.Debug("watch failed", zap.String("path", path), zap.Error(err))
	}
}

// jump moves to path without touching the back/forward stacks; those were
// already updated by the caller.
func (c *Controller) jump(path string) {
	c.cancelTransition()
	c.current = path
	c.breadcrumb = navigation.FromPath(path)
	if err := c.watcher.Watch(path); err != nil {
		c.log.Debug("watch failed", zap.String("path", path), zap.Error(err))
	}
	c.respawn()
}

func (c *Controller) startTransition(kind TransitionKind, target Point, d time.Duration) {
	t := Transition{Kind: kind, Target: target, Started: c.now(), Duration: d}
	c.transition = &t
	c.mode = Animating
	c.renderer.StartTransition(t)
}

func (c *Controller) cancelTransition() {
	c.transition = nil
	c.mode = Idle
}

func (c *Controller) teardown() {
	c.scene = newScene()
	c.hovered = 0
	c.selected = 0
	c.renderer.Despawn()
}

// respawn runs the read→render flow for the current directory. Directory
// sizes come from the store when fresh; the rest spawn pending and are
// handed to the dispatcher.
func (c *Controller) respawn() {
	c.teardown()
	if c.current == "" {
		return
	}
	c.state = Loading
	entries := c.listing(c.current)

	sc := newScene()
	star := &Body{
		ID:    EntityFor(c.current),
		Name:  starName(c.current),
		Path:  c.current,
		IsDir: true,
		Star:  true,
	}
	if info, err := os.Stat(c.current); err == nil {
		star.ModTime = info.ModTime()
	}
	sc.add(star)

	limit := c.cfg.Display.MaxItems
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	sc.overflow = len(entries) - limit

	var pending []string
	for i, entry := range entries[:limit] {
		body := &Body{
			ID:      EntityFor(entry.Path),
			Name:    entry.Name,
			Path:    entry.Path,
			Size:    entry.Size,
			ModTime: entry.ModTime,
			IsDir:   entry.IsDir,
			Slot:    i,
		}
		if entry.IsDir {
			if size, ok := c.store.GetSize(entry.Path); ok {
				body.Size = size
			} else {
				body.Pending = true
				pending = append(pending, entry.Path)
			}
			body.Children = c.reader.CountItems(entry.Path)
		}
		sc.add(body)
	}

	c.scene = sc
	c.state = Viewing
	c.dispatcher.Dispatch(pending)
	c.renderer.Spawn(c.Frame())

	c.log.Debug("spawned bodies",
		zap.String("path", c.current),
		zap.Int("bodies", len(sc.bodies)+1),
		zap.Int("pending", len(pending)),
		zap.Int("overflow", sc.overflow))
}

// listing reads through the volatile cache.
func (c *Controller) listing(path string) []fsread.FileEntry {
	if entries, ok := c.cache.Get(path); ok {
		return entries
	}
	entries := c.reader.ReadDirectory(path)
	c.cache.Insert(path, entries)
	return entries
}

func starName(path string) string {
	if filepath.Dir(path) == path {
		return navigation.RootLabel
	}
	return filepath.Base(path)
}

func resolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	return abs, nil
}
