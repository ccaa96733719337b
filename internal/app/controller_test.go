package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tw93/probe/internal/config"
	"github.com/tw93/probe/internal/sizecalc"
	"github.com/tw93/probe/internal/sizestore"
)

type recordingRenderer struct {
	spawns      []Frame
	despawns    int
	updates     []Body
	transitions []Transition
}

func (r *recordingRenderer) Spawn(f Frame) { r.spawns = append(r.spawns, f) }
func (r *recordingRenderer) Despawn() { r.despawns++ }
func (r *recordingRenderer) UpdateBody(b Body) { r.updates = append(r.updates, b) }
func (r *recordingRenderer) StartTransition(t Transition) { r.transitions = append(r.transitions, t) }

type harness struct {
	c    *Controller
	r    *recordingRenderer
	d    *sizecalc.Dispatcher
	root string
	now  time.Time
	cfg  *config.Config
}

// buildTree creates:
//
//	root/alpha/x      100 bytes
//	root/alpha/sub/y   50 bytes
//	root/beta/
//	root/.hidden/
//	root/a.txt         10 bytes
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "alpha", "x"), 100)
	mustWrite(t, filepath.Join(root, "alpha", "sub", "y"), 50)
	mustMkdir(t, filepath.Join(root, "beta"))
	mustMkdir(t, filepath.Join(root, ".hidden"))
	mustWrite(t, filepath.Join(root, "a.txt"), 10)
	return root
}

func mustWrite(t *testing.T, path string, size int) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func newHarness(t *testing.T, store *sizestore.Store, tweak func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(cfg)
	}
	h := &harness{
		r:    &recordingRenderer{},
		d:    sizecalc.NewDispatcher(&sizecalc.WalkStrategy{Workers: 1}, 100, nil),
		root: buildTree(t),
		now:  time.Unix(1_700_000_000, 0),
		cfg:  cfg,
	}
	t.Cleanup(h.d.Close)
	h.c = New(Options{
		Config:     cfg,
		Store:      store,
		Dispatcher: h.d,
		Renderer:   h.r,
		Now:        func() time.Time { return h.now },
	})
	return h
}

// settle waits for dispatched sizes and drains them.
func (h *harness) settle() {
	h.d.Wait()
	h.c.Tick()
}

func (h *harness) body(t *testing.T, name string) Body {
	t.Helper()
	for _, b := range h.c.Frame().Bodies {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("no body named %q", name)
	return Body{}
}

func TestController_FolderChosenLandsInViewingIdle(t *testing.T) {
	h := newHarness(t, nil, nil)
	if h.c.State() != NoFolder {
		t.Fatalf("initial state = %v", h.c.State())
	}

	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	if h.c.State() != Viewing || h.c.Mode() != Idle {
		t.Fatalf("state = %v/%v, want viewing/idle", h.c.State(), h.c.Mode())
	}

	f := h.c.Frame()
	if f.Current != h.root {
		t.Errorf("Current = %q", f.Current)
	}
	if f.Star.Path != h.root || !f.Star.Star {
		t.Errorf("star = %+v", f.Star)
	}
	var names []string
	for _, b := range f.Bodies {
		names = append(names, b.Name)
	}
	want := []string{"alpha", "beta", "a.txt"}
	if len(names) != len(want) {
		t.Fatalf("bodies = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("body %d = %q, want %q", i, names[i], want[i])
		}
	}
	if last := f.Breadcrumb[len(f.Breadcrumb)-1]; last.Path != h.root {
		t.Errorf("breadcrumb ends at %q", last.Path)
	}
	if len(f.Recent) != 1 || f.Recent[0] != h.root {
		t.Errorf("Recent = %v", f.Recent)
	}
	if len(h.r.spawns) != 1 {
		t.Errorf("spawns = %d, want 1", len(h.r.spawns))
	}
}

func TestController_ChooseFolderRejectsFiles(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(filepath.Join(h.root, "a.txt")); err == nil {
		t.Error("expected error for a file")
	}
	if err := h.c.ChooseFolder(filepath.Join(h.root, "missing")); err == nil {
		t.Error("expected error for a missing path")
	}
	if h.c.State() != NoFolder {
		t.Errorf("state = %v", h.c.State())
	}
}

func TestController_PendingSizesResolve(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}

	alpha := h.body(t, "alpha")
	if !alpha.Pending || alpha.Size != 0 {
		t.Fatalf("alpha before results = %+v", alpha)
	}
	if alpha.Children != 2 {
		t.Errorf("alpha children = %d, want 2", alpha.Children)
	}
	if file := h.body(t, "a.txt"); file.Pending || file.Size != 10 {
		t.Errorf("a.txt = %+v", file)
	}

	h.settle()

	alpha = h.body(t, "alpha")
	if alpha.Pending || alpha.Size != 150 {
		t.Errorf("alpha after results = %+v, want size 150", alpha)
	}
	if beta := h.body(t, "beta"); beta.Pending || beta.Size != 0 {
		t.Errorf("beta after results = %+v", beta)
	}
	if len(h.r.updates) != 2 {
		t.Errorf("renderer updates = %d, want 2", len(h.r.updates))
	}
}

func TestController_LateResultsDropped(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	if err := h.c.NavigateTo(filepath.Join(h.root, "beta")); err != nil {
		t.Fatal(err)
	}
	h.settle()

	if len(h.r.updates) != 0 {
		t.Errorf("results for abandoned bodies reached the renderer: %+v", h.r.updates)
	}
	if n := len(h.c.Frame().Bodies); n != 0 {
		t.Errorf("beta bodies = %d", n)
	}
}

func TestController_DrilldownAnimatesThenRespawns(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	alpha := h.body(t, "alpha")
	despawns := h.r.despawns

	if !h.c.DrillDown(alpha.ID, Point{X: 1}) {
		t.Fatal("DrillDown refused")
	}
	if h.c.State() != Viewing || h.c.Mode() != Animating {
		t.Fatalf("state = %v/%v, want viewing/animating", h.c.State(), h.c.Mode())
	}
	if h.r.despawns <= despawns {
		t.Error("bodies were not torn down on drilldown")
	}
	if n := len(h.c.Frame().Bodies); n != 0 {
		t.Errorf("bodies during animation = %d", n)
	}
	if h.c.Current() != alpha.Path {
		t.Errorf("Current = %q", h.c.Current())
	}
	if len(h.r.transitions) != 1 || h.r.transitions[0].Kind != Drilldown {
		t.Errorf("transitions = %+v", h.r.transitions)
	}

	// Input is ignored mid-animation.
	if h.c.ResetView() {
		t.Error("ResetView honored while animating")
	}

	h.now = h.now.Add(h.cfg.Camera.Drilldown / 2)
	h.c.Tick()
	if h.c.Mode() != Animating {
		t.Fatal("animation ended early")
	}

	h.now = h.now.Add(h.cfg.Camera.Drilldown)
	h.c.Tick()
	if h.c.Mode() != Idle {
		t.Fatalf("mode = %v after animation", h.c.Mode())
	}
	f := h.c.Frame()
	if f.Star.Path != alpha.Path {
		t.Errorf("respawned star = %q", f.Star.Path)
	}
	if len(f.Bodies) != 2 {
		t.Errorf("alpha bodies = %d, want 2", len(f.Bodies))
	}
}

func TestController_AnimationCompleteEvent(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	if !h.c.ResetView() {
		t.Fatal("ResetView refused in idle")
	}
	if h.c.Mode() != Animating {
		t.Fatal("ResetView did not animate")
	}
	h.c.AnimationComplete()
	if h.c.Mode() != Idle {
		t.Errorf("mode = %v", h.c.Mode())
	}
	if h.c.Frame().Transition != nil {
		t.Error("transition left behind")
	}
}

func TestController_DrilldownIgnoresFilesAndStar(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	if h.c.DrillDown(h.body(t, "a.txt").ID, Point{}) {
		t.Error("drilled into a file")
	}
	if h.c.DrillDown(h.c.Frame().Star.ID, Point{}) {
		t.Error("drilled into the current directory")
	}
	if h.c.DrillDown(EntityFor("/nowhere"), Point{}) {
		t.Error("drilled into an unknown body")
	}
}

func TestController_NavigateToCutsAnimation(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	h.c.DrillDown(h.body(t, "alpha").ID, Point{})

	if err := h.c.NavigateTo(h.root); err != nil {
		t.Fatal(err)
	}
	if h.c.Mode() != Idle {
		t.Errorf("mode = %v, want idle", h.c.Mode())
	}
	if n := len(h.c.Frame().Bodies); n != 3 {
		t.Errorf("bodies = %d, want 3", n)
	}
}

func TestController_BackForwardUp(t *testing.T) {
	h := newHarness(t, nil, nil)
	alpha := filepath.Join(h.root, "alpha")
	sub := filepath.Join(alpha, "sub")

	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	if err := h.c.NavigateTo(alpha); err != nil {
		t.Fatal(err)
	}
	if err := h.c.NavigateTo(sub); err != nil {
		t.Fatal(err)
	}

	if !h.c.Back() || h.c.Current() != alpha {
		t.Fatalf("Back -> %q, want %q", h.c.Current(), alpha)
	}
	if !h.c.Back() || h.c.Current() != h.root {
		t.Fatalf("Back -> %q, want root", h.c.Current())
	}
	if h.c.Back() {
		t.Error("Back past the first folder")
	}
	if !h.c.Forward() || h.c.Current() != alpha {
		t.Fatalf("Forward -> %q, want %q", h.c.Current(), alpha)
	}

	if !h.c.Up() || h.c.Current() != h.root {
		t.Fatalf("Up -> %q, want root", h.c.Current())
	}
	if h.c.Forward() {
		t.Error("forward stack survived a new navigation")
	}
}

func TestController_SettingsViewGatesInput(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	alpha := h.body(t, "alpha")

	h.c.Hover(alpha.ID)
	if h.c.Frame().Hovered != alpha.ID {
		t.Fatal("hover not recorded")
	}

	h.c.ShowSettings()
	if h.c.Frame().Hovered != 0 {
		t.Error("hover survived switching to settings")
	}
	h.c.Hover(alpha.ID)
	h.c.Select(alpha.ID)
	if f := h.c.Frame(); f.Hovered != 0 || f.Selected != 0 {
		t.Errorf("input leaked through settings view: %+v", f)
	}
	if h.c.DrillDown(alpha.ID, Point{}) {
		t.Error("drilldown through settings view")
	}

	h.c.ShowScene()
	h.c.Select(alpha.ID)
	if h.c.Frame().Selected != alpha.ID {
		t.Error("select ignored on scene view")
	}
	h.c.ClearSelection()
	if h.c.Frame().Selected != 0 {
		t.Error("selection not cleared")
	}
}

func TestController_DisplayCapAndOverflow(t *testing.T) {
	h := newHarness(t, nil, func(cfg *config.Config) { cfg.Display.MaxItems = 2 })
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	f := h.c.Frame()
	if len(f.Bodies) != 2 || f.Overflow != 1 {
		t.Errorf("bodies = %d overflow = %d, want 2 and 1", len(f.Bodies), f.Overflow)
	}
}

func TestController_ShowHiddenRespawns(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	h.c.SetShowHidden(true)
	if n := len(h.c.Frame().Bodies); n != 4 {
		t.Errorf("bodies with hidden = %d, want 4", n)
	}
	h.c.SetShowHidden(false)
	if n := len(h.c.Frame().Bodies); n != 3 {
		t.Errorf("bodies without hidden = %d, want 3", n)
	}
}

func TestController_HistoryLimitClamped(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.c.SetHistoryLimit(99)
	if got := h.c.HistoryLimit(); got != 30 {
		t.Errorf("HistoryLimit = %d, want 30", got)
	}
	h.c.SetHistoryLimit(1)
	if got := h.c.HistoryLimit(); got != 10 {
		t.Errorf("HistoryLimit = %d, want 10", got)
	}
}

func TestController_RefreshPicksUpNewEntries(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(h.root, "b.txt"), 1)

	h.c.Respawn()
	if n := len(h.c.Frame().Bodies); n != 3 {
		t.Errorf("cached listing should hide the new file, got %d bodies", n)
	}
	h.c.Refresh()
	if n := len(h.c.Frame().Bodies); n != 4 {
		t.Errorf("after refresh bodies = %d, want 4", n)
	}
}

func TestController_StoreAcceleratesSizes(t *testing.T) {
	storeDir := t.TempDir()
	opts := sizestore.Options{Dir: storeDir, SizeTTL: time.Hour}

	store, err := sizestore.Open(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, store, nil)
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = sizestore.Open(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	alphaPath := filepath.Join(h.root, "alpha")
	if size, ok := store.GetSize(alphaPath); !ok || size != 150 {
		t.Fatalf("stored alpha = %d, %v", size, ok)
	}
	if history := store.LoadHistory(); len(history) != 1 || history[0] != h.root {
		t.Errorf("stored history = %v", history)
	}

	h2 := &harness{r: &recordingRenderer{}, d: sizecalc.NewDispatcher(&sizecalc.WalkStrategy{}, 100, nil)}
	t.Cleanup(h2.d.Close)
	h2.c = New(Options{Store: store, Dispatcher: h2.d, Renderer: h2.r})
	h2.c.RestoreHistory()
	if recent := h2.c.Frame().Recent; len(recent) != 1 || recent[0] != h.root {
		t.Errorf("restored history = %v", recent)
	}
	if err := h2.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}
	if alpha := h2.body(t, "alpha"); alpha.Pending || alpha.Size != 150 {
		t.Errorf("alpha from store = %+v", alpha)
	}
}

func TestController_Tooltip(t *testing.T) {
	h := newHarness(t, nil, nil)
	if _, ok := h.c.Tooltip(); ok {
		t.Error("tooltip with nothing hovered")
	}
	if err := h.c.ChooseFolder(h.root); err != nil {
		t.Fatal(err)
	}

	h.c.Hover(h.body(t, "alpha").ID)
	tip, ok := h.c.Tooltip()
	if !ok || tip.Name != "alpha" || tip.Size != "calculating..." || tip.Kind != "directory" {
		t.Errorf("pending tooltip = %+v", tip)
	}

	h.settle()
	h.c.Hover(h.body(t, "a.txt").ID)
	tip, _ = h.c.Tooltip()
	if tip.Size != "10 B" || tip.Kind != "file" {
		t.Errorf("file tooltip = %+v", tip)
	}
}

func TestEntityFor_Stable(t *testing.T) {
	if EntityFor("/a") != EntityFor("/a") {
		t.Error("EntityFor is not deterministic")
	}
	if EntityFor("/a") == EntityFor("/b") {
		t.Error("distinct paths collided")
	}
}

func TestTransition_Progress(t *testing.T) {
	start := time.Unix(0, 0)
	tr := Transition{Started: start, Duration: time.Second}
	if p := tr.Progress(start); p != 0 {
		t.Errorf("progress at start = %v", p)
	}
	if p := tr.Progress(start.Add(2 * time.Second)); p != 1 {
		t.Errorf("progress after end = %v", p)
	}
	if p := tr.Progress(start.Add(500 * time.Millisecond)); p <= 0.5 || p >= 1 {
		t.Errorf("eased midpoint = %v, want ease-out above 0.5", p)
	}
}
