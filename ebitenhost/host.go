// Package ebitenhost runs a cadence scene inside an Ebitengine game loop.
//
// Ebitengine calls Update on a fixed tick; the host owns a dispatcher
// created on that goroutine, advances a manual time source by one tick per
// Update and draws each visible node's box as a filled rectangle.
package ebitenhost

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/cadence"
)

// ErrQuit ends Run without reporting an error when returned from an
// UpdateFunc.
var ErrQuit = errors.New("ebitenhost: quit")

// SetupFunc builds the scene once the dispatcher exists. It runs on the game
// loop goroutine.
type SetupFunc func(d *cadence.Dispatcher) (*cadence.Scene, error)

// UpdateFunc runs after each scene update. Returning ErrQuit ends the loop.
type UpdateFunc func(s *cadence.Scene) error

// RunConfig configures the window and loop.
type RunConfig struct {
	Title  string
	Width  int
	Height int

	// TPS is the tick rate. Zero keeps Ebitengine's default of 60.
	TPS int

	// ShowStats draws tick rate, frame and ticker counts in the corner.
	ShowStats bool

	// ClearColor fills the screen before nodes are drawn.
	ClearColor cadence.Color

	// Resizable allows the window to be resized.
	Resizable bool

	// Debug enables per-frame dispatcher stats at debug level.
	Debug bool

	// OnUpdate runs after each scene update.
	OnUpdate UpdateFunc
}

// Game adapts a cadence scene to ebiten.Game.
type Game struct {
	cfg   RunConfig
	setup SetupFunc
	clock *cadence.ManualTimeSource
	d     *cadence.Dispatcher
	scene *cadence.Scene
	pixel *ebiten.Image
}

// NewGame returns a game that calls setup on its first Update.
func NewGame(setup SetupFunc, cfg RunConfig) *Game {
	if setup == nil {
		panic("ebitenhost: nil setup")
	}
	return &Game{cfg: cfg, setup: setup, clock: &cadence.ManualTimeSource{}}
}

// Scene returns the scene, or nil before the first Update.
func (g *Game) Scene() *cadence.Scene { return g.scene }

// Dispatcher returns the dispatcher, or nil before the first Update.
func (g *Game) Dispatcher() *cadence.Dispatcher { return g.d }

// Update implements ebiten.Game. The dispatcher is created lazily so it is
// owned by the game loop goroutine.
func (g *Game) Update() error {
	if g.scene == nil {
		if err := g.init(); err != nil {
			return err
		}
	} else {
		g.clock.Advance(tickDuration(ebiten.TPS()))
	}
	if err := g.scene.Update(); err != nil {
		return err
	}
	if sc := g.scene.Script(); sc != nil && sc.Err() != nil {
		return sc.Err()
	}
	if g.cfg.OnUpdate != nil {
		return g.cfg.OnUpdate(g.scene)
	}
	return nil
}

func (g *Game) init() error {
	g.d = cadence.NewDispatcher(cadence.DispatcherConfig{
		Name:       "ebitenhost",
		TimeSource: g.clock,
		Debug:      g.cfg.Debug,
	})
	scene, err := g.setup(g.d)
	if err != nil {
		return fmt.Errorf("ebitenhost: setup: %w", err)
	}
	if scene == nil {
		return fmt.Errorf("ebitenhost: setup returned no scene")
	}
	g.scene = scene
	cadence.Logger().Info("ebitenhost started", "title", g.cfg.Title, "tps", ebiten.TPS())
	return nil
}

// tickDuration returns the length of one tick at tps.
func tickDuration(tps int) time.Duration {
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return time.Second / time.Duration(tps)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.cfg.ClearColor.NRGBA())
	if g.scene == nil {
		return
	}
	if g.pixel == nil {
		g.pixel = ebiten.NewImage(1, 1)
		g.pixel.Fill(color.White)
	}
	g.drawNode(screen, g.scene.Root())
	if g.cfg.ShowStats {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %.1f\nFrame: %d\nTickers: %d\nQueued: %d",
			ebiten.ActualTPS(), g.scene.Frame(), g.d.Tickers(), g.d.Pending()))
	}
}

func (g *Game) drawNode(screen *ebiten.Image, n *cadence.Node) {
	if !n.Visible {
		return
	}
	if n.Fill != nil && n.Width > 0 && n.Height > 0 {
		var op ebiten.DrawImageOptions
		op.GeoM = nodeGeoM(n)
		r, gr, b, a := fillColor(n)
		op.ColorScale.Scale(r*a, gr*a, b*a, a)
		screen.DrawImage(g.pixel, &op)
	}
	for _, c := range n.Children() {
		g.drawNode(screen, c)
	}
}

// nodeGeoM maps the unit pixel onto the node's box in world space.
func nodeGeoM(n *cadence.Node) ebiten.GeoM {
	w := n.WorldTransform()
	var world ebiten.GeoM
	world.SetElement(0, 0, w.A)
	world.SetElement(1, 0, w.B)
	world.SetElement(0, 1, w.C)
	world.SetElement(1, 1, w.D)
	world.SetElement(0, 2, w.TX)
	world.SetElement(1, 2, w.TY)

	var m ebiten.GeoM
	m.Scale(n.Width, n.Height)
	m.Concat(world)
	return m
}

// fillColor combines the node's tint, fill brush and world alpha into
// non-premultiplied channels.
func fillColor(n *cadence.Node) (r, g, b, a float32) {
	c := n.Fill.Color
	r = float32(clamp01(c.R * n.Color.R))
	g = float32(clamp01(c.G * n.Color.G))
	b = float32(clamp01(c.B * n.Color.B))
	a = float32(clamp01(c.A * n.Color.A * n.Fill.Opacity * n.WorldAlpha()))
	return r, g, b, a
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.cfg.Width > 0 && g.cfg.Height > 0 {
		return g.cfg.Width, g.cfg.Height
	}
	return outsideWidth, outsideHeight
}

// Run opens a window and runs the game loop until the window closes or an
// update returns ErrQuit.
func Run(setup SetupFunc, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	err := ebiten.RunGame(NewGame(setup, cfg))
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}
