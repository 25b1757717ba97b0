// Package softgl renders the shadow pipeline on the CPU. The depth pass runs
// serially into a shadow.DepthMap; the shading pass splits the colour
// target into row bands shaded in parallel on a worker pool.
package softgl

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"shadow-engine/core"
	"shadow-engine/internal/snapshot"
	"shadow-engine/math"
	"shadow-engine/scene"
	"shadow-engine/shadow"
)

// Options configures a Backend.
type Options struct {
	Width, Height int
	ShadowMapSize int
	// Workers is the shading pool size; 0 uses GOMAXPROCS.
	Workers int
	// BandHeight is the number of rows per shading task; 0 picks 32.
	BandHeight int
}

// Backend is a software implementation of the two-pass renderer.
type Backend struct {
	width, height int
	bandHeight    int

	depth *shadow.DepthMap
	bias  shadow.DepthBias

	color   *image.RGBA
	zbuf    []float32
	frame   *shadow.Frame
	draws   []drawCall
	pool    worker.DynamicWorkerPool
	workers int
	frames  int
}

// drawCall is one queued shaded draw with its vertices already in clip
// and world space.
type drawCall struct {
	name     string
	geometry *scene.Geometry
	clip     []math.Vec4
	world    []math.Vec3
	normals  []math.Vec3
	material *scene.Material
	texture  *scene.Texture
}

func (d *drawCall) SetMaterial(m *scene.Material) { d.material = m }

func (d *drawCall) BindTexture(unit int, tex *scene.Texture) {
	if unit == scene.DiffuseTextureUnit {
		d.texture = tex
	}
}

func New(opts Options) (*Backend, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("softgl: target %dx%d must be positive", opts.Width, opts.Height)
	}
	if opts.ShadowMapSize <= 0 {
		return nil, fmt.Errorf("softgl: shadow map size %d must be positive", opts.ShadowMapSize)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	band := opts.BandHeight
	if band <= 0 {
		band = 32
	}

	b := &Backend{
		width:      opts.Width,
		height:     opts.Height,
		bandHeight: band,
		depth:      shadow.NewDepthMap(opts.ShadowMapSize, opts.ShadowMapSize),
		color:      image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		zbuf:       make([]float32, opts.Width*opts.Height),
		pool:       worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers:    workers,
	}
	core.Logger().Info("software backend ready",
		"width", opts.Width, "height", opts.Height,
		"shadow_map", opts.ShadowMapSize, "workers", workers)
	return b, nil
}

// Resize reallocates the colour and depth targets.
func (b *Backend) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == b.width && height == b.height) {
		return
	}
	b.width, b.height = width, height
	b.color = image.NewRGBA(image.Rect(0, 0, width, height))
	b.zbuf = make([]float32, width*height)
}

func (b *Backend) ShadowMap() *shadow.DepthMap { return b.depth }

func (b *Backend) BeginDepthPass(bias shadow.DepthBias) {
	b.bias = bias
	b.depth.Clear()
}

// DrawDepth writes obj's triangles into the shadow map using positions only.
func (b *Backend) DrawDepth(obj *scene.Object, lightMVP math.Mat4) {
	b.depth.DrawGeometry(obj.Geometry, lightMVP, b.bias)
}

func (b *Backend) EndDepthPass() {}

func (b *Backend) BeginShadingPass(frame *shadow.Frame) {
	b.frame = frame
	b.draws = b.draws[:0]

	c := color.RGBA{
		R: toByte(frame.ClearColor[0]),
		G: toByte(frame.ClearColor[1]),
		B: toByte(frame.ClearColor[2]),
		A: toByte(frame.ClearColor[3]),
	}
	pix := b.color.Pix
	if len(pix) > 0 {
		pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
		for i := 4; i < len(pix); i *= 2 {
			copy(pix[i:], pix[:i])
		}
	}
	if len(b.zbuf) > 0 {
		b.zbuf[0] = 1
		for i := 1; i < len(b.zbuf); i *= 2 {
			copy(b.zbuf[i:], b.zbuf[:i])
		}
	}
}

// DrawShaded queues obj; the queue is shaded when the pass ends.
func (b *Backend) DrawShaded(obj *scene.Object, model, mvp math.Mat4) {
	g := obj.Geometry
	if g == nil || g.VertexCount == 0 {
		return
	}
	dc := drawCall{
		name:     obj.Name,
		geometry: g,
		clip:     make([]math.Vec4, g.VertexCount),
		world:    make([]math.Vec3, g.VertexCount),
		normals:  make([]math.Vec3, g.VertexCount),
	}
	for i := 0; i < g.VertexCount; i++ {
		p := g.Position(i).ToVec4(1)
		dc.clip[i] = p.MulMat(mvp)
		dc.world[i] = p.MulMat(model).ToVec3()
		dc.normals[i] = model.TransformDirection(g.Normal(i))
	}
	obj.TransferMaterialAndTextures(&dc)
	b.draws = append(b.draws, dc)
}

// EndShadingPass shades the queued draws band by band and waits for every
// band to finish.
func (b *Backend) EndShadingPass() {
	if b.frame == nil || b.pool == nil {
		return
	}
	start := time.Now()

	var wg sync.WaitGroup
	id := 0
	for y0 := 0; y0 < b.height; y0 += b.bandHeight {
		y1 := min(y0+b.bandHeight, b.height)
		wg.Add(1)
		lo, hi := y0, y1
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := range b.draws {
					b.shadeBand(&b.draws[i], lo, hi)
				}
				return nil, nil
			},
		})
		id++
	}
	wg.Wait()

	b.frames++
	core.Logger().Debug("shading pass",
		"draws", len(b.draws), "bands", id, "elapsed", time.Since(start))
	b.frame = nil
}

func (b *Backend) shadeBand(dc *drawCall, y0, y1 int) {
	frame := b.frame
	texel := 1 / float32(b.depth.Width)
	g := dc.geometry
	g.Triangles(func(i0, i1, i2 int) {
		clip := [3]math.Vec4{dc.clip[i0], dc.clip[i1], dc.clip[i2]}
		shadow.RasterizeRows(clip, b.width, b.height, y0, y1, func(f shadow.Fragment) {
			zi := f.Y*b.width + f.X
			if f.Depth >= b.zbuf[zi] {
				return
			}
			b.zbuf[zi] = f.Depth

			w := f.Bary
			world := math.Barycentric3(dc.world[i0], dc.world[i1], dc.world[i2], w.X, w.Y, w.Z)
			normal := math.Barycentric3(dc.normals[i0], dc.normals[i1], dc.normals[i2], w.X, w.Y, w.Z)
			tex := core.ColorWhite
			if dc.texture != nil && g.Layout.HasUVs() {
				uv := math.Barycentric2(g.UV(i0), g.UV(i1), g.UV(i2), w.X, w.Y, w.Z)
				tex = dc.texture.Sample(uv.X, uv.Y)
			}

			c := scene.Shade(frame.Lighting, scene.SurfacePoint{
				Position: world,
				Normal:   normal,
				Eye:      frame.Eye,
				Material: dc.material,
				Texel:    tex,
			}, frame.Visibility(b.depth, texel, world))

			b.color.SetRGBA(f.X, b.height-1-f.Y, color.RGBA{
				R: toByte(c.R), G: toByte(c.G), B: toByte(c.B), A: toByte(c.A),
			})
		})
	})
}

// Image returns the colour target, top row first.
func (b *Backend) Image() *image.RGBA { return b.color }

// Frames reports how many shading passes have completed.
func (b *Backend) Frames() int { return b.frames }

// WritePNG encodes the colour target to path. A positive width scales the
// image to that width, keeping the aspect ratio.
func (b *Backend) WritePNG(path string, width int) error {
	return snapshot.WritePNG(path, b.color, width)
}

// Release drops the targets and ends the shading workers. Calling it again
// is a no-op.
func (b *Backend) Release() {
	if b.pool == nil {
		return
	}
	b.retireWorkers()
	b.pool = nil
	b.color = image.NewRGBA(image.Rectangle{})
	b.zbuf = nil
	b.draws = nil
	b.width, b.height = 0, 0
}

// retireWorkers ends every pool goroutine and waits for them. The pool's
// Stop lets one worker swallow another's stop signal, so each worker is
// handed a task that ends its own goroutine instead. A worker that took one
// never reads the queue again, so every worker takes exactly one.
func (b *Backend) retireWorkers() {
	var wg sync.WaitGroup
	wg.Add(b.workers)
	for i := 0; i < b.workers; i++ {
		b.pool.SubmitTask(worker.Task{
			ID: -1 - i,
			Do: func() (any, error) {
				defer wg.Done()
				runtime.Goexit()
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
