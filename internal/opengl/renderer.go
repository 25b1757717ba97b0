// Package opengl implements the shadow pipeline on an OpenGL 4.1 core
// context. Every call must come from the goroutine that owns the context.
package opengl

import (
	"fmt"
	"image"
	gomath "math"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"shadow-engine/core"
	"shadow-engine/internal/snapshot"
	"shadow-engine/math"
	"shadow-engine/scene"
	"shadow-engine/shadow"
)

// Options configures a Renderer.
type Options struct {
	Width, Height int
	ShadowMapSize int
}

// Renderer is the OpenGL backend: a depth-only program rendering into a
// ShadowMap and a Phong program that samples it.
type Renderer struct {
	depthProg *program
	shadeProg *program
	shadowMap *ShadowMap

	viewportW int32
	viewportH int32

	frame      *shadow.Frame
	hasTexture bool
	layout     scene.Layout
	warned     bool
	frames     int

	// textures whose upload failed; they are drawn untextured
	badTextures map[*scene.Texture]struct{}
}

// NewRenderer loads the GL entry points and builds both programs. The
// window's context must be current.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("opengl: target %dx%d must be positive", opts.Width, opts.Height)
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	core.Logger().Info("opengl ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	depthProg, err := newProgram("depth", depthVertSrc, depthFragSrc)
	if err != nil {
		return nil, fmt.Errorf("depth shader: %w", err)
	}
	shadeProg, err := newProgram("shade", shadeVertSrc, shadeFragSrc)
	if err != nil {
		depthProg.release()
		return nil, fmt.Errorf("shade shader: %w", err)
	}
	sm, err := NewShadowMap(opts.ShadowMapSize)
	if err != nil {
		depthProg.release()
		shadeProg.release()
		return nil, err
	}

	r := &Renderer{depthProg: depthProg, shadeProg: shadeProg, shadowMap: sm}

	shadeProg.use()
	shadeProg.setInt("diffuseTex", scene.DiffuseTextureUnit)
	shadeProg.setInt("shadowMap", scene.ShadowTextureUnit)
	shadeProg.setMat4("lightViewProj", math.Mat4Identity())

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	r.Resize(opts.Width, opts.Height)
	return r, nil
}

// Resize sets the viewport restored after each depth pass.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

func (r *Renderer) ShadowMap() *ShadowMap { return r.shadowMap }
func (r *Renderer) Frames() int           { return r.frames }

// BeginDepthPass binds the shadow target and enables the polygon offset
// depth' = depth + Slope·m + Constant·r.
func (r *Renderer) BeginDepthPass(bias shadow.DepthBias) {
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	r.shadowMap.bind()
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(bias.Slope, bias.Constant)
	r.depthProg.use()
}

// DrawDepth draws obj's positions into the shadow map. Lines and points
// cast no shadow.
func (r *Renderer) DrawDepth(obj *scene.Object, lightMVP math.Mat4) {
	m := ensureUploaded(obj)
	if m == nil || !m.isTriangles() {
		return
	}
	r.depthProg.setMat4("lightMVP", lightMVP)
	m.draw()
}

// EndDepthPass restores the default framebuffer and viewport.
func (r *Renderer) EndDepthPass() {
	gl.Disable(gl.POLYGON_OFFSET_FILL)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

// BeginShadingPass clears the default framebuffer, binds the shadow map to
// its unit and uploads the lights.
func (r *Renderer) BeginShadingPass(frame *shadow.Frame) {
	r.frame = frame
	c := frame.ClearColor
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.shadeProg
	p.use()
	p.setMat4("lightViewProj", frame.LightViewProjection)
	p.setVec3("eyePos", frame.Eye)
	p.setInt("shadowLight", int32(frame.LightIndex))
	p.setFloat("shadowBias", frame.ShaderBias)
	p.setFloat("shadowTexel", 1/float32(r.shadowMap.Size))
	p.setBool("pcf", frame.PCF)

	gl.ActiveTexture(gl.TEXTURE0 + scene.ShadowTextureUnit)
	gl.BindTexture(gl.TEXTURE_2D, r.shadowMap.DepthTex)
	r.shadowMap.setFilter(frame.PCF)

	r.uploadLights(frame.Lighting)
}

func (r *Renderer) uploadLights(export scene.LightingExport) {
	p := r.shadeProg
	p.setBool("lightingEnabled", export.Enabled)
	p.setColor("globalAmbient", export.GlobalAmbient.Array())

	lights := export.Lights
	if len(lights) > maxLights {
		if !r.warned {
			core.Logger().Warn("too many active lights, extra lights ignored", "active", len(lights), "max", maxLights)
			r.warned = true
		}
		lights = lights[:maxLights]
	}
	p.setInt("lightCount", int32(len(lights)))
	for i, l := range lights {
		at := func(name string) string { return fmt.Sprintf("%s[%d]", name, i) }
		p.setInt(at("lightIndex"), int32(l.Index))
		p.setVec4(at("lightPosition"), l.Position)
		p.setColor(at("lightAmbient"), l.Ambient.Array())
		p.setColor(at("lightDiffuse"), l.Diffuse.Array())
		p.setColor(at("lightSpecular"), l.Specular.Array())
		p.setVec3(at("lightSpotDir"), l.SpotDirection)
		p.setFloat(at("lightSpotExp"), l.SpotExponent)
		p.setFloat(at("lightSpotCos"), float32(gomath.Cos(float64(math.DegToRad(l.SpotCutoff)))))
		p.setBool(at("lightIsSpot"), l.IsSpot())
		p.setVec3(at("lightAtten"), l.Attenuation)
	}
}

// DrawShaded draws obj with its material and textures.
func (r *Renderer) DrawShaded(obj *scene.Object, model, mvp math.Mat4) {
	m := ensureUploaded(obj)
	if m == nil {
		return
	}
	p := r.shadeProg
	p.setMat4("mvp", mvp)
	p.setMat4("model", model)

	r.hasTexture = false
	r.layout = m.layout
	obj.TransferMaterialAndTextures(r)
	p.setBool("hasTexture", r.hasTexture)
	m.draw()
}

// SetMaterial uploads the Phong material of the object being drawn.
func (r *Renderer) SetMaterial(mat *scene.Material) {
	p := r.shadeProg
	p.setColor("matEmission", mat.Emission.Array())
	p.setColor("matAmbient", mat.Ambient.Array())
	p.setColor("matDiffuse", mat.Diffuse.Array())
	p.setColor("matSpecular", mat.Specular.Array())
	p.setFloat("matShininess", mat.Shininess)
}

// BindTexture uploads tex if needed and binds it to unit. Only the diffuse
// unit is read by the shading program.
func (r *Renderer) BindTexture(unit int, tex *scene.Texture) {
	if unit == scene.ShadowTextureUnit {
		return
	}
	if _, bad := r.badTextures[tex]; bad {
		return
	}
	if err := UploadTexture(tex); err != nil {
		if r.badTextures == nil {
			r.badTextures = make(map[*scene.Texture]struct{})
		}
		r.badTextures[tex] = struct{}{}
		core.Logger().Warn("texture upload failed, drawing untextured", "err", err)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, textureID(tex))
	if unit == scene.DiffuseTextureUnit && r.layout.HasUVs() {
		r.hasTexture = true
	}
}

func (r *Renderer) EndShadingPass() {
	gl.ActiveTexture(gl.TEXTURE0)
	r.frame = nil
	r.frames++
}

// ReadPixels copies the default framebuffer into an image, top row first.
func (r *Renderer) ReadPixels() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(r.viewportW), int(r.viewportH)))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, r.viewportW, r.viewportH, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	snapshot.FlipRows(img)
	return img
}

// WritePNG saves the current frame. A positive width scales the image.
func (r *Renderer) WritePNG(path string, width int) error {
	return snapshot.WritePNG(path, r.ReadPixels(), width)
}

// Release frees the programs and the shadow map. Object buffers are owned
// by the objects.
func (r *Renderer) Release() {
	if r.shadowMap != nil {
		r.shadowMap.Release()
	}
	r.depthProg.release()
	r.shadeProg.release()
}
