package renderer

import (
	"Scroll3D/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// OpenGLRenderer draws one scene into its own viewport of a shared GL
// context. Several renderers can live in the same window.
type OpenGLRenderer struct {
	Name       string
	Models     []*Model
	ClearColor mgl32.Vec3
	shader     Shader
	textures   *TextureManager
	viewport   Viewport
	ready      bool
}

func NewOpenGLRenderer(name string) *OpenGLRenderer {
	return &OpenGLRenderer{Name: name, textures: NewTextureManager(DefaultMaxTextureSize)}
}

// Init must run on the thread owning the current GL context, after gl.Init.
func (rend *OpenGLRenderer) Init(viewport Viewport, clearColor mgl32.Vec3) {
	rend.viewport = viewport
	rend.ClearColor = clearColor
	rend.shader = InitShader()
	if err := rend.shader.Compile(); err != nil {
		logger.Log.Error("Could not compile shader", zap.String("renderer", rend.Name), zap.Error(err))
		return
	}
	rend.ready = true
	logger.Log.Info("OpenGL render initialized",
		zap.String("renderer", rend.Name),
		zap.Int32("width", viewport.Width),
		zap.Int32("height", viewport.Height))
}

func (rend *OpenGLRenderer) SetViewport(viewport Viewport) {
	rend.viewport = viewport
}

func (rend *OpenGLRenderer) Viewport() Viewport {
	return rend.viewport
}

func (rend *OpenGLRenderer) AddModel(model *Model) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(model.InterleavedData)*4, gl.Ptr(model.InterleavedData), gl.STATIC_DRAW)

	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(model.Faces)*4, gl.Ptr(model.Faces), gl.STATIC_DRAW)

	stride := int32(8 * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	model.VAO = vao
	model.VBO = vbo
	model.EBO = ebo
	model.updateModelMatrix()
	rend.uploadTextures(model)

	rend.Models = append(rend.Models, model)
	logger.Log.Debug("Model uploaded",
		zap.String("renderer", rend.Name),
		zap.String("model", model.Name),
		zap.Int("vertices", model.VertexCount()),
		zap.Int("triangles", len(model.Faces)/3))
}

func (rend *OpenGLRenderer) uploadTextures(model *Model) {
	for _, mat := range model.Materials() {
		if mat.DiffuseMap == nil || mat.TextureID != 0 {
			continue
		}
		key := mat.TextureKey
		if key == "" {
			key = model.SourceURL + "#" + mat.Name
		}
		id, err := rend.textures.Acquire(key, mat.DiffuseMap)
		if err != nil {
			logger.Log.Warn("Could not upload texture",
				zap.String("renderer", rend.Name),
				zap.String("texture", key),
				zap.Error(err))
			continue
		}
		mat.TextureID = id
	}
}

func (rend *OpenGLRenderer) releaseTextures(model *Model) {
	for _, mat := range model.Materials() {
		rend.textures.Release(mat.TextureID)
		mat.TextureID = 0
	}
}

func deleteBuffers(model *Model) {
	gl.DeleteVertexArrays(1, &model.VAO)
	gl.DeleteBuffers(1, &model.VBO)
	gl.DeleteBuffers(1, &model.EBO)
	model.VAO, model.VBO, model.EBO = 0, 0, 0
}

func (rend *OpenGLRenderer) Render(camera *Camera, lighting *Lighting) {
	v := rend.viewport
	if v.Width <= 0 || v.Height <= 0 {
		return
	}

	// Clear only this renderer's region.
	gl.Viewport(v.X, v.Y, v.Width, v.Height)
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(v.X, v.Y, v.Width, v.Height)
	gl.ClearColor(rend.ClearColor.X(), rend.ClearColor.Y(), rend.ClearColor.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	defer gl.Disable(gl.SCISSOR_TEST)

	if !rend.ready || len(rend.Models) == 0 {
		return
	}

	if DepthTestEnabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthMask(true)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if FaceCullingEnabled {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	}

	shader := &rend.shader
	shader.Use()
	shader.SetMat4("viewProjection", camera.GetViewProjection())
	shader.SetVec3("viewPos", camera.Position)
	rend.setLightUniforms(shader, lighting)

	for _, model := range rend.Models {
		if model.IsDirty {
			model.updateModelMatrix()
			model.IsDirty = false
		}
		shader.SetMat4("model", model.ModelMatrix)

		gl.BindVertexArray(model.VAO)
		for _, part := range model.Parts {
			rend.setMaterialUniforms(shader, part.Material)
			gl.DrawElements(gl.TRIANGLES, int32(part.Count), gl.UNSIGNED_INT, gl.PtrOffset(part.First*4))
		}
		gl.BindVertexArray(0)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
}

func (rend *OpenGLRenderer) setMaterialUniforms(shader *Shader, mat *Material) {
	shader.SetVec3("diffuseColor", mat.DiffuseColor)
	shader.SetVec3("specularColor", mat.SpecularColor)
	shader.SetFloat("metallic", mat.Metallic)
	shader.SetFloat("roughness", mat.Roughness)
	if mat.TextureID != 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, mat.TextureID)
		shader.SetInt("diffuseMap", 0)
		shader.SetInt("useDiffuseMap", 1)
	} else {
		shader.SetInt("useDiffuseMap", 0)
	}
}

func (rend *OpenGLRenderer) setLightUniforms(shader *Shader, lighting *Lighting) {
	if lighting == nil {
		lighting = NewDefaultLighting()
	}
	hemi := lighting.Hemisphere
	hemiDirection := mgl32.Vec3{0, 1, 0}
	if hemi.Position.Len() > 0 {
		hemiDirection = hemi.Position.Normalize()
	}
	shader.SetVec3("hemiSky", hemi.SkyColor)
	shader.SetVec3("hemiGround", hemi.GroundColor)
	shader.SetVec3("hemiDirection", hemiDirection)
	shader.SetFloat("hemiIntensity", hemi.Intensity)

	shader.SetVec3("dirColor", lighting.Directional.Color)
	shader.SetVec3("dirDirection", lighting.Directional.Direction())
	shader.SetFloat("dirIntensity", lighting.Directional.Intensity)

	shader.SetVec3("ambientColor", lighting.Ambient.Color)
	shader.SetFloat("ambientIntensity", lighting.Ambient.Intensity)
}

func (rend *OpenGLRenderer) Cleanup() {
	for _, model := range rend.Models {
		rend.releaseTextures(model)
		deleteBuffers(model)
	}
	rend.Models = nil
	rend.textures.Clear()
	rend.shader.Delete()
	rend.ready = false
}
