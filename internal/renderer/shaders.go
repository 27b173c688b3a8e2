package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	vertexSource   string
	fragmentSource string
	program        uint32
	isCompiled     bool
	locations      map[string]int32
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) location(name string) int32 {
	if loc, ok := shader.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(shader.program, gl.Str(name+"\x00"))
	shader.locations[name] = loc
	return loc
}

func (shader *Shader) SetVec3(name string, value mgl32.Vec3) {
	gl.Uniform3f(shader.location(name), value.X(), value.Y(), value.Z())
}

func (shader *Shader) SetInt(name string, value int32) {
	gl.Uniform1i(shader.location(name), value)
}

func (shader *Shader) SetFloat(name string, value float32) {
	gl.Uniform1f(shader.location(name), value)
}

func (shader *Shader) SetMat4(name string, value mgl32.Mat4) {
	gl.UniformMatrix4fv(shader.location(name), 1, false, &value[0])
}

func (shader *Shader) Compile() error {
	vertexShader, err := compileShader(shader.vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return err
	}
	fragmentShader, err := compileShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return fmt.Errorf("renderer: link program: %v", log)
	}

	shader.program = program
	shader.locations = make(map[string]int32)
	shader.isCompiled = true
	return nil
}

func (shader *Shader) Delete() {
	if shader.isCompiled {
		gl.DeleteProgram(shader.program)
		shader.isCompiled = false
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("renderer: compile shader: %v", log)
	}
	return shader, nil
}

var vertexShaderSource = `#version 330 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec2 inTexCoord;
layout(location = 2) in vec3 inNormal;

uniform mat4 model;
uniform mat4 viewProjection;

out vec3 Normal;
out vec3 FragPos;
out vec2 TexCoord;

void main() {
    TexCoord = inTexCoord;
    FragPos = vec3(model * vec4(inPosition, 1.0));
    Normal = mat3(transpose(inverse(model))) * inNormal;
    gl_Position = viewProjection * vec4(FragPos, 1.0);
}
` + "\x00"

var fragmentShaderSource = `#version 330 core
in vec3 Normal;
in vec3 FragPos;
in vec2 TexCoord;

uniform vec3 hemiSky;
uniform vec3 hemiGround;
uniform vec3 hemiDirection;
uniform float hemiIntensity;

uniform vec3 dirColor;
uniform vec3 dirDirection;
uniform float dirIntensity;

uniform vec3 ambientColor;
uniform float ambientIntensity;

uniform vec3 viewPos;
uniform vec3 diffuseColor;
uniform vec3 specularColor;
uniform float metallic;
uniform float roughness;
uniform sampler2D diffuseMap;
uniform int useDiffuseMap;

out vec4 FragColor;

void main() {
    vec3 norm = normalize(Normal);

    float hemiMix = dot(norm, hemiDirection) * 0.5 + 0.5;
    vec3 hemi = mix(hemiGround, hemiSky, hemiMix) * hemiIntensity;

    vec3 lightDir = normalize(-dirDirection);
    float diff = max(dot(norm, lightDir), 0.0);
    vec3 direct = diff * dirColor * dirIntensity;

    vec3 ambient = ambientColor * ambientIntensity;

    vec3 base = diffuseColor;
    if (useDiffuseMap != 0) {
        base *= texture(diffuseMap, TexCoord).rgb;
    }
    vec3 albedo = base * (1.0 - metallic * 0.5);
    vec3 viewDir = normalize(viewPos - FragPos);
    vec3 halfDir = normalize(lightDir + viewDir);
    float shininess = mix(256.0, 4.0, roughness);
    float spec = pow(max(dot(norm, halfDir), 0.0), shininess) * (1.0 - roughness);
    vec3 specTint = mix(specularColor, base, metallic);
    vec3 specular = spec * specTint * dirColor * dirIntensity;

    vec3 result = albedo * (hemi + direct + ambient) + specular;
    FragColor = vec4(result, 1.0);
}
` + "\x00"

func InitShader() Shader {
	return Shader{
		vertexSource:   vertexShaderSource,
		fragmentSource: fragmentShaderSource,
	}
}
