// Package viewer opens an OpenGL window that previews a mesh. Drag with the
// left mouse button to orbit, scroll to zoom and press Escape to close.
package viewer

import (
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gmlewis/extrude-curve/mesh"
)

const (
	width  = 800
	height = 600
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

// Show displays m until the window is closed.
func Show(title string, m *mesh.Mesh) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw.Init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return fmt.Errorf("glfw.CreateWindow: %v", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl.Init: %v", err)
	}
	log.Printf("OpenGL version %v", gl.GoStr(gl.GetString(gl.VERSION)))

	program, err := newProgram(vertexShader, fragmentShader)
	if err != nil {
		return err
	}
	gl.UseProgram(program)

	data := vertices(m)
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	const stride = 6 * 4
	posAttrib := uint32(gl.GetAttribLocation(program, gl.Str("position\x00")))
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	normAttrib := uint32(gl.GetAttribLocation(program, gl.Str("normal\x00")))
	gl.EnableVertexAttribArray(normAttrib)
	gl.VertexAttribPointer(normAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))

	lo, hi := m.Bounds()
	cam := newCamera(lo, hi, float32(width)/height)

	var dragging bool
	var lastX, lastY float64
	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft {
			dragging = action == glfw.Press
			lastX, lastY = w.GetCursorPos()
		}
	})
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if dragging {
			cam.orbit(float32(lastX-x)*0.01, float32(y-lastY)*0.01)
		}
		lastX, lastY = x, y
	})
	win.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		if yoff > 0 {
			cam.zoom(0.9)
		} else if yoff < 0 {
			cam.zoom(1 / 0.9)
		}
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	win.SetFramebufferSizeCallback(func(w *glfw.Window, fw, fh int) {
		gl.Viewport(0, 0, int32(fw), int32(fh))
		if fh > 0 {
			cam.aspect = float32(fw) / float32(fh)
		}
	})

	viewUniform := gl.GetUniformLocation(program, gl.Str("view\x00"))
	projUniform := gl.GetUniformLocation(program, gl.Str("projection\x00"))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.15, 0.15, 0.18, 1)

	for !win.ShouldClose() {
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		view, proj := cam.view(), cam.projection()
		gl.UniformMatrix4fv(viewUniform, 1, false, &view[0])
		gl.UniformMatrix4fv(projUniform, 1, false, &proj[0])

		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(data)/6))

		win.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

func newProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		return 0, fmt.Errorf("failed to link program: %v", msg)
	}

	gl.DeleteShader(vs)
	gl.DeleteShader(fs)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		return 0, fmt.Errorf("failed to compile %v: %v", source, msg)
	}
	return shader, nil
}

const vertexShader = `#version 410 core
uniform mat4 view;
uniform mat4 projection;
in vec3 position;
in vec3 normal;
out vec3 v_normal;
void main() {
  v_normal = normal;
  gl_Position = projection * view * vec4(position, 1.0);
}
`

const fragmentShader = `#version 410 core
in vec3 v_normal;
out vec4 out_FragColor;
void main() {
  vec3 light = normalize(vec3(0.4, -0.5, 0.8));
  float d = abs(dot(normalize(v_normal), light));
  out_FragColor = vec4(vec3(0.25 + 0.7 * d) * vec3(0.9, 0.75, 0.5), 1.0);
}
`
