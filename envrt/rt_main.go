package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"runtime"

	"github.com/chewxy/math32"
	"github.com/gekko3d/envprobe"
	"github.com/gekko3d/envprobe/envrt/rt/capture"
	"github.com/gekko3d/envprobe/envrt/rt/core"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/gekko3d/envprobe/envrt/rt/mode"
	"github.com/gekko3d/envprobe/envrt/rt/probe"
	"github.com/gekko3d/envprobe/envrt/rt/soft"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	runtime.LockOSThread()
}

type crew struct {
	root  *core.Node
	nodes []*core.Node
	suits []*soft.Object
	visor []*material.Material
	binds []*mode.Binding
	phase float32
}

func main() {
	configPath := flag.String("config", "", "TOML config with a [reflections] table")
	assets := flag.String("assets", "", "texture directory holding EnvMap/<Face> images")
	debug := flag.Bool("debug", false, "Enable debug logging")
	kerbals := flag.Int("kerbals", 3, "number of reflective EVA kerbals")
	flag.Parse()

	scene := buildScene()
	modules := []envprobe.Module{
		envprobe.LoggingModule{Prefix: "envprobe", Debug: *debug},
		envprobe.TimeModule{},
		envprobe.ConfigModule{Path: *configPath, Watch: *configPath != ""},
	}
	if *assets != "" {
		modules = append(modules, envprobe.AssetServerModule{FS: os.DirFS(*assets), Root: "."})
	} else {
		modules = append(modules, envprobe.AssetServerModule{})
	}
	modules = append(modules,
		envprobe.NewPlatformWindow(1280, 720, "Reflections"),
		envprobe.GpuModule{},
		envprobe.ReflectionModule{Scene: scene},
		envprobe.InputModule{},
		envprobe.ReflectionKeysModule{},
		envprobe.OrbitCameraModule{Distance: 3},
	)
	app := envprobe.NewAppBuilder().UseModule(modules...).Build()

	refl := envprobe.MustResource[envprobe.Reflections](app)
	c := spawnCrew(refl, scene, *kerbals)
	if len(c.visor) > 0 {
		view := envprobe.MustResource[envprobe.VisorView](app)
		view.Material = c.visor[0]
		view.Center = c.nodes[0].World().Position
	}
	app.Commands().AddResources(c)
	app.UseSystem(envprobe.System(crewSystem).InStage(envprobe.Update))

	app.Logger().Infof("Reflections: %s, %d probes", refl.Controller.Mode(), len(c.binds))
	app.Run()
}

func buildScene() *soft.Scene {
	scene := soft.NewScene()
	scene.Add(
		&soft.Object{
			Name:  "Kerbin",
			Shape: soft.Sphere{Center: mgl32.Vec3{0, -6.0e5, -2.0e6}, Radius: 6.0e5},
			Color: color.RGBA{R: 40, G: 90, B: 160, A: 255},
			Layer: capture.LayerScaledScenery,
		},
		&soft.Object{
			Name:  "Mun",
			Shape: soft.Sphere{Center: mgl32.Vec3{4.0e6, 2.0e6, -9.0e6}, Radius: 2.0e5},
			Color: color.RGBA{R: 150, G: 150, B: 150, A: 255},
			Layer: capture.LayerScaledScenery,
		},
		&soft.Object{
			Name:  "Ground",
			Shape: soft.Plane{Normal: mgl32.Vec3{0, 1, 0}, Offset: -1.2},
			Color: color.RGBA{R: 70, G: 110, B: 50, A: 255},
			Layer: capture.LayerLocalScenery,
		},
		&soft.Object{
			Name:  "Lander",
			Shape: soft.Box{Min: mgl32.Vec3{3, -1.2, -4}, Max: mgl32.Vec3{5, 1.5, -2}},
			Color: color.RGBA{R: 200, G: 200, B: 190, A: 255},
			Layer: capture.LayerParts,
		},
	)
	return scene
}

func spawnCrew(refl *envprobe.Reflections, scene *soft.Scene, n int) *crew {
	c := &crew{root: core.NewNode("crew")}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("kerbal-%d", i)
		body := c.root.AddChild(core.NewNode(name))
		body.Local.Position = mgl32.Vec3{float32(i) * 2.5, 0, 0}
		head := body.AddChild(core.NewNode("helmet"))
		head.Local.Position = mgl32.Vec3{0, 0.6, 0}

		suit := &soft.Object{
			Name:  name + "/suit",
			Shape: soft.Sphere{Center: body.World().Position, Radius: 0.5},
			Color: color.RGBA{R: 230, G: 230, B: 230, A: 255},
			Layer: capture.LayerParts,
		}
		scene.Add(suit)

		visor := material.NewMaterial(name + "/visor")
		visor.ReflectColor = [4]float32{1, 0.85, 0.5, 0.9}
		b := refl.Attach(probe.Target{
			Name:      name,
			Transform: body.Ref(),
			Head:      head.Ref(),
			IsEva:     true,
			Renderers: []capture.Renderer{suit},
			Visor:     visor,
		}, 0)
		c.nodes = append(c.nodes, body)
		c.suits = append(c.suits, suit)
		c.visor = append(c.visor, visor)
		c.binds = append(c.binds, b)
	}
	return c
}

// crewSystem walks the first kerbal in a circle so its reflection changes.
func crewSystem(t *envprobe.Time, c *crew, view *envprobe.VisorView) {
	if len(c.nodes) == 0 {
		return
	}
	c.phase += float32(t.Dt.Seconds()) * 0.5
	c.nodes[0].Local.Position = mgl32.Vec3{math32.Cos(c.phase) * 2, 0, math32.Sin(c.phase) * 2}
	c.suits[0].Shape = soft.Sphere{Center: c.nodes[0].World().Position, Radius: 0.5}
	view.Center = c.nodes[0].World().Position
}
