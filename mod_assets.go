package envprobe

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

type AssetId string

// EnvMapPrefix is the texture directory holding the six static environment faces.
const EnvMapPrefix = "EnvMap/"

type TextureAsset struct {
	Id     AssetId
	Path   string
	Format string
	Image  image.Image
}

// AssetServer is the texture database. Textures are addressed by their slash
// path relative to the loaded root, without extension ("EnvMap/PositiveX").
type AssetServer struct {
	textures map[AssetId]*TextureAsset
	byPath   map[string]AssetId
}

type AssetServerModule struct {
	// FS and Root, when set, are scanned at install time.
	FS   fs.FS
	Root string
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		textures: make(map[AssetId]*TextureAsset),
		byPath:   make(map[string]AssetId),
	}
}

// AddTexture registers img under key, replacing any texture at the same key.
func (server *AssetServer) AddTexture(key string, img image.Image) AssetId {
	if prev, ok := server.byPath[key]; ok {
		delete(server.textures, prev)
	}
	id := makeAssetId()
	server.textures[id] = &TextureAsset{Id: id, Path: key, Image: img}
	server.byPath[key] = id
	return id
}

// LoadDir decodes every PNG, JPEG, BMP and TIFF file under root. Files that fail
// to decode are skipped and reported together in the returned error.
func (server *AssetServer) LoadDir(fsys fs.FS, root string) (int, error) {
	if root == "" {
		root = "."
	}
	var (
		loaded int
		failed []string
	)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTextureFile(p) {
			return nil
		}
		f, err := fsys.Open(p)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", p, err))
			return nil
		}
		img, format, err := image.Decode(f)
		f.Close()
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", p, err))
			return nil
		}
		id := server.AddTexture(textureKey(root, p), img)
		server.textures[id].Format = format
		loaded++
		return nil
	})
	if err != nil {
		return loaded, err
	}
	if len(failed) > 0 {
		return loaded, fmt.Errorf("assets: %d textures not decoded: %s", len(failed), strings.Join(failed, "; "))
	}
	return loaded, nil
}

func (server *AssetServer) Texture(key string) (*TextureAsset, bool) {
	id, ok := server.byPath[key]
	if !ok {
		return nil, false
	}
	return server.textures[id], true
}

// Keys lists the texture keys under prefix, sorted.
func (server *AssetServer) Keys(prefix string) []string {
	var res []string
	for k := range server.byPath {
		if strings.HasPrefix(k, prefix) {
			res = append(res, k)
		}
	}
	sort.Strings(res)
	return res
}

// CubeFaces returns the six face textures under prefix in face order. Missing
// faces are left nil.
func (server *AssetServer) CubeFaces(prefix string) [cube.NumFaces]image.Image {
	var faces [cube.NumFaces]image.Image
	for f, name := range cube.FaceNames() {
		if tex, ok := server.Texture(prefix + name); ok {
			faces[f] = tex.Image
		}
	}
	return faces
}

func (m AssetServerModule) Install(app *App, cmd *Commands) {
	server := NewAssetServer()
	app.addResources(server)
	if m.FS == nil {
		return
	}
	n, err := server.LoadDir(m.FS, m.Root)
	if err != nil {
		app.Logger().Warnf("Assets: %v", err)
	}
	app.Logger().Infof("Assets: %d textures loaded", n)
}

func isTextureFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

func textureKey(root, p string) string {
	if root != "." {
		p = strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
	}
	return strings.TrimSuffix(p, path.Ext(p))
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
