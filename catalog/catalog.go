package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/patient-pulse/timeline"
)

// Demo is one recorded call. Audio and Prosody are file paths or URLs.
type Demo struct {
	Title   string `yaml:"title" json:"title"`
	Body    string `yaml:"body" json:"body"`
	Audio   string `yaml:"audio" json:"audio"`
	Prosody string `yaml:"prosody" json:"prosody"`
}

var ErrNoDemo = errors.New("no such demo")

type Catalog struct {
	Demos    []Demo   `yaml:"demos" json:"demos"`
	Emotions []string `yaml:"emotions" json:"emotions"`
}

// Open reads a catalog from a .json, .yaml or .yml file and resolves demo
// locations relative to the file's directory.
func Open(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog open: %w", err)
	}
	defer f.Close()

	c, err := Decode(f, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	c.resolve(abs)
	return c, nil
}

// Decode parses a catalog. ext selects JSON (".json") or YAML (anything else).
func Decode(r io.Reader, ext string) (*Catalog, error) {
	var c Catalog
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.NewDecoder(r).Decode(&c)
	} else {
		err = yaml.NewDecoder(r).Decode(&c)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("catalog decode: %w", err)
	}
	if len(c.Emotions) == 0 {
		return nil, fmt.Errorf("catalog: no emotions configured")
	}
	return &c, nil
}

func (c *Catalog) Categories() []timeline.Category { return timeline.Categories(c.Emotions) }

// Demo returns the i-th demo.
func (c *Catalog) Demo(i int) (Demo, error) {
	if i < 0 || i >= len(c.Demos) {
		return Demo{}, fmt.Errorf("%w: %d of %d", ErrNoDemo, i, len(c.Demos))
	}
	return c.Demos[i], nil
}

func (c *Catalog) resolve(base string) {
	for i := range c.Demos {
		c.Demos[i].Audio = Resolve(base, c.Demos[i].Audio)
		c.Demos[i].Prosody = Resolve(base, c.Demos[i].Prosody)
	}
}

// Resolve makes loc absolute against base. URLs and absolute paths are
// returned unchanged. base may itself be a URL.
func Resolve(base, loc string) string {
	if loc == "" || IsURL(loc) || filepath.IsAbs(loc) {
		return loc
	}
	if IsURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return loc
		}
		ref, err := url.Parse(loc)
		if err != nil {
			return loc
		}
		if !strings.HasSuffix(b.Path, "/") {
			b.Path += "/"
		}
		return b.ResolveReference(ref).String()
	}
	return filepath.Join(base, loc)
}

func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
