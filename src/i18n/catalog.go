// Package i18n compiles the gettext catalogs MultiDeck ships and lists the
// locales a build bundles.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Catalog is one .po source and its compiled .mo target.
type Catalog struct {
	Lang string       // directory name under the locale root, e.g. "pt_BR"
	Tag  language.Tag // BCP 47 form, language.Und when unparsable
	PO   string
	MO   string
}

// Discover finds every .po file below dir. The language is the first path
// element under dir (<dir>/<lang>/LC_MESSAGES/<domain>.po). Results are
// sorted by path.
func Discover(dir string) ([]Catalog, error) {
	var out []Catalog
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".po" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		lang := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		out = append(out, Catalog{
			Lang: lang,
			Tag:  Tag(lang),
			PO:   p,
			MO:   strings.TrimSuffix(p, ".po") + ".mo",
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("locale directory %s not found", dir)
		}
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PO < out[j].PO })
	return out, nil
}

// Tag parses a gettext locale name ("de", "pt_BR", "sr@latin") into a
// BCP 47 tag.
func Tag(lang string) language.Tag {
	lang, _, _ = strings.Cut(lang, "@")
	lang, _, _ = strings.Cut(lang, ".")
	t, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return language.Und
	}
	return t
}

// Languages lists the locale directories below dir that carry compiled
// catalogs, as BCP 47 strings. A missing dir yields nil.
func Languages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		mos, _ := filepath.Glob(filepath.Join(dir, e.Name(), "LC_MESSAGES", "*.mo"))
		if len(mos) == 0 {
			continue
		}
		if t := Tag(e.Name()); t != language.Und {
			langs = append(langs, t.String())
		} else {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs)
	return langs
}
