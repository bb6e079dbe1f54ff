package freeze

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/schulle4u/multideck-packager/src/platform"
)

var descriptorTmpl = template.Must(template.New("spec").Funcs(template.FuncMap{
	"py":     pyString,
	"pylist": pyStringList,
	"pybool": pyBool,
	"join":   strings.Join,
}).Parse(`# -*- mode: python ; coding: utf-8 -*-
# {{.App}} ({{.Platform}}): rendered by mdpack from the project config.
# Edit .mdpack.yml and run "mdpack descriptor" instead of this file.
import os

from PyInstaller.utils.hooks import collect_dynamic_libs

ROOT = {{.Root}}

binaries = []
{{- range .Collect}}
binaries += collect_dynamic_libs({{py .}})
{{- end}}

a = Analysis(
    [{{.Entry}}],
    pathex=[{{join .Paths ", "}}],
    binaries=binaries,
    datas=[
{{- range .Data}}
        ({{.Source}}, {{py .Dest}}),
{{- end}}
    ],
    hiddenimports={{pylist .HiddenImports}},
    hookspath=[],
    hooksconfig={},
    runtime_hooks=[],
    excludes={{pylist .Excludes}},
    noarchive=False,
)
pyz = PYZ(a.pure)

exe = EXE(
    pyz,
    a.scripts,
    [],
    exclude_binaries=True,
    name={{py .App}},
    debug=False,
    bootloader_ignore_signals=False,
    strip=False,
    upx=False,
    console={{pybool .Console}},
    disable_windowed_traceback=False,
    argv_emulation={{pybool .ArgvEmulation}},
    target_arch=None,
    codesign_identity=None,
    entitlements_file=None,
{{- if .Icon}}
    icon=[{{.Icon}}],
{{- end}}
{{- if .VersionFile}}
    version={{.VersionFile}},
{{- end}}
)
coll = COLLECT(
    exe,
    a.binaries,
    a.datas,
    strip=False,
    upx=False,
    upx_exclude=[],
    name={{py .App}},
)
{{- if .Bundle}}

VERSION = os.environ.get({{py .VersionEnv}}, '0.0.0')
SHORT_VERSION = VERSION.split('+')[0].split('-')[0]

app = BUNDLE(
    coll,
    name={{py .BundleName}},
    icon={{if .Icon}}{{.Icon}}{{else}}None{{end}},
    bundle_identifier={{py .BundleID}},
    version=SHORT_VERSION,
    info_plist={{.InfoPlist}},
)
{{- end}}
`))

// descriptorData is the template view of Options and Manifest. Path fields
// hold Python expressions, everything else plain values.
type descriptorData struct {
	App           string
	VersionEnv    string
	Platform      platform.Platform
	Root          string
	Entry         string
	Paths         []string
	Data          []DataTree
	HiddenImports []string
	Excludes      []string
	Collect       []string
	Console       bool
	ArgvEmulation bool
	Icon          string
	VersionFile   string
	Bundle        bool
	BundleName    string
	BundleID      string
	InfoPlist     string
}

// VersionEnv carries the application version into a descriptor at build
// time, so a checked-in .spec does not change with every commit.
const VersionEnv = "MDPACK_VERSION"

// RenderDescriptor writes the PyInstaller .spec for a folder build. It is a
// pure function of its inputs. The version is not part of the output.
func RenderDescriptor(w io.Writer, o Options, m Manifest) error {
	data := descriptorData{
		App:           o.AppName,
		VersionEnv:    VersionEnv,
		Platform:      o.Platform,
		Root:          o.rootExpr(),
		Entry:         o.pathExpr(m.EntryPoint),
		HiddenImports: m.HiddenImports,
		Excludes:      m.Excludes,
		Collect:       m.CollectBinaries,
		Console:       o.Console,
		ArgvEmulation: o.ArgvEmulation(),
	}
	for _, p := range m.SearchPaths {
		data.Paths = append(data.Paths, o.pathExpr(p))
	}
	for _, d := range m.Data {
		data.Data = append(data.Data, DataTree{Source: o.pathExpr(d.Source), Dest: d.Dest})
	}
	if o.Icon != "" {
		data.Icon = o.pathExpr(o.Icon)
	}
	if o.UsesVersionFile() {
		data.VersionFile = o.pathExpr(o.VersionFile)
	}
	if platform.LayoutFor(o.Platform, o.Mode) == platform.Bundle {
		data.Bundle = true
		data.BundleName = o.AppName + ".app"
		data.BundleID = o.BundleID
		data.InfoPlist = pyLiteral(o.infoPlist(), 1)
	}
	return descriptorTmpl.Execute(w, data)
}

// WriteDescriptor renders the descriptor to o.Descriptor, creating parent
// directories.
func WriteDescriptor(o Options, m Manifest) error {
	var buf bytes.Buffer
	if err := RenderDescriptor(&buf, o, m); err != nil {
		return fmt.Errorf("rendering descriptor: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(o.Descriptor), 0o755); err != nil {
		return fmt.Errorf("creating descriptor directory: %w", err)
	}
	return os.WriteFile(o.Descriptor, buf.Bytes(), 0o644)
}

// rootExpr anchors every path on the descriptor's own location so the file
// stays valid when the checkout moves.
func (o Options) rootExpr() string {
	if o.Descriptor != "" {
		if rel, err := filepath.Rel(filepath.Dir(o.Descriptor), o.Root); err == nil {
			return fmt.Sprintf("os.path.abspath(os.path.join(SPECPATH, %s))", pyString(filepath.ToSlash(rel)))
		}
	}
	return pyString(filepath.ToSlash(o.Root))
}

// pathExpr renders a path below the root as os.path.join(ROOT, '...').
func (o Options) pathExpr(p string) string {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(o.Root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return pyString(filepath.ToSlash(p))
		}
		p = rel
	}
	return fmt.Sprintf("os.path.join(ROOT, %s)", pyString(filepath.ToSlash(p)))
}

func (o Options) infoPlist() map[string]any {
	plist := map[string]any{
		"CFBundleName":               o.AppName,
		"CFBundleDisplayName":        o.Bundle.DisplayName,
		"CFBundleShortVersionString": pyExpr("SHORT_VERSION"),
		"CFBundleVersion":            pyExpr("VERSION"),
		"NSHighResolutionCapable":    true,
	}
	if plist["CFBundleDisplayName"] == "" {
		plist["CFBundleDisplayName"] = o.AppName
	}
	if o.Bundle.MinSystemVersion != "" {
		plist["LSMinimumSystemVersion"] = o.Bundle.MinSystemVersion
	}
	for k, v := range o.Bundle.Usage {
		plist[k] = v
	}
	if len(o.Bundle.DocumentTypes) > 0 {
		types := make([]any, 0, len(o.Bundle.DocumentTypes))
		for _, dt := range o.Bundle.DocumentTypes {
			role := dt.Role
			if role == "" {
				role = "Editor"
			}
			exts := make([]any, len(dt.Extensions))
			for i, e := range dt.Extensions {
				exts[i] = strings.TrimPrefix(e, ".")
			}
			types = append(types, map[string]any{
				"CFBundleTypeName":       dt.Name,
				"CFBundleTypeExtensions": exts,
				"CFBundleTypeRole":       role,
				"LSHandlerRank":          "Owner",
			})
		}
		plist["CFBundleDocumentTypes"] = types
	}
	return plist
}
