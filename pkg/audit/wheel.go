package audit

import (
	"strings"

	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

// Wheel categories derived from filename compatibility tags.
const (
	wheelPurePython      = "pure-python"
	wheelABI3            = "abi3"
	wheelCPythonABI      = "cpython-abi"
	wheelPlatform        = "platform-specific"
	wheelExtensionModule = "contains-extension-modules"
)

// wheelTypeOrder is the fixed presentation order for wheel summaries.
var wheelTypeOrder = []string{
	wheelPurePython,
	wheelABI3,
	wheelCPythonABI,
	wheelPlatform,
	wheelExtensionModule,
}

// nativeExtensions are artifact suffixes that hold compiled code.
var nativeExtensions = []string{".so", ".pyd", ".dll"}

// WheelInfo summarizes the distributable artifacts of a release.
type WheelInfo struct {
	HasWheels    bool
	WheelTypes   []string // categories in encounter order, never nil
	IsPurePython bool
}

// wheelTags holds the trailing compatibility tags of a wheel filename.
// Per the binary distribution format the last three dash-separated
// components of the stem are python tag, abi tag, platform tag.
type wheelTags struct {
	python   string
	abi      string
	platform string
	ok       bool
}

func parseWheelTags(filename string) wheelTags {
	stem := strings.TrimSuffix(filename, ".whl")
	parts := strings.Split(stem, "-")
	if len(parts) < 3 {
		return wheelTags{}
	}
	return wheelTags{
		python:   parts[len(parts)-3],
		abi:      parts[len(parts)-2],
		platform: parts[len(parts)-1],
		ok:       true,
	}
}

// classifyWheel maps compatibility tags onto a wheel category. Purity
// is decided by the abi and platform tags alone; the python tag only
// distinguishes CPython-version-specific builds.
func classifyWheel(t wheelTags) string {
	switch {
	case t.abi == "none" && t.platform == "any":
		return wheelPurePython
	case strings.Contains(t.abi, "abi3"):
		return wheelABI3
	case strings.HasPrefix(t.python, "cp") && strings.HasPrefix(t.abi, "cp"):
		return wheelCPythonABI
	case t.platform != "any":
		return wheelPlatform
	}
	return ""
}

func hasNativeExtension(filename string) bool {
	for _, ext := range nativeExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// WheelInfoFor inspects the current-release artifacts of a package.
func WheelInfoFor(p *pypi.Package) WheelInfo {
	info := WheelInfo{WheelTypes: []string{}, IsPurePython: true}
	for _, f := range p.Files {
		name := strings.ToLower(f.Filename)
		if hasNativeExtension(name) {
			info.IsPurePython = false
			info.addType(wheelExtensionModule)
			continue
		}
		if !strings.HasSuffix(name, ".whl") {
			continue
		}
		info.HasWheels = true
		t := parseWheelTags(name)
		if !t.ok {
			continue
		}
		category := classifyWheel(t)
		if category == "" {
			continue
		}
		info.addType(category)
		if category != wheelPurePython {
			info.IsPurePython = false
		}
	}
	return info
}

// addType appends a category once, preserving encounter order.
func (w *WheelInfo) addType(category string) {
	for _, t := range w.WheelTypes {
		if t == category {
			return
		}
	}
	w.WheelTypes = append(w.WheelTypes, category)
}
