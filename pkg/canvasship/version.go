package canvasship

import (
	"fmt"

	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/frame"
	"github.com/bft-labs/canvasship/pkg/log"
	"github.com/bft-labs/canvasship/pkg/render"
	"github.com/bft-labs/canvasship/pkg/surface"
	"github.com/bft-labs/canvasship/pkg/tunnel"
)

// Version information for the canvasship module.
const (
	// Version is the current version of the canvasship module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

type moduleVersion struct {
	version    string
	minVersion string
}

// ModuleVersions returns the versions of all sub-modules.
func ModuleVersions() map[string]string {
	out := make(map[string]string)
	for name, m := range modules() {
		out[name] = m.version
	}
	return out
}

func modules() map[string]moduleVersion {
	return map[string]moduleVersion{
		"frame":   {frame.Version, frame.MinCompatibleVersion},
		"tunnel":  {tunnel.Version, tunnel.MinCompatibleVersion},
		"surface": {surface.Version, surface.MinCompatibleVersion},
		"render":  {render.Version, render.MinCompatibleVersion},
		"capture": {capture.Version, capture.MinCompatibleVersion},
		"log":     {log.Version, log.MinCompatibleVersion},
	}
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	for name, m := range modules() {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
