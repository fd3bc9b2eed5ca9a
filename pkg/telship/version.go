package telship

import (
	"fmt"

	"github.com/bft-labs/telship/pkg/buffer"
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/sender"
	"github.com/bft-labs/telship/pkg/storage"
	"github.com/bft-labs/telship/pkg/transport"
)

// Version is the version of the client facade.
const Version = "1.0.0"

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"buffer":    {buffer.Version, buffer.MinCompatibleVersion},
		"config":    {config.Version, config.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
		"sender":    {sender.Version, sender.MinCompatibleVersion},
		"storage":   {storage.Version, storage.MinCompatibleVersion},
		"transport": {transport.Version, transport.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible reports whether version >= minVersion.
// Versions are "major.minor.patch".
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
