package viewer

// dragonfly's item package reaches internal/nbtconv through go:linkname, so a test binary
// must link a package that imports nbtconv. The production binary gets it through world.
import _ "github.com/df-mc/dragonfly/server/block"
