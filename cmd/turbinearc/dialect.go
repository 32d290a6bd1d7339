package main

import (
	"fmt"

	"turbinearc/engine/archive"
)

// resolveDialect maps a --dialect flag value to an archive.Dialect, falling
// back to archive.SniffDialect(path) when flag is empty (the default
// unified-tool behavior spec's supplemented feature 4.4 describes).
func resolveDialect(flag, path string) (archive.Dialect, error) {
	switch flag {
	case "":
		return archive.SniffDialect(path)
	case "portal":
		return archive.DialectPortal, nil
	case "cell":
		return archive.DialectCell, nil
	default:
		return archive.DialectPortal, fmt.Errorf("unknown --dialect %q (want portal or cell)", flag)
	}
}
