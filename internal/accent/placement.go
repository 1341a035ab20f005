package accent

import (
	"fmt"
	"path/filepath"

	"accent-go/internal/fsutil"
)

// PlacementPolicy controls how a payload file lands in the audio directory.
type PlacementPolicy int

const (
	// SharedStableName keeps the payload's basename so re-imported bundled
	// assets do not duplicate. The copy is skipped if the target exists.
	SharedStableName PlacementPolicy = iota

	// AlwaysUniqueName salts the basename so the copy can never clobber an
	// existing file, even one with the same name.
	AlwaysUniqueName
)

// Placer copies payload files into a destination directory according to a
// PlacementPolicy. The policy is explicit rather than scattered conditionals
// so the placement rule stays testable on its own.
type Placer struct {
	Dir   string
	IDGen IDGenerator
}

// Place copies src into the placer's directory and returns the final path.
// prefix is prepended to salted names under AlwaysUniqueName; it is ignored
// for SharedStableName.
func (p *Placer) Place(src string, policy PlacementPolicy, prefix string) (string, error) {
	base := filepath.Base(src)

	switch policy {
	case SharedStableName:
		dst := filepath.Join(p.Dir, base)
		if fsutil.Exists(dst) {
			return dst, nil
		}
		if err := fsutil.CopyFile(src, dst); err != nil {
			return "", err
		}
		return dst, nil

	case AlwaysUniqueName:
		for {
			dst := filepath.Join(p.Dir, prefix+p.salt()+"_"+base)
			if fsutil.Exists(dst) {
				continue
			}
			if err := fsutil.CopyFile(src, dst); err != nil {
				return "", err
			}
			return dst, nil
		}

	default:
		return "", fmt.Errorf("unknown placement policy: %d", policy)
	}
}

// salt returns a short random token for unique file names.
func (p *Placer) salt() string {
	id := p.IDGen.New()
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
