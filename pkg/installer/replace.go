package installer

import (
	"os"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// atomicReplaceDir swaps newPath into oldPath's place with rollback on
// failure, for bundle formats (macOS .app) where a single os.Rename
// across the new and old bundle isn't an option because newPath must
// first be validated as a full replacement of a directory tree at
// oldPath. The sequence is:
//
//  1. rename oldPath to a sibling temp name
//  2. rename newPath to oldPath
//  3. on failure of step 2, rename the sibling back to oldPath
//
// The sibling is removed once step 2 succeeds.
func atomicReplaceDir(oldPath, newPath string) error {
	sibling := uniqueSibling(oldPath, "old")

	if err := os.Rename(oldPath, sibling); err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to move aside the installed bundle", err)
	}

	if err := os.Rename(newPath, oldPath); err != nil {
		if rollbackErr := os.Rename(sibling, oldPath); rollbackErr != nil {
			return selferrors.Wrap(selferrors.Io, "failed to install new bundle and failed to roll back the original", rollbackErr)
		}
		return selferrors.Wrap(selferrors.Io, "failed to install new bundle, rolled back to the original", err)
	}

	if err := os.RemoveAll(sibling); err != nil {
		return selferrors.Wrap(selferrors.Io, "installed new bundle but failed to remove the old one", err)
	}
	return nil
}
