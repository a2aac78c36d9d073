package installer

import (
	"os"

	"github.com/flanksource/clicky/task"
)

// cleanupManager tracks temp files and directories created during an
// install so they can be removed once the strategy finishes, unless
// the caller asked for debug output to be preserved.
type cleanupManager struct {
	debug       bool
	files       []string
	directories []string
	task        *task.Task
}

func newCleanupManager(debug bool, t *task.Task) *cleanupManager {
	return &cleanupManager{debug: debug, task: t}
}

func (cm *cleanupManager) addFile(path string) {
	if path != "" {
		cm.files = append(cm.files, path)
	}
}

func (cm *cleanupManager) addDirectory(path string) {
	if path != "" {
		cm.directories = append(cm.directories, path)
	}
}

// cleanup removes everything tracked when the install succeeded and
// debug output wasn't requested. On failure (failed true) every
// tracked path is retained regardless of the debug flag, so a failed
// install leaves its temporary files behind for diagnosis per the
// common installer requirements.
func (cm *cleanupManager) cleanup(failed bool) {
	if cm.debug || failed {
		if cm.task != nil {
			for _, path := range append(append([]string{}, cm.files...), cm.directories...) {
				cm.task.Debugf("keeping temporary install file: %s", path)
			}
		}
		return
	}

	for _, dir := range cm.directories {
		if err := os.RemoveAll(dir); err != nil && cm.task != nil {
			cm.task.Debugf("failed to clean up directory %s: %v", dir, err)
		}
	}
	for _, file := range cm.files {
		if err := os.Remove(file); err != nil && cm.task != nil {
			cm.task.Debugf("failed to clean up file %s: %v", file, err)
		}
	}
}
