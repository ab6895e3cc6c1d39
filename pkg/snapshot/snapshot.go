// Package snapshot compares the JSON encoding of a value against a file under testdata/
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// Update rewrites existing snapshot files instead of comparing against them
var Update = os.Getenv("UPDATE_SNAPSHOTS") == "1"

var (
	lock  sync.Mutex
	calls = make(map[string]int)
)

// Validate compares obj against the next snapshot file for the running test
// A missing snapshot file is written and the comparison passes
func Validate(t *testing.T, obj interface{}, msgAndArgs ...interface{}) bool {
	t.Helper()

	filename := nextFilename(t)

	actual, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		t.Fatalf("could not encode snapshot: %v", err)
	}

	expected, err := os.ReadFile(filename)
	if os.IsNotExist(err) || Update {
		write(t, filename, actual)
		return true
	} else if err != nil {
		t.Fatalf("could not read snapshot %s: %v", filename, err)
	}

	if !assert.Equal(t, strings.TrimSpace(string(expected)), strings.TrimSpace(string(actual)), msgAndArgs...) {
		t.Logf("snapshot %s", filename)
		return false
	}

	return true
}

func nextFilename(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	lock.Lock()
	call := calls[name]
	calls[name] = call + 1
	lock.Unlock()

	return filepath.Join("testdata", fmt.Sprintf("%s-%d.json", name, call))
}

func write(t *testing.T, filename string, data []byte) {
	t.Helper()

	logrus.WithField("filename", filename).Info("writing snapshot file")

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		t.Fatalf("could not create snapshot directory: %v", err)
	}

	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		t.Fatalf("could not write snapshot %s: %v", filename, err)
	}
}
