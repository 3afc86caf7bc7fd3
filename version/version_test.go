package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	v := Current()
	if v.String() != "0.8.0" {
		t.Errorf("unexpected version: %s", v)
	}
}

func TestPrintLicenses(t *testing.T) {
	var buffer strings.Builder
	PrintLicenses(&buffer)
	for _, name := range []string{"zap:\n", "go-json:\n", "getopt:\n"} {
		if !strings.Contains(buffer.String(), name) {
			t.Errorf("license of %q is missing", name)
		}
	}
}
