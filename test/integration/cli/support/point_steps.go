package support

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/hullrect/internal/pointset"
	"github.com/MeKo-Tech/hullrect/internal/testutil"
)

// RegisterPointSteps registers steps that prepare point-set files.
func (testCtx *TestContext) RegisterPointSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a point file "([^"]*)" with:$`, testCtx.aPointFileWith)
	sc.Step(`^the (square|triangle|diamond|collinear) fixture saved as "([^"]*)"$`, testCtx.theFixtureSavedAs)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aPointFileWith)
}

func (testCtx *TestContext) aPointFileWith(name string, content *godog.DocString) error {
	path := testCtx.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content.Content), 0o600)
}

func (testCtx *TestContext) theFixtureSavedAs(name, file string) error {
	for _, fx := range testutil.Fixtures() {
		if fx.Name != name {
			continue
		}
		path := testCtx.path(file)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		return pointset.SaveFile(path, &pointset.Set{Points: fx.Points})
	}
	return fmt.Errorf("unknown fixture %q", name)
}
