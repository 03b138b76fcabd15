package where

import (
	"path/filepath"
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Given the path resolvers", t, func() {
		Convey("Directories are created on demand", func() {
			for _, dir := range []string{Config(), Cache(), Logs(), Scripts(), Temp()} {
				So(dir, ShouldNotBeEmpty)
				So(lo.Must(filesystem.API().IsDir(dir)), ShouldBeTrue)
			}
		})

		Convey("Cache files live under the cache directory", func() {
			So(filepath.Dir(Chapters()), ShouldEqual, Cache())
			So(filepath.Dir(ItemTypes()), ShouldEqual, Cache())
			So(filepath.Dir(Queries()), ShouldEqual, Cache())
		})

		Convey("REELIX_CONFIG_PATH overrides the config directory", func() {
			t.Setenv(EnvConfigPath, "/custom/reelix")
			So(Config(), ShouldEqual, "/custom/reelix")
			So(History(), ShouldEqual, filepath.Join("/custom/reelix", "history.json"))
		})
	})
}
