package constant

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRepository(t *testing.T) {
	Convey("The repository is an owner/name pair ending in the app name", t, func() {
		owner, name, ok := strings.Cut(Repository, "/")
		So(ok, ShouldBeTrue)
		So(owner, ShouldNotBeEmpty)
		So(name, ShouldEqual, Reelix)
	})
}
