package query

import (
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuery(t *testing.T) {
	Convey("Given remembered searches", t, func() {
		viper.Set(key.SearchQuerySuggestions, true)

		So(Remember("  The Expanse ", 1), ShouldBeNil)
		So(Remember("the expert", 1), ShouldBeNil)
		So(Remember("The Expanse", 2), ShouldBeNil)
		So(Remember("   ", 5), ShouldBeNil)

		Convey("Suggestions match fuzzily, most frequent first", func() {
			So(SuggestMany("exp"), ShouldResemble, []string{"the expanse", "the expert"})
			So(Suggest("EXPER").MustGet(), ShouldEqual, "the expert")
		})

		Convey("Nothing matches an unrelated search", func() {
			So(Suggest("zzz").IsAbsent(), ShouldBeTrue)
		})

		Convey("Suggestions can be turned off", func() {
			viper.Set(key.SearchQuerySuggestions, false)
			So(SuggestMany("exp"), ShouldBeEmpty)
		})
	})
}
