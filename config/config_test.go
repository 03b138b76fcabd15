package config

import (
	"testing"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSetup(t *testing.T) {
	filesystem.SetMemMapFs()

	Convey("Given a fresh configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Every registered key has its default value", func() {
			for name, field := range Default {
				So(viper.Get(name), ShouldResemble, field.Value)
			}
		})

		Convey("Environment names carry the REELIX prefix", func() {
			field := Default[key.PlaybackMaxBitrate]
			So(field.Env(), ShouldEqual, "REELIX_PLAYBACK_MAX_BITRATE")
		})

		Convey("Environment variables override defaults", func() {
			t.Setenv("REELIX_PLAYBACK_REPEAT", "all")
			So(viper.GetString(key.PlaybackRepeat), ShouldEqual, "all")
		})

		Convey("A device id is generated once and reused", func() {
			viper.Set(key.ServerDeviceID, "")
			first := DeviceID()
			So(first, ShouldNotBeEmpty)
			So(DeviceID(), ShouldEqual, first)
		})
	})
}
