package auth

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/zalando/go-keyring"
)

func TestToken(t *testing.T) {
	keyring.MockInit()

	Convey("Given a mocked keyring", t, func() {
		const server = "https://media.example.org"

		Convey("A missing token is empty", func() {
			token, err := GetToken(server)
			So(err, ShouldBeNil)
			So(token, ShouldBeEmpty)
		})

		Convey("A stored token round-trips and can be deleted", func() {
			So(SetToken(server, "abc"), ShouldBeNil)

			token, err := GetToken(server)
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "abc")

			So(DeleteToken(server), ShouldBeNil)
			So(DeleteToken(server), ShouldBeNil)

			token, _ = GetToken(server)
			So(token, ShouldBeEmpty)
		})
	})
}
