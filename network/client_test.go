package network

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reelix-cli/reelix/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSetup(t *testing.T) {
	Convey("Given network settings", t, func() {
		Convey("The server timeout is applied", func() {
			viper.Set(key.ServerTimeout, 7)
			viper.Set(key.NetworkTLSFingerprint, false)
			Setup()
			So(Client.Timeout, ShouldEqual, 7*time.Second)
			_, ok := Client.Transport.(*http.Transport)
			So(ok, ShouldBeTrue)
		})

		Convey("The fingerprint transport is installed on demand", func() {
			viper.Set(key.NetworkTLSFingerprint, true)
			Setup()
			_, ok := Client.Transport.(*FingerprintTransport)
			So(ok, ShouldBeTrue)
			viper.Set(key.NetworkTLSFingerprint, false)
			Setup()
		})
	})
}

func TestFingerprintTransport(t *testing.T) {
	Convey("Given a plain http server", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_, _ = w.Write([]byte(r.Method + ":" + string(body)))
		}))
		defer server.Close()

		Convey("Requests pass through the HTTP/1.1 transport", func() {
			client := &http.Client{Transport: NewFingerprintTransport()}
			resp, err := client.Post(server.URL, "text/plain", strings.NewReader("ping"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldEqual, "POST:ping")
		})
	})
}
