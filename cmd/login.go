package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/reelix-cli/reelix/auth"
	"github.com/reelix-cli/reelix/color"
	"github.com/reelix-cli/reelix/config"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connect returns a client for the configured server. Unless anonymous is
// set, a stored access token is required.
func connect(anonymous bool) (*mediaserver.Client, error) {
	serverURL := viper.GetString(key.ServerURL)
	if serverURL == "" {
		if anonymous {
			return mediaserver.New("", "", "", config.DeviceID()), nil
		}
		return nil, fmt.Errorf("server url is not set, run \"reelix login\": %w", mediaserver.ErrNotAuthenticated)
	}

	token, err := auth.GetToken(serverURL)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token == "" && !anonymous {
		return nil, mediaserver.ErrNotAuthenticated
	}

	return mediaserver.New(serverURL, viper.GetString(key.ServerUserID), token, config.DeviceID()), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("server", "s", "", "Media server URL")
	loginCmd.Flags().StringP("user", "u", "", "User name")
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a media server and store the access token in the keyring",
	Run: func(cmd *cobra.Command, args []string) {
		serverURL := lo.CoalesceOrEmpty(lo.Must(cmd.Flags().GetString("server")), viper.GetString(key.ServerURL))
		user := lo.CoalesceOrEmpty(lo.Must(cmd.Flags().GetString("user")), viper.GetString(key.ServerUser))
		password := lo.Must(cmd.Flags().GetString("password"))

		if serverURL == "" {
			handleErr(survey.AskOne(&survey.Input{
				Message: "Media server URL:",
				Help:    "e.g. https://media.example.org",
			}, &serverURL, survey.WithValidator(survey.Required)))
		}

		if user == "" {
			handleErr(survey.AskOne(&survey.Input{Message: "User:"}, &user, survey.WithValidator(survey.Required)))
		}

		if password == "" {
			handleErr(survey.AskOne(&survey.Password{Message: "Password:"}, &password))
		}

		serverURL = strings.TrimRight(serverURL, "/")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := mediaserver.New(serverURL, "", "", config.DeviceID())
		result, err := client.AuthenticateByName(ctx, user, password)
		handleErr(err)

		handleErr(auth.SetToken(serverURL, result.AccessToken))

		viper.Set(key.ServerURL, serverURL)
		viper.Set(key.ServerUser, user)
		viper.Set(key.ServerUserID, result.User.ID)
		viper.Set(key.ServerDeviceID, config.DeviceID())
		handleErr(writeConfig())

		log.Infof("signed in to %s as %s", serverURL, result.User.Name)
		fmt.Printf(
			"%s signed in to %s as %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(serverURL),
			style.Fg(color.Yellow)(result.User.Name),
		)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the access token of the configured server",
	Run: func(cmd *cobra.Command, args []string) {
		serverURL := viper.GetString(key.ServerURL)
		if serverURL == "" {
			handleErr(errors.New("no server configured"))
		}

		handleErr(auth.DeleteToken(serverURL))

		viper.Set(key.ServerUserID, "")
		handleErr(writeConfig())

		fmt.Printf("%s signed out of %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), serverURL)
	},
}
