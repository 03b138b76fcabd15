package version

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/reelix-cli/reelix/color"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/style"
	"github.com/reelix-cli/reelix/util"
	"github.com/spf13/viper"
)

const checkTimeout = 3 * time.Second

// Notify prints an update notice to w when a newer release exists and
// cli.version_check is on.
func Notify(w io.Writer) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if a new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()

	if err != nil {
		log.Warnf("version check: %v", err)
		return
	}

	if notice, ok := updateNotice(latest, constant.Version); ok {
		_, _ = fmt.Fprint(w, notice)
	}
}

// updateNotice renders the notice when latest is newer than current.
func updateNotice(latest, current string) (string, bool) {
	comp, err := Compare(latest, current)
	if err != nil || comp <= 0 {
		return "", false
	}

	return fmt.Sprintf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", current)),
		style.Faint("https://github.com/"+constant.Repository+"/releases/tag/v"+latest),
	), true
}
