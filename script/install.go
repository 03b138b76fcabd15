package script

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/network"
)

// Install downloads the script at remoteURL to localPath. The file is
// replaced atomically, and only when its contents changed. The script is
// compiled before it is written, so a broken download never replaces a
// working hook.
func Install(ctx context.Context, remoteURL, localPath string) (updated bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("download %s: %s", remoteURL, resp.Status)
	}

	remote, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	if local, err := filesystem.API().ReadFile(localPath); err == nil && sha256.Sum256(local) == sha256.Sum256(remote) {
		return false, nil
	}

	tmp := localPath + ".tmp"
	if err := filesystem.API().WriteFile(tmp, remote, os.ModePerm); err != nil {
		return false, err
	}

	forget(tmp)
	if _, err := compile(tmp); err != nil {
		_ = filesystem.API().Remove(tmp)
		return false, fmt.Errorf("%s is not a valid script: %w", remoteURL, err)
	}
	forget(tmp)

	if err := filesystem.API().Rename(tmp, localPath); err != nil {
		_ = filesystem.API().Remove(tmp)
		return false, err
	}

	forget(localPath)
	return true, nil
}
