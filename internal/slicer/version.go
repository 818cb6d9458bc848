package slicer

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

var versionPattern = regexp.MustCompile(`(\d+\.\d+\.\d+(?:-\w+)?)`)

// ExtractVersion reads the slicer's main .conf file and extracts the
// application version. The file is JSON with a trailing "# MD5" checksum
// line appended by some slicer builds; the version lives either in the
// "header" field ("OrcaSlicer 2.3.1-beta") or under "app.version".
//
// Returns an error when the file is unreadable or no version is present;
// callers treat the version as best-effort and record it as unknown.
func ExtractVersion(confPath string) (string, error) {
	data, err := fileutil.ReadFileWithLimit(confPath)
	if err != nil {
		return "", err
	}

	content := string(data)
	if !strings.HasPrefix(strings.TrimSpace(content), "{") {
		return "", errors.Newf("%s: not a JSON config", confPath)
	}

	// Strip the checksum line some builds append after the JSON body.
	if idx := strings.Index(content, "# MD5"); idx >= 0 {
		content = content[:idx]
	}

	var conf struct {
		Header string `json:"header"`
		App    struct {
			Version string `json:"version"`
		} `json:"app"`
	}
	if err := json.Unmarshal([]byte(content), &conf); err != nil {
		return "", errors.Wrapf(err, "parsing %s", confPath)
	}

	if conf.Header != "" {
		if m := versionPattern.FindString(conf.Header); m != "" {
			return m, nil
		}
	}
	if conf.App.Version != "" {
		return conf.App.Version, nil
	}

	return "", errors.Newf("%s: no version found", confPath)
}
